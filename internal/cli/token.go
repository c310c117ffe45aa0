package cli

import (
	"github.com/spf13/cobra"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

type tokenFlags struct {
	index    uint32
	kind     string
	address  string
	tokenID  string
	decimals int
	symbol   string
}

func (f *tokenFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint32Var(&f.index, "token-index", 0, "rollup token index")
	cmd.Flags().StringVar(&f.kind, "token-type", "native", "native, erc20, erc721 or erc1155")
	cmd.Flags().StringVar(&f.address, "token-address", "", "token contract address")
	cmd.Flags().StringVar(&f.tokenID, "token-id", "", "NFT id")
	cmd.Flags().IntVar(&f.decimals, "decimals", -1, "token decimals (default: 18 for native, on-chain for erc20)")
	cmd.Flags().StringVar(&f.symbol, "symbol", "", "token symbol")
}

func (f *tokenFlags) token() (domain.Token, error) {
	kind, err := domain.ParseTokenType(f.kind)
	if err != nil {
		return domain.Token{}, err
	}
	t := domain.Token{
		TokenIndex:      f.index,
		TokenType:       kind,
		ContractAddress: f.address,
		TokenID:         f.tokenID,
		Symbol:          f.symbol,
	}
	switch {
	case f.decimals >= 0:
		d := f.decimals
		t.Decimals = &d
	case kind == domain.TokenTypeNative:
		d := domain.NativeDecimals
		t.Decimals = &d
	}
	return t, nil
}
