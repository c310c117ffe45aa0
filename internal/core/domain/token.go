package domain

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	TokenTypeNative TokenType = iota
	TokenTypeERC20
	TokenTypeERC721
	TokenTypeERC1155
)

func (t TokenType) String() string {
	switch t {
	case TokenTypeNative:
		return "NATIVE"
	case TokenTypeERC20:
		return "ERC20"
	case TokenTypeERC721:
		return "ERC721"
	case TokenTypeERC1155:
		return "ERC1155"
	default:
		return "UNKNOWN"
	}
}

// IsNFT reports whether approval is granted per operator rather than per amount.
func (t TokenType) IsNFT() bool {
	return t == TokenTypeERC721 || t == TokenTypeERC1155
}

// NativeDecimals is the base-unit scale of the native asset.
const NativeDecimals = 18

// Token identifies an asset both on-chain and in the rollup token index space.
type Token struct {
	TokenIndex      uint32    `json:"token_index"`
	TokenType       TokenType `json:"token_type"`
	ContractAddress string    `json:"contract_address"`
	// TokenID is the NFT id for ERC721/ERC1155 tokens.
	TokenID  string `json:"token_id,omitempty"`
	Decimals *int   `json:"decimals,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
}

// TokenBalance is a balance entry reported by the proving module.
type TokenBalance struct {
	TokenIndex     uint32 `json:"token_index"`
	Amount         string `json:"amount"`
	IsInsufficient bool   `json:"is_insufficient"`
}

// ParseTokenType accepts the names printed by String, case-insensitively.
func ParseTokenType(s string) (TokenType, error) {
	for _, t := range []TokenType{TokenTypeNative, TokenTypeERC20, TokenTypeERC721, TokenTypeERC1155} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown token type %q", s)
}
