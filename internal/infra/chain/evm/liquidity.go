package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

var claimableArgs = abi.Arguments{{Type: mustType("uint256")}}

type withdrawalArg struct {
	Recipient  common.Address
	TokenIndex uint32
	Amount     *big.Int
	Nullifier  [32]byte
}

type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type call3Result struct {
	Success    bool
	ReturnData []byte
}

// PackDeposit selects the liquidity entry point by token type.
func (c *Client) PackDeposit(spec domain.DepositSpec) ([]byte, *big.Int, error) {
	aml, elig := spec.AMLPermission, spec.EligibilityPermission
	if elig == nil {
		elig = []byte{}
	}
	amount := spec.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	tokenID := spec.TokenID
	if tokenID == nil {
		tokenID = big.NewInt(0)
	}
	token := common.HexToAddress(spec.TokenAddress)

	var (
		data  []byte
		value = big.NewInt(0)
		err   error
	)
	switch spec.TokenType {
	case domain.TokenTypeNative:
		data, err = liquidityABI.Pack("depositNativeToken", spec.RecipientSaltHash, aml, elig)
		value = amount
	case domain.TokenTypeERC20:
		data, err = liquidityABI.Pack("depositERC20", token, spec.RecipientSaltHash, amount, aml, elig)
	case domain.TokenTypeERC721:
		data, err = liquidityABI.Pack("depositERC721", token, spec.RecipientSaltHash, tokenID, aml, elig)
	case domain.TokenTypeERC1155:
		data, err = liquidityABI.Pack("depositERC1155", token, spec.RecipientSaltHash, tokenID, amount, aml, elig)
	default:
		return nil, nil, fmt.Errorf("unsupported token type %d", spec.TokenType)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("pack deposit %s: %w", spec.TokenType, err)
	}
	return data, value, nil
}

func (c *Client) PackClaimWithdrawals(ws []domain.ContractWithdrawal) ([]byte, error) {
	args := make([]withdrawalArg, 0, len(ws))
	for _, w := range ws {
		arg, err := toWithdrawalArg(w)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	data, err := liquidityABI.Pack("claimWithdrawals", args)
	if err != nil {
		return nil, fmt.Errorf("pack claimWithdrawals: %w", err)
	}
	return data, nil
}

// ClaimableWithdrawals batches claimableWithdrawals(hash) through Multicall3.
// A failed sub-call or a zero result is reported as not claimable.
func (c *Client) ClaimableWithdrawals(ctx context.Context, hashes []common.Hash) ([]bool, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	calls := make([]call3, len(hashes))
	for i, h := range hashes {
		data, err := liquidityABI.Pack("claimableWithdrawals", h)
		if err != nil {
			return nil, fmt.Errorf("pack claimableWithdrawals: %w", err)
		}
		calls[i] = call3{Target: c.liquidity, AllowFailure: true, CallData: data}
	}

	input, err := multicall3ABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate3: %w", err)
	}
	to := Multicall3Address
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("multicall: %w", err)
	}
	values, err := multicall3ABI.Unpack("aggregate3", out)
	if err != nil {
		return nil, fmt.Errorf("unpack aggregate3: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("aggregate3 returned no values")
	}
	results := *abi.ConvertType(values[0], new([]call3Result)).(*[]call3Result)
	if len(results) != len(hashes) {
		return nil, fmt.Errorf("aggregate3 returned %d results for %d calls", len(results), len(hashes))
	}

	claimable := make([]bool, len(results))
	for i, r := range results {
		if !r.Success {
			continue
		}
		decoded, err := claimableArgs.Unpack(r.ReturnData)
		if err != nil || len(decoded) == 0 {
			c.log.Debug("Undecodable claimable result", "hash", hashes[i].Hex(), "error", err)
			continue
		}
		if v, ok := decoded[0].(*big.Int); ok && v.Sign() != 0 {
			claimable[i] = true
		}
	}
	return claimable, nil
}

// WithdrawHash is keccak256(abi.encodePacked(recipient, tokenIndex, amount, nullifier)).
func WithdrawHash(w domain.ContractWithdrawal) (common.Hash, error) {
	arg, err := toWithdrawalArg(w)
	if err != nil {
		return common.Hash{}, err
	}
	var tokenIndex [4]byte
	big.NewInt(int64(arg.TokenIndex)).FillBytes(tokenIndex[:])
	var amount [32]byte
	arg.Amount.FillBytes(amount[:])

	return crypto.Keccak256Hash(arg.Recipient.Bytes(), tokenIndex[:], amount[:], arg.Nullifier[:]), nil
}

func toWithdrawalArg(w domain.ContractWithdrawal) (withdrawalArg, error) {
	if !common.IsHexAddress(w.Recipient) {
		return withdrawalArg{}, fmt.Errorf("invalid withdrawal recipient %q", w.Recipient)
	}
	amount, ok := new(big.Int).SetString(w.Amount, 10)
	if !ok || amount.Sign() < 0 || amount.BitLen() > 256 {
		return withdrawalArg{}, fmt.Errorf("invalid withdrawal amount %q", w.Amount)
	}
	nullifier, err := parseBytes32(w.Nullifier)
	if err != nil {
		return withdrawalArg{}, fmt.Errorf("invalid nullifier: %w", err)
	}
	return withdrawalArg{
		Recipient:  common.HexToAddress(w.Recipient),
		TokenIndex: w.TokenIndex,
		Amount:     amount,
		Nullifier:  nullifier,
	}, nil
}

func parseBytes32(s string) ([32]byte, error) {
	var out [32]byte
	b := common.FromHex(s)
	if len(b) > 32 || (len(b) == 0 && strings.TrimPrefix(s, "0x") != "") {
		return out, fmt.Errorf("bad bytes32 %q", s)
	}
	copy(out[32-len(b):], b)
	return out, nil
}
