// Package chain holds the settlement-chain facing side of the client.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

// Adapter is the settlement-chain surface used by deposits and claims.
// evm.Client is the only implementation.
type Adapter interface {
	// Allowance returns the ERC20 allowance granted by owner to spender.
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// IsApprovedForAll reports whether operator may move every NFT of owner.
	IsApprovedForAll(ctx context.Context, token, owner, operator common.Address) (bool, error)

	// PackDeposit builds the liquidity-contract call for a deposit.
	// value is the native amount to attach.
	PackDeposit(spec domain.DepositSpec) (data []byte, value *big.Int, err error)

	// PackClaimWithdrawals builds the liquidity-contract claim call.
	PackClaimWithdrawals(ws []domain.ContractWithdrawal) ([]byte, error)

	// ClaimableWithdrawals checks each withdrawal hash against the liquidity contract.
	ClaimableWithdrawals(ctx context.Context, hashes []common.Hash) ([]bool, error)

	// EstimateGas estimates a call from from to to.
	EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error)

	// GasPrice returns the suggested legacy gas price.
	GasPrice(ctx context.Context) (*big.Int, error)

	// LiquidityContract returns the address deposits and claims are sent to.
	LiquidityContract() common.Address
}
