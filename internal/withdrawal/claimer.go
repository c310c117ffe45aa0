package withdrawal

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/chain/evm"
)

type ClaimChain interface {
	PackClaimWithdrawals(ws []domain.ContractWithdrawal) ([]byte, error)
	Transact(ctx context.Context, signer evm.Signer, to common.Address, data []byte, value *big.Int) (common.Hash, error)
	LiquidityContract() common.Address
}

type ReceiptWaiter interface {
	Wait(ctx context.Context, hash common.Hash) (domain.TransactionStatus, *types.Receipt, error)
}

// Claimer submits claimWithdrawals for the wallet's own withdrawals.
type Claimer struct {
	chain    ClaimChain
	receipts ReceiptWaiter
	signer   evm.Signer
	log      *slog.Logger
}

func NewClaimer(chain ClaimChain, receipts ReceiptWaiter, signer evm.Signer) *Claimer {
	return &Claimer{
		chain:    chain,
		receipts: receipts,
		signer:   signer,
		log:      slog.Default().With("component", "claimer"),
	}
}

// Claim keeps the withdrawals addressed to the signer and claims them in
// one transaction. Chain errors are logged and returned unchanged.
func (c *Claimer) Claim(ctx context.Context, ws []domain.ContractWithdrawal) (*domain.ClaimResult, error) {
	own := OwnedBy(ws, c.signer.Address())
	if len(own) == 0 {
		return nil, domain.NewError(domain.ErrNoWithdrawalsToClaim, "claim", domain.MsgNothingToClaim, nil)
	}

	data, err := c.chain.PackClaimWithdrawals(own)
	if err != nil {
		return nil, err
	}
	hash, err := c.chain.Transact(ctx, c.signer, c.chain.LiquidityContract(), data, nil)
	if err != nil {
		c.log.Error("Claim transaction failed", "error", err)
		return nil, err
	}
	c.log.Info("Claim sent", "hash", hash.Hex(), "withdrawals", len(own))

	start := time.Now()
	status, _, err := c.receipts.Wait(ctx, hash)
	if err != nil {
		c.log.Error("Claim confirmation failed", "hash", hash.Hex(), "error", err)
		return &domain.ClaimResult{TxHash: hash.Hex(), Status: domain.TxStatusProcessing}, err
	}
	if status == domain.TxStatusRejected {
		c.log.Error("Claim rejected", "hash", hash.Hex())
		return &domain.ClaimResult{TxHash: hash.Hex(), Status: status},
			domain.NewError(domain.ErrTransactionRejected, "claim", "Transaction rejected", nil)
	}
	c.log.Info("Claim confirmed", "hash", hash.Hex(), "duration", time.Since(start))
	return &domain.ClaimResult{TxHash: hash.Hex(), Status: domain.TxStatusCompleted}, nil
}

// OwnedBy filters ws to entries whose recipient is addr, ignoring case.
func OwnedBy(ws []domain.ContractWithdrawal, addr common.Address) []domain.ContractWithdrawal {
	out := make([]domain.ContractWithdrawal, 0, len(ws))
	for _, w := range ws {
		if strings.EqualFold(w.Recipient, addr.Hex()) {
			out = append(out, w)
		}
	}
	return out
}
