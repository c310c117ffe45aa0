package evm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

// ReceiptWatcher polls for a receipt until it lands or the timeout passes.
type ReceiptWatcher struct {
	backend  Backend
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

func NewReceiptWatcher(backend Backend, interval, timeout time.Duration) *ReceiptWatcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &ReceiptWatcher{
		backend:  backend,
		interval: interval,
		timeout:  timeout,
		log:      slog.Default().With("component", "receipt-watcher"),
	}
}

// Wait returns completed for a successful receipt and rejected for a reverted one.
// Exceeding the timeout yields domain.ErrConfirmationTimeout.
func (w *ReceiptWatcher) Wait(ctx context.Context, hash common.Hash) (domain.TransactionStatus, *types.Receipt, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		receipt, err := w.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusSuccessful {
				return domain.TxStatusCompleted, receipt, nil
			}
			return domain.TxStatusRejected, receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil:
			w.log.Warn("Receipt query failed", "hash", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return domain.TxStatusProcessing, nil, domain.NewError(
					domain.ErrConfirmationTimeout,
					"wait receipt",
					fmt.Sprintf("transaction %s not confirmed", hash.Hex()),
					ctx.Err(),
				)
			}
			return domain.TxStatusProcessing, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
