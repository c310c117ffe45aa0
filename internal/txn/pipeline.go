// Package txn submits rollup transfers and withdrawals to a block builder.
package txn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/prover"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/routing"
	"github.com/bertankofon/intmax2-client-sdk/internal/metrics"
)

const feeTokenIndex uint32 = 0

// Prover is the part of the proving module used by the pipeline.
type Prover interface {
	GenerateWithdrawalTransfers(ctx context.Context, transfer domain.TransferRequest, feeTokenIndex uint32, withClaimFee bool) (*domain.WithdrawalTransfers, error)
	GenerateFeePaymentMemo(ctx context.Context, transfers []domain.TransferRequest, withdrawalFeeIndex, claimFeeIndex *int) (json.RawMessage, error)
	AwaitTxSendable(ctx context.Context, viewKey string, transfers []domain.TransferRequest, fee *domain.FeeQuote) error
	SendTxRequest(ctx context.Context, req prover.SendTxRequest) (*domain.TxMemo, error)
	QueryAndFinalize(ctx context.Context, builderURL, keyPair string, memo *domain.TxMemo) (*domain.TxResult, error)
	SyncClaims(ctx context.Context, viewKey, beneficiary string, feeTokenIndex uint32) error
	SyncWithdrawals(ctx context.Context, viewKey string, feeTokenIndex uint32) error
}

type Session interface {
	View() domain.SessionView
	PrivateKey(ctx context.Context) (string, error)
}

type FeeQuoter interface {
	TransferFee(ctx context.Context) (*domain.FeeQuote, error)
}

type BuilderLocator interface {
	URL(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Config holds the withdrawal post-processing delays.
type Config struct {
	SettleDelay    time.Duration
	ClaimDelay     time.Duration
	WithdrawalSync routing.RetryConfig
}

var DefaultConfig = Config{
	SettleDelay:    40 * time.Second,
	ClaimDelay:     40 * time.Second,
	WithdrawalSync: routing.DefaultRetryConfig,
}

// Pipeline runs one broadcast per call. Concurrent broadcasts on the same
// account must be serialized by the caller.
type Pipeline struct {
	prover   Prover
	session  Session
	fees     FeeQuoter
	builders BuilderLocator
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
	log      *slog.Logger
}

func NewPipeline(p Prover, session Session, fees FeeQuoter, builders BuilderLocator, cfg Config) *Pipeline {
	return &Pipeline{
		prover:   p,
		session:  session,
		fees:     fees,
		builders: builders,
		cfg:      cfg,
		sleep:    sleepCtx,
		log:      slog.Default().With("component", "txn"),
	}
}

// Transfer sends rollup transfers. Recipients must be rollup identities.
func (p *Pipeline) Transfer(ctx context.Context, transfers []domain.BroadcastTransfer) (*domain.TxResult, error) {
	return p.Broadcast(ctx, transfers, false)
}

// Withdraw sends a single withdrawal to an on-chain address.
func (p *Pipeline) Withdraw(ctx context.Context, w domain.BroadcastTransfer) (*domain.TxResult, error) {
	return p.Broadcast(ctx, []domain.BroadcastTransfer{w}, true)
}

// Broadcast validates, quotes, submits and finalizes a transfer set.
//
// For withdrawals a non-nil result may be returned together with an error
// when post-finalization claim or withdrawal sync fails.
func (p *Pipeline) Broadcast(ctx context.Context, raw []domain.BroadcastTransfer, isWithdrawal bool) (*domain.TxResult, error) {
	kind := "transfer"
	if isWithdrawal {
		kind = "withdrawal"
	}
	runID := uuid.NewString()
	log := p.log.With("run_id", runID, "kind", kind)

	res, err := p.broadcast(ctx, log, raw, isWithdrawal)
	switch {
	case res == nil:
		metrics.BroadcastsTotal.WithLabelValues(kind, "failed").Inc()
	case err != nil:
		metrics.BroadcastsTotal.WithLabelValues(kind, "post_processing_failed").Inc()
	default:
		metrics.BroadcastsTotal.WithLabelValues(kind, "success").Inc()
	}
	return res, err
}

func (p *Pipeline) broadcast(ctx context.Context, log *slog.Logger, raw []domain.BroadcastTransfer, isWithdrawal bool) (*domain.TxResult, error) {
	view := p.session.View()
	if !view.Authenticated {
		return nil, domain.NotLoggedIn("broadcast")
	}
	transfers, err := normalize(raw, isWithdrawal)
	if err != nil {
		return nil, err
	}
	keyPair, err := p.session.PrivateKey(ctx)
	if err != nil {
		log.Error("Key pair unavailable", "error", err)
		return nil, domain.NewError(domain.ErrAuthentication, "broadcast", "No private key found", err)
	}

	memo, builderURL, submitted, err := p.submit(ctx, log, view, keyPair, transfers, isWithdrawal)
	if err != nil {
		log.Error("Submission failed", "error", err)
		return nil, domain.NewError(domain.ErrSubmissionFailed, "broadcast", domain.MsgSendFailed, err)
	}

	start := time.Now()
	res, err := p.prover.QueryAndFinalize(ctx, builderURL, keyPair, memo)
	observe("finalize", start)
	if err != nil {
		log.Error("Finalization failed", "error", err)
		return nil, domain.NewError(domain.ErrFinalization, "broadcast", domain.MsgFinalizeFailed, err)
	}
	if len(res.TransferDigests) != len(submitted) {
		log.Warn("Digest count differs from submitted transfers", "digests", len(res.TransferDigests), "transfers", len(submitted))
	}
	if _, err := p.builders.Refresh(ctx); err != nil {
		log.Warn("Block builder refresh failed", "error", err)
	}
	log.Info("Transaction finalized", "tx_tree_root", res.TxTreeRoot, "transfers", len(submitted))

	if !isWithdrawal {
		return res, nil
	}
	return res, p.afterWithdrawal(ctx, log, view.ViewKey, raw[0].ClaimBeneficiary)
}

// submit covers quoting through submission. Every failure here is reported
// to the caller as one submission error.
func (p *Pipeline) submit(
	ctx context.Context,
	log *slog.Logger,
	view domain.SessionView,
	keyPair string,
	transfers []domain.TransferRequest,
	isWithdrawal bool,
) (*domain.TxMemo, string, []domain.TransferRequest, error) {
	start := time.Now()
	quote, err := p.fees.TransferFee(ctx)
	observe("quote", start)
	if err != nil {
		return nil, "", nil, err
	}

	submitted := transfers
	var feeTransfers []domain.TransferRequest
	var withdrawalFeeIdx, claimFeeIdx *int
	if isWithdrawal {
		start = time.Now()
		wt, err := p.prover.GenerateWithdrawalTransfers(ctx, transfers[0], feeTokenIndex, true)
		observe("withdrawal_transfers", start)
		if err != nil {
			return nil, "", nil, fmt.Errorf("generate withdrawal transfers: %w", err)
		}
		if wt == nil || len(wt.TransferRequests) == 0 {
			return nil, "", nil, errors.New("generate withdrawal transfers: empty transfer set")
		}
		submitted = wt.TransferRequests
		feeTransfers = wt.TransferRequests
		withdrawalFeeIdx, claimFeeIdx = wt.WithdrawalFeeTransferIndex, wt.ClaimFeeTransferIndex
		log.Debug("Withdrawal transfer set generated", "transfers", len(submitted))
	}

	start = time.Now()
	err = p.prover.AwaitTxSendable(ctx, view.ViewKey, submitted, quote)
	observe("sendable", start)
	if err != nil {
		return nil, "", nil, fmt.Errorf("await sendable: %w", err)
	}

	builderURL, err := p.builders.URL(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	memos, err := p.prover.GenerateFeePaymentMemo(ctx, feeTransfers, withdrawalFeeIdx, claimFeeIdx)
	if err != nil {
		return nil, "", nil, fmt.Errorf("fee payment memo: %w", err)
	}

	start = time.Now()
	memo, err := p.prover.SendTxRequest(ctx, prover.SendTxRequest{
		BuilderURL:   builderURL,
		KeyPair:      keyPair,
		Transfers:    submitted,
		PaymentMemos: memos,
		Fee:          quote,
	})
	observe("send", start)
	if err != nil {
		return nil, "", nil, fmt.Errorf("send tx request: %w", err)
	}
	if memo == nil {
		return nil, "", nil, errors.New("send tx request: no memo")
	}
	log.Info("Transaction sent", "builder", builderURL, "transfers", len(submitted))
	return memo, builderURL, submitted, nil
}

// afterWithdrawal lets the withdrawal propagate, syncs claims for the
// beneficiary and then syncs withdrawal status with bounded retry.
func (p *Pipeline) afterWithdrawal(ctx context.Context, log *slog.Logger, viewKey, beneficiary string) error {
	if err := p.sleep(ctx, p.cfg.SettleDelay); err != nil {
		return err
	}
	if beneficiary != "" {
		if err := p.prover.SyncClaims(ctx, viewKey, beneficiary, feeTokenIndex); err != nil {
			log.Error("Claim sync failed", "beneficiary", beneficiary, "error", err)
			return fmt.Errorf("sync claims: %w", err)
		}
	}
	if err := p.sleep(ctx, p.cfg.ClaimDelay); err != nil {
		return err
	}
	err := routing.Retry(ctx, p.cfg.WithdrawalSync, func(ctx context.Context) error {
		return p.prover.SyncWithdrawals(ctx, viewKey, feeTokenIndex)
	})
	if err != nil {
		log.Error("Withdrawal sync failed", "error", err)
		return fmt.Errorf("sync withdrawals: %w", err)
	}
	return nil
}

// normalize converts display amounts into base units and checks the
// recipient address space. It makes no network calls.
func normalize(raw []domain.BroadcastTransfer, isWithdrawal bool) ([]domain.TransferRequest, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("broadcast: %w: no transfers", domain.ErrInvalidAmount)
	}
	if isWithdrawal && len(raw) != 1 {
		return nil, fmt.Errorf("broadcast: a withdrawal carries exactly one transfer, got %d", len(raw))
	}
	out := make([]domain.TransferRequest, len(raw))
	for i, t := range raw {
		onChain := common.IsHexAddress(t.Address)
		if isWithdrawal && !onChain {
			return nil, domain.NewError(domain.ErrInvalidWithdrawAddress, "broadcast", "Invalid address to withdraw", nil)
		}
		if !isWithdrawal && onChain {
			return nil, domain.NewError(domain.ErrInvalidTransferAddress, "broadcast", "Invalid address to transfer", nil)
		}

		decimals := 0
		if t.Token.Decimals != nil {
			decimals = *t.Token.Decimals
		}
		amount, err := domain.ParseUnits(t.Amount, decimals)
		if err != nil {
			return nil, err
		}
		out[i] = domain.TransferRequest{
			Recipient:  t.Address,
			TokenIndex: t.Token.TokenIndex,
			Amount:     amount.String(),
		}
	}
	return out, nil
}

func observe(stage string, start time.Time) {
	metrics.BroadcastStageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
