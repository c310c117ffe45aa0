package txn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/prover"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/routing"
)

const withdrawTo = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

type fakeProver struct {
	calls int

	withdrawalSet []domain.TransferRequest
	sendableErr   error
	finalizeErr   error
	claimErr      error
	syncFailures  int

	sendable   []domain.TransferRequest
	feeMemoIn  []domain.TransferRequest
	sent       *prover.SendTxRequest
	claimedFor string
	syncs      int
}

func (f *fakeProver) GenerateWithdrawalTransfers(_ context.Context, t domain.TransferRequest, _ uint32, withClaim bool) (*domain.WithdrawalTransfers, error) {
	f.calls++
	feeIdx, claimIdx := 1, 2
	set := append([]domain.TransferRequest{t}, f.withdrawalSet...)
	return &domain.WithdrawalTransfers{
		TransferRequests:           set,
		WithdrawalFeeTransferIndex: &feeIdx,
		ClaimFeeTransferIndex:      &claimIdx,
	}, nil
}

func (f *fakeProver) GenerateFeePaymentMemo(_ context.Context, ts []domain.TransferRequest, _, _ *int) (json.RawMessage, error) {
	f.calls++
	f.feeMemoIn = ts
	return json.RawMessage(`[]`), nil
}

func (f *fakeProver) AwaitTxSendable(_ context.Context, _ string, ts []domain.TransferRequest, _ *domain.FeeQuote) error {
	f.calls++
	f.sendable = ts
	return f.sendableErr
}

func (f *fakeProver) SendTxRequest(_ context.Context, req prover.SendTxRequest) (*domain.TxMemo, error) {
	f.calls++
	f.sent = &req
	return domain.NewTxMemo(json.RawMessage(`{"memo":1}`)), nil
}

func (f *fakeProver) QueryAndFinalize(_ context.Context, _, _ string, memo *domain.TxMemo) (*domain.TxResult, error) {
	f.calls++
	if _, ok := memo.Take(); !ok {
		return nil, errors.New("memo reused")
	}
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	digests := make([]string, len(f.sent.Transfers))
	for i := range digests {
		digests[i] = fmt.Sprintf("0x%02x", i)
	}
	return &domain.TxResult{TxTreeRoot: "0xroot", TransferDigests: digests}, nil
}

func (f *fakeProver) SyncClaims(_ context.Context, _, beneficiary string, _ uint32) error {
	f.calls++
	f.claimedFor = beneficiary
	return f.claimErr
}

func (f *fakeProver) SyncWithdrawals(context.Context, string, uint32) error {
	f.calls++
	f.syncs++
	if f.syncs <= f.syncFailures {
		return errors.New("withdrawal server busy")
	}
	return nil
}

type fakeSession struct {
	view     domain.SessionView
	keyCalls int
}

func (s *fakeSession) View() domain.SessionView { return s.view }

func (s *fakeSession) PrivateKey(context.Context) (string, error) {
	s.keyCalls++
	return "0xkeypair", nil
}

type fakeFees struct{ calls int }

func (f *fakeFees) TransferFee(context.Context) (*domain.FeeQuote, error) {
	f.calls++
	return &domain.FeeQuote{Beneficiary: "0xfee", Fee: &domain.Fee{Amount: "10"}}, nil
}

type fakeBuilders struct{ refreshes int }

func (b *fakeBuilders) URL(context.Context) (string, error) { return "https://builder", nil }

func (b *fakeBuilders) Refresh(context.Context) (string, error) {
	b.refreshes++
	return "", errors.New("indexer down")
}

type harness struct {
	pipeline *Pipeline
	prover   *fakeProver
	session  *fakeSession
	fees     *fakeFees
	builders *fakeBuilders
	sleeps   []time.Duration
}

func newHarness() *harness {
	h := &harness{
		prover:   &fakeProver{},
		session:  &fakeSession{view: domain.SessionView{Authenticated: true, ViewKey: "0xview"}},
		fees:     &fakeFees{},
		builders: &fakeBuilders{},
	}
	cfg := Config{
		SettleDelay:    40 * time.Second,
		ClaimDelay:     30 * time.Second,
		WithdrawalSync: routing.RetryConfig{MaxAttempts: 5, Delay: time.Millisecond},
	}
	h.pipeline = NewPipeline(h.prover, h.session, h.fees, h.builders, cfg)
	h.pipeline.sleep = func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}
	return h
}

func decimals(n int) *int { return &n }

func TestTransferNormalizesAmounts(t *testing.T) {
	h := newHarness()
	res, err := h.pipeline.Transfer(context.Background(), []domain.BroadcastTransfer{
		{Address: "T6ubiG36LmNce6uzcJU3h5JR5FWa72jBBLUGmEPx5VXcFtvXnBB3bqice6uzcJU3h5JR5FWa72jBBLUGmEPx5VXcB3prnCZ", Token: domain.Token{TokenIndex: 2, Decimals: decimals(6)}, Amount: "1.5"},
		{Address: "T8ubiG36LmNce6uzcJU3h5JR5FWa72jBBLUGmEPx5VXcFtvXnBB3bqice6uzcJU3h5JR5FWa72jBBLUGmEPx5VXcB3prnCZ", Token: domain.Token{TokenIndex: 0}, Amount: "42"},
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := h.prover.sent.Transfers[0].Amount; got != "1500000" {
		t.Errorf("Expected 1500000, got %s", got)
	}
	if got := h.prover.sent.Transfers[1].Amount; got != "42" {
		t.Errorf("Expected 42, got %s", got)
	}
	if len(res.TransferDigests) != 2 {
		t.Errorf("Expected 2 digests, got %d", len(res.TransferDigests))
	}
	if len(h.prover.feeMemoIn) != 0 {
		t.Errorf("transfer fee memo should carry no fee transfers, got %d", len(h.prover.feeMemoIn))
	}
	if h.builders.refreshes != 1 {
		t.Errorf("Expected one builder refresh, got %d", h.builders.refreshes)
	}
	if len(h.sleeps) != 0 {
		t.Errorf("transfers must not wait, slept %v", h.sleeps)
	}
}

func TestWithdrawalDigestCountMatchesSubmittedSet(t *testing.T) {
	h := newHarness()
	h.prover.withdrawalSet = []domain.TransferRequest{
		{Recipient: "withdrawal-fee", Amount: "1"},
		{Recipient: "claim-fee", Amount: "2"},
	}

	res, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{
		Address:          withdrawTo,
		Token:            domain.Token{Decimals: decimals(18)},
		Amount:           "0.01",
		ClaimBeneficiary: withdrawTo,
	})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if len(res.TransferDigests) != 3 || len(h.prover.sent.Transfers) != 3 {
		t.Fatalf("Expected 3 digests for 3 transfers, got %d/%d", len(res.TransferDigests), len(h.prover.sent.Transfers))
	}
	if len(h.prover.sendable) != 3 || len(h.prover.feeMemoIn) != 3 {
		t.Errorf("sendable check and fee memo must see the fee-augmented set")
	}
	if h.prover.sent.Transfers[0].Amount != "10000000000000000" {
		t.Errorf("unexpected base amount %s", h.prover.sent.Transfers[0].Amount)
	}
	if h.prover.claimedFor != withdrawTo || h.prover.syncs != 1 {
		t.Errorf("post-processing: claimed for %q, syncs %d", h.prover.claimedFor, h.prover.syncs)
	}
	if len(h.sleeps) != 2 || h.sleeps[0] != 40*time.Second || h.sleeps[1] != 30*time.Second {
		t.Errorf("unexpected sleeps %v", h.sleeps)
	}
}

func TestAddressSpacesValidatedBeforeNetwork(t *testing.T) {
	tests := []struct {
		name       string
		address    string
		withdrawal bool
		want       error
	}{
		{"withdrawal to rollup identity", "T6ubiG36LmNce6uzcJU3h5JR5FWa72jBBLUGmEPx5VXcFtvXnBB3bqice", true, domain.ErrInvalidWithdrawAddress},
		{"transfer to on-chain address", withdrawTo, false, domain.ErrInvalidTransferAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			_, err := h.pipeline.Broadcast(context.Background(), []domain.BroadcastTransfer{{Address: tt.address, Amount: "1"}}, tt.withdrawal)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if h.prover.calls != 0 || h.fees.calls != 0 || h.session.keyCalls != 0 {
				t.Errorf("network touched: prover=%d fees=%d key=%d", h.prover.calls, h.fees.calls, h.session.keyCalls)
			}
		})
	}
}

func TestInvalidAmountRejected(t *testing.T) {
	h := newHarness()
	_, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{Address: withdrawTo, Amount: "1.5"})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestNotLoggedIn(t *testing.T) {
	h := newHarness()
	h.session.view = domain.SessionView{}
	if _, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{Address: withdrawTo, Amount: "1"}); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestSubmissionFailureIsCollapsed(t *testing.T) {
	h := newHarness()
	h.prover.sendableErr = errors.New("insufficient balance")

	_, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{Address: withdrawTo, Amount: "1"})
	if !errors.Is(err, domain.ErrSubmissionFailed) || err.Error() != domain.MsgSendFailed {
		t.Fatalf("expected submission error, got %v", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("submission failures should be retryable")
	}
	if h.prover.sent != nil {
		t.Error("nothing should be sent after a failed sendable check")
	}
}

func TestFinalizationFailureIsNotRetryable(t *testing.T) {
	h := newHarness()
	h.prover.finalizeErr = errors.New("proof timeout")

	_, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{Address: withdrawTo, Amount: "1"})
	if !errors.Is(err, domain.ErrFinalization) || err.Error() != domain.MsgFinalizeFailed {
		t.Fatalf("expected finalization error, got %v", err)
	}
	if domain.IsRetryable(err) {
		t.Error("finalization failures must not be retryable")
	}
	if len(h.sleeps) != 0 {
		t.Error("post-processing must not run after a failed finalization")
	}
}

func TestClaimSyncFailureSurfaced(t *testing.T) {
	h := newHarness()
	h.prover.claimErr = errors.New("claim server unavailable")

	res, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{Address: withdrawTo, Amount: "1", ClaimBeneficiary: withdrawTo})
	if err == nil || !errors.Is(err, h.prover.claimErr) {
		t.Fatalf("expected claim sync error, got %v", err)
	}
	if res == nil || res.TxTreeRoot != "0xroot" {
		t.Errorf("finalized result should accompany the error, got %+v", res)
	}
	if h.prover.syncs != 0 {
		t.Error("withdrawal sync should not run after claim sync fails")
	}
}

func TestWithdrawalSyncRetries(t *testing.T) {
	h := newHarness()
	h.prover.syncFailures = 2

	if _, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{Address: withdrawTo, Amount: "1"}); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if h.prover.syncs != 3 {
		t.Errorf("Expected 3 sync attempts, got %d", h.prover.syncs)
	}
	if h.prover.claimedFor != "" {
		t.Error("claim sync must not run without a beneficiary")
	}
}

func TestWithdrawalSyncExhausted(t *testing.T) {
	h := newHarness()
	h.prover.syncFailures = 10

	res, err := h.pipeline.Withdraw(context.Background(), domain.BroadcastTransfer{Address: withdrawTo, Amount: "1"})
	if err == nil || res == nil {
		t.Fatalf("expected result with error, got %v %v", res, err)
	}
	if h.prover.syncs != 5 {
		t.Errorf("Expected 5 sync attempts, got %d", h.prover.syncs)
	}
}
