package fee

import (
	"context"
	"errors"
	"testing"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

type fakeQuoter struct {
	builderURL string
	spendPub   string
	tokenIndex uint32
	quote      *domain.FeeQuote
	err        error
}

func (f *fakeQuoter) QuoteTransferFee(_ context.Context, url, pub string, feeToken uint32) (*domain.FeeQuote, error) {
	f.builderURL, f.spendPub, f.tokenIndex = url, pub, feeToken
	return f.quote, f.err
}

func (f *fakeQuoter) QuoteWithdrawalFee(_ context.Context, idx, _ uint32) (*domain.FeeQuote, error) {
	f.tokenIndex = idx
	return f.quote, f.err
}

func (f *fakeQuoter) QuoteClaimFee(context.Context, uint32) (*domain.FeeQuote, error) {
	return f.quote, f.err
}

type staticBuilder string

func (b staticBuilder) URL(context.Context) (string, error) { return string(b), nil }

type staticSession domain.SessionView

func (s staticSession) View() domain.SessionView { return domain.SessionView(s) }

func TestTransferFeeUsesBuilderAndSpendKey(t *testing.T) {
	q := &fakeQuoter{quote: &domain.FeeQuote{Beneficiary: "0xbeef", Fee: &domain.Fee{Amount: "100"}}}
	s := NewService(q, staticBuilder("https://builder"), staticSession{Authenticated: true, SpendPublicKey: "0xpub"})

	got, err := s.TransferFee(context.Background())
	if err != nil {
		t.Fatalf("TransferFee: %v", err)
	}
	if got.Beneficiary != "0xbeef" {
		t.Errorf("unexpected quote %+v", got)
	}
	if q.builderURL != "https://builder" || q.spendPub != "0xpub" || q.tokenIndex != NativeTokenIndex {
		t.Errorf("quoted with %q %q %d", q.builderURL, q.spendPub, q.tokenIndex)
	}
}

func TestTransferFeeRequiresLogin(t *testing.T) {
	s := NewService(&fakeQuoter{}, staticBuilder("x"), staticSession{})
	if _, err := s.TransferFee(context.Background()); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestWithdrawalFee(t *testing.T) {
	q := &fakeQuoter{quote: &domain.FeeQuote{}}
	s := NewService(q, staticBuilder("x"), staticSession{})
	if _, err := s.WithdrawalFee(context.Background(), 3); err != nil {
		t.Fatalf("WithdrawalFee: %v", err)
	}
	if q.tokenIndex != 3 {
		t.Errorf("Expected token index 3, got %d", q.tokenIndex)
	}
}

func TestEmptyQuoteIsError(t *testing.T) {
	s := NewService(&fakeQuoter{}, staticBuilder("x"), staticSession{})
	if _, err := s.ClaimFee(context.Background()); !errors.Is(err, ErrEmptyQuote) {
		t.Fatalf("expected ErrEmptyQuote, got %v", err)
	}
}
