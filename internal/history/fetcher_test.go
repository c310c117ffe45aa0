package history

import (
	"context"
	"errors"
	"testing"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

type fakeSource struct {
	deposits, transfers, sends *domain.HistoryPage
	sendErr                    error
}

func (f *fakeSource) FetchDepositHistory(context.Context, string, domain.HistoryCursor) (*domain.HistoryPage, error) {
	return f.deposits, nil
}

func (f *fakeSource) FetchTransferHistory(context.Context, string, domain.HistoryCursor) (*domain.HistoryPage, error) {
	return f.transfers, nil
}

func (f *fakeSource) FetchTxHistory(context.Context, string, domain.HistoryCursor) (*domain.HistoryPage, error) {
	return f.sends, f.sendErr
}

type session bool

func (s session) View() domain.SessionView {
	return domain.SessionView{Authenticated: bool(s), ViewKey: "0xview"}
}

func page(statuses ...string) *domain.HistoryPage {
	p := &domain.HistoryPage{}
	for _, s := range statuses {
		p.Items = append(p.Items, domain.Transaction{Status: domain.TransactionStatus(s)})
	}
	return p
}

func TestAllTagsKindsAndStatuses(t *testing.T) {
	src := &fakeSource{
		deposits:  page("processed", "pending"),
		transfers: page("settled"),
		sends:     page("timeout"),
	}
	h, err := NewFetcher(src, session(true)).All(context.Background(), domain.HistoryCursor{Limit: 20})
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(h.Deposits) != 2 || len(h.Transfers) != 1 || len(h.Sends) != 1 {
		t.Fatalf("unexpected history %+v", h)
	}
	if h.Deposits[0].Kind != domain.TxKindDeposit || h.Deposits[0].Status != domain.TxStatusCompleted {
		t.Errorf("unexpected deposit %+v", h.Deposits[0])
	}
	if h.Transfers[0].Kind != domain.TxKindReceive || h.Transfers[0].Status != domain.TxStatusProcessing {
		t.Errorf("unexpected transfer %+v", h.Transfers[0])
	}
	if h.Sends[0].Kind != domain.TxKindSend || h.Sends[0].Status != domain.TxStatusRejected {
		t.Errorf("unexpected send %+v", h.Sends[0])
	}
}

func TestAllFailsOnAnyError(t *testing.T) {
	src := &fakeSource{deposits: page(), transfers: page(), sendErr: errors.New("store vault down")}
	if _, err := NewFetcher(src, session(true)).All(context.Background(), domain.HistoryCursor{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestHistoryRequiresLogin(t *testing.T) {
	if _, err := NewFetcher(&fakeSource{}, session(false)).Deposits(context.Background(), domain.HistoryCursor{}); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestNilPageIsEmpty(t *testing.T) {
	p, err := NewFetcher(&fakeSource{}, session(true)).Transfers(context.Background(), domain.HistoryCursor{})
	if err != nil || p == nil || len(p.Items) != 0 {
		t.Fatalf("unexpected %v %v", p, err)
	}
}
