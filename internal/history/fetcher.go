// Package history reads deposit, receive and send history.
package history

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/metrics"
)

type Source interface {
	FetchDepositHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error)
	FetchTransferHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error)
	FetchTxHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error)
}

type Session interface {
	View() domain.SessionView
}

// History is the full account history, newest first within each kind.
type History struct {
	Deposits  []domain.Transaction `json:"deposits"`
	Transfers []domain.Transaction `json:"transfers"`
	Sends     []domain.Transaction `json:"sends"`
}

type Fetcher struct {
	src     Source
	session Session
}

func NewFetcher(src Source, session Session) *Fetcher {
	return &Fetcher{src: src, session: session}
}

func (f *Fetcher) Deposits(ctx context.Context, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return f.fetch(ctx, domain.TxKindDeposit, cursor)
}

// Transfers returns received transfers.
func (f *Fetcher) Transfers(ctx context.Context, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return f.fetch(ctx, domain.TxKindReceive, cursor)
}

// Transactions returns sent transfers and withdrawals.
func (f *Fetcher) Transactions(ctx context.Context, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return f.fetch(ctx, domain.TxKindSend, cursor)
}

// All fetches the three kinds concurrently. The first error cancels the rest.
func (f *Fetcher) All(ctx context.Context, cursor domain.HistoryCursor) (*History, error) {
	var h History
	g, gctx := errgroup.WithContext(ctx)
	for kind, dst := range map[domain.TransactionKind]*[]domain.Transaction{
		domain.TxKindDeposit: &h.Deposits,
		domain.TxKindReceive: &h.Transfers,
		domain.TxKindSend:    &h.Sends,
	} {
		g.Go(func() error {
			page, err := f.fetch(gctx, kind, cursor)
			if err != nil {
				return err
			}
			*dst = page.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &h, nil
}

func (f *Fetcher) fetch(ctx context.Context, kind domain.TransactionKind, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	view := f.session.View()
	if !view.Authenticated {
		return nil, domain.NotLoggedIn("fetch history")
	}

	var (
		page *domain.HistoryPage
		err  error
	)
	switch kind {
	case domain.TxKindDeposit:
		page, err = f.src.FetchDepositHistory(ctx, view.ViewKey, cursor)
	case domain.TxKindReceive:
		page, err = f.src.FetchTransferHistory(ctx, view.ViewKey, cursor)
	default:
		page, err = f.src.FetchTxHistory(ctx, view.ViewKey, cursor)
	}
	if err != nil {
		metrics.CollaboratorErrorsTotal.WithLabelValues("prover").Inc()
		return nil, fmt.Errorf("fetch %s history: %w", kind, err)
	}
	if page == nil {
		page = &domain.HistoryPage{}
	}
	for i := range page.Items {
		page.Items[i].Kind = kind
		page.Items[i].Status = domain.StatusFromProver(string(page.Items[i].Status))
	}
	return page, nil
}
