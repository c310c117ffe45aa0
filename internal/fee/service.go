// Package fee quotes rollup fees. Quotes are never cached.
package fee

import (
	"context"
	"errors"
	"fmt"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

// NativeTokenIndex is the fee token for every quote.
const NativeTokenIndex uint32 = 0

var ErrEmptyQuote = errors.New("empty fee quote")

type Quoter interface {
	QuoteTransferFee(ctx context.Context, builderURL, spendPub string, feeTokenIndex uint32) (*domain.FeeQuote, error)
	QuoteWithdrawalFee(ctx context.Context, withdrawalTokenIndex, feeTokenIndex uint32) (*domain.FeeQuote, error)
	QuoteClaimFee(ctx context.Context, feeTokenIndex uint32) (*domain.FeeQuote, error)
}

type BuilderLocator interface {
	URL(ctx context.Context) (string, error)
}

type Session interface {
	View() domain.SessionView
}

type Service struct {
	quoter   Quoter
	builders BuilderLocator
	session  Session
}

func NewService(q Quoter, builders BuilderLocator, session Session) *Service {
	return &Service{quoter: q, builders: builders, session: session}
}

// TransferFee quotes a transfer against the current block builder.
func (s *Service) TransferFee(ctx context.Context) (*domain.FeeQuote, error) {
	view := s.session.View()
	if !view.Authenticated {
		return nil, domain.NotLoggedIn("transfer fee")
	}
	url, err := s.builders.URL(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.quoter.QuoteTransferFee(ctx, url, view.SpendPublicKey, NativeTokenIndex)
	return checked("transfer", q, err)
}

// WithdrawalFee quotes a withdrawal of the token at tokenIndex.
func (s *Service) WithdrawalFee(ctx context.Context, tokenIndex uint32) (*domain.FeeQuote, error) {
	q, err := s.quoter.QuoteWithdrawalFee(ctx, tokenIndex, NativeTokenIndex)
	return checked("withdrawal", q, err)
}

func (s *Service) ClaimFee(ctx context.Context) (*domain.FeeQuote, error) {
	q, err := s.quoter.QuoteClaimFee(ctx, NativeTokenIndex)
	return checked("claim", q, err)
}

func checked(kind string, q *domain.FeeQuote, err error) (*domain.FeeQuote, error) {
	if err != nil {
		return nil, fmt.Errorf("quote %s fee: %w", kind, err)
	}
	if q == nil {
		return nil, fmt.Errorf("quote %s fee: %w", kind, ErrEmptyQuote)
	}
	return q, nil
}
