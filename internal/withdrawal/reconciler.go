// Package withdrawal reconciles withdrawal records with the liquidity
// contract and claims the ones that are ready.
package withdrawal

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/chain/evm"
	"github.com/bertankofon/intmax2-client-sdk/internal/metrics"
)

// PageSize is the number of records requested per cursor page.
const PageSize = 256

type Source interface {
	GetWithdrawalInfo(ctx context.Context, viewKey string, cursor domain.TimestampCursor) (*domain.WithdrawalPage, error)
}

type ClaimChecker interface {
	ClaimableWithdrawals(ctx context.Context, hashes []common.Hash) ([]bool, error)
}

type Session interface {
	View() domain.SessionView
}

type Reconciler struct {
	source  Source
	checker ClaimChecker
	session Session
	log     *slog.Logger
}

func NewReconciler(src Source, checker ClaimChecker, session Session) *Reconciler {
	return &Reconciler{
		source:  src,
		checker: checker,
		session: session,
		log:     slog.Default().With("component", "withdrawal"),
	}
}

// Fetch returns one page of withdrawals, newest first, partitioned by
// status. NeedClaim only holds entries the contract still reports claimable.
func (r *Reconciler) Fetch(ctx context.Context, cursor *int64) (*domain.WithdrawalBuckets, error) {
	view := r.session.View()
	if !view.Authenticated {
		return nil, domain.NotLoggedIn("fetch withdrawals")
	}

	page, err := r.source.GetWithdrawalInfo(ctx, view.ViewKey, domain.TimestampCursor{
		Cursor: cursor,
		Limit:  PageSize,
		Order:  "desc",
	})
	if err != nil {
		return nil, domain.NewError(domain.ErrReconciliation, "fetch withdrawals", "", err)
	}

	buckets := Partition(page.Records)
	buckets.Pagination = page.Pagination

	if len(buckets.NeedClaim) > 0 {
		buckets.NeedClaim, err = r.claimable(ctx, buckets.NeedClaim)
		if err != nil {
			return nil, domain.NewError(domain.ErrReconciliation, "fetch withdrawals", "", err)
		}
	}
	metrics.ClaimableWithdrawals.Set(float64(len(buckets.NeedClaim)))
	return buckets, nil
}

func (r *Reconciler) claimable(ctx context.Context, ws []domain.ContractWithdrawal) ([]domain.ContractWithdrawal, error) {
	hashes := make([]common.Hash, len(ws))
	for i, w := range ws {
		h, err := evm.WithdrawHash(w)
		if err != nil {
			return nil, err
		}
		hashes[i] = h
	}
	ok, err := r.checker.ClaimableWithdrawals(ctx, hashes)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ContractWithdrawal, 0, len(ws))
	for i, w := range ws {
		if i < len(ok) && ok[i] {
			out = append(out, w)
		}
	}
	if dropped := len(ws) - len(out); dropped > 0 {
		r.log.Info("Dropped withdrawals no longer claimable", "dropped", dropped)
	}
	return out, nil
}

// Partition splits records by status and deduplicates NeedClaim by
// nullifier. Order of first appearance is kept, the last record wins.
func Partition(records []domain.WithdrawalRecord) *domain.WithdrawalBuckets {
	b := &domain.WithdrawalBuckets{
		Requested: []domain.ContractWithdrawal{},
		Relayed:   []domain.ContractWithdrawal{},
		Success:   []domain.ContractWithdrawal{},
		NeedClaim: []domain.ContractWithdrawal{},
		Failed:    []domain.ContractWithdrawal{},
	}
	seen := make(map[string]int)
	for _, rec := range records {
		w := rec.Contract
		switch rec.Status {
		case domain.WithdrawalRequested:
			b.Requested = append(b.Requested, w)
		case domain.WithdrawalRelayed:
			b.Relayed = append(b.Relayed, w)
		case domain.WithdrawalSuccess:
			b.Success = append(b.Success, w)
		case domain.WithdrawalFailed:
			b.Failed = append(b.Failed, w)
		case domain.WithdrawalNeedClaim:
			if i, ok := seen[w.Nullifier]; ok {
				b.NeedClaim[i] = w
				continue
			}
			seen[w.Nullifier] = len(b.NeedClaim)
			b.NeedClaim = append(b.NeedClaim, w)
		default:
			slog.Default().Warn("Unknown withdrawal status", "status", rec.Status, "nullifier", w.Nullifier)
		}
	}
	return b
}
