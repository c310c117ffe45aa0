// Package builder discovers block builders whose advertised fees are sane.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/indexer"
	"github.com/bertankofon/intmax2-client-sdk/internal/metrics"
)

// MaxNativeFee is the ceiling, in wei, for both native fee entries (2,500 Gwei).
var MaxNativeFee = big.NewInt(2_500_000_000_000)

var ErrNoBuilder = errors.New("no valid block builder")

const probeConcurrency = 8

// Indexer lists builders and their fee schedules.
type Indexer interface {
	Builders(ctx context.Context) ([]indexer.Builder, error)
	FeeInfo(ctx context.Context, builderURL string) (*domain.FeeInfo, error)
}

// Locator caches the last validated builder URL.
type Locator struct {
	indexer Indexer
	pick    func(n int) int
	log     *slog.Logger

	mu      sync.RWMutex
	current string
}

func NewLocator(idx Indexer) *Locator {
	return &Locator{
		indexer: idx,
		pick:    rand.IntN,
		log:     slog.Default().With("component", "builder"),
	}
}

// URL returns the cached builder, discovering one on first use.
func (l *Locator) URL(ctx context.Context) (string, error) {
	l.mu.RLock()
	current := l.current
	l.mu.RUnlock()
	if current != "" {
		return current, nil
	}
	return l.Refresh(ctx)
}

// Refresh probes every candidate concurrently and picks a valid one at random.
func (l *Locator) Refresh(ctx context.Context) (string, error) {
	candidates, err := l.indexer.Builders(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch block builder URL: %w", err)
	}

	valid := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			info, err := l.indexer.FeeInfo(gctx, c.URL)
			if err != nil {
				l.log.Debug("Builder probe failed", "url", c.URL, "error", err)
				return nil
			}
			valid[i] = ValidFeeInfo(info)
			if !valid[i] {
				l.log.Debug("Builder fee above ceiling", "url", c.URL)
			}
			return nil
		})
	}
	_ = g.Wait()

	urls := make([]string, 0, len(candidates))
	for i, c := range candidates {
		if valid[i] {
			urls = append(urls, c.URL)
		}
	}
	metrics.BuildersValid.Set(float64(len(urls)))
	if len(urls) == 0 {
		return "", ErrNoBuilder
	}

	chosen := urls[l.pick(len(urls))]
	l.mu.Lock()
	l.current = chosen
	l.mu.Unlock()

	l.log.Info("Block builder selected", "url", chosen, "valid", len(urls), "candidates", len(candidates))
	return chosen, nil
}

// Current returns the cached URL without discovery.
func (l *Locator) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// ValidFeeInfo requires native entries in both schedules, each within MaxNativeFee.
func ValidFeeInfo(info *domain.FeeInfo) bool {
	if info == nil {
		return false
	}
	reg, ok := domain.NativeFee(info.RegistrationFee)
	if !ok {
		return false
	}
	nonReg, ok := domain.NativeFee(info.NonRegistrationFee)
	if !ok {
		return false
	}
	return withinCap(reg) && withinCap(nonReg)
}

func withinCap(f domain.Fee) bool {
	v, ok := f.AmountInt()
	return ok && v.Sign() >= 0 && v.Cmp(MaxNativeFee) <= 0
}
