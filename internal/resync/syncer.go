// Package resync keeps the proving module's view of the account fresh.
package resync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/routing"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage"
	"github.com/bertankofon/intmax2-client-sdk/internal/metrics"
)

const feeTokenIndex uint32 = 0

type Prover interface {
	Sync(ctx context.Context, viewKey string) error
	SyncWithdrawals(ctx context.Context, viewKey string, feeTokenIndex uint32) error
	GetUserData(ctx context.Context, viewKey string) (*domain.UserData, error)
}

type Session interface {
	View() domain.SessionView
	MarkSynced(at time.Time)
}

// Locker serializes resyncs of one address across processes.
type Locker interface {
	AcquireLock(ctx context.Context, address string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, address string) error
}

type Config struct {
	Interval  time.Duration
	Freshness time.Duration
	Retry     routing.RetryConfig
	// LockTTL bounds how long a crashed process can hold the cross-process lock.
	LockTTL time.Duration
}

var DefaultConfig = Config{
	Interval:  30 * time.Second,
	Freshness: 180 * time.Second,
	Retry:     routing.RetryConfig{MaxAttempts: 5, Delay: 10 * time.Second},
	LockTTL:   5 * time.Minute,
}

// Syncer runs at most one resync at a time. A call made while another is
// in flight returns immediately.
type Syncer struct {
	prover  Prover
	session Session
	cache   storage.FetchCache
	locker  Locker
	cfg     Config
	now     func() time.Time
	spawn   func(func())
	log     *slog.Logger

	busy atomic.Bool

	mu       sync.Mutex
	userData *domain.UserData
	owner    string
	cancel   context.CancelFunc
	done     chan struct{}
	bg       *generation
}

// generation groups the background resyncs spawned since the last Stop.
type generation struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSyncer(p Prover, session Session, cache storage.FetchCache, cfg Config) *Syncer {
	return &Syncer{
		prover:  p,
		session: session,
		cache:   cache,
		cfg:     cfg,
		now:     time.Now,
		spawn:   func(f func()) { go f() },
		log:     slog.Default().With("component", "resync"),
	}
}

// WithLocker adds a cross-process lock around each resync.
func (s *Syncer) WithLocker(l Locker) *Syncer {
	s.locker = l
	return s
}

// Resync syncs balance proofs and withdrawals unless the last fetch is
// still fresh. ran is false when the call was skipped.
func (s *Syncer) Resync(ctx context.Context) (ran bool, err error) {
	view := s.session.View()
	if !view.Authenticated || view.ViewKey == "" {
		return false, domain.NotLoggedIn("resync")
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.log.Debug("Resync already in progress")
		return false, nil
	}
	defer s.busy.Store(false)

	if s.fresh(ctx, view.Address) {
		s.log.Debug("Skipping resync, user data is fresh", "address", view.Address)
		metrics.ResyncRunsTotal.WithLabelValues("skipped").Inc()
		return false, nil
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireLock(ctx, view.Address, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("Resync lock unavailable, continuing unlocked", "error", err)
		} else if !ok {
			metrics.ResyncRunsTotal.WithLabelValues("skipped").Inc()
			return false, nil
		} else {
			defer func() {
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), view.Address); err != nil {
					s.log.Warn("Failed to release resync lock", "error", err)
				}
			}()
		}
	}

	s.log.Info("User data sync start", "address", view.Address)
	start := s.now()

	err = routing.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		return s.prover.Sync(ctx, view.ViewKey)
	})
	if err != nil {
		metrics.ResyncRunsTotal.WithLabelValues("failed").Inc()
		metrics.CollaboratorErrorsTotal.WithLabelValues("prover").Inc()
		return true, fmt.Errorf("sync balance proof: %w", err)
	}
	s.log.Info("Synced account balance proof")

	err = routing.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		return s.prover.SyncWithdrawals(ctx, view.ViewKey, feeTokenIndex)
	})
	if err != nil {
		s.log.Warn("Failed to sync withdrawals", "error", err)
	}

	data, err := s.prover.GetUserData(ctx, view.ViewKey)
	if err != nil {
		metrics.ResyncRunsTotal.WithLabelValues("failed").Inc()
		return true, fmt.Errorf("get user data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return true, err
	}
	if !s.sameSession(view) {
		s.log.Info("Session changed during resync, dropping result", "address", view.Address)
		metrics.ResyncRunsTotal.WithLabelValues("skipped").Inc()
		return true, nil
	}
	s.store(view.Address, data)

	at := s.now()
	if err := s.cache.MarkFetched(ctx, view.Address, at); err != nil {
		s.log.Warn("Failed to persist fetch time", "error", err)
	}
	s.session.MarkSynced(at)
	metrics.ResyncRunsTotal.WithLabelValues("success").Inc()
	metrics.LastResyncTimestamp.Set(float64(at.Unix()))
	s.log.Info("User data sync done", "address", view.Address, "duration", at.Sub(start))
	return true, nil
}

// UserData returns the cached snapshot while the last fetch is fresh.
// Otherwise it fetches a new snapshot and starts a resync in the background.
func (s *Syncer) UserData(ctx context.Context) (*domain.UserData, error) {
	view := s.session.View()
	if !view.Authenticated {
		return nil, domain.NotLoggedIn("user data")
	}
	fresh := s.fresh(ctx, view.Address)
	if fresh {
		if cached := s.cached(view.Address); cached != nil {
			return cached, nil
		}
	}

	data, err := s.prover.GetUserData(ctx, view.ViewKey)
	if err != nil {
		return nil, fmt.Errorf("get user data: %w", err)
	}
	s.store(view.Address, data)
	if !fresh {
		// the read returns before the resync ends, so only Stop cancels it
		s.background(context.WithoutCancel(ctx))
	}
	return data, nil
}

// Kick starts a resync in the background and returns at once. The resync
// ends when ctx is done or Stop is called.
func (s *Syncer) Kick(ctx context.Context) {
	s.background(ctx)
}

func (s *Syncer) background(ctx context.Context) {
	s.mu.Lock()
	if s.bg == nil {
		bgCtx, cancel := context.WithCancel(context.Background())
		s.bg = &generation{ctx: bgCtx, cancel: cancel}
	}
	gen := s.bg
	gen.wg.Add(1)
	s.mu.Unlock()

	s.spawn(func() {
		defer gen.wg.Done()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		defer context.AfterFunc(gen.ctx, cancel)()

		if _, err := s.Resync(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("Background resync failed", "error", err)
		}
	})
}

// Reset drops the cached snapshot. It is called on logout.
func (s *Syncer) Reset() {
	s.mu.Lock()
	s.userData, s.owner = nil, ""
	s.mu.Unlock()
}

// Run triggers Resync every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = DefaultConfig.Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Syncer) tick(ctx context.Context) {
	view := s.session.View()
	if !view.Authenticated || view.ViewKey == "" {
		return
	}
	if _, err := s.Resync(ctx); err != nil {
		s.log.Error("Periodic resync failed", "error", err)
	}
}

// Start runs the periodic task in the background, replacing a running one.
func (s *Syncer) Start(ctx context.Context) {
	s.Stop()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
}

// Stop cancels the periodic task and any background resync, and waits for
// them to exit.
func (s *Syncer) Stop() {
	s.mu.Lock()
	cancel, done, gen := s.cancel, s.done, s.bg
	s.cancel, s.done, s.bg = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if gen != nil {
		gen.cancel()
		gen.wg.Wait()
	}
}

func (s *Syncer) sameSession(started domain.SessionView) bool {
	now := s.session.View()
	return now.Authenticated &&
		now.ViewKey == started.ViewKey &&
		storage.NormalizeAddress(now.Address) == storage.NormalizeAddress(started.Address)
}

func (s *Syncer) fresh(ctx context.Context, address string) bool {
	last, ok, err := s.cache.LastFetch(ctx, address)
	if err != nil {
		s.log.Warn("Failed to read last fetch time", "error", err)
		return false
	}
	return ok && s.now().Sub(last) < s.cfg.Freshness
}

func (s *Syncer) cached(address string) *domain.UserData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if storage.NormalizeAddress(s.owner) != storage.NormalizeAddress(address) {
		return nil
	}
	return s.userData
}

func (s *Syncer) store(address string, data *domain.UserData) {
	s.mu.Lock()
	s.userData, s.owner = data, address
	s.mu.Unlock()
}
