package health

import (
	"context"
	"sync"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/provider"
)

// Session exposes the logged-in account.
type Session interface {
	View() domain.SessionView
}

// Check probes a store such as the database or redis.
type Check func(ctx context.Context) error

// Monitor aggregates health from the HTTP collaborators, stores and session.
type Monitor struct {
	providers []provider.Provider
	checks    map[string]Check
	session   Session
	staleSync time.Duration
	now       func() time.Time

	lastCheck  time.Time
	lastReport *Report
	mu         sync.Mutex
}

// NewMonitor creates a monitor. A session whose last sync is older than
// staleSync is reported degraded.
func NewMonitor(session Session, staleSync time.Duration, providers ...provider.Provider) *Monitor {
	return &Monitor{
		providers: providers,
		checks:    make(map[string]Check),
		session:   session,
		staleSync: staleSync,
		now:       time.Now,
	}
}

// AddCheck registers a named store probe.
func (m *Monitor) AddCheck(name string, c Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = c
}

// CheckHealth builds a report. Results are reused for ten seconds.
func (m *Monitor) CheckHealth(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && m.now().Sub(m.lastCheck) < 10*time.Second {
		return m.lastReport
	}

	report := &Report{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth),
	}

	for _, p := range m.providers {
		h := p.GetHealth()
		c := ComponentHealth{
			Name:      p.GetName(),
			Status:    StatusHealthy,
			ErrorRate: h.ErrorRate,
			LatencyMS: h.Latency.Milliseconds(),
		}
		switch {
		case !p.IsAvailable() || !h.Available:
			c.Status = StatusCritical
		case h.ErrorRate > 0.1:
			c.Status = StatusDegraded
		}
		report.Components[c.Name] = c
	}

	for name, check := range m.checks {
		c := ComponentHealth{Name: name, Status: StatusHealthy}
		start := m.now()
		if err := check(ctx); err != nil {
			c.Status = StatusCritical
			c.Error = err.Error()
		}
		c.LatencyMS = m.now().Sub(start).Milliseconds()
		report.Components[name] = c
	}

	view := m.session.View()
	report.Session = SessionHealth{
		LoggedIn:     view.Authenticated,
		Address:      view.Address,
		LastSyncedAt: view.LastSyncedAt,
		Status:       StatusHealthy,
	}
	switch {
	case !view.Authenticated:
		report.Session.Status = StatusCritical
	case m.staleSync > 0 && (view.LastSyncedAt.IsZero() || m.now().Sub(view.LastSyncedAt) > m.staleSync):
		report.Session.Status = StatusDegraded
	}

	// worst case wins
	report.SystemStatus = worst(report.SystemStatus, report.Session.Status)
	for _, c := range report.Components {
		report.SystemStatus = worst(report.SystemStatus, c.Status)
	}

	m.lastCheck = m.now()
	m.lastReport = report
	return report
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
