// Package health reports the state of the client and its collaborators.
package health

import "time"

// SystemStatus represents the health state of the client or one of its collaborators.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ComponentHealth describes one remote collaborator or store.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    SystemStatus `json:"status"`
	ErrorRate float64      `json:"error_rate"`
	LatencyMS int64        `json:"latency_ms"`
	Error     string       `json:"error,omitempty"`
}

// SessionHealth describes the logged-in account.
type SessionHealth struct {
	LoggedIn     bool         `json:"logged_in"`
	Address      string       `json:"address,omitempty"`
	LastSyncedAt time.Time    `json:"last_synced_at,omitempty"`
	Status       SystemStatus `json:"status"`
}

// Report contains the full health report.
type Report struct {
	SystemStatus SystemStatus               `json:"system_status"`
	Session      SessionHealth              `json:"session"`
	Components   map[string]ComponentHealth `json:"components"`
}
