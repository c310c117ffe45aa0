package provider

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// ProviderStatus represents the health state of a provider.
type ProviderStatus int

const (
	StatusHealthy   ProviderStatus = iota // Provider is working normally
	StatusDegraded                        // Provider is slow but working
	StatusThrottled                       // Provider is rate limiting
	StatusBlocked                         // Provider has blocked this client
)

func (s ProviderStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats struct {
	Status           ProviderStatus
	AverageLatency   time.Duration
	ThrottleCount429 int
	ThrottleCount403 int
	RequestsLastHour int
}

// ProviderMonitor tracks latency and throttling of an endpoint.
type ProviderMonitor struct {
	mu  sync.RWMutex
	now func() time.Time

	latencies []time.Duration
	window    int

	status429Count int
	status403Count int
	throttledUntil time.Time

	// one bucket per minute over the last hour
	buckets     [60]int
	bucketStart [60]int64

	throttlePatterns []string
	slowThreshold    time.Duration
}

// NewProviderMonitor creates a new monitor with default settings.
func NewProviderMonitor() *ProviderMonitor {
	return &ProviderMonitor{
		now:       time.Now,
		latencies: make([]time.Duration, 0, 100),
		window:    100,
		throttlePatterns: []string{
			"rate limit exceeded",
			"too many requests",
			"daily request count exceeded",
			"monthly quota exceeded",
		},
		slowThreshold: 3 * time.Second,
	}
}

// RecordRequest records a successful request with its latency.
func (pm *ProviderMonitor) RecordRequest(latency time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.latencies = append(pm.latencies, latency)
	if len(pm.latencies) > pm.window {
		pm.latencies = pm.latencies[1:]
	}

	minute := pm.now().Unix() / 60
	idx := minute % 60
	if pm.bucketStart[idx] != minute {
		pm.bucketStart[idx] = minute
		pm.buckets[idx] = 0
	}
	pm.buckets[idx]++
}

// RecordThrottle records a 429 or 403 response. retryAfter is the raw
// Retry-After header in seconds.
func (pm *ProviderMonitor) RecordThrottle(statusCode int, retryAfter string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	backoff := 30 * time.Second
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
		backoff = time.Duration(secs) * time.Second
	}

	switch statusCode {
	case 429:
		pm.status429Count++
	case 403:
		pm.status403Count++
		backoff = 10 * time.Minute
	}
	pm.throttledUntil = pm.now().Add(backoff)
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (pm *ProviderMonitor) DetectThrottlePattern(message string) bool {
	lowerMsg := strings.ToLower(message)
	for _, pattern := range pm.throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}
	return false
}

// CheckProviderStatus returns the current status of the provider.
func (pm *ProviderMonitor) CheckProviderStatus() ProviderStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.statusLocked()
}

func (pm *ProviderMonitor) statusLocked() ProviderStatus {
	if pm.now().Before(pm.throttledUntil) {
		if pm.status403Count > 0 {
			return StatusBlocked
		}
		return StatusThrottled
	}
	if len(pm.latencies) > 10 && pm.averageLocked() > pm.slowThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

// GetRetryAfter returns remaining time before retry is allowed.
func (pm *ProviderMonitor) GetRetryAfter() time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if remaining := pm.throttledUntil.Sub(pm.now()); remaining > 0 {
		return remaining
	}
	return 0
}

func (pm *ProviderMonitor) averageLocked() time.Duration {
	if len(pm.latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range pm.latencies {
		total += lat
	}
	return total / time.Duration(len(pm.latencies))
}

func (pm *ProviderMonitor) lastHourLocked() int {
	current := pm.now().Unix() / 60
	count := 0
	for i, start := range pm.bucketStart {
		if current-start < 60 {
			count += pm.buckets[i]
		}
	}
	return count
}

// GetStats returns current monitoring statistics.
func (pm *ProviderMonitor) GetStats() MonitorStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return MonitorStats{
		Status:           pm.statusLocked(),
		AverageLatency:   pm.averageLocked(),
		ThrottleCount429: pm.status429Count,
		ThrottleCount403: pm.status403Count,
		RequestsLastHour: pm.lastHourLocked(),
	}
}
