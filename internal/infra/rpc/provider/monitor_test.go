package provider

import (
	"testing"
	"time"
)

func TestMonitorRequestCount(t *testing.T) {
	m := NewProviderMonitor()

	m.RecordRequest(100 * time.Millisecond)
	if got := m.GetStats().RequestsLastHour; got != 1 {
		t.Errorf("Expected 1 request, got %d", got)
	}

	for i := 0; i < 100; i++ {
		m.RecordRequest(50 * time.Millisecond)
	}
	stats := m.GetStats()
	if stats.RequestsLastHour != 101 {
		t.Errorf("Expected 101 requests, got %d", stats.RequestsLastHour)
	}
	if stats.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", stats.Status)
	}
}

func TestMonitorThrottleExpires(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewProviderMonitor()
	m.now = func() time.Time { return now }

	m.RecordThrottle(429, "5")
	if got := m.CheckProviderStatus(); got != StatusThrottled {
		t.Fatalf("Expected throttled, got %s", got)
	}
	if got := m.GetRetryAfter(); got != 5*time.Second {
		t.Errorf("Expected 5s retry after, got %s", got)
	}

	now = now.Add(6 * time.Second)
	if got := m.CheckProviderStatus(); got != StatusHealthy {
		t.Errorf("Expected healthy after backoff, got %s", got)
	}
}

func TestMonitorDegradedOnSlowResponses(t *testing.T) {
	m := NewProviderMonitor()
	for i := 0; i < 11; i++ {
		m.RecordRequest(5 * time.Second)
	}
	if got := m.CheckProviderStatus(); got != StatusDegraded {
		t.Errorf("Expected degraded, got %s", got)
	}
}

func TestDetectThrottlePattern(t *testing.T) {
	m := NewProviderMonitor()
	if !m.DetectThrottlePattern("Rate limit exceeded for project") {
		t.Error("expected throttle pattern match")
	}
	if m.DetectThrottlePattern("execution reverted") {
		t.Error("unexpected throttle pattern match")
	}
}
