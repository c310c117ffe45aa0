// Package provider implements the HTTP transport shared by every remote collaborator.
//
// This package contains:
//   - Provider interface: health and lifecycle of an endpoint
//   - HTTPProvider: JSON-RPC and REST over HTTP
//   - ProviderMonitor: latency and throttle tracking
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Operation describes a REST call executed by HTTPProvider.Do.
type Operation struct {
	// Name identifies the operation in logs and metrics.
	Name string

	// Method is the HTTP method. Defaults to GET without a body, POST with one.
	Method string

	// Path is appended to the provider endpoint. Ignored when URL is set.
	Path string

	// URL is an absolute target that bypasses the provider endpoint.
	URL string

	// Query parameters.
	Query map[string]string

	// Headers added to the request, e.g. Authorization.
	Headers map[string]string

	// Body is JSON encoded when non-nil.
	Body any
}

// Provider defines health checking and lifecycle for a remote endpoint.
type Provider interface {
	// GetName returns provider identifier (e.g., "vault", "indexer")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Close cleans up resources
	Close() error
}

// RPCProvider extends Provider with JSON-RPC calls.
type RPCProvider interface {
	Provider

	// Call makes a single RPC request and decodes the result into out.
	Call(ctx context.Context, method string, params any, out any) error

	// BatchCall makes multiple RPC calls in one request
	BatchCall(ctx context.Context, requests []BatchRequest) ([]BatchResponse, error)
}

// RESTProvider extends Provider with REST calls.
type RESTProvider interface {
	Provider

	// Do executes op and decodes the JSON response into out (nil to discard).
	Do(ctx context.Context, op Operation, out any) error
}

// BatchRequest represents a single request in a batch call.
type BatchRequest struct {
	Method string
	Params any
}

// BatchResponse represents a single response from a batch call.
type BatchResponse struct {
	Result json.RawMessage
	Error  error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
