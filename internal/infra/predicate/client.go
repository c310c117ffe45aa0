// Package predicate is the client of the compliance (AML) attestation service.
package predicate

import (
	"context"
	"fmt"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/provider"
)

// Request asks the service to evaluate a prospective deposit.
type Request struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	MsgValue string `json:"msg_value"`
}

// Attestation is the signed compliance verdict.
type Attestation struct {
	IsCompliant bool     `json:"is_compliant"`
	Signers     []string `json:"signers"`
	Signature   []string `json:"signature"`
	ExpiryBlock uint64   `json:"expiry_block"`
	TaskID      string   `json:"task_id"`
}

type evaluateResponse struct {
	Data Attestation `json:"data"`
}

// Client requests compliance attestations.
type Client struct {
	http provider.RESTProvider
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithProvider(provider.NewHTTPProvider("predicate", baseURL, timeout))
}

func NewClientWithProvider(p provider.RESTProvider) *Client {
	return &Client{http: p}
}

// Provider returns the underlying transport.
func (c *Client) Provider() provider.Provider {
	return c.http
}

// Evaluate requests a signed attestation for req.
func (c *Client) Evaluate(ctx context.Context, req Request) (*Attestation, error) {
	var out evaluateResponse
	err := c.http.Do(ctx, provider.Operation{
		Name: "evaluate-policy",
		Path: "/evaluate-policy",
		Body: req,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("evaluate policy: %w", err)
	}
	return &out.Data, nil
}
