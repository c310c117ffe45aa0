// Package indexer is the client of the block-builder indexer.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/provider"
)

// Builder is a candidate block builder advertised by the indexer.
type Builder struct {
	URL     string `json:"url"`
	Address string `json:"address,omitempty"`
}

// Client lists builders and reads their fee policy.
type Client struct {
	http provider.RESTProvider
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithProvider(provider.NewHTTPProvider("indexer", baseURL, timeout))
}

func NewClientWithProvider(p provider.RESTProvider) *Client {
	return &Client{http: p}
}

// Provider returns the underlying transport.
func (c *Client) Provider() provider.Provider {
	return c.http
}

// Builders returns every candidate builder.
func (c *Client) Builders(ctx context.Context) ([]Builder, error) {
	var out []Builder
	if err := c.http.Do(ctx, provider.Operation{Name: "builders", Path: "/builders"}, &out); err != nil {
		return nil, fmt.Errorf("fetch builders: %w", err)
	}
	return out, nil
}

// FeeInfo reads the fee policy a builder advertises.
func (c *Client) FeeInfo(ctx context.Context, builderURL string) (*domain.FeeInfo, error) {
	var out domain.FeeInfo
	err := c.http.Do(ctx, provider.Operation{
		Name: "fee-info",
		URL:  strings.TrimRight(builderURL, "/") + "/fee-info",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch fee info from %s: %w", builderURL, err)
	}
	return &out, nil
}
