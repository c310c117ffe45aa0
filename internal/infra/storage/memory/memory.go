package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage"
)

// FetchCache is the in-process FetchCache. Entries do not survive restarts.
type FetchCache struct {
	mu      sync.RWMutex
	fetched map[string]time.Time
}

var _ storage.FetchCache = (*FetchCache)(nil)

func NewFetchCache() *FetchCache {
	return &FetchCache{fetched: make(map[string]time.Time)}
}

func (c *FetchCache) LastFetch(_ context.Context, address string) (time.Time, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.fetched[storage.NormalizeAddress(address)]
	return at, ok, nil
}

func (c *FetchCache) MarkFetched(_ context.Context, address string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched[storage.NormalizeAddress(address)] = at
	return nil
}

func (c *FetchCache) Forget(_ context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fetched, storage.NormalizeAddress(address))
	return nil
}

func (c *FetchCache) Close() error {
	return nil
}
