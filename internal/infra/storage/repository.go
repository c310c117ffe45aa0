package storage

import (
	"context"
	"strings"
	"time"
)

// FetchKey is the namespace under which fetch timestamps are persisted.
const FetchKey = "user_data_fetch"

// FetchCache records when user data was last refreshed per address.
// It is advisory: a lost entry only causes an extra resync.
type FetchCache interface {
	// LastFetch returns the last refresh time. ok is false when none is recorded.
	LastFetch(ctx context.Context, address string) (at time.Time, ok bool, err error)

	// MarkFetched records a refresh at the given time.
	MarkFetched(ctx context.Context, address string, at time.Time) error

	// Forget drops the entry for address.
	Forget(ctx context.Context, address string) error

	Close() error
}

// NormalizeAddress lowercases addresses so lookups are case-insensitive.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
