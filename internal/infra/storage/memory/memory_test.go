package memory

import (
	"context"
	"testing"
	"time"
)

func TestFetchCache(t *testing.T) {
	ctx := context.Background()
	c := NewFetchCache()

	if _, ok, _ := c.LastFetch(ctx, "0xABC"); ok {
		t.Fatal("expected empty cache")
	}

	at := time.Unix(1_700_000_000, 0)
	if err := c.MarkFetched(ctx, "0xABC", at); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}
	got, ok, err := c.LastFetch(ctx, "0xabc")
	if err != nil || !ok || !got.Equal(at) {
		t.Errorf("LastFetch = %v, %v, %v", got, ok, err)
	}

	_ = c.Forget(ctx, " 0xAbC ")
	if _, ok, _ := c.LastFetch(ctx, "0xabc"); ok {
		t.Error("entry survived Forget")
	}
}
