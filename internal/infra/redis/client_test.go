package redis

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLockKeyIsCaseInsensitive(t *testing.T) {
	if lockKey("0xABC") != lockKey(" 0xabc") {
		t.Errorf("lock keys differ: %q vs %q", lockKey("0xABC"), lockKey(" 0xabc"))
	}
	if got := lockKey("0xAbC"); got != "resync:0xabc" {
		t.Errorf("lockKey = %q", got)
	}
}

func TestClientLive(t *testing.T) {
	url := os.Getenv("INTMAX_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis test. Set INTMAX_TEST_REDIS_URL to run.")
	}
	c, err := NewClient(Config{URL: url})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()
	ctx := context.Background()
	addr := "0xTest" + time.Now().Format("150405.000")
	defer c.Forget(ctx, addr)

	at := time.UnixMilli(time.Now().UnixMilli())
	if err := c.MarkFetched(ctx, addr, at); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}
	got, ok, err := c.LastFetch(ctx, addr)
	if err != nil || !ok || !got.Equal(at) {
		t.Errorf("LastFetch = %v, %v, %v", got, ok, err)
	}

	ok, err = c.AcquireLock(ctx, addr, time.Minute)
	if err != nil || !ok {
		t.Fatalf("AcquireLock = %v, %v", ok, err)
	}
	if again, _ := c.AcquireLock(ctx, addr, time.Minute); again {
		t.Error("lock acquired twice")
	}
	if err := c.ReleaseLock(ctx, addr); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
}
