package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage"
)

// Client persists fetch timestamps and resync locks in Redis.
type Client struct {
	rdb redis.UniversalClient
}

var _ storage.FetchCache = (*Client)(nil)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an existing connection.
func NewFromClient(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key helpers
func lockKey(address string) string {
	return fmt.Sprintf("resync:%s", storage.NormalizeAddress(address))
}

// LastFetch reads the unix-millisecond timestamp stored under the fetch hash.
func (c *Client) LastFetch(ctx context.Context, address string) (time.Time, bool, error) {
	val, err := c.rdb.HGet(ctx, storage.FetchKey, storage.NormalizeAddress(address)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("hget failed: %w", err)
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid fetch timestamp %q: %w", val, err)
	}
	return time.UnixMilli(ms), true, nil
}

func (c *Client) MarkFetched(ctx context.Context, address string, at time.Time) error {
	field := storage.NormalizeAddress(address)
	if err := c.rdb.HSet(ctx, storage.FetchKey, field, strconv.FormatInt(at.UnixMilli(), 10)).Err(); err != nil {
		return fmt.Errorf("hset failed: %w", err)
	}
	return nil
}

func (c *Client) Forget(ctx context.Context, address string) error {
	return c.rdb.HDel(ctx, storage.FetchKey, storage.NormalizeAddress(address)).Err()
}

// AcquireLock takes the cross-process resync lock for address.
func (c *Client) AcquireLock(ctx context.Context, address string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, lockKey(address), "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseLock releases the resync lock.
func (c *Client) ReleaseLock(ctx context.Context, address string) error {
	return c.rdb.Del(ctx, lockKey(address)).Err()
}
