package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/metrics"
)

// Client is the record store client: plain get/set/delete/scan over Redis.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis url is required")
	}
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

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrTransport, err)
	}
	return nil
}

// Get returns the value stored at key. A missing key is reported with
// found=false and a nil error.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	defer observe("get")()

	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.StoreOpsTotal.WithLabelValues("get", "miss").Inc()
		return "", false, nil
	}
	if err != nil {
		metrics.StoreOpsTotal.WithLabelValues("get", "error").Inc()
		return "", false, fmt.Errorf("%w: get %s: %v", domain.ErrTransport, key, err)
	}
	metrics.StoreOpsTotal.WithLabelValues("get", "ok").Inc()
	return val, true, nil
}

// Set writes value at key without expiry, overwriting any previous value.
func (c *Client) Set(ctx context.Context, key, value string) error {
	defer observe("set")()

	err := c.rdb.Set(ctx, key, value, 0).Err()
	metrics.StoreOpsTotal.WithLabelValues("set", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrTransport, key, err)
	}
	return nil
}

// Delete removes key and reports whether it existed.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	defer observe("del")()

	n, err := c.rdb.Del(ctx, key).Result()
	metrics.StoreOpsTotal.WithLabelValues("del", metrics.Result(err)).Inc()
	if err != nil {
		return false, fmt.Errorf("%w: del %s: %v", domain.ErrTransport, key, err)
	}
	return n > 0, nil
}

// ScanKeys enumerates keys matching pattern with SCAN, so large keyspaces
// do not block the server the way KEYS would.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	defer observe("scan")()

	seen := make(map[string]struct{})
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		// SCAN may return a key more than once
		key := iter.Val()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		metrics.StoreOpsTotal.WithLabelValues("scan", "error").Inc()
		return nil, fmt.Errorf("%w: scan %s: %v", domain.ErrTransport, pattern, err)
	}
	metrics.StoreOpsTotal.WithLabelValues("scan", "ok").Inc()
	return keys, nil
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
