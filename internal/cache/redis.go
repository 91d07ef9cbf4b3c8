// Package cache provides the Redis access layer: principal caching, login
// rate limiting and the reminder stream client.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// Cache wraps a Redis client.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and pings it before returning.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	applyPoolDefaults(opt)

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping Redis: %w", err), client.Close())
	}

	return &Cache{client: client}, nil
}

// applyPoolDefaults sizes the pool for one API process. Values set in the
// URL query (pool_size=...) win.
func applyPoolDefaults(opt *redis.Options) {
	if opt.PoolSize == 0 {
		opt.PoolSize = 10
	}
	if opt.MinIdleConns == 0 {
		opt.MinIdleConns = 2
	}
	if opt.ConnMaxIdleTime == 0 {
		opt.ConnMaxIdleTime = 5 * time.Minute
	}
}

// NewFromClient wraps an existing client, e.g. one pointed at a test server.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping implements the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client to the reminder stream publisher and worker.
func (c *Cache) Client() *redis.Client {
	return c.client
}
