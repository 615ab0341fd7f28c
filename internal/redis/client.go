package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dialTimeout matches the startup ping deadline. If Redis cannot answer
// within it the server runs database-only, without the recent-posts cache
// or the post event stream.
const dialTimeout = 5 * time.Second

// Client is the shared pool behind both Redis-backed concerns: the
// recent-posts sorted set and the post event stream. They ride one pool
// and are enabled or disabled together.
type Client struct {
	*redis.Client
}

// NewClient connects using a redis://[:password@]host:port[/db] URL.
// poolSize overrides the driver's default when positive; the cache reads
// and the stream workers share the pool, so size it for both.
func NewClient(redisURL string, poolSize int) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = dialTimeout
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}

	return &Client{Client: redis.NewClient(opts)}, nil
}

// Ping verifies the connection. Called once at startup; a failure here
// demotes the server to database-only listings instead of aborting.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
