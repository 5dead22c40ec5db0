// Package redis opens the go-redis connection the learner's shared ledger
// backend runs on.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a connected go-redis client.
type Client struct {
	*redis.Client
}

// Option adjusts connection options parsed from the URL.
type Option func(*redis.Options)

// WithDialTimeout overrides the dial timeout. The URL's dial_timeout
// parameter wins when present.
func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		if o.DialTimeout == 0 {
			o.DialTimeout = d
		}
	}
}

// New dials url and fails unless the server answers PING. Without options the
// dial timeout is five seconds.
func New(ctx context.Context, url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("redis URL is required")
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	for _, opt := range append(opts, WithDialTimeout(5*time.Second)) {
		opt(options)
	}

	c := &Client{Client: redis.NewClient(options)}
	if err := c.Health(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("redis ping failed: %w", err), c.Close())
	}
	return c, nil
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
