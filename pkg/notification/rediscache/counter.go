package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

// DefaultTTL bounds how long a cached count can outlive a missed
// invalidation.
const DefaultTTL = 5 * time.Minute

// Counter is a Redis-backed notification.UnreadCounter. It is a best-effort
// cache: entries expire after the TTL and storage stays the source of truth.
type Counter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithTTL overrides the cache entry lifetime.
func WithTTL(ttl time.Duration) CounterOption {
	return func(c *Counter) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix overrides the key prefix, for multi-tenant Redis instances.
func WithKeyPrefix(prefix string) CounterOption {
	return func(c *Counter) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewCounter creates an unread-count cache over the given Redis client.
func NewCounter(client *redis.Client, opts ...CounterOption) *Counter {
	c := &Counter{
		client: client,
		prefix: "notification:unread:",
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Counter) key(recipientID string) string {
	return c.prefix + recipientID
}

func (c *Counter) Get(ctx context.Context, recipientID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.key(recipientID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read unread count cache: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten on the
		// next Set.
		return 0, false, nil
	}
	return count, true, nil
}

func (c *Counter) Set(ctx context.Context, recipientID string, count int64) error {
	if err := c.client.Set(ctx, c.key(recipientID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write unread count cache: %w", err)
	}
	return nil
}

func (c *Counter) Invalidate(ctx context.Context, recipientID string) error {
	if err := c.client.Del(ctx, c.key(recipientID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate unread count cache: %w", err)
	}
	return nil
}

var _ notification.UnreadCounter = (*Counter)(nil)
