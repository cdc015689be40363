// Package cache provides the read-through profile cache used by the "who am I" endpoint.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nhadat/listing-auth/internal/models"
)

// DefaultPrefix namespaces profile keys in a shared Redis.
const DefaultPrefix = "nhadat:auth:profile:"

// Redis caches profiles in Redis as JSON.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps client. An empty prefix uses DefaultPrefix.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Dial parses a redis:// URL, checks connectivity and returns a cache.
func Dial(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, DefaultPrefix, ttl), nil
}

// Get returns the cached profile for id. A miss is (nil, false, nil).
func (c *Redis) Get(ctx context.Context, id string) (*models.Profile, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return &p, true, nil
}

// Set stores p under its id for the configured TTL.
func (c *Redis) Set(ctx context.Context, p models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+p.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete evicts the cached profile for id.
func (c *Redis) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Ping checks if the Redis connection is healthy.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Noop is used when no Redis is configured. Every lookup misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.Profile, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, models.Profile) error                  { return nil }
func (Noop) Delete(context.Context, string) error                       { return nil }
