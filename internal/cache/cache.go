// Package cache holds the tenant-aware Redis JSON cache used by read-heavy
// public endpoints and reports.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a cache helper. A nil client yields a no-op cache.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// TTL returns the default entry lifetime.
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	return c.SetJSONWithTTL(ctx, key, v, c.TTL())
}

// SetJSONWithTTL stores v with an explicit TTL.
func (c *Cache) SetJSONWithTTL(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Version returns the current generation of a namespace. Keys embedding the
// version become unreachable once Bump is called.
func (c *Cache) Version(ctx context.Context, namespace string) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	v, err := c.client.Get(ctx, versionKey(namespace)).Int64()
	if err != nil {
		return 0
	}
	return v
}

// Bump invalidates every key built from namespace.
func (c *Cache) Bump(ctx context.Context, namespace string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(namespace)).Err()
}

func versionKey(namespace string) string {
	return namespace + ":v"
}

// Versioned builds namespace:v<version>:suffix.
func (c *Cache) Versioned(ctx context.Context, namespace, suffix string) string {
	return namespace + ":v" + strconv.FormatInt(c.Version(ctx, namespace), 10) + ":" + suffix
}
