package notify

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Dedupe claims a key once per TTL so retried events do not send twice.
type Dedupe interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisDedupe implements Dedupe with SET NX.
type RedisDedupe struct {
	Client *redis.Client
	Prefix string
}

func (r RedisDedupe) key(k string) string {
	if r.Prefix == "" {
		return "notify:" + k
	}
	return r.Prefix + ":" + k
}

// Claim reports whether the caller is the first to claim key.
func (r RedisDedupe) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.Client == nil {
		return true, nil
	}
	return r.Client.SetNX(ctx, r.key(key), "1", ttl).Result()
}

// Release drops the claim, typically after a failed send.
func (r RedisDedupe) Release(ctx context.Context, key string) error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Del(ctx, r.key(key)).Err()
}
