// Package lock keeps a scheduled job from running on more than one worker at
// a time.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseIfOwner deletes KEYS[1] only while it still holds our token, so a
// run that outlived its TTL cannot free a lock another worker now holds.
var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

const defaultTTL = 30 * time.Second

// Locker takes SET NX locks under "lock:<key>".
type Locker struct {
	R *redis.Client
}

// TryWithLock runs fn when the lock on key is free and reports whether it
// ran. A held lock is not an error: the caller simply skips this round.
func (l Locker) TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (bool, error) {
	if l.R == nil {
		return false, errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return false, errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	name := "lock:" + key
	owner := uuid.NewString()
	acquired, err := l.R.SetNX(ctx, name, owner, ttl).Result()
	if err != nil || !acquired {
		return false, err
	}
	defer func() {
		// ctx may already be cancelled when fn returns.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseIfOwner.Run(rctx, l.R, []string{name}, owner).Err()
	}()
	return true, fn(ctx)
}
