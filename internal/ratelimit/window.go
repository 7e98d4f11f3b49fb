package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/common"
)

// slidingWindow trims entries older than the window, then admits the call
// only if fewer than max remain. Rejected calls are not recorded, so a client
// hammering the endpoint is not locked out past the window.
//
// KEYS[1] zset; ARGV: now_ms, window_ms, max, member.
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
if count < max then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  redis.call('PEXPIRE', KEYS[1], window)
  return {1, max - count - 1, 0}
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local retry = window
if oldest[2] then
  retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a Redis sliding-window limiter for the reservation, checkout
// and order lookup endpoints.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

// Allow charges one call against key. A nil client or non-positive limit
// admits everything.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max}, nil
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	ms := now().UnixMilli()
	res, err := slidingWindow.Run(ctx, l.Client,
		[]string{l.Prefix + ":" + key},
		ms, window.Milliseconds(), max, strconv.FormatInt(ms, 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Config names the budget a Handler enforces.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces Config in front of a route. When Redis is unavailable the
// request is let through and OnError is told.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := CallerKey(r)
		if h.Config.Key != nil {
			key = h.Config.Key(r)
		}
		d, err := h.Limiter.Allow(r.Context(), key, h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.Config.Max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			secs := int((d.RetryAfter + time.Second - 1) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", map[string]string{
				"retry_after_seconds": strconv.Itoa(secs),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallerKey budgets signed-in users by account and guests by tenant and IP,
// so diners sharing a restaurant's Wi-Fi do not starve each other once they
// log in.
func CallerKey(r *http.Request) string {
	if id, ok := common.UserID(r.Context()); ok {
		return "user:" + id
	}
	return "ip:" + ClientKey(r)
}
