package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// NewRedisStore returns a ulule limiter store sharing the API Redis client.
func NewRedisStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if prefix == "" {
		prefix = "rl:login"
	}
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
}

// ClientKey scopes a budget to tenant and client IP.
func ClientKey(r *http.Request) string {
	return tenant.Key(r.Context(), common.ClientIP(r))
}

// Login builds the per-IP login limiter middleware. A store failure answers
// 503 and is logged.
func Login(store limiter.Store, perMinute int, log zerolog.Logger) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 10
	}
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}
	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithKeyGetter(ClientKey),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rate.Period.Seconds())))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn().Err(err).Msg("login limiter unavailable")
			common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "try again shortly", nil)
		}),
	)
	return mw.Handler
}
