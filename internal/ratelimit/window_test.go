package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newWindow(t *testing.T) (Limiter, *clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := &clock{t: time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)}
	return Limiter{Client: client, Prefix: "rl", Now: c.now}, c
}

func TestLimiterSlidingWindow(t *testing.T) {
	l, c := newWindow(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "checkout:a", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2-i, d.Remaining)
		c.t = c.t.Add(10 * time.Second)
	}

	d, err := l.Allow(ctx, "checkout:a", time.Minute, 3)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 30*time.Second, d.RetryAfter)

	// Rejections are not charged: once the first call ages out one slot opens.
	c.t = c.t.Add(31 * time.Second)
	d, err = l.Allow(ctx, "checkout:a", time.Minute, 3)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Allow(ctx, "checkout:b", time.Minute, 3)
	require.NoError(t, err)
	require.Equal(t, 2, d.Remaining)
}

func TestLimiterWithoutRedisAdmits(t *testing.T) {
	d, err := Limiter{}.Allow(context.Background(), "k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestHandlerRejectsWithRetryAfter(t *testing.T) {
	l, _ := newWindow(t)
	h := Handler{Limiter: l, Config: Config{Window: time.Minute, Max: 1}}.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) }))

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		ctx := tenant.With(req.Context(), "warung-sate")
		if user != "" {
			ctx = common.WithUserID(ctx, user)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req.WithContext(ctx))
		return rr
	}

	require.Equal(t, http.StatusCreated, send("").Code)
	rr := send("")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "60", rr.Header().Get("Retry-After"))
	require.Contains(t, rr.Body.String(), "RATE_LIMITED")

	// Same IP, but a signed-in diner has a budget of their own.
	require.Equal(t, http.StatusCreated, send("user-1").Code)
}

func TestHandlerFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	var reported error
	h := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl"},
		Config:  Config{Window: time.Minute, Max: 1},
		OnError: func(err error) { reported = err },
	}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders/track/R-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, reported)
}
