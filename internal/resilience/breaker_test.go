package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBreaker(minRequests int, ratio float64) (*resilience.Breaker, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)}
	return resilience.NewBreaker(minRequests, ratio, time.Minute).WithClock(c.now), c
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	b, c := newBreaker(2, 0.5)
	ctx := context.Background()

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, resilience.Closed, b.State())
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	require.False(t, b.Allow(ctx))

	c.advance(59 * time.Second)
	require.False(t, b.Allow(ctx))
	c.advance(time.Second)
	require.True(t, b.Allow(ctx), "one trial after the cool-off")
	require.Equal(t, resilience.HalfOpen, b.State())
	require.False(t, b.Allow(ctx), "only one trial while half-open")

	b.Report(ctx, true)
	require.Equal(t, resilience.Closed, b.State())
	require.True(t, b.Allow(ctx))
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	b, c := newBreaker(1, 0.5)
	ctx := context.Background()

	b.Report(ctx, false)
	c.advance(time.Minute)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerToleratesOccasionalFailures(t *testing.T) {
	b, _ := newBreaker(4, 0.5)
	ctx := context.Background()
	for i := range 20 {
		require.True(t, b.Allow(ctx))
		b.Report(ctx, i%4 != 0)
	}
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerDo(t *testing.T) {
	b, _ := newBreaker(2, 0.5)
	ctx := context.Background()
	down := errors.New("broker down")

	require.NoError(t, b.Do(ctx, func(context.Context) error { return nil }))
	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return down }), down)
	require.Equal(t, resilience.Open, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, called)
}

func TestBreakerMetrics(t *testing.T) {
	resilience.Register("test", prometheus.NewRegistry())
	b, c := newBreaker(1, 0.5)
	b.WithTarget("mailer")
	ctx := context.Background()
	state := func() float64 { return testutil.ToFloat64(resilience.BreakerState.WithLabelValues("mailer")) }

	require.Zero(t, state())
	b.Report(ctx, false)
	require.Equal(t, 1.0, state())
	c.advance(time.Minute)
	require.True(t, b.Allow(ctx))
	require.Equal(t, 2.0, state())
	b.Report(ctx, true)
	require.Zero(t, state())

	for _, tr := range [][2]string{{"closed", "open"}, {"open", "half_open"}, {"half_open", "closed"}} {
		got := testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("mailer", tr[0], tr[1]))
		require.Equal(t, 1.0, got, tr[0]+"->"+tr[1])
	}
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 0, 0))
	require.Equal(t, 400*time.Millisecond, resilience.Backoff(base, 3, 0))
	require.Equal(t, 100*time.Millisecond, resilience.Backoff(0, 1, 0))
	for range 50 {
		d := resilience.Backoff(base, 2, 0.2)
		require.GreaterOrEqual(t, d, 160*time.Millisecond)
		require.LessOrEqual(t, d, 240*time.Millisecond)
	}
}
