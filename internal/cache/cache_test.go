package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/tenant"
)

func TestVersionedKeysChangeAfterBump(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := New(rdb, time.Minute)
	ctx := tenant.With(context.Background(), "t1")

	ns := MenuNamespace(ctx)
	require.Equal(t, "t1:menu", ns)
	key := c.Versioned(ctx, ns, "items:p1")
	require.Equal(t, "t1:menu:v0:items:p1", key)
	require.NoError(t, c.SetJSON(ctx, key, map[string]int{"n": 1}))

	var got map[string]int
	hit, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 1, got["n"])

	require.NoError(t, c.Bump(ctx, ns))
	next := c.Versioned(ctx, ns, "items:p1")
	require.NotEqual(t, key, next)
	hit, err = c.GetJSON(ctx, next, &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	hit, err := c.GetJSON(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.SetJSON(context.Background(), "k", 1))
	require.NoError(t, c.Bump(context.Background(), "ns"))
	require.Equal(t, "report:sales:7d", KeyReport(context.Background(), "sales", "7d"))
}
