package scheduler_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/loyalty"
	"github.com/noah-isme/backend-resto/internal/scheduler"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type tenants []dbgen.Tenant

func (t tenants) ListTenants(context.Context) ([]dbgen.Tenant, error) { return t, nil }

func twoTenants() tenants {
	return tenants{
		{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, Slug: "warung", TimeZone: "UTC"},
		{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, Slug: "kopi", TimeZone: "UTC"},
	}
}

func newScheduler(t *testing.T, list scheduler.TenantLister) (*scheduler.Scheduler, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return scheduler.New(context.Background(), lock.Locker{R: client}, list, zerolog.New(io.Discard)), mr
}

type recorder struct {
	mu      sync.Mutex
	tenants []string
	grace   time.Duration
	failFor string
}

func (r *recorder) seen(ctx context.Context) error {
	id, _ := tenant.From(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants = append(r.tenants, id)
	if id != "" && id == r.failFor {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) MarkNoShows(ctx context.Context, grace time.Duration, _ int32) (int, error) {
	r.grace = grace
	return 1, r.seen(ctx)
}

func (r *recorder) ExpirePoints(ctx context.Context, _ pgtype.UUID) (loyalty.ExpiryResult, error) {
	return loyalty.ExpiryResult{}, r.seen(ctx)
}

func (r *recorder) RunBirthdays(ctx context.Context, _ pgtype.UUID) (int, error) {
	return 0, r.seen(ctx)
}

func (r *recorder) AlertLowStock(ctx context.Context) (int, error) { return 0, r.seen(ctx) }

func (r *recorder) Warm(ctx context.Context) error { return r.seen(ctx) }

func TestPerTenantJobsRunForEveryTenant(t *testing.T) {
	list := twoTenants()
	s, _ := newScheduler(t, list)
	rec := &recorder{failFor: tenant.InfoFromRow(list[0]).ID}
	specs := scheduler.DefaultSpecs()
	require.NoError(t, s.Register(specs, scheduler.Services{Reservations: rec, Loyalty: rec, Inventory: rec, Reports: rec}))

	err := s.Trigger(context.Background(), scheduler.JobNoShowSweep)
	require.ErrorContains(t, err, "tenant warung")
	require.Equal(t, []string{tenant.InfoFromRow(list[0]).ID, tenant.InfoFromRow(list[1]).ID}, rec.tenants)
	require.Equal(t, 30*time.Minute, rec.grace)

	rec.tenants = nil
	rec.failFor = ""
	require.NoError(t, s.Trigger(context.Background(), scheduler.JobReportWarm))
	require.Equal(t, []string{""}, rec.tenants)

	require.Error(t, s.Trigger(context.Background(), "nope"))
}

func TestTriggerSkipsWhenLocked(t *testing.T) {
	s, mr := newScheduler(t, twoTenants())
	calls := 0
	require.NoError(t, s.Add(scheduler.Job{Name: "demo", Spec: "@hourly", Run: func(context.Context) error {
		calls++
		return nil
	}}))

	require.NoError(t, mr.Set("lock:scheduler:demo", "other-worker"))
	require.NoError(t, s.Trigger(context.Background(), "demo"))
	require.Zero(t, calls)

	mr.Del("lock:scheduler:demo")
	require.NoError(t, s.Trigger(context.Background(), "demo"))
	require.Equal(t, 1, calls)
}

func TestAddValidates(t *testing.T) {
	s, _ := newScheduler(t, twoTenants())
	run := func(context.Context) error { return nil }

	require.Error(t, s.Add(scheduler.Job{Spec: "@hourly", Run: run}))
	require.Error(t, s.Add(scheduler.Job{Name: "bad", Spec: "not a spec", Run: run}))
	require.NoError(t, s.Add(scheduler.Job{Name: "off", Run: run}))
	require.Error(t, s.Trigger(context.Background(), "off"))

	require.NoError(t, s.Add(scheduler.Job{Name: "dup", Spec: "@daily", Run: run}))
	require.Error(t, s.Add(scheduler.Job{Name: "dup", Spec: "@daily", Run: run}))
}
