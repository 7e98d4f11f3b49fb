// Package scheduler runs the periodic maintenance jobs on the worker with
// robfig/cron. Every run takes a Redis lock so only one worker executes a job
// at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// Locker is satisfied by lock.Locker.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (bool, error)
}

// TenantLister lists the tenants per-tenant jobs iterate.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]dbgen.Tenant, error)
}

// Job is a named cron entry. Timeout bounds a single run and doubles as the
// lock TTL.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler owns the cron instance.
type Scheduler struct {
	Lock    Locker
	Tenants TenantLister
	Log     zerolog.Logger

	base context.Context
	cron *cron.Cron
	jobs map[string]Job
}

// New builds a scheduler evaluating specs in UTC. base is the parent context
// of every run.
func New(base context.Context, locker Locker, tenants TenantLister, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log}
	return &Scheduler{
		Lock:    locker,
		Tenants: tenants,
		Log:     log,
		base:    base,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs: map[string]Job{},
	}
}

// Add registers job. An empty spec disables it.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("scheduler: job needs a name and a run func")
	}
	if job.Spec == "" {
		s.Log.Info().Str("job", job.Name).Msg("job disabled")
		return nil
	}
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("scheduler: duplicate job %q", job.Name)
	}
	if _, err := s.cron.AddFunc(job.Spec, func() { _ = s.Trigger(s.base, job.Name) }); err != nil {
		return fmt.Errorf("scheduler: job %s: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	return nil
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

// Trigger runs the named job now under its lock. A run skipped because another
// worker holds the lock is not an error.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	ran, err := s.Lock.TryWithLock(ctx, "scheduler:"+job.Name, timeout, job.Run)
	result := "ok"
	switch {
	case err != nil:
		result = "error"
		s.Log.Error().Err(err).Str("job", job.Name).Msg("scheduled job failed")
	case !ran:
		result = "skipped"
		s.Log.Debug().Str("job", job.Name).Msg("job locked elsewhere")
	default:
		s.Log.Info().Str("job", job.Name).Dur("took", time.Since(start)).Msg("scheduled job done")
	}
	obs.IncCounter(obs.ScheduledRunsTotal, job.Name, result)
	return err
}

// PerTenant adapts fn into a job body that runs once per tenant with the
// tenant on the context. Failures are joined; one tenant failing does not
// stop the others.
func (s *Scheduler) PerTenant(fn func(ctx context.Context, info tenant.Info) error) func(context.Context) error {
	return func(ctx context.Context) error {
		rows, err := s.Tenants.ListTenants(ctx)
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}
		var errs []error
		for _, row := range rows {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}
			info := tenant.InfoFromRow(row)
			if err := fn(tenant.WithInfo(ctx, info), info); err != nil {
				errs = append(errs, fmt.Errorf("tenant %s: %w", info.Slug, err))
			}
		}
		return errors.Join(errs...)
	}
}

type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug().Fields(kv).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error().Err(err).Fields(kv).Msg(msg)
}
