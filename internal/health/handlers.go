// Package health serves the liveness and readiness endpoints of the API and
// worker processes.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Checker pings the two hard dependencies: Postgres and Redis.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// DependencyCheck tests an optional dependency such as the kitchen broker. A
// failing one marks the instance degraded, never unready.
type DependencyCheck func(ctx context.Context) error

var draining atomic.Bool

// SetReady flips the process-wide readiness flag. Shutdown clears it so load
// balancers stop routing before connections close.
func SetReady(ready bool) { draining.Store(!ready) }

type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
	Optional     map[string]DependencyCheck
}

// Report is the readiness body. Status is ready, degraded, unready or
// draining.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	switch {
	case draining.Load():
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "draining"})
		return
	case h.Checker == nil:
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "unready"})
		return
	}
	rep := h.check(r.Context())
	code := http.StatusOK
	if rep.Status == "unready" {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, rep)
}

// check runs every dependency check concurrently, each under its own timeout.
func (h Handler) check(ctx context.Context) Report {
	dbTimeout := within(h.DBTimeout, 500*time.Millisecond)
	redisTimeout := within(h.RedisTimeout, 300*time.Millisecond)

	var (
		mu                 sync.Mutex
		wg                 sync.WaitGroup
		checks             = make(map[string]string, 2+len(h.Optional))
		hardFail, softFail bool
	)
	run := func(name string, p DependencyCheck, timeout time.Duration, hard bool) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			err := p(pctx)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				checks[name] = "ok"
			case hard:
				hardFail = true
				checks[name] = err.Error()
			default:
				softFail = true
				checks[name] = "degraded: " + err.Error()
			}
		}()
	}
	run("db", func(ctx context.Context) error { return h.Checker.PingDB(ctx, dbTimeout) }, dbTimeout, true)
	run("redis", func(ctx context.Context) error { return h.Checker.PingRedis(ctx, redisTimeout) }, redisTimeout, true)
	for name, p := range h.Optional {
		run(name, p, redisTimeout, false)
	}
	wg.Wait()

	rep := Report{Status: "ready", Checks: checks}
	if hardFail {
		rep.Status = "unready"
	} else if softFail {
		rep.Status = "degraded"
	}
	return rep
}

func within(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
