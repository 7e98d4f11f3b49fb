// Package queue is a small Redis task queue with delayed retries, a
// visibility timeout and a Postgres dead letter store. Each task remembers the
// tenant it was enqueued for and the worker restores it on the job context.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/resilience"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

const (
	defaultMaxAttempts = 10
	idlePoll           = 100 * time.Millisecond
)

// Task is a unit of work. Attempt is 1 on the first delivery.
type Task struct {
	Kind           string
	Payload        []byte
	IdempotencyKey string
	TenantID       string
	Attempt        int
	MaxAttempts    int
	Delay          time.Duration
}

type message struct {
	Kind        string `json:"kind"`
	Key         string `json:"key,omitempty"`
	TenantID    string `json:"tenant_id,omitempty"`
	Payload     []byte `json:"payload"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	AvailableAt int64  `json:"available_at"`
	LastError   string `json:"last_error,omitempty"`
}

func decodeMessage(raw []byte) (message, error) {
	var msg message
	err := json.Unmarshal(raw, &msg)
	return msg, err
}

type keys struct {
	prefix string
}

func (k keys) ready(kind string) string      { return k.join("queue", kind) }
func (k keys) processing(kind string) string { return k.join("queue", kind, "processing") }
func (k keys) dlq(kind string) string        { return k.join("queue", kind, "dlq") }
func (k keys) dedup(kind, key string) string { return k.join("queue", "dedup", kind, key) }

func (k keys) join(parts ...string) string {
	out := k.prefix
	for _, p := range parts {
		if out != "" {
			out += ":"
		}
		out += p
	}
	return out
}

func validKind(kind string) bool {
	if kind == "" {
		return false
	}
	for i := 0; i < len(kind); i++ {
		c := kind[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == ':' {
			continue
		}
		return false
	}
	return true
}

// Enqueuer publishes tasks. A task with an idempotency key is accepted once
// per DedupTTL; the key is released when the task finishes.
type Enqueuer struct {
	R           *redis.Client
	Prefix      string
	DedupTTL    time.Duration
	MaxAttempts int
}

// Enqueue schedules t. The tenant is taken from ctx unless t names one.
func (e Enqueuer) Enqueue(ctx context.Context, t Task) error {
	if e.R == nil {
		return errors.New("queue: redis client not configured")
	}
	if !validKind(t.Kind) {
		return fmt.Errorf("queue: invalid task kind %q", t.Kind)
	}
	msg := message{
		Kind:        t.Kind,
		Key:         t.IdempotencyKey,
		TenantID:    t.TenantID,
		Payload:     t.Payload,
		Attempt:     max(t.Attempt, 0),
		MaxAttempts: t.MaxAttempts,
		AvailableAt: time.Now().Add(t.Delay).UnixNano(),
	}
	if msg.TenantID == "" {
		msg.TenantID, _ = tenant.From(ctx)
	}
	if msg.MaxAttempts <= 0 {
		msg.MaxAttempts = e.MaxAttempts
	}
	if msg.MaxAttempts <= 0 {
		msg.MaxAttempts = defaultMaxAttempts
	}
	k := keys{e.Prefix}
	if msg.Key != "" {
		ttl := e.DedupTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		ok, err := e.R.SetNX(ctx, k.dedup(msg.Kind, msg.Key), "1", ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return e.R.ZAdd(ctx, k.ready(msg.Kind), redis.Z{Score: float64(msg.AvailableAt), Member: raw}).Err()
}

// Worker consumes one kind. A job runs with a deadline of SoftDeadline
// (default VisibilityTimeout); jobs still marked processing after the
// visibility timeout are handed out again.
type Worker struct {
	R                 *redis.Client
	Prefix            string
	Kind              string
	Concurrency       int
	VisibilityTimeout time.Duration
	SoftDeadline      time.Duration
	RetryBase         time.Duration
	RetryJitter       float64
	Store             Store
	Logger            zerolog.Logger
	Handler           func(context.Context, Task) error
}

// Run processes tasks until ctx is cancelled, then waits for running jobs.
func (w Worker) Run(ctx context.Context) error {
	if w.R == nil {
		return errors.New("queue: worker redis client not configured")
	}
	if w.Handler == nil {
		return errors.New("queue: worker handler not configured")
	}
	if !validKind(w.Kind) {
		return fmt.Errorf("queue: invalid worker kind %q", w.Kind)
	}
	if w.VisibilityTimeout <= 0 {
		w.VisibilityTimeout = 30 * time.Second
	}
	if w.SoftDeadline <= 0 || w.SoftDeadline > w.VisibilityTimeout {
		w.SoftDeadline = w.VisibilityTimeout
	}
	if w.RetryBase <= 0 {
		w.RetryBase = 200 * time.Millisecond
	}
	log := w.Logger.With().Str("component", "queue").Str("kind", w.Kind).Logger()

	sem := make(chan struct{}, max(w.Concurrency, 1))
	var wg sync.WaitGroup
	defer wg.Wait()

	requeue := time.NewTicker(time.Second)
	defer requeue.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-requeue.C:
			if err := w.requeueExpired(ctx); err != nil && ctx.Err() == nil {
				return err
			}
		default:
		}

		raw, msg, ok, err := w.claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !ok {
			sleep(ctx, idlePoll)
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			w.process(ctx, log, raw, msg)
		}()
	}
}

// claim pops the next due message and parks it in the processing set.
func (w Worker) claim(ctx context.Context) (string, message, bool, error) {
	k := keys{w.Prefix}
	res, err := w.R.ZRangeByScore(ctx, k.ready(w.Kind), &redis.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(time.Now().UnixNano(), 10), Count: 1,
	}).Result()
	if err != nil || len(res) == 0 {
		return "", message{}, false, err
	}
	removed, err := w.R.ZRem(ctx, k.ready(w.Kind), res[0]).Result()
	if err != nil || removed == 0 {
		return "", message{}, false, err
	}
	msg, err := decodeMessage([]byte(res[0]))
	if err != nil {
		w.Logger.Error().Err(err).Str("kind", w.Kind).Msg("drop undecodable task")
		return "", message{}, false, nil
	}
	msg.Attempt++
	encoded, err := json.Marshal(msg)
	if err != nil {
		return "", message{}, false, err
	}
	deadline := time.Now().Add(w.VisibilityTimeout).UnixNano()
	if err := w.R.ZAdd(ctx, k.processing(w.Kind), redis.Z{Score: float64(deadline), Member: encoded}).Err(); err != nil {
		return "", message{}, false, err
	}
	return string(encoded), msg, true, nil
}

func (w Worker) process(ctx context.Context, log zerolog.Logger, raw string, msg message) {
	jobCtx, cancel := context.WithTimeout(ctx, w.SoftDeadline)
	defer cancel()
	if msg.TenantID != "" {
		jobCtx = tenant.With(jobCtx, msg.TenantID)
	}
	err := w.Handler(jobCtx, Task{
		Kind:           msg.Kind,
		Payload:        msg.Payload,
		IdempotencyKey: msg.Key,
		TenantID:       msg.TenantID,
		Attempt:        msg.Attempt,
		MaxAttempts:    msg.MaxAttempts,
	})
	// Bookkeeping must survive shutdown of the run context.
	bg := context.WithoutCancel(ctx)
	k := keys{w.Prefix}
	_ = w.R.ZRem(bg, k.processing(w.Kind), raw).Err()
	if err == nil {
		w.release(bg, msg)
		recordProcessed(w.Kind, "ok")
		return
	}
	msg.LastError = err.Error()
	if msg.Attempt >= msg.MaxAttempts {
		w.deadLetter(bg, log, msg)
		return
	}
	msg.AvailableAt = time.Now().Add(resilience.Backoff(w.RetryBase, msg.Attempt, w.RetryJitter)).UnixNano()
	encoded, mErr := json.Marshal(msg)
	if mErr != nil {
		return
	}
	if zErr := w.R.ZAdd(bg, k.ready(w.Kind), redis.Z{Score: float64(msg.AvailableAt), Member: encoded}).Err(); zErr != nil {
		log.Error().Err(zErr).Msg("requeue task")
	}
	log.Warn().Err(err).Int("attempt", msg.Attempt).Str("key", msg.Key).Msg("task failed, retrying")
	recordProcessed(w.Kind, "retry")
}

func (w Worker) deadLetter(ctx context.Context, log zerolog.Logger, msg message) {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return
	}
	log.Error().Str("error", msg.LastError).Int("attempt", msg.Attempt).Str("key", msg.Key).Msg("task moved to dlq")
	recordProcessed(w.Kind, "dlq")
	defer w.release(ctx, msg)
	if w.Store != nil {
		lastErr := msg.LastError
		_, err := w.Store.InsertQueueDlq(ctx, DLQEntry{
			TenantID:       msg.TenantID,
			Kind:           msg.Kind,
			IdempotencyKey: msg.Key,
			Payload:        encoded,
			Attempts:       msg.Attempt,
			LastError:      &lastErr,
		})
		if err == nil {
			return
		}
		log.Error().Err(err).Msg("persist dlq entry, keeping it in redis")
	}
	_ = w.R.LPush(ctx, keys{w.Prefix}.dlq(w.Kind), encoded).Err()
}

func (w Worker) release(ctx context.Context, msg message) {
	if msg.Key != "" {
		_ = w.R.Del(ctx, keys{w.Prefix}.dedup(msg.Kind, msg.Key)).Err()
	}
}

func (w Worker) requeueExpired(ctx context.Context) error {
	k := keys{w.Prefix}
	due, err := w.R.ZRangeByScore(ctx, k.processing(w.Kind), &redis.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(time.Now().UnixNano(), 10),
	}).Result()
	if err != nil {
		return err
	}
	for _, raw := range due {
		if n, err := w.R.ZRem(ctx, k.processing(w.Kind), raw).Result(); err != nil || n == 0 {
			continue
		}
		msg, err := decodeMessage([]byte(raw))
		if err != nil {
			continue
		}
		msg.AvailableAt = time.Now().UnixNano()
		encoded, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		_ = w.R.ZAdd(ctx, k.ready(w.Kind), redis.Z{Score: float64(msg.AvailableAt), Member: encoded}).Err()
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
