package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/queue"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

func ticket(key string, attempts int) queue.Task {
	return queue.Task{Kind: ticketKind, Payload: []byte(`{"order":"` + key + `"}`), IdempotencyKey: key, MaxAttempts: attempts}
}

func TestEnqueueValidatesAndDeduplicates(t *testing.T) {
	client := newRedis(t)
	enq := queue.Enqueuer{R: client, Prefix: "dd", DedupTTL: time.Minute}
	ctx := context.Background()

	require.Error(t, enq.Enqueue(ctx, queue.Task{Kind: "Bad Kind"}))
	require.Error(t, enq.Enqueue(ctx, queue.Task{}))
	require.Error(t, queue.Enqueuer{}.Enqueue(ctx, ticket("x", 1)))

	for range 3 {
		require.NoError(t, enq.Enqueue(ctx, ticket("R-100", 0)))
	}
	require.NoError(t, enq.Enqueue(ctx, ticket("R-101", 0)))

	depth, err := client.ZCard(ctx, "dd:queue:"+ticketKind).Result()
	require.NoError(t, err)
	require.Equal(t, int64(2), depth)
}

func TestWorkerDeliversWithTenant(t *testing.T) {
	client := newRedis(t)
	enq := queue.Enqueuer{R: client, Prefix: "tn"}

	type delivery struct{ ctxTenant, taskTenant, payload string }
	seen := make(chan delivery, 2)
	startWorker(t, queue.Worker{
		R: client, Prefix: "tn",
		Handler: func(ctx context.Context, task queue.Task) error {
			id, _ := tenant.From(ctx)
			seen <- delivery{id, task.TenantID, string(task.Payload)}
			return nil
		},
	})

	require.NoError(t, enq.Enqueue(tenant.With(context.Background(), tenantA), ticket("R-1", 0)))
	b := ticket("R-2", 0)
	b.TenantID = tenantB
	require.NoError(t, enq.Enqueue(context.Background(), b))

	got := map[string]string{}
	for range 2 {
		select {
		case d := <-seen:
			require.Equal(t, d.ctxTenant, d.taskTenant)
			got[d.taskTenant] = d.payload
		case <-time.After(2 * time.Second):
			t.Fatal("tickets not delivered")
		}
	}
	require.Equal(t, map[string]string{tenantA: `{"order":"R-1"}`, tenantB: `{"order":"R-2"}`}, got)
}

func TestWorkerRetriesFailedTicket(t *testing.T) {
	client := newRedis(t)
	var calls atomic.Int32
	done := make(chan int, 1)
	startWorker(t, queue.Worker{
		R: client, Prefix: "retry", RetryJitter: 0.1,
		Handler: func(_ context.Context, task queue.Task) error {
			if calls.Add(1) == 1 {
				return errors.New("broker unreachable")
			}
			done <- task.Attempt
			return nil
		},
	})

	require.NoError(t, queue.Enqueuer{R: client, Prefix: "retry"}.Enqueue(context.Background(), ticket("R-7", 3)))
	select {
	case attempt := <-done:
		require.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("ticket was not retried")
	}
}

func TestWorkerRedeliversAfterVisibilityTimeout(t *testing.T) {
	client := newRedis(t)
	attempts := make(chan int, 2)
	_, stop := startWorker(t, queue.Worker{
		R: client, Prefix: "vis",
		VisibilityTimeout: 150 * time.Millisecond,
		SoftDeadline:      80 * time.Millisecond,
		RetryBase:         20 * time.Millisecond,
		Store:             newMemoryStore(),
		Handler: func(ctx context.Context, task queue.Task) error {
			attempts <- task.Attempt
			if task.Attempt == 1 {
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		},
	})

	require.NoError(t, queue.Enqueuer{R: client, Prefix: "vis", MaxAttempts: 3}.Enqueue(context.Background(), ticket("R-9", 3)))
	require.Eventually(t, func() bool { return len(attempts) == 2 }, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, 1, <-attempts)
	require.Equal(t, 2, <-attempts)
	stop()

	ready, err := client.ZCard(context.Background(), "vis:queue:"+ticketKind).Result()
	require.NoError(t, err)
	require.Zero(t, ready)
}

func TestWorkerDeadLettersExhaustedTicket(t *testing.T) {
	client := newRedis(t)
	store := newMemoryStore()
	_, stop := startWorker(t, queue.Worker{
		R: client, Prefix: "dlq",
		VisibilityTimeout: 120 * time.Millisecond,
		RetryBase:         20 * time.Millisecond,
		Store:             store,
		Handler:           func(context.Context, queue.Task) error { return errors.New("broker down") },
	})

	ctx := tenant.With(context.Background(), tenantA)
	require.NoError(t, queue.Enqueuer{R: client, Prefix: "dlq"}.Enqueue(ctx, ticket("R-42", 2)))

	require.Eventually(t, func() bool {
		n, err := store.CountQueueDlq(context.Background(), queue.Filter{TenantID: tenantA})
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)
	stop()

	rows, err := store.ListQueueDlq(context.Background(), queue.Filter{TenantID: tenantA}, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	e := rows[0]
	require.Equal(t, ticketKind, e.Kind)
	require.Equal(t, "R-42", e.IdempotencyKey)
	require.Equal(t, 2, e.Attempts)
	require.NotNil(t, e.LastError)
	require.Equal(t, "broker down", *e.LastError)
	require.NotEmpty(t, e.Payload)

	// The dedup key is gone so the ticket can be replayed.
	n, err := client.Exists(context.Background(), "dlq:queue:dedup:"+ticketKind+":R-42").Result()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestWorkerDeadLettersToRedisWithoutStore(t *testing.T) {
	client := newRedis(t)
	startWorker(t, queue.Worker{
		R: client, Prefix: "fb",
		Handler: func(context.Context, queue.Task) error { return errors.New("nope") },
	})

	require.NoError(t, queue.Enqueuer{R: client, Prefix: "fb"}.Enqueue(context.Background(), ticket("R-5", 1)))
	require.Eventually(t, func() bool {
		n, err := client.LLen(context.Background(), "fb:queue:"+ticketKind+":dlq").Result()
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)
}
