package queue_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/queue"
)

const (
	tenantA = "0b0c3f3e-8f61-4c1d-9a53-5f7d3a1e0001"
	tenantB = "0b0c3f3e-8f61-4c1d-9a53-5f7d3a1e0002"

	ticketKind = "kitchen-dispatch"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// startWorker runs w until the test ends or stop is called, and waits for it
// to drain either way.
func startWorker(t *testing.T, w queue.Worker) (ctx context.Context, stop func()) {
	t.Helper()
	if w.Kind == "" {
		w.Kind = ticketKind
	}
	if w.VisibilityTimeout == 0 {
		w.VisibilityTimeout = time.Second
	}
	if w.RetryBase == 0 {
		w.RetryBase = 5 * time.Millisecond
	}
	w.Logger = zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	t.Cleanup(stop)
	return ctx, stop
}

// memoryStore is an in-memory queue_dlq table.
type memoryStore struct {
	mu   sync.Mutex
	rows []queue.DLQEntry
}

func newMemoryStore() *memoryStore { return &memoryStore{} }

func (m *memoryStore) InsertQueueDlq(_ context.Context, e queue.DLQEntry) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().Add(time.Duration(len(m.rows)) * time.Millisecond)
	}
	m.rows = append(m.rows, e)
	return e.ID, nil
}

func (m *memoryStore) DeleteQueueDlq(_ context.Context, tenantID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(e queue.DLQEntry) bool { return e.ID == id && e.TenantID == tenantID })
	return nil
}

func (m *memoryStore) GetQueueDlq(_ context.Context, tenantID string, id uuid.UUID) (queue.DLQEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.ID == id && e.TenantID == tenantID {
			return e, nil
		}
	}
	return queue.DLQEntry{}, pgx.ErrNoRows
}

// filter returns matching rows newest first.
func (m *memoryStore) filter(f queue.Filter) []queue.DLQEntry {
	var out []queue.DLQEntry
	for _, e := range m.rows {
		if e.TenantID == f.TenantID && (f.Kind == "" || e.Kind == f.Kind) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b queue.DLQEntry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (m *memoryStore) ListQueueDlq(_ context.Context, f queue.Filter, limit, offset int) ([]queue.DLQEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filter(f)
	if offset >= len(rows) {
		return []queue.DLQEntry{}, nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *memoryStore) CountQueueDlq(_ context.Context, f queue.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filter(f))), nil
}
