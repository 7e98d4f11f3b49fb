package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-resto/internal/common"
)

// ErrStoreUnavailable indicates the DLQ store dependency is not configured.
var ErrStoreUnavailable = errors.New("queue: store unavailable")

// Filter narrows DLQ queries. An empty Kind matches every kind.
type Filter struct {
	TenantID string
	Kind     string
}

// Store persists dead-lettered tasks.
type Store interface {
	InsertQueueDlq(ctx context.Context, entry DLQEntry) (uuid.UUID, error)
	DeleteQueueDlq(ctx context.Context, tenantID string, id uuid.UUID) error
	GetQueueDlq(ctx context.Context, tenantID string, id uuid.UUID) (DLQEntry, error)
	ListQueueDlq(ctx context.Context, f Filter, limit, offset int) ([]DLQEntry, error)
	CountQueueDlq(ctx context.Context, f Filter) (int64, error)
}

// DLQEntry is a dead-lettered task. Payload is the encoded queue message.
type DLQEntry struct {
	ID             uuid.UUID `json:"id"`
	TenantID       string    `json:"tenant_id,omitempty"`
	Kind           string    `json:"kind"`
	IdempotencyKey string    `json:"idempotency_key"`
	Payload        []byte    `json:"-"`
	Attempts       int       `json:"attempts"`
	LastError      *string   `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewStore returns a Store backed by the queue_dlq table.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const dlqColumns = `id, tenant_id, kind, idem_key, payload, attempts, last_error, created_at`

func tenantParam(id string) pgtype.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func scanEntry(row pgx.Row) (DLQEntry, error) {
	var (
		entry   DLQEntry
		tid     pgtype.UUID
		lastErr pgtype.Text
	)
	if err := row.Scan(&entry.ID, &tid, &entry.Kind, &entry.IdempotencyKey, &entry.Payload, &entry.Attempts, &lastErr, &entry.CreatedAt); err != nil {
		return DLQEntry{}, err
	}
	entry.TenantID = common.UUIDString(tid)
	entry.LastError = common.StringPtr(lastErr)
	return entry, nil
}

func (s *pgStore) InsertQueueDlq(ctx context.Context, entry DLQEntry) (uuid.UUID, error) {
	if s == nil || s.pool == nil {
		return uuid.Nil, ErrStoreUnavailable
	}
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `INSERT INTO queue_dlq (tenant_id, kind, idem_key, payload, attempts, last_error)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		tenantParam(entry.TenantID), entry.Kind, entry.IdempotencyKey, entry.Payload, entry.Attempts, common.TextPtr(entry.LastError)).Scan(&id)
	return id, err
}

func (s *pgStore) DeleteQueueDlq(ctx context.Context, tenantID string, id uuid.UUID) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM queue_dlq WHERE id = $1 AND tenant_id = $2`, id, tenantParam(tenantID))
	return err
}

func (s *pgStore) GetQueueDlq(ctx context.Context, tenantID string, id uuid.UUID) (DLQEntry, error) {
	if s == nil || s.pool == nil {
		return DLQEntry{}, ErrStoreUnavailable
	}
	return scanEntry(s.pool.QueryRow(ctx, `SELECT `+dlqColumns+` FROM queue_dlq WHERE id = $1 AND tenant_id = $2`, id, tenantParam(tenantID)))
}

func (s *pgStore) ListQueueDlq(ctx context.Context, f Filter, limit, offset int) ([]DLQEntry, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	limit = min(max(limit, 1), 500)
	rows, err := s.pool.Query(ctx, `SELECT `+dlqColumns+` FROM queue_dlq
WHERE tenant_id = $1 AND ($2::text = '' OR kind = $2)
ORDER BY created_at DESC LIMIT $3 OFFSET $4`, tenantParam(f.TenantID), strings.TrimSpace(f.Kind), limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]DLQEntry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *pgStore) CountQueueDlq(ctx context.Context, f Filter) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, ErrStoreUnavailable
	}
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM queue_dlq WHERE tenant_id = $1 AND ($2::text = '' OR kind = $2)`,
		tenantParam(f.TenantID), strings.TrimSpace(f.Kind)).Scan(&total)
	return total, err
}
