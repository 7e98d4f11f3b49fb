package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertDomainEvent = `-- name: InsertDomainEvent :one
INSERT INTO domain_events (tenant_id, topic, aggregate_id, payload)
VALUES ($1, $2, $3, $4)
RETURNING id, tenant_id, topic, aggregate_id, payload, occurred_at`

type InsertDomainEventParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	Topic       string      `json:"topic"`
	AggregateID pgtype.UUID `json:"aggregate_id"`
	Payload     []byte      `json:"payload"`
}

func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	var i DomainEvent
	err := q.db.QueryRow(ctx, insertDomainEvent, arg.TenantID, arg.Topic, arg.AggregateID, arg.Payload).Scan(
		&i.ID, &i.TenantID, &i.Topic, &i.AggregateID, &i.Payload, &i.OccurredAt)
	return i, err
}

const insertAuditLog = `-- name: InsertAuditLog :one
INSERT INTO audit_logs (tenant_id, actor_kind, actor_user_id, action, resource_type, resource_id, method, path,
    route, status, ip, user_agent, request_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + auditLogColumns

type InsertAuditLogParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	ActorKind    string      `json:"actor_kind"`
	ActorUserID  pgtype.UUID `json:"actor_user_id"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   pgtype.Text `json:"resource_id"`
	Method       string      `json:"method"`
	Path         string      `json:"path"`
	Route        pgtype.Text `json:"route"`
	Status       int32       `json:"status"`
	Ip           pgtype.Text `json:"ip"`
	UserAgent    pgtype.Text `json:"user_agent"`
	RequestID    pgtype.Text `json:"request_id"`
	Metadata     []byte      `json:"metadata"`
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	return scanAuditLog(q.db.QueryRow(ctx, insertAuditLog, arg.TenantID, arg.ActorKind, arg.ActorUserID, arg.Action,
		arg.ResourceType, arg.ResourceID, arg.Method, arg.Path, arg.Route, arg.Status, arg.Ip, arg.UserAgent,
		arg.RequestID, arg.Metadata))
}

const listAuditLogs = `-- name: ListAuditLogs :many
SELECT ` + auditLogColumns + ` FROM audit_logs
WHERE tenant_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListAuditLogsParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.TenantID, arg.Limit, arg.Offset)
	return collect(rows, err, scanAuditLog)
}

const countAuditLogs = `-- name: CountAuditLogs :one
SELECT COUNT(*) FROM audit_logs WHERE tenant_id = $1`

func (q *Queries) CountAuditLogs(ctx context.Context, tenantID pgtype.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countAuditLogs, tenantID).Scan(&count)
	return count, err
}
