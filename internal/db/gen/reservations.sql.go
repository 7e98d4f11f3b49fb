package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createReservation = `-- name: CreateReservation :one
INSERT INTO reservations (tenant_id, code, branch_id, user_id, name, phone, email, party_size, reserved_at,
    duration_minutes, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', $11)
RETURNING ` + reservationColumns

type CreateReservationParams struct {
	TenantID        pgtype.UUID        `json:"tenant_id"`
	Code            string             `json:"code"`
	BranchID        pgtype.UUID        `json:"branch_id"`
	UserID          pgtype.UUID        `json:"user_id"`
	Name            string             `json:"name"`
	Phone           string             `json:"phone"`
	Email           pgtype.Text        `json:"email"`
	PartySize       int32              `json:"party_size"`
	ReservedAt      pgtype.Timestamptz `json:"reserved_at"`
	DurationMinutes int32              `json:"duration_minutes"`
	Notes           pgtype.Text        `json:"notes"`
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, createReservation, arg.TenantID, arg.Code, arg.BranchID, arg.UserID,
		arg.Name, arg.Phone, arg.Email, arg.PartySize, arg.ReservedAt, arg.DurationMinutes, arg.Notes))
}

const getReservationByCode = `-- name: GetReservationByCode :one
SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND code = $2`

type GetReservationByCodeParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Code     string      `json:"code"`
}

func (q *Queries) GetReservationByCode(ctx context.Context, arg GetReservationByCodeParams) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, getReservationByCode, arg.TenantID, arg.Code))
}

const getReservationByID = `-- name: GetReservationByID :one
SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND id = $2`

type GetReservationByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetReservationByID(ctx context.Context, arg GetReservationByIDParams) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, getReservationByID, arg.TenantID, arg.ID))
}

const adminReservationFilter = `
WHERE tenant_id = $1
  AND ($2::uuid IS NULL OR branch_id = $2::uuid)
  AND ($3::text IS NULL OR status = $3::text)
  AND ($4::timestamptz IS NULL OR reserved_at >= $4::timestamptz)
  AND ($5::timestamptz IS NULL OR reserved_at < $5::timestamptz)`

const listReservationsAdmin = `-- name: ListReservationsAdmin :many
SELECT ` + reservationColumns + ` FROM reservations` + adminReservationFilter + `
ORDER BY reserved_at
LIMIT $6 OFFSET $7`

type ListReservationsAdminParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	BranchID any         `json:"branch_id"`
	Status   any         `json:"status"`
	From     any         `json:"from"`
	To       any         `json:"to"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListReservationsAdmin(ctx context.Context, arg ListReservationsAdminParams) ([]Reservation, error) {
	rows, err := q.db.Query(ctx, listReservationsAdmin, arg.TenantID, arg.BranchID, arg.Status, arg.From, arg.To,
		arg.Limit, arg.Offset)
	return collect(rows, err, scanReservation)
}

const countReservationsAdmin = `-- name: CountReservationsAdmin :one
SELECT COUNT(*) FROM reservations` + adminReservationFilter

type CountReservationsAdminParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	BranchID any         `json:"branch_id"`
	Status   any         `json:"status"`
	From     any         `json:"from"`
	To       any         `json:"to"`
}

func (q *Queries) CountReservationsAdmin(ctx context.Context, arg CountReservationsAdminParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countReservationsAdmin, arg.TenantID, arg.BranchID, arg.Status, arg.From, arg.To).Scan(&count)
	return count, err
}

// Returns pending and confirmed reservations whose interval intersects [from, to).
const listActiveReservationsInRange = `-- name: ListActiveReservationsInRange :many
SELECT ` + reservationColumns + ` FROM reservations
WHERE tenant_id = $1
  AND branch_id = $2
  AND status IN ('pending', 'confirmed')
  AND reserved_at < $4
  AND reserved_at + make_interval(mins => duration_minutes) > $3
ORDER BY reserved_at`

type ListActiveReservationsInRangeParams struct {
	TenantID pgtype.UUID        `json:"tenant_id"`
	BranchID pgtype.UUID        `json:"branch_id"`
	From     pgtype.Timestamptz `json:"from"`
	To       pgtype.Timestamptz `json:"to"`
}

func (q *Queries) ListActiveReservationsInRange(ctx context.Context, arg ListActiveReservationsInRangeParams) ([]Reservation, error) {
	rows, err := q.db.Query(ctx, listActiveReservationsInRange, arg.TenantID, arg.BranchID, arg.From, arg.To)
	return collect(rows, err, scanReservation)
}

const updateReservationStatus = `-- name: UpdateReservationStatus :one
UPDATE reservations SET
    status = $3,
    confirmed_at = CASE WHEN $3 = 'confirmed' THEN now() ELSE confirmed_at END,
    cancelled_at = CASE WHEN $3 = 'cancelled' THEN now() ELSE cancelled_at END,
    cancel_reason = COALESCE($5, cancel_reason),
    updated_at = now()
WHERE tenant_id = $1 AND id = $2 AND status = $4
RETURNING ` + reservationColumns

type UpdateReservationStatusParams struct {
	TenantID     pgtype.UUID       `json:"tenant_id"`
	ID           pgtype.UUID       `json:"id"`
	Status       ReservationStatus `json:"status"`
	FromStatus   ReservationStatus `json:"from_status"`
	CancelReason pgtype.Text       `json:"cancel_reason"`
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, updateReservationStatus, arg.TenantID, arg.ID, arg.Status,
		arg.FromStatus, arg.CancelReason))
}

const listStaleConfirmedReservations = `-- name: ListStaleConfirmedReservations :many
SELECT ` + reservationColumns + ` FROM reservations
WHERE tenant_id = $1 AND status = 'confirmed' AND reserved_at < $2
ORDER BY reserved_at
LIMIT $3`

type ListStaleConfirmedReservationsParams struct {
	TenantID pgtype.UUID        `json:"tenant_id"`
	Before   pgtype.Timestamptz `json:"before"`
	Limit    int32              `json:"limit"`
}

func (q *Queries) ListStaleConfirmedReservations(ctx context.Context, arg ListStaleConfirmedReservationsParams) ([]Reservation, error) {
	rows, err := q.db.Query(ctx, listStaleConfirmedReservations, arg.TenantID, arg.Before, arg.Limit)
	return collect(rows, err, scanReservation)
}

// Serialises capacity checks per branch for the rest of the transaction.
const lockBranchReservations = `-- name: LockBranchReservations :exec
SELECT pg_advisory_xact_lock(hashtextextended($1::uuid::text, 0))`

func (q *Queries) LockBranchReservations(ctx context.Context, branchID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, lockBranchReservations, branchID)
	return err
}
