package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listBranches = `-- name: ListBranches :many
SELECT ` + branchColumns + ` FROM branches
WHERE tenant_id = $1 AND (NOT $2::bool OR active)
ORDER BY name`

type ListBranchesParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	ActiveOnly bool        `json:"active_only"`
}

func (q *Queries) ListBranches(ctx context.Context, arg ListBranchesParams) ([]Branch, error) {
	rows, err := q.db.Query(ctx, listBranches, arg.TenantID, arg.ActiveOnly)
	return collect(rows, err, scanBranch)
}

const getBranchBySlug = `-- name: GetBranchBySlug :one
SELECT ` + branchColumns + ` FROM branches WHERE tenant_id = $1 AND slug = $2`

type GetBranchBySlugParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Slug     string      `json:"slug"`
}

func (q *Queries) GetBranchBySlug(ctx context.Context, arg GetBranchBySlugParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, getBranchBySlug, arg.TenantID, arg.Slug))
}

const getBranchByID = `-- name: GetBranchByID :one
SELECT ` + branchColumns + ` FROM branches WHERE tenant_id = $1 AND id = $2`

type GetBranchByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetBranchByID(ctx context.Context, arg GetBranchByIDParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, getBranchByID, arg.TenantID, arg.ID))
}

const createBranch = `-- name: CreateBranch :one
INSERT INTO branches (tenant_id, slug, name, address, city, phone, email, time_zone, seating_capacity,
    max_party_size, slot_minutes, reservation_duration_minutes, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, true)
RETURNING ` + branchColumns

type CreateBranchParams struct {
	TenantID                   pgtype.UUID `json:"tenant_id"`
	Slug                       string      `json:"slug"`
	Name                       string      `json:"name"`
	Address                    string      `json:"address"`
	City                       string      `json:"city"`
	Phone                      pgtype.Text `json:"phone"`
	Email                      pgtype.Text `json:"email"`
	TimeZone                   string      `json:"time_zone"`
	SeatingCapacity            int32       `json:"seating_capacity"`
	MaxPartySize               int32       `json:"max_party_size"`
	SlotMinutes                int32       `json:"slot_minutes"`
	ReservationDurationMinutes int32       `json:"reservation_duration_minutes"`
}

func (q *Queries) CreateBranch(ctx context.Context, arg CreateBranchParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, createBranch, arg.TenantID, arg.Slug, arg.Name, arg.Address, arg.City,
		arg.Phone, arg.Email, arg.TimeZone, arg.SeatingCapacity, arg.MaxPartySize, arg.SlotMinutes,
		arg.ReservationDurationMinutes))
}

const updateBranch = `-- name: UpdateBranch :one
UPDATE branches SET
    slug = $3,
    name = $4,
    address = $5,
    city = $6,
    phone = $7,
    email = $8,
    time_zone = $9,
    seating_capacity = $10,
    max_party_size = $11,
    slot_minutes = $12,
    reservation_duration_minutes = $13,
    updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + branchColumns

type UpdateBranchParams struct {
	TenantID                   pgtype.UUID `json:"tenant_id"`
	ID                         pgtype.UUID `json:"id"`
	Slug                       string      `json:"slug"`
	Name                       string      `json:"name"`
	Address                    string      `json:"address"`
	City                       string      `json:"city"`
	Phone                      pgtype.Text `json:"phone"`
	Email                      pgtype.Text `json:"email"`
	TimeZone                   string      `json:"time_zone"`
	SeatingCapacity            int32       `json:"seating_capacity"`
	MaxPartySize               int32       `json:"max_party_size"`
	SlotMinutes                int32       `json:"slot_minutes"`
	ReservationDurationMinutes int32       `json:"reservation_duration_minutes"`
}

func (q *Queries) UpdateBranch(ctx context.Context, arg UpdateBranchParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, updateBranch, arg.TenantID, arg.ID, arg.Slug, arg.Name, arg.Address,
		arg.City, arg.Phone, arg.Email, arg.TimeZone, arg.SeatingCapacity, arg.MaxPartySize, arg.SlotMinutes,
		arg.ReservationDurationMinutes))
}

const setBranchActive = `-- name: SetBranchActive :one
UPDATE branches SET active = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + branchColumns

type SetBranchActiveParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	Active   bool        `json:"active"`
}

func (q *Queries) SetBranchActive(ctx context.Context, arg SetBranchActiveParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, setBranchActive, arg.TenantID, arg.ID, arg.Active))
}

const listBranchHours = `-- name: ListBranchHours :many
SELECT ` + branchHourColumns + ` FROM branch_hours
WHERE tenant_id = $1 AND branch_id = $2
ORDER BY weekday`

type ListBranchHoursParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	BranchID pgtype.UUID `json:"branch_id"`
}

func (q *Queries) ListBranchHours(ctx context.Context, arg ListBranchHoursParams) ([]BranchHour, error) {
	rows, err := q.db.Query(ctx, listBranchHours, arg.TenantID, arg.BranchID)
	return collect(rows, err, scanBranchHour)
}

const deleteBranchHours = `-- name: DeleteBranchHours :exec
DELETE FROM branch_hours WHERE tenant_id = $1 AND branch_id = $2`

type DeleteBranchHoursParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	BranchID pgtype.UUID `json:"branch_id"`
}

func (q *Queries) DeleteBranchHours(ctx context.Context, arg DeleteBranchHoursParams) error {
	_, err := q.db.Exec(ctx, deleteBranchHours, arg.TenantID, arg.BranchID)
	return err
}

const insertBranchHour = `-- name: InsertBranchHour :exec
INSERT INTO branch_hours (tenant_id, branch_id, weekday, opens_at, closes_at, closed)
VALUES ($1, $2, $3, $4, $5, $6)`

type InsertBranchHourParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	BranchID pgtype.UUID `json:"branch_id"`
	Weekday  int32       `json:"weekday"`
	OpensAt  int32       `json:"opens_at"`
	ClosesAt int32       `json:"closes_at"`
	Closed   bool        `json:"closed"`
}

func (q *Queries) InsertBranchHour(ctx context.Context, arg InsertBranchHourParams) error {
	_, err := q.db.Exec(ctx, insertBranchHour, arg.TenantID, arg.BranchID, arg.Weekday, arg.OpensAt, arg.ClosesAt, arg.Closed)
	return err
}
