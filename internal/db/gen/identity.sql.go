package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getTenantBySlug = `-- name: GetTenantBySlug :one
SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`

func (q *Queries) GetTenantBySlug(ctx context.Context, slug string) (Tenant, error) {
	return scanTenant(q.db.QueryRow(ctx, getTenantBySlug, slug))
}

const getTenantByID = `-- name: GetTenantByID :one
SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

func (q *Queries) GetTenantByID(ctx context.Context, id pgtype.UUID) (Tenant, error) {
	return scanTenant(q.db.QueryRow(ctx, getTenantByID, id))
}

const listTenants = `-- name: ListTenants :many
SELECT ` + tenantColumns + ` FROM tenants ORDER BY slug`

func (q *Queries) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := q.db.Query(ctx, listTenants)
	return collect(rows, err, scanTenant)
}

const updateTenantSettings = `-- name: UpdateTenantSettings :one
UPDATE tenants SET
    name = $2,
    currency = $3,
    currency_exponent = $4,
    tax_rate_bps = $5,
    points_earn_bps = $6,
    points_redeem_ratio = $7,
    max_redeem_bps = $8,
    points_ttl_days = $9,
    time_zone = $10,
    updated_at = now()
WHERE id = $1
RETURNING ` + tenantColumns

type UpdateTenantSettingsParams struct {
	ID                pgtype.UUID `json:"id"`
	Name              string      `json:"name"`
	Currency          string      `json:"currency"`
	CurrencyExponent  int32       `json:"currency_exponent"`
	TaxRateBps        int32       `json:"tax_rate_bps"`
	PointsEarnBps     int32       `json:"points_earn_bps"`
	PointsRedeemRatio int32       `json:"points_redeem_ratio"`
	MaxRedeemBps      int32       `json:"max_redeem_bps"`
	PointsTtlDays     int32       `json:"points_ttl_days"`
	TimeZone          string      `json:"time_zone"`
}

func (q *Queries) UpdateTenantSettings(ctx context.Context, arg UpdateTenantSettingsParams) (Tenant, error) {
	return scanTenant(q.db.QueryRow(ctx, updateTenantSettings, arg.ID, arg.Name, arg.Currency, arg.CurrencyExponent,
		arg.TaxRateBps, arg.PointsEarnBps, arg.PointsRedeemRatio, arg.MaxRedeemBps, arg.PointsTtlDays, arg.TimeZone))
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (tenant_id, name, email, phone, password_hash, roles, referral_code, referred_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns

type CreateUserParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        pgtype.Text `json:"phone"`
	PasswordHash string      `json:"password_hash"`
	Roles        []string    `json:"roles"`
	ReferralCode string      `json:"referral_code"`
	ReferredBy   pgtype.UUID `json:"referred_by"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser, arg.TenantID, arg.Name, arg.Email, arg.Phone, arg.PasswordHash,
		arg.Roles, arg.ReferralCode, arg.ReferredBy))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND email = $2`

type GetUserByEmailParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Email    string      `json:"email"`
}

func (q *Queries) GetUserByEmail(ctx context.Context, arg GetUserByEmailParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, arg.TenantID, arg.Email))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserByReferralCode = `-- name: GetUserByReferralCode :one
SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND referral_code = $2`

type GetUserByReferralCodeParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	ReferralCode string      `json:"referral_code"`
}

func (q *Queries) GetUserByReferralCode(ctx context.Context, arg GetUserByReferralCodeParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByReferralCode, arg.TenantID, arg.ReferralCode))
}

const findUserByContact = `-- name: FindUserByContact :one
SELECT ` + userColumns + ` FROM users
WHERE tenant_id = $1
  AND (($2::text IS NOT NULL AND lower(email) = lower($2::text)) OR ($3::text IS NOT NULL AND phone = $3::text))
ORDER BY created_at
LIMIT 1`

type FindUserByContactParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Email    pgtype.Text `json:"email"`
	Phone    pgtype.Text `json:"phone"`
}

func (q *Queries) FindUserByContact(ctx context.Context, arg FindUserByContactParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, findUserByContact, arg.TenantID, arg.Email, arg.Phone))
}

const updateUserProfile = `-- name: UpdateUserProfile :one
UPDATE users SET name = $3, phone = $4, birthday = $5, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	Name     string      `json:"name"`
	Phone    pgtype.Text `json:"phone"`
	Birthday pgtype.Date `json:"birthday"`
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserProfile, arg.TenantID, arg.ID, arg.Name, arg.Phone, arg.Birthday))
}

const updateUserRoles = `-- name: UpdateUserRoles :one
UPDATE users SET roles = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + userColumns

type UpdateUserRolesParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	Roles    []string    `json:"roles"`
}

func (q *Queries) UpdateUserRoles(ctx context.Context, arg UpdateUserRolesParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserRoles, arg.TenantID, arg.ID, arg.Roles))
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListUsersParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers, arg.TenantID, arg.Limit, arg.Offset)
	return collect(rows, err, scanUser)
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users WHERE tenant_id = $1`

func (q *Queries) CountUsers(ctx context.Context, tenantID pgtype.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countUsers, tenantID).Scan(&count)
	return count, err
}

const listUsersByBirthday = `-- name: ListUsersByBirthday :many
SELECT ` + userColumns + ` FROM users
WHERE tenant_id = $1
  AND birthday IS NOT NULL
  AND EXTRACT(MONTH FROM birthday) = $2::int
  AND EXTRACT(DAY FROM birthday) = $3::int`

type ListUsersByBirthdayParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Month    int32       `json:"month"`
	Day      int32       `json:"day"`
}

func (q *Queries) ListUsersByBirthday(ctx context.Context, arg ListUsersByBirthdayParams) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsersByBirthday, arg.TenantID, arg.Month, arg.Day)
	return collect(rows, err, scanUser)
}

const createSession = `-- name: CreateSession :one
INSERT INTO sessions (tenant_id, user_id, refresh_token, user_agent, ip, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	TenantID     pgtype.UUID        `json:"tenant_id"`
	UserID       pgtype.UUID        `json:"user_id"`
	RefreshToken string             `json:"refresh_token"`
	UserAgent    pgtype.Text        `json:"user_agent"`
	Ip           pgtype.Text        `json:"ip"`
	ExpiresAt    pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, createSession, arg.TenantID, arg.UserID, arg.RefreshToken, arg.UserAgent,
		arg.Ip, arg.ExpiresAt))
}

const getSessionByToken = `-- name: GetSessionByToken :one
SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_token = $1`

func (q *Queries) GetSessionByToken(ctx context.Context, refreshToken string) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, getSessionByToken, refreshToken))
}

const rotateSessionToken = `-- name: RotateSessionToken :one
UPDATE sessions SET refresh_token = $2, expires_at = $3
WHERE id = $1
RETURNING ` + sessionColumns

type RotateSessionTokenParams struct {
	ID           pgtype.UUID        `json:"id"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresAt    pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) RotateSessionToken(ctx context.Context, arg RotateSessionTokenParams) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, rotateSessionToken, arg.ID, arg.RefreshToken, arg.ExpiresAt))
}

const deleteSessionByToken = `-- name: DeleteSessionByToken :exec
DELETE FROM sessions WHERE refresh_token = $1`

func (q *Queries) DeleteSessionByToken(ctx context.Context, refreshToken string) error {
	_, err := q.db.Exec(ctx, deleteSessionByToken, refreshToken)
	return err
}
