package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listLoyaltyTiers = `-- name: ListLoyaltyTiers :many
SELECT ` + loyaltyTierColumns + ` FROM loyalty_tiers WHERE tenant_id = $1 ORDER BY min_points, position`

func (q *Queries) ListLoyaltyTiers(ctx context.Context, tenantID pgtype.UUID) ([]LoyaltyTier, error) {
	rows, err := q.db.Query(ctx, listLoyaltyTiers, tenantID)
	return collect(rows, err, scanLoyaltyTier)
}

const createLoyaltyTier = `-- name: CreateLoyaltyTier :one
INSERT INTO loyalty_tiers (tenant_id, name, min_points, multiplier_bps, benefits, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + loyaltyTierColumns

type CreateLoyaltyTierParams struct {
	TenantID      pgtype.UUID `json:"tenant_id"`
	Name          string      `json:"name"`
	MinPoints     int64       `json:"min_points"`
	MultiplierBps int32       `json:"multiplier_bps"`
	Benefits      []string    `json:"benefits"`
	Position      int32       `json:"position"`
}

func (q *Queries) CreateLoyaltyTier(ctx context.Context, arg CreateLoyaltyTierParams) (LoyaltyTier, error) {
	return scanLoyaltyTier(q.db.QueryRow(ctx, createLoyaltyTier, arg.TenantID, arg.Name, arg.MinPoints,
		arg.MultiplierBps, arg.Benefits, arg.Position))
}

const updateLoyaltyTier = `-- name: UpdateLoyaltyTier :one
UPDATE loyalty_tiers SET name = $3, min_points = $4, multiplier_bps = $5, benefits = $6, position = $7
WHERE tenant_id = $1 AND id = $2
RETURNING ` + loyaltyTierColumns

type UpdateLoyaltyTierParams struct {
	TenantID      pgtype.UUID `json:"tenant_id"`
	ID            pgtype.UUID `json:"id"`
	Name          string      `json:"name"`
	MinPoints     int64       `json:"min_points"`
	MultiplierBps int32       `json:"multiplier_bps"`
	Benefits      []string    `json:"benefits"`
	Position      int32       `json:"position"`
}

func (q *Queries) UpdateLoyaltyTier(ctx context.Context, arg UpdateLoyaltyTierParams) (LoyaltyTier, error) {
	return scanLoyaltyTier(q.db.QueryRow(ctx, updateLoyaltyTier, arg.TenantID, arg.ID, arg.Name, arg.MinPoints,
		arg.MultiplierBps, arg.Benefits, arg.Position))
}

const deleteLoyaltyTier = `-- name: DeleteLoyaltyTier :execrows
DELETE FROM loyalty_tiers WHERE tenant_id = $1 AND id = $2`

type DeleteLoyaltyTierParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteLoyaltyTier(ctx context.Context, arg DeleteLoyaltyTierParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteLoyaltyTier, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listLoyaltyRules = `-- name: ListLoyaltyRules :many
SELECT ` + loyaltyRuleColumns + ` FROM loyalty_rules
WHERE tenant_id = $1 AND (NOT $2::bool OR active)
ORDER BY created_at`

type ListLoyaltyRulesParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	ActiveOnly bool        `json:"active_only"`
}

func (q *Queries) ListLoyaltyRules(ctx context.Context, arg ListLoyaltyRulesParams) ([]LoyaltyRule, error) {
	rows, err := q.db.Query(ctx, listLoyaltyRules, arg.TenantID, arg.ActiveOnly)
	return collect(rows, err, scanLoyaltyRule)
}

const createLoyaltyRule = `-- name: CreateLoyaltyRule :one
INSERT INTO loyalty_rules (tenant_id, name, trigger, active, points, points_per_currency_bps, min_order_total,
    branch_ids, weekdays, first_order_only, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + loyaltyRuleColumns

type CreateLoyaltyRuleParams struct {
	TenantID             pgtype.UUID        `json:"tenant_id"`
	Name                 string             `json:"name"`
	Trigger              LoyaltyTrigger     `json:"trigger"`
	Active               bool               `json:"active"`
	Points               int64              `json:"points"`
	PointsPerCurrencyBps int32              `json:"points_per_currency_bps"`
	MinOrderTotal        int64              `json:"min_order_total"`
	BranchIds            []pgtype.UUID      `json:"branch_ids"`
	Weekdays             []int32            `json:"weekdays"`
	FirstOrderOnly       bool               `json:"first_order_only"`
	ValidFrom            pgtype.Timestamptz `json:"valid_from"`
	ValidTo              pgtype.Timestamptz `json:"valid_to"`
}

func (q *Queries) CreateLoyaltyRule(ctx context.Context, arg CreateLoyaltyRuleParams) (LoyaltyRule, error) {
	return scanLoyaltyRule(q.db.QueryRow(ctx, createLoyaltyRule, arg.TenantID, arg.Name, arg.Trigger, arg.Active,
		arg.Points, arg.PointsPerCurrencyBps, arg.MinOrderTotal, arg.BranchIds, arg.Weekdays, arg.FirstOrderOnly,
		arg.ValidFrom, arg.ValidTo))
}

const updateLoyaltyRule = `-- name: UpdateLoyaltyRule :one
UPDATE loyalty_rules SET
    name = $3,
    trigger = $4,
    active = $5,
    points = $6,
    points_per_currency_bps = $7,
    min_order_total = $8,
    branch_ids = $9,
    weekdays = $10,
    first_order_only = $11,
    valid_from = $12,
    valid_to = $13,
    updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + loyaltyRuleColumns

type UpdateLoyaltyRuleParams struct {
	TenantID             pgtype.UUID        `json:"tenant_id"`
	ID                   pgtype.UUID        `json:"id"`
	Name                 string             `json:"name"`
	Trigger              LoyaltyTrigger     `json:"trigger"`
	Active               bool               `json:"active"`
	Points               int64              `json:"points"`
	PointsPerCurrencyBps int32              `json:"points_per_currency_bps"`
	MinOrderTotal        int64              `json:"min_order_total"`
	BranchIds            []pgtype.UUID      `json:"branch_ids"`
	Weekdays             []int32            `json:"weekdays"`
	FirstOrderOnly       bool               `json:"first_order_only"`
	ValidFrom            pgtype.Timestamptz `json:"valid_from"`
	ValidTo              pgtype.Timestamptz `json:"valid_to"`
}

func (q *Queries) UpdateLoyaltyRule(ctx context.Context, arg UpdateLoyaltyRuleParams) (LoyaltyRule, error) {
	return scanLoyaltyRule(q.db.QueryRow(ctx, updateLoyaltyRule, arg.TenantID, arg.ID, arg.Name, arg.Trigger,
		arg.Active, arg.Points, arg.PointsPerCurrencyBps, arg.MinOrderTotal, arg.BranchIds, arg.Weekdays,
		arg.FirstOrderOnly, arg.ValidFrom, arg.ValidTo))
}

const deleteLoyaltyRule = `-- name: DeleteLoyaltyRule :execrows
DELETE FROM loyalty_rules WHERE tenant_id = $1 AND id = $2`

type DeleteLoyaltyRuleParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteLoyaltyRule(ctx context.Context, arg DeleteLoyaltyRuleParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteLoyaltyRule, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const getLoyaltyAccountByUser = `-- name: GetLoyaltyAccountByUser :one
SELECT ` + loyaltyAccountColumns + ` FROM loyalty_accounts WHERE tenant_id = $1 AND user_id = $2`

type GetLoyaltyAccountByUserParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	UserID   pgtype.UUID `json:"user_id"`
}

func (q *Queries) GetLoyaltyAccountByUser(ctx context.Context, arg GetLoyaltyAccountByUserParams) (LoyaltyAccount, error) {
	return scanLoyaltyAccount(q.db.QueryRow(ctx, getLoyaltyAccountByUser, arg.TenantID, arg.UserID))
}

const getLoyaltyAccountByUserForUpdate = `-- name: GetLoyaltyAccountByUserForUpdate :one
SELECT ` + loyaltyAccountColumns + ` FROM loyalty_accounts WHERE tenant_id = $1 AND user_id = $2 FOR UPDATE`

func (q *Queries) GetLoyaltyAccountByUserForUpdate(ctx context.Context, arg GetLoyaltyAccountByUserParams) (LoyaltyAccount, error) {
	return scanLoyaltyAccount(q.db.QueryRow(ctx, getLoyaltyAccountByUserForUpdate, arg.TenantID, arg.UserID))
}

const ensureLoyaltyAccount = `-- name: EnsureLoyaltyAccount :one
INSERT INTO loyalty_accounts (tenant_id, user_id)
VALUES ($1, $2)
ON CONFLICT (tenant_id, user_id) DO UPDATE SET updated_at = loyalty_accounts.updated_at
RETURNING ` + loyaltyAccountColumns

type EnsureLoyaltyAccountParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	UserID   pgtype.UUID `json:"user_id"`
}

func (q *Queries) EnsureLoyaltyAccount(ctx context.Context, arg EnsureLoyaltyAccountParams) (LoyaltyAccount, error) {
	return scanLoyaltyAccount(q.db.QueryRow(ctx, ensureLoyaltyAccount, arg.TenantID, arg.UserID))
}

const updateLoyaltyAccountBalance = `-- name: UpdateLoyaltyAccountBalance :one
UPDATE loyalty_accounts SET balance = $3, lifetime_points = $4, tier_id = $5, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + loyaltyAccountColumns

type UpdateLoyaltyAccountBalanceParams struct {
	TenantID       pgtype.UUID `json:"tenant_id"`
	ID             pgtype.UUID `json:"id"`
	Balance        int64       `json:"balance"`
	LifetimePoints int64       `json:"lifetime_points"`
	TierID         pgtype.UUID `json:"tier_id"`
}

func (q *Queries) UpdateLoyaltyAccountBalance(ctx context.Context, arg UpdateLoyaltyAccountBalanceParams) (LoyaltyAccount, error) {
	return scanLoyaltyAccount(q.db.QueryRow(ctx, updateLoyaltyAccountBalance, arg.TenantID, arg.ID, arg.Balance,
		arg.LifetimePoints, arg.TierID))
}

// ON CONFLICT DO NOTHING returns no row for a repeated source_key, which
// callers observe as pgx.ErrNoRows.
const insertLoyaltyTransaction = `-- name: InsertLoyaltyTransaction :one
INSERT INTO loyalty_transactions (tenant_id, account_id, kind, points, order_id, rule_id, reason, source_key, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (account_id, source_key) DO NOTHING
RETURNING ` + loyaltyTransactionColumns

type InsertLoyaltyTransactionParams struct {
	TenantID  pgtype.UUID        `json:"tenant_id"`
	AccountID pgtype.UUID        `json:"account_id"`
	Kind      LoyaltyTxnKind     `json:"kind"`
	Points    int64              `json:"points"`
	OrderID   pgtype.UUID        `json:"order_id"`
	RuleID    pgtype.UUID        `json:"rule_id"`
	Reason    string             `json:"reason"`
	SourceKey string             `json:"source_key"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) InsertLoyaltyTransaction(ctx context.Context, arg InsertLoyaltyTransactionParams) (LoyaltyTransaction, error) {
	return scanLoyaltyTransaction(q.db.QueryRow(ctx, insertLoyaltyTransaction, arg.TenantID, arg.AccountID, arg.Kind,
		arg.Points, arg.OrderID, arg.RuleID, arg.Reason, arg.SourceKey, arg.ExpiresAt))
}

const getLoyaltyTransactionBySourceKey = `-- name: GetLoyaltyTransactionBySourceKey :one
SELECT ` + loyaltyTransactionColumns + ` FROM loyalty_transactions
WHERE tenant_id = $1 AND account_id = $2 AND source_key = $3`

type GetLoyaltyTransactionBySourceKeyParams struct {
	TenantID  pgtype.UUID `json:"tenant_id"`
	AccountID pgtype.UUID `json:"account_id"`
	SourceKey string      `json:"source_key"`
}

func (q *Queries) GetLoyaltyTransactionBySourceKey(ctx context.Context, arg GetLoyaltyTransactionBySourceKeyParams) (LoyaltyTransaction, error) {
	return scanLoyaltyTransaction(q.db.QueryRow(ctx, getLoyaltyTransactionBySourceKey, arg.TenantID, arg.AccountID, arg.SourceKey))
}

const listLoyaltyTransactions = `-- name: ListLoyaltyTransactions :many
SELECT ` + loyaltyTransactionColumns + ` FROM loyalty_transactions
WHERE tenant_id = $1 AND account_id = $2
ORDER BY created_at DESC, id
LIMIT $3 OFFSET $4`

type ListLoyaltyTransactionsParams struct {
	TenantID  pgtype.UUID `json:"tenant_id"`
	AccountID pgtype.UUID `json:"account_id"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

func (q *Queries) ListLoyaltyTransactions(ctx context.Context, arg ListLoyaltyTransactionsParams) ([]LoyaltyTransaction, error) {
	rows, err := q.db.Query(ctx, listLoyaltyTransactions, arg.TenantID, arg.AccountID, arg.Limit, arg.Offset)
	return collect(rows, err, scanLoyaltyTransaction)
}

const countLoyaltyTransactions = `-- name: CountLoyaltyTransactions :one
SELECT COUNT(*) FROM loyalty_transactions WHERE tenant_id = $1 AND account_id = $2`

type CountLoyaltyTransactionsParams struct {
	TenantID  pgtype.UUID `json:"tenant_id"`
	AccountID pgtype.UUID `json:"account_id"`
}

func (q *Queries) CountLoyaltyTransactions(ctx context.Context, arg CountLoyaltyTransactionsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countLoyaltyTransactions, arg.TenantID, arg.AccountID).Scan(&count)
	return count, err
}

const listExpiringLoyaltyTransactions = `-- name: ListExpiringLoyaltyTransactions :many
SELECT ` + loyaltyTransactionColumns + ` FROM loyalty_transactions
WHERE tenant_id = $1 AND kind = 'earn' AND NOT expired AND expires_at IS NOT NULL AND expires_at <= $2
ORDER BY account_id, expires_at
LIMIT $3`

type ListExpiringLoyaltyTransactionsParams struct {
	TenantID pgtype.UUID        `json:"tenant_id"`
	Before   pgtype.Timestamptz `json:"before"`
	Limit    int32              `json:"limit"`
}

func (q *Queries) ListExpiringLoyaltyTransactions(ctx context.Context, arg ListExpiringLoyaltyTransactionsParams) ([]LoyaltyTransaction, error) {
	rows, err := q.db.Query(ctx, listExpiringLoyaltyTransactions, arg.TenantID, arg.Before, arg.Limit)
	return collect(rows, err, scanLoyaltyTransaction)
}

const markLoyaltyTransactionsExpired = `-- name: MarkLoyaltyTransactionsExpired :execrows
UPDATE loyalty_transactions SET expired = true WHERE tenant_id = $1 AND id = ANY($2::uuid[])`

type MarkLoyaltyTransactionsExpiredParams struct {
	TenantID pgtype.UUID   `json:"tenant_id"`
	Ids      []pgtype.UUID `json:"ids"`
}

func (q *Queries) MarkLoyaltyTransactionsExpired(ctx context.Context, arg MarkLoyaltyTransactionsExpiredParams) (int64, error) {
	tag, err := q.db.Exec(ctx, markLoyaltyTransactionsExpired, arg.TenantID, arg.Ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const getLoyaltyAccountByID = `-- name: GetLoyaltyAccountByIDForUpdate :one
SELECT ` + loyaltyAccountColumns + ` FROM loyalty_accounts WHERE tenant_id = $1 AND id = $2 FOR UPDATE`

type GetLoyaltyAccountByIDForUpdateParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetLoyaltyAccountByIDForUpdate(ctx context.Context, arg GetLoyaltyAccountByIDForUpdateParams) (LoyaltyAccount, error) {
	return scanLoyaltyAccount(q.db.QueryRow(ctx, getLoyaltyAccountByID, arg.TenantID, arg.ID))
}

const countCompletedOrdersByUser = `-- name: CountCompletedOrdersByUser :one
SELECT COUNT(*) FROM orders WHERE tenant_id = $1 AND user_id = $2 AND status = 'completed'`

type CountCompletedOrdersByUserParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	UserID   pgtype.UUID `json:"user_id"`
}

func (q *Queries) CountCompletedOrdersByUser(ctx context.Context, arg CountCompletedOrdersByUserParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countCompletedOrdersByUser, arg.TenantID, arg.UserID).Scan(&count)
	return count, err
}
