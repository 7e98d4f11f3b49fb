package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPromotion = `-- name: CreatePromotion :one
INSERT INTO promotions (tenant_id, code, name, kind, percent_bps, value, min_spend, usage_limit, per_user_limit,
    valid_from, valid_to, active, category_ids, item_ids)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + promotionColumns

type CreatePromotionParams struct {
	TenantID     pgtype.UUID        `json:"tenant_id"`
	Code         string             `json:"code"`
	Name         string             `json:"name"`
	Kind         PromotionKind      `json:"kind"`
	PercentBps   pgtype.Int4        `json:"percent_bps"`
	Value        int64              `json:"value"`
	MinSpend     int64              `json:"min_spend"`
	UsageLimit   pgtype.Int4        `json:"usage_limit"`
	PerUserLimit pgtype.Int4        `json:"per_user_limit"`
	ValidFrom    pgtype.Timestamptz `json:"valid_from"`
	ValidTo      pgtype.Timestamptz `json:"valid_to"`
	Active       bool               `json:"active"`
	CategoryIds  []pgtype.UUID      `json:"category_ids"`
	ItemIds      []pgtype.UUID      `json:"item_ids"`
}

func (q *Queries) CreatePromotion(ctx context.Context, arg CreatePromotionParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, createPromotion, arg.TenantID, arg.Code, arg.Name, arg.Kind, arg.PercentBps,
		arg.Value, arg.MinSpend, arg.UsageLimit, arg.PerUserLimit, arg.ValidFrom, arg.ValidTo, arg.Active,
		arg.CategoryIds, arg.ItemIds))
}

const updatePromotion = `-- name: UpdatePromotion :one
UPDATE promotions SET
    code = $3,
    name = $4,
    kind = $5,
    percent_bps = $6,
    value = $7,
    min_spend = $8,
    usage_limit = $9,
    per_user_limit = $10,
    valid_from = $11,
    valid_to = $12,
    active = $13,
    category_ids = $14,
    item_ids = $15,
    updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + promotionColumns

type UpdatePromotionParams struct {
	TenantID     pgtype.UUID        `json:"tenant_id"`
	ID           pgtype.UUID        `json:"id"`
	Code         string             `json:"code"`
	Name         string             `json:"name"`
	Kind         PromotionKind      `json:"kind"`
	PercentBps   pgtype.Int4        `json:"percent_bps"`
	Value        int64              `json:"value"`
	MinSpend     int64              `json:"min_spend"`
	UsageLimit   pgtype.Int4        `json:"usage_limit"`
	PerUserLimit pgtype.Int4        `json:"per_user_limit"`
	ValidFrom    pgtype.Timestamptz `json:"valid_from"`
	ValidTo      pgtype.Timestamptz `json:"valid_to"`
	Active       bool               `json:"active"`
	CategoryIds  []pgtype.UUID      `json:"category_ids"`
	ItemIds      []pgtype.UUID      `json:"item_ids"`
}

func (q *Queries) UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, updatePromotion, arg.TenantID, arg.ID, arg.Code, arg.Name, arg.Kind,
		arg.PercentBps, arg.Value, arg.MinSpend, arg.UsageLimit, arg.PerUserLimit, arg.ValidFrom, arg.ValidTo,
		arg.Active, arg.CategoryIds, arg.ItemIds))
}

const setPromotionActive = `-- name: SetPromotionActive :one
UPDATE promotions SET active = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + promotionColumns

type SetPromotionActiveParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	Active   bool        `json:"active"`
}

func (q *Queries) SetPromotionActive(ctx context.Context, arg SetPromotionActiveParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, setPromotionActive, arg.TenantID, arg.ID, arg.Active))
}

const getPromotionByID = `-- name: GetPromotionByID :one
SELECT ` + promotionColumns + ` FROM promotions WHERE tenant_id = $1 AND id = $2`

type GetPromotionByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetPromotionByID(ctx context.Context, arg GetPromotionByIDParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, getPromotionByID, arg.TenantID, arg.ID))
}

const getPromotionByCode = `-- name: GetPromotionByCode :one
SELECT ` + promotionColumns + ` FROM promotions WHERE tenant_id = $1 AND upper(code) = upper($2)`

type GetPromotionByCodeParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Code     string      `json:"code"`
}

func (q *Queries) GetPromotionByCode(ctx context.Context, arg GetPromotionByCodeParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, getPromotionByCode, arg.TenantID, arg.Code))
}

const getPromotionByCodeForUpdate = `-- name: GetPromotionByCodeForUpdate :one
SELECT ` + promotionColumns + ` FROM promotions WHERE tenant_id = $1 AND upper(code) = upper($2) FOR UPDATE`

func (q *Queries) GetPromotionByCodeForUpdate(ctx context.Context, arg GetPromotionByCodeParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, getPromotionByCodeForUpdate, arg.TenantID, arg.Code))
}

const listPromotions = `-- name: ListPromotions :many
SELECT ` + promotionColumns + ` FROM promotions
WHERE tenant_id = $1 AND ($2::bool IS NULL OR active = $2::bool)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

type ListPromotionsParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Active   any         `json:"active"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListPromotions(ctx context.Context, arg ListPromotionsParams) ([]Promotion, error) {
	rows, err := q.db.Query(ctx, listPromotions, arg.TenantID, arg.Active, arg.Limit, arg.Offset)
	return collect(rows, err, scanPromotion)
}

const countPromotions = `-- name: CountPromotions :one
SELECT COUNT(*) FROM promotions WHERE tenant_id = $1 AND ($2::bool IS NULL OR active = $2::bool)`

type CountPromotionsParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Active   any         `json:"active"`
}

func (q *Queries) CountPromotions(ctx context.Context, arg CountPromotionsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPromotions, arg.TenantID, arg.Active).Scan(&count)
	return count, err
}

const countPromotionUsageByUser = `-- name: CountPromotionUsageByUser :one
SELECT COUNT(*) FROM promotion_usages WHERE promotion_id = $1 AND user_id = $2`

type CountPromotionUsageByUserParams struct {
	PromotionID pgtype.UUID `json:"promotion_id"`
	UserID      pgtype.UUID `json:"user_id"`
}

func (q *Queries) CountPromotionUsageByUser(ctx context.Context, arg CountPromotionUsageByUserParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPromotionUsageByUser, arg.PromotionID, arg.UserID).Scan(&count)
	return count, err
}

const getPromotionUsageByOrder = `-- name: GetPromotionUsageByOrder :one
SELECT ` + promotionUsageColumns + ` FROM promotion_usages WHERE promotion_id = $1 AND order_id = $2`

type GetPromotionUsageByOrderParams struct {
	PromotionID pgtype.UUID `json:"promotion_id"`
	OrderID     pgtype.UUID `json:"order_id"`
}

func (q *Queries) GetPromotionUsageByOrder(ctx context.Context, arg GetPromotionUsageByOrderParams) (PromotionUsage, error) {
	return scanPromotionUsage(q.db.QueryRow(ctx, getPromotionUsageByOrder, arg.PromotionID, arg.OrderID))
}

const insertPromotionUsage = `-- name: InsertPromotionUsage :one
INSERT INTO promotion_usages (tenant_id, promotion_id, order_id, user_id, amount)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + promotionUsageColumns

type InsertPromotionUsageParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	PromotionID pgtype.UUID `json:"promotion_id"`
	OrderID     pgtype.UUID `json:"order_id"`
	UserID      pgtype.UUID `json:"user_id"`
	Amount      int64       `json:"amount"`
}

func (q *Queries) InsertPromotionUsage(ctx context.Context, arg InsertPromotionUsageParams) (PromotionUsage, error) {
	return scanPromotionUsage(q.db.QueryRow(ctx, insertPromotionUsage, arg.TenantID, arg.PromotionID, arg.OrderID,
		arg.UserID, arg.Amount))
}

const increasePromotionUsedCount = `-- name: IncreasePromotionUsedCount :exec
UPDATE promotions SET used_count = used_count + 1, updated_at = now() WHERE id = $1`

func (q *Queries) IncreasePromotionUsedCount(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, increasePromotionUsedCount, id)
	return err
}
