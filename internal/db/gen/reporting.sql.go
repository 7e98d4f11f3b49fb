package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Cancelled orders are excluded from revenue.
const salesByDay = `-- name: SalesByDay :many
SELECT (created_at AT TIME ZONE $4::text)::date AS day,
    COUNT(*)::bigint AS orders,
    COALESCE(SUM(total), 0)::bigint AS revenue,
    COALESCE(SUM(promo_discount + points_discount), 0)::bigint AS discounts
FROM orders
WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3 AND status <> 'cancelled'
GROUP BY day
ORDER BY day`

type SalesByDayParams struct {
	TenantID pgtype.UUID        `json:"tenant_id"`
	From     pgtype.Timestamptz `json:"from"`
	To       pgtype.Timestamptz `json:"to"`
	TimeZone string             `json:"time_zone"`
}

type SalesByDayRow struct {
	Day       pgtype.Date `json:"day"`
	Orders    int64       `json:"orders"`
	Revenue   int64       `json:"revenue"`
	Discounts int64       `json:"discounts"`
}

func (q *Queries) SalesByDay(ctx context.Context, arg SalesByDayParams) ([]SalesByDayRow, error) {
	rows, err := q.db.Query(ctx, salesByDay, arg.TenantID, arg.From, arg.To, arg.TimeZone)
	return collect(rows, err, func(row scanner) (SalesByDayRow, error) {
		var i SalesByDayRow
		err := row.Scan(&i.Day, &i.Orders, &i.Revenue, &i.Discounts)
		return i, err
	})
}

const topMenuItems = `-- name: TopMenuItems :many
SELECT oi.menu_item_id, oi.name,
    SUM(oi.qty)::bigint AS qty,
    SUM(oi.line_total)::bigint AS revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.tenant_id = $1 AND o.created_at >= $2 AND o.created_at < $3 AND o.status <> 'cancelled'
GROUP BY oi.menu_item_id, oi.name
ORDER BY qty DESC, revenue DESC
LIMIT $4`

type TopMenuItemsParams struct {
	TenantID pgtype.UUID        `json:"tenant_id"`
	From     pgtype.Timestamptz `json:"from"`
	To       pgtype.Timestamptz `json:"to"`
	Limit    int32              `json:"limit"`
}

type TopMenuItemsRow struct {
	MenuItemID pgtype.UUID `json:"menu_item_id"`
	Name       string      `json:"name"`
	Qty        int64       `json:"qty"`
	Revenue    int64       `json:"revenue"`
}

func (q *Queries) TopMenuItems(ctx context.Context, arg TopMenuItemsParams) ([]TopMenuItemsRow, error) {
	rows, err := q.db.Query(ctx, topMenuItems, arg.TenantID, arg.From, arg.To, arg.Limit)
	return collect(rows, err, func(row scanner) (TopMenuItemsRow, error) {
		var i TopMenuItemsRow
		err := row.Scan(&i.MenuItemID, &i.Name, &i.Qty, &i.Revenue)
		return i, err
	})
}

const reservationsByStatus = `-- name: ReservationsByStatus :many
SELECT status, COUNT(*)::bigint AS reservations, COALESCE(SUM(party_size), 0)::bigint AS covers
FROM reservations
WHERE tenant_id = $1 AND reserved_at >= $2 AND reserved_at < $3
GROUP BY status
ORDER BY status`

type ReservationsByStatusParams struct {
	TenantID pgtype.UUID        `json:"tenant_id"`
	From     pgtype.Timestamptz `json:"from"`
	To       pgtype.Timestamptz `json:"to"`
}

type ReservationsByStatusRow struct {
	Status       string `json:"status"`
	Reservations int64  `json:"reservations"`
	Covers       int64  `json:"covers"`
}

func (q *Queries) ReservationsByStatus(ctx context.Context, arg ReservationsByStatusParams) ([]ReservationsByStatusRow, error) {
	rows, err := q.db.Query(ctx, reservationsByStatus, arg.TenantID, arg.From, arg.To)
	return collect(rows, err, func(row scanner) (ReservationsByStatusRow, error) {
		var i ReservationsByStatusRow
		err := row.Scan(&i.Status, &i.Reservations, &i.Covers)
		return i, err
	})
}

const loyaltyTotals = `-- name: LoyaltyTotals :one
SELECT
    COALESCE(SUM(points) FILTER (WHERE kind = 'earn'), 0)::bigint AS issued,
    COALESCE(-SUM(points) FILTER (WHERE kind = 'redeem'), 0)::bigint AS redeemed,
    COALESCE(-SUM(points) FILTER (WHERE kind = 'expire'), 0)::bigint AS expired,
    COALESCE(SUM(points) FILTER (WHERE kind = 'adjust'), 0)::bigint AS adjusted
FROM loyalty_transactions
WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`

type LoyaltyTotalsParams struct {
	TenantID pgtype.UUID        `json:"tenant_id"`
	From     pgtype.Timestamptz `json:"from"`
	To       pgtype.Timestamptz `json:"to"`
}

type LoyaltyTotalsRow struct {
	Issued   int64 `json:"issued"`
	Redeemed int64 `json:"redeemed"`
	Expired  int64 `json:"expired"`
	Adjusted int64 `json:"adjusted"`
}

func (q *Queries) LoyaltyTotals(ctx context.Context, arg LoyaltyTotalsParams) (LoyaltyTotalsRow, error) {
	var i LoyaltyTotalsRow
	err := q.db.QueryRow(ctx, loyaltyTotals, arg.TenantID, arg.From, arg.To).Scan(&i.Issued, &i.Redeemed, &i.Expired, &i.Adjusted)
	return i, err
}

const loyaltyMembersByTier = `-- name: LoyaltyMembersByTier :many
SELECT COALESCE(t.name, 'none') AS tier, COUNT(a.id)::bigint AS members
FROM loyalty_accounts a
LEFT JOIN loyalty_tiers t ON t.id = a.tier_id
WHERE a.tenant_id = $1
GROUP BY t.name, t.min_points
ORDER BY t.min_points NULLS FIRST`

type LoyaltyMembersByTierRow struct {
	Tier    string `json:"tier"`
	Members int64  `json:"members"`
}

func (q *Queries) LoyaltyMembersByTier(ctx context.Context, tenantID pgtype.UUID) ([]LoyaltyMembersByTierRow, error) {
	rows, err := q.db.Query(ctx, loyaltyMembersByTier, tenantID)
	return collect(rows, err, func(row scanner) (LoyaltyMembersByTierRow, error) {
		var i LoyaltyMembersByTierRow
		err := row.Scan(&i.Tier, &i.Members)
		return i, err
	})
}
