package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (tenant_id, code, user_id, branch_id, cart_id, fulfillment, status, guest_name, guest_phone,
    guest_email, notes, table_number, currency, subtotal, promo_discount, points_discount, tax, total,
    points_redeemed, promotion_code)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	TenantID       pgtype.UUID `json:"tenant_id"`
	Code           string      `json:"code"`
	UserID         pgtype.UUID `json:"user_id"`
	BranchID       pgtype.UUID `json:"branch_id"`
	CartID         pgtype.UUID `json:"cart_id"`
	Fulfillment    Fulfillment `json:"fulfillment"`
	GuestName      pgtype.Text `json:"guest_name"`
	GuestPhone     pgtype.Text `json:"guest_phone"`
	GuestEmail     pgtype.Text `json:"guest_email"`
	Notes          pgtype.Text `json:"notes"`
	TableNumber    pgtype.Text `json:"table_number"`
	Currency       string      `json:"currency"`
	Subtotal       int64       `json:"subtotal"`
	PromoDiscount  int64       `json:"promo_discount"`
	PointsDiscount int64       `json:"points_discount"`
	Tax            int64       `json:"tax"`
	Total          int64       `json:"total"`
	PointsRedeemed int64       `json:"points_redeemed"`
	PromotionCode  pgtype.Text `json:"promotion_code"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder, arg.TenantID, arg.Code, arg.UserID, arg.BranchID, arg.CartID,
		arg.Fulfillment, arg.GuestName, arg.GuestPhone, arg.GuestEmail, arg.Notes, arg.TableNumber, arg.Currency,
		arg.Subtotal, arg.PromoDiscount, arg.PointsDiscount, arg.Tax, arg.Total, arg.PointsRedeemed, arg.PromotionCode))
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (tenant_id, order_id, menu_item_id, name, qty, unit_price, modifiers, modifier_total,
    line_total, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	TenantID      pgtype.UUID `json:"tenant_id"`
	OrderID       pgtype.UUID `json:"order_id"`
	MenuItemID    pgtype.UUID `json:"menu_item_id"`
	Name          string      `json:"name"`
	Qty           int32       `json:"qty"`
	UnitPrice     int64       `json:"unit_price"`
	Modifiers     []byte      `json:"modifiers"`
	ModifierTotal int64       `json:"modifier_total"`
	LineTotal     int64       `json:"line_total"`
	Notes         string      `json:"notes"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, createOrderItem, arg.TenantID, arg.OrderID, arg.MenuItemID, arg.Name,
		arg.Qty, arg.UnitPrice, arg.Modifiers, arg.ModifierTotal, arg.LineTotal, arg.Notes))
}

const insertOrderStatusHistory = `-- name: InsertOrderStatusHistory :exec
INSERT INTO order_status_history (tenant_id, order_id, from_status, to_status, note, changed_by)
VALUES ($1, $2, $3, $4, $5, $6)`

type InsertOrderStatusHistoryParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	OrderID    pgtype.UUID `json:"order_id"`
	FromStatus pgtype.Text `json:"from_status"`
	ToStatus   string      `json:"to_status"`
	Note       pgtype.Text `json:"note"`
	ChangedBy  pgtype.UUID `json:"changed_by"`
}

func (q *Queries) InsertOrderStatusHistory(ctx context.Context, arg InsertOrderStatusHistoryParams) error {
	_, err := q.db.Exec(ctx, insertOrderStatusHistory, arg.TenantID, arg.OrderID, arg.FromStatus, arg.ToStatus,
		arg.Note, arg.ChangedBy)
	return err
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND id = $2`

type GetOrderByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetOrderByID(ctx context.Context, arg GetOrderByIDParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByID, arg.TenantID, arg.ID))
}

const getOrderByCode = `-- name: GetOrderByCode :one
SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND code = $2`

type GetOrderByCodeParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Code     string      `json:"code"`
}

func (q *Queries) GetOrderByCode(ctx context.Context, arg GetOrderByCodeParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByCode, arg.TenantID, arg.Code))
}

const listOrderItems = `-- name: ListOrderItems :many
SELECT ` + orderItemColumns + ` FROM order_items WHERE tenant_id = $1 AND order_id = $2 ORDER BY name, id`

type ListOrderItemsParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	OrderID  pgtype.UUID `json:"order_id"`
}

func (q *Queries) ListOrderItems(ctx context.Context, arg ListOrderItemsParams) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, arg.TenantID, arg.OrderID)
	return collect(rows, err, scanOrderItem)
}

const listOrderStatusHistory = `-- name: ListOrderStatusHistory :many
SELECT ` + orderStatusHistoryColumns + ` FROM order_status_history
WHERE tenant_id = $1 AND order_id = $2
ORDER BY created_at, id`

type ListOrderStatusHistoryParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	OrderID  pgtype.UUID `json:"order_id"`
}

func (q *Queries) ListOrderStatusHistory(ctx context.Context, arg ListOrderStatusHistoryParams) ([]OrderStatusHistory, error) {
	rows, err := q.db.Query(ctx, listOrderStatusHistory, arg.TenantID, arg.OrderID)
	return collect(rows, err, scanOrderStatusHistory)
}

const listOrdersByUser = `-- name: ListOrdersByUser :many
SELECT ` + orderColumns + ` FROM orders
WHERE tenant_id = $1 AND user_id = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

type ListOrdersByUserParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	UserID   pgtype.UUID `json:"user_id"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListOrdersByUser(ctx context.Context, arg ListOrdersByUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, arg.TenantID, arg.UserID, arg.Limit, arg.Offset)
	return collect(rows, err, scanOrder)
}

const countOrdersByUser = `-- name: CountOrdersByUser :one
SELECT COUNT(*) FROM orders WHERE tenant_id = $1 AND user_id = $2`

type CountOrdersByUserParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	UserID   pgtype.UUID `json:"user_id"`
}

func (q *Queries) CountOrdersByUser(ctx context.Context, arg CountOrdersByUserParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOrdersByUser, arg.TenantID, arg.UserID).Scan(&count)
	return count, err
}

const adminOrderFilter = `
WHERE tenant_id = $1
  AND ($2::text IS NULL OR status = $2::text)
  AND ($3::uuid IS NULL OR branch_id = $3::uuid)
  AND ($4::timestamptz IS NULL OR created_at >= $4::timestamptz)
  AND ($5::timestamptz IS NULL OR created_at < $5::timestamptz)`

const listOrdersAdmin = `-- name: ListOrdersAdmin :many
SELECT ` + orderColumns + ` FROM orders` + adminOrderFilter + `
ORDER BY created_at DESC
LIMIT $6 OFFSET $7`

type ListOrdersAdminParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Status   any         `json:"status"`
	BranchID any         `json:"branch_id"`
	From     any         `json:"from"`
	To       any         `json:"to"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListOrdersAdmin(ctx context.Context, arg ListOrdersAdminParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersAdmin, arg.TenantID, arg.Status, arg.BranchID, arg.From, arg.To, arg.Limit, arg.Offset)
	return collect(rows, err, scanOrder)
}

const countOrdersAdmin = `-- name: CountOrdersAdmin :one
SELECT COUNT(*) FROM orders` + adminOrderFilter

type CountOrdersAdminParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Status   any         `json:"status"`
	BranchID any         `json:"branch_id"`
	From     any         `json:"from"`
	To       any         `json:"to"`
}

func (q *Queries) CountOrdersAdmin(ctx context.Context, arg CountOrdersAdminParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOrdersAdmin, arg.TenantID, arg.Status, arg.BranchID, arg.From, arg.To).Scan(&count)
	return count, err
}

// Compare-and-set on status. Zero rows means the order moved concurrently.
const updateOrderStatusIfAllowed = `-- name: UpdateOrderStatusIfAllowed :one
UPDATE orders SET
    status = $3,
    completed_at = CASE WHEN $3 = 'completed' THEN now() ELSE completed_at END,
    updated_at = now()
WHERE tenant_id = $1 AND id = $2 AND status = $4
RETURNING ` + orderColumns

type UpdateOrderStatusIfAllowedParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	ID         pgtype.UUID `json:"id"`
	Status     OrderStatus `json:"status"`
	FromStatus OrderStatus `json:"from_status"`
}

func (q *Queries) UpdateOrderStatusIfAllowed(ctx context.Context, arg UpdateOrderStatusIfAllowedParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatusIfAllowed, arg.TenantID, arg.ID, arg.Status, arg.FromStatus))
}

const setOrderPointsEarned = `-- name: SetOrderPointsEarned :exec
UPDATE orders SET points_earned = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`

type SetOrderPointsEarnedParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	ID           pgtype.UUID `json:"id"`
	PointsEarned int64       `json:"points_earned"`
}

func (q *Queries) SetOrderPointsEarned(ctx context.Context, arg SetOrderPointsEarnedParams) error {
	_, err := q.db.Exec(ctx, setOrderPointsEarned, arg.TenantID, arg.ID, arg.PointsEarned)
	return err
}

const hasCompletedOrderWithItem = `-- name: HasCompletedOrderWithItem :one
SELECT EXISTS (
    SELECT 1 FROM orders o
    JOIN order_items oi ON oi.order_id = o.id
    WHERE o.tenant_id = $1 AND o.user_id = $2 AND oi.menu_item_id = $3 AND o.status = 'completed'
)`

type HasCompletedOrderWithItemParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	UserID     pgtype.UUID `json:"user_id"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
}

func (q *Queries) HasCompletedOrderWithItem(ctx context.Context, arg HasCompletedOrderWithItemParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, hasCompletedOrderWithItem, arg.TenantID, arg.UserID, arg.MenuItemID).Scan(&exists)
	return exists, err
}
