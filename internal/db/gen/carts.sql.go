package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createCart = `-- name: CreateCart :one
INSERT INTO carts (tenant_id, user_id, anon_id, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + cartColumns

type CreateCartParams struct {
	TenantID  pgtype.UUID        `json:"tenant_id"`
	UserID    pgtype.UUID        `json:"user_id"`
	AnonID    pgtype.Text        `json:"anon_id"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, createCart, arg.TenantID, arg.UserID, arg.AnonID, arg.ExpiresAt))
}

const getCartByID = `-- name: GetCartByID :one
SELECT ` + cartColumns + ` FROM carts WHERE tenant_id = $1 AND id = $2`

type GetCartByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetCartByID(ctx context.Context, arg GetCartByIDParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByID, arg.TenantID, arg.ID))
}

const getCartByIDForUpdate = `-- name: GetCartByIDForUpdate :one
SELECT ` + cartColumns + ` FROM carts WHERE tenant_id = $1 AND id = $2 FOR UPDATE`

func (q *Queries) GetCartByIDForUpdate(ctx context.Context, arg GetCartByIDParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByIDForUpdate, arg.TenantID, arg.ID))
}

const getActiveCartByUser = `-- name: GetActiveCartByUser :one
SELECT ` + cartColumns + ` FROM carts
WHERE tenant_id = $1 AND user_id = $2 AND status = 'active' AND expires_at > now()
ORDER BY updated_at DESC
LIMIT 1`

type GetActiveCartByUserParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	UserID   pgtype.UUID `json:"user_id"`
}

func (q *Queries) GetActiveCartByUser(ctx context.Context, arg GetActiveCartByUserParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getActiveCartByUser, arg.TenantID, arg.UserID))
}

const getActiveCartByAnon = `-- name: GetActiveCartByAnon :one
SELECT ` + cartColumns + ` FROM carts
WHERE tenant_id = $1 AND anon_id = $2 AND user_id IS NULL AND status = 'active' AND expires_at > now()
ORDER BY updated_at DESC
LIMIT 1`

type GetActiveCartByAnonParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	AnonID   pgtype.Text `json:"anon_id"`
}

func (q *Queries) GetActiveCartByAnon(ctx context.Context, arg GetActiveCartByAnonParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getActiveCartByAnon, arg.TenantID, arg.AnonID))
}

const touchCart = `-- name: TouchCart :exec
UPDATE carts SET expires_at = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`

type TouchCartParams struct {
	TenantID  pgtype.UUID        `json:"tenant_id"`
	ID        pgtype.UUID        `json:"id"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) TouchCart(ctx context.Context, arg TouchCartParams) error {
	_, err := q.db.Exec(ctx, touchCart, arg.TenantID, arg.ID, arg.ExpiresAt)
	return err
}

const updateCartContext = `-- name: UpdateCartContext :one
UPDATE carts SET branch_id = $3, fulfillment = $4, table_number = $5, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + cartColumns

type UpdateCartContextParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	ID          pgtype.UUID `json:"id"`
	BranchID    pgtype.UUID `json:"branch_id"`
	Fulfillment Fulfillment `json:"fulfillment"`
	TableNumber pgtype.Text `json:"table_number"`
}

func (q *Queries) UpdateCartContext(ctx context.Context, arg UpdateCartContextParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, updateCartContext, arg.TenantID, arg.ID, arg.BranchID, arg.Fulfillment, arg.TableNumber))
}

const updateCartPromotion = `-- name: UpdateCartPromotion :exec
UPDATE carts SET promotion_code = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`

type UpdateCartPromotionParams struct {
	TenantID      pgtype.UUID `json:"tenant_id"`
	ID            pgtype.UUID `json:"id"`
	PromotionCode pgtype.Text `json:"promotion_code"`
}

func (q *Queries) UpdateCartPromotion(ctx context.Context, arg UpdateCartPromotionParams) error {
	_, err := q.db.Exec(ctx, updateCartPromotion, arg.TenantID, arg.ID, arg.PromotionCode)
	return err
}

const updateCartPoints = `-- name: UpdateCartPoints :exec
UPDATE carts SET points_to_redeem = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`

type UpdateCartPointsParams struct {
	TenantID       pgtype.UUID `json:"tenant_id"`
	ID             pgtype.UUID `json:"id"`
	PointsToRedeem int64       `json:"points_to_redeem"`
}

func (q *Queries) UpdateCartPoints(ctx context.Context, arg UpdateCartPointsParams) error {
	_, err := q.db.Exec(ctx, updateCartPoints, arg.TenantID, arg.ID, arg.PointsToRedeem)
	return err
}

const transferCartToUser = `-- name: TransferCartToUser :exec
UPDATE carts SET user_id = $3, anon_id = NULL, updated_at = now() WHERE tenant_id = $1 AND id = $2`

type TransferCartToUserParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	UserID   pgtype.UUID `json:"user_id"`
}

func (q *Queries) TransferCartToUser(ctx context.Context, arg TransferCartToUserParams) error {
	_, err := q.db.Exec(ctx, transferCartToUser, arg.TenantID, arg.ID, arg.UserID)
	return err
}

const expireCart = `-- name: ExpireCart :exec
UPDATE carts SET expires_at = now(), promotion_code = NULL, points_to_redeem = 0, updated_at = now()
WHERE tenant_id = $1 AND id = $2`

type ExpireCartParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) ExpireCart(ctx context.Context, arg ExpireCartParams) error {
	_, err := q.db.Exec(ctx, expireCart, arg.TenantID, arg.ID)
	return err
}

const markCartCheckedOut = `-- name: MarkCartCheckedOut :execrows
UPDATE carts SET status = 'checked_out', updated_at = now()
WHERE tenant_id = $1 AND id = $2 AND status = 'active'`

type MarkCartCheckedOutParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) MarkCartCheckedOut(ctx context.Context, arg MarkCartCheckedOutParams) (int64, error) {
	tag, err := q.db.Exec(ctx, markCartCheckedOut, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listCartItems = `-- name: ListCartItems :many
SELECT ` + cartItemColumns + ` FROM cart_items WHERE tenant_id = $1 AND cart_id = $2 ORDER BY created_at, id`

type ListCartItemsParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	CartID   pgtype.UUID `json:"cart_id"`
}

func (q *Queries) ListCartItems(ctx context.Context, arg ListCartItemsParams) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, listCartItems, arg.TenantID, arg.CartID)
	return collect(rows, err, scanCartItem)
}

const getCartItemByID = `-- name: GetCartItemByID :one
SELECT ` + cartItemColumns + ` FROM cart_items WHERE tenant_id = $1 AND cart_id = $2 AND id = $3`

type GetCartItemByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	CartID   pgtype.UUID `json:"cart_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetCartItemByID(ctx context.Context, arg GetCartItemByIDParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, getCartItemByID, arg.TenantID, arg.CartID, arg.ID))
}

const findCartItem = `-- name: FindCartItem :one
SELECT ` + cartItemColumns + ` FROM cart_items
WHERE tenant_id = $1 AND cart_id = $2 AND menu_item_id = $3 AND modifier_key = $4 AND notes = $5
LIMIT 1`

type FindCartItemParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	CartID      pgtype.UUID `json:"cart_id"`
	MenuItemID  pgtype.UUID `json:"menu_item_id"`
	ModifierKey string      `json:"modifier_key"`
	Notes       string      `json:"notes"`
}

func (q *Queries) FindCartItem(ctx context.Context, arg FindCartItemParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, findCartItem, arg.TenantID, arg.CartID, arg.MenuItemID, arg.ModifierKey, arg.Notes))
}

const createCartItem = `-- name: CreateCartItem :one
INSERT INTO cart_items (tenant_id, cart_id, menu_item_id, name, qty, unit_price, modifier_ids, modifier_key,
    modifiers, modifier_total, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + cartItemColumns

type CreateCartItemParams struct {
	TenantID      pgtype.UUID   `json:"tenant_id"`
	CartID        pgtype.UUID   `json:"cart_id"`
	MenuItemID    pgtype.UUID   `json:"menu_item_id"`
	Name          string        `json:"name"`
	Qty           int32         `json:"qty"`
	UnitPrice     int64         `json:"unit_price"`
	ModifierIds   []pgtype.UUID `json:"modifier_ids"`
	ModifierKey   string        `json:"modifier_key"`
	Modifiers     []byte        `json:"modifiers"`
	ModifierTotal int64         `json:"modifier_total"`
	Notes         string        `json:"notes"`
}

func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, createCartItem, arg.TenantID, arg.CartID, arg.MenuItemID, arg.Name, arg.Qty,
		arg.UnitPrice, arg.ModifierIds, arg.ModifierKey, arg.Modifiers, arg.ModifierTotal, arg.Notes))
}

const updateCartItemQty = `-- name: UpdateCartItemQty :one
UPDATE cart_items SET qty = $4
WHERE tenant_id = $1 AND cart_id = $2 AND id = $3
RETURNING ` + cartItemColumns

type UpdateCartItemQtyParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	CartID   pgtype.UUID `json:"cart_id"`
	ID       pgtype.UUID `json:"id"`
	Qty      int32       `json:"qty"`
}

func (q *Queries) UpdateCartItemQty(ctx context.Context, arg UpdateCartItemQtyParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, updateCartItemQty, arg.TenantID, arg.CartID, arg.ID, arg.Qty))
}

const deleteCartItem = `-- name: DeleteCartItem :execrows
DELETE FROM cart_items WHERE tenant_id = $1 AND cart_id = $2 AND id = $3`

type DeleteCartItemParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	CartID   pgtype.UUID `json:"cart_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCartItem, arg.TenantID, arg.CartID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
