package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listIngredients = `-- name: ListIngredients :many
SELECT ` + ingredientColumns + ` FROM ingredients WHERE tenant_id = $1 ORDER BY name`

func (q *Queries) ListIngredients(ctx context.Context, tenantID pgtype.UUID) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listIngredients, tenantID)
	return collect(rows, err, scanIngredient)
}

const getIngredientByID = `-- name: GetIngredientByID :one
SELECT ` + ingredientColumns + ` FROM ingredients WHERE tenant_id = $1 AND id = $2`

type GetIngredientByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetIngredientByID(ctx context.Context, arg GetIngredientByIDParams) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, getIngredientByID, arg.TenantID, arg.ID))
}

const createIngredient = `-- name: CreateIngredient :one
INSERT INTO ingredients (tenant_id, name, unit, on_hand, low_threshold)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + ingredientColumns

type CreateIngredientParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	Name         string      `json:"name"`
	Unit         string      `json:"unit"`
	OnHand       int64       `json:"on_hand"`
	LowThreshold int64       `json:"low_threshold"`
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, createIngredient, arg.TenantID, arg.Name, arg.Unit, arg.OnHand, arg.LowThreshold))
}

const updateIngredient = `-- name: UpdateIngredient :one
UPDATE ingredients SET name = $3, unit = $4, low_threshold = $5, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + ingredientColumns

type UpdateIngredientParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	ID           pgtype.UUID `json:"id"`
	Name         string      `json:"name"`
	Unit         string      `json:"unit"`
	LowThreshold int64       `json:"low_threshold"`
}

func (q *Queries) UpdateIngredient(ctx context.Context, arg UpdateIngredientParams) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, updateIngredient, arg.TenantID, arg.ID, arg.Name, arg.Unit, arg.LowThreshold))
}

const deleteIngredient = `-- name: DeleteIngredient :execrows
DELETE FROM ingredients WHERE tenant_id = $1 AND id = $2`

type DeleteIngredientParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteIngredient(ctx context.Context, arg DeleteIngredientParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteIngredient, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listLowStockIngredients = `-- name: ListLowStockIngredients :many
SELECT ` + ingredientColumns + ` FROM ingredients
WHERE tenant_id = $1 AND on_hand <= low_threshold
ORDER BY (on_hand - low_threshold), name`

func (q *Queries) ListLowStockIngredients(ctx context.Context, tenantID pgtype.UUID) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listLowStockIngredients, tenantID)
	return collect(rows, err, scanIngredient)
}

// Returns the ingredient after the change so callers can compare against the threshold.
const adjustIngredientStock = `-- name: AdjustIngredientStock :one
UPDATE ingredients SET on_hand = on_hand + $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + ingredientColumns

type AdjustIngredientStockParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	Delta    int64       `json:"delta"`
}

func (q *Queries) AdjustIngredientStock(ctx context.Context, arg AdjustIngredientStockParams) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, adjustIngredientStock, arg.TenantID, arg.ID, arg.Delta))
}

const listRecipeByMenuItem = `-- name: ListRecipeByMenuItem :many
SELECT r.tenant_id, r.menu_item_id, r.ingredient_id, r.quantity, i.name, i.unit
FROM recipes r
JOIN ingredients i ON i.id = r.ingredient_id
WHERE r.tenant_id = $1 AND r.menu_item_id = $2
ORDER BY i.name`

type ListRecipeByMenuItemParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
}

type ListRecipeByMenuItemRow struct {
	TenantID       pgtype.UUID `json:"tenant_id"`
	MenuItemID     pgtype.UUID `json:"menu_item_id"`
	IngredientID   pgtype.UUID `json:"ingredient_id"`
	Quantity       int64       `json:"quantity"`
	IngredientName string      `json:"ingredient_name"`
	Unit           string      `json:"unit"`
}

func (q *Queries) ListRecipeByMenuItem(ctx context.Context, arg ListRecipeByMenuItemParams) ([]ListRecipeByMenuItemRow, error) {
	rows, err := q.db.Query(ctx, listRecipeByMenuItem, arg.TenantID, arg.MenuItemID)
	return collect(rows, err, func(row scanner) (ListRecipeByMenuItemRow, error) {
		var i ListRecipeByMenuItemRow
		err := row.Scan(&i.TenantID, &i.MenuItemID, &i.IngredientID, &i.Quantity, &i.IngredientName, &i.Unit)
		return i, err
	})
}

const deleteRecipe = `-- name: DeleteRecipe :exec
DELETE FROM recipes WHERE tenant_id = $1 AND menu_item_id = $2`

type DeleteRecipeParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
}

func (q *Queries) DeleteRecipe(ctx context.Context, arg DeleteRecipeParams) error {
	_, err := q.db.Exec(ctx, deleteRecipe, arg.TenantID, arg.MenuItemID)
	return err
}

const insertRecipeLine = `-- name: InsertRecipeLine :exec
INSERT INTO recipes (tenant_id, menu_item_id, ingredient_id, quantity) VALUES ($1, $2, $3, $4)`

type InsertRecipeLineParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	MenuItemID   pgtype.UUID `json:"menu_item_id"`
	IngredientID pgtype.UUID `json:"ingredient_id"`
	Quantity     int64       `json:"quantity"`
}

func (q *Queries) InsertRecipeLine(ctx context.Context, arg InsertRecipeLineParams) error {
	_, err := q.db.Exec(ctx, insertRecipeLine, arg.TenantID, arg.MenuItemID, arg.IngredientID, arg.Quantity)
	return err
}

const listRecipeLinesForItems = `-- name: ListRecipeLinesForItems :many
SELECT ` + recipeColumns + ` FROM recipes WHERE tenant_id = $1 AND menu_item_id = ANY($2::uuid[])`

type ListRecipeLinesForItemsParams struct {
	TenantID    pgtype.UUID   `json:"tenant_id"`
	MenuItemIds []pgtype.UUID `json:"menu_item_ids"`
}

func (q *Queries) ListRecipeLinesForItems(ctx context.Context, arg ListRecipeLinesForItemsParams) ([]Recipe, error) {
	rows, err := q.db.Query(ctx, listRecipeLinesForItems, arg.TenantID, arg.MenuItemIds)
	return collect(rows, err, scanRecipe)
}

const insertStockMovement = `-- name: InsertStockMovement :one
INSERT INTO stock_movements (tenant_id, ingredient_id, kind, quantity, order_id, note, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + stockMovementColumns

type InsertStockMovementParams struct {
	TenantID     pgtype.UUID       `json:"tenant_id"`
	IngredientID pgtype.UUID       `json:"ingredient_id"`
	Kind         StockMovementKind `json:"kind"`
	Quantity     int64             `json:"quantity"`
	OrderID      pgtype.UUID       `json:"order_id"`
	Note         string            `json:"note"`
	CreatedBy    pgtype.UUID       `json:"created_by"`
}

func (q *Queries) InsertStockMovement(ctx context.Context, arg InsertStockMovementParams) (StockMovement, error) {
	return scanStockMovement(q.db.QueryRow(ctx, insertStockMovement, arg.TenantID, arg.IngredientID, arg.Kind,
		arg.Quantity, arg.OrderID, arg.Note, arg.CreatedBy))
}

const listStockMovements = `-- name: ListStockMovements :many
SELECT ` + stockMovementColumns + ` FROM stock_movements
WHERE tenant_id = $1 AND ($2::uuid IS NULL OR ingredient_id = $2::uuid)
ORDER BY created_at DESC, id
LIMIT $3 OFFSET $4`

type ListStockMovementsParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	IngredientID any         `json:"ingredient_id"`
	Limit        int32       `json:"limit"`
	Offset       int32       `json:"offset"`
}

func (q *Queries) ListStockMovements(ctx context.Context, arg ListStockMovementsParams) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, listStockMovements, arg.TenantID, arg.IngredientID, arg.Limit, arg.Offset)
	return collect(rows, err, scanStockMovement)
}

const countStockMovements = `-- name: CountStockMovements :one
SELECT COUNT(*) FROM stock_movements WHERE tenant_id = $1 AND ($2::uuid IS NULL OR ingredient_id = $2::uuid)`

type CountStockMovementsParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	IngredientID any         `json:"ingredient_id"`
}

func (q *Queries) CountStockMovements(ctx context.Context, arg CountStockMovementsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countStockMovements, arg.TenantID, arg.IngredientID).Scan(&count)
	return count, err
}

const listStockMovementsByOrder = `-- name: ListStockMovementsByOrder :many
SELECT ` + stockMovementColumns + ` FROM stock_movements WHERE tenant_id = $1 AND order_id = $2 ORDER BY created_at`

type ListStockMovementsByOrderParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	OrderID  pgtype.UUID `json:"order_id"`
}

func (q *Queries) ListStockMovementsByOrder(ctx context.Context, arg ListStockMovementsByOrderParams) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, listStockMovementsByOrder, arg.TenantID, arg.OrderID)
	return collect(rows, err, scanStockMovement)
}
