package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listMenuCategories = `-- name: ListMenuCategories :many
SELECT ` + menuCategoryColumns + ` FROM menu_categories
WHERE tenant_id = $1 AND (NOT $2::bool OR active)
ORDER BY position, name`

type ListMenuCategoriesParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	ActiveOnly bool        `json:"active_only"`
}

func (q *Queries) ListMenuCategories(ctx context.Context, arg ListMenuCategoriesParams) ([]MenuCategory, error) {
	rows, err := q.db.Query(ctx, listMenuCategories, arg.TenantID, arg.ActiveOnly)
	return collect(rows, err, scanMenuCategory)
}

const getMenuCategoryByID = `-- name: GetMenuCategoryByID :one
SELECT ` + menuCategoryColumns + ` FROM menu_categories WHERE tenant_id = $1 AND id = $2`

type GetMenuCategoryByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetMenuCategoryByID(ctx context.Context, arg GetMenuCategoryByIDParams) (MenuCategory, error) {
	return scanMenuCategory(q.db.QueryRow(ctx, getMenuCategoryByID, arg.TenantID, arg.ID))
}

const createMenuCategory = `-- name: CreateMenuCategory :one
INSERT INTO menu_categories (tenant_id, slug, name, description, position, active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + menuCategoryColumns

type CreateMenuCategoryParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	Position    int32       `json:"position"`
	Active      bool        `json:"active"`
}

func (q *Queries) CreateMenuCategory(ctx context.Context, arg CreateMenuCategoryParams) (MenuCategory, error) {
	return scanMenuCategory(q.db.QueryRow(ctx, createMenuCategory, arg.TenantID, arg.Slug, arg.Name, arg.Description,
		arg.Position, arg.Active))
}

const updateMenuCategory = `-- name: UpdateMenuCategory :one
UPDATE menu_categories SET slug = $3, name = $4, description = $5, position = $6, active = $7, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + menuCategoryColumns

type UpdateMenuCategoryParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	ID          pgtype.UUID `json:"id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	Position    int32       `json:"position"`
	Active      bool        `json:"active"`
}

func (q *Queries) UpdateMenuCategory(ctx context.Context, arg UpdateMenuCategoryParams) (MenuCategory, error) {
	return scanMenuCategory(q.db.QueryRow(ctx, updateMenuCategory, arg.TenantID, arg.ID, arg.Slug, arg.Name,
		arg.Description, arg.Position, arg.Active))
}

const setMenuCategoryPosition = `-- name: SetMenuCategoryPosition :execrows
UPDATE menu_categories SET position = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2`

type SetMenuCategoryPositionParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	Position int32       `json:"position"`
}

func (q *Queries) SetMenuCategoryPosition(ctx context.Context, arg SetMenuCategoryPositionParams) (int64, error) {
	tag, err := q.db.Exec(ctx, setMenuCategoryPosition, arg.TenantID, arg.ID, arg.Position)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteMenuCategory = `-- name: DeleteMenuCategory :execrows
DELETE FROM menu_categories WHERE tenant_id = $1 AND id = $2`

type DeleteMenuCategoryParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteMenuCategory(ctx context.Context, arg DeleteMenuCategoryParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMenuCategory, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Filter arguments are nullable; a NULL argument disables its predicate.
const menuItemFilter = `
FROM menu_items mi
LEFT JOIN menu_categories mc ON mc.id = mi.category_id
WHERE mi.tenant_id = $1
  AND ($2::text IS NULL OR mc.slug = $2::text)
  AND ($3::text IS NULL OR $3::text = ANY(mi.dietary))
  AND ($4::text IS NULL OR mi.name ILIKE '%' || $4::text || '%' OR mi.description ILIKE '%' || $4::text || '%')
  AND ($5::bool IS NULL OR mi.featured = $5::bool)
  AND ($6::bool IS NULL OR mi.available = $6::bool)
  AND ($7::bigint IS NULL OR mi.price >= $7::bigint)
  AND ($8::bigint IS NULL OR mi.price <= $8::bigint)`

const countMenuItemsPublic = `-- name: CountMenuItemsPublic :one
SELECT COUNT(*)` + menuItemFilter

type CountMenuItemsPublicParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	CategorySlug any         `json:"category_slug"`
	Dietary      any         `json:"dietary"`
	Q            any         `json:"q"`
	Featured     any         `json:"featured"`
	Available    any         `json:"available"`
	MinPrice     any         `json:"min_price"`
	MaxPrice     any         `json:"max_price"`
}

func (q *Queries) CountMenuItemsPublic(ctx context.Context, arg CountMenuItemsPublicParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countMenuItemsPublic, arg.TenantID, arg.CategorySlug, arg.Dietary, arg.Q,
		arg.Featured, arg.Available, arg.MinPrice, arg.MaxPrice).Scan(&count)
	return count, err
}

const listMenuItemsPublic = `-- name: ListMenuItemsPublic :many
SELECT mi.id, mi.tenant_id, mi.category_id, mi.slug, mi.name, mi.description, mi.price, mi.image_url, mi.dietary,
    mi.featured, mi.available, mi.position, mi.created_at, mi.updated_at` + menuItemFilter + `
ORDER BY
    CASE WHEN $9::text = 'price:asc' THEN mi.price END ASC,
    CASE WHEN $9::text = 'price:desc' THEN mi.price END DESC,
    CASE WHEN $9::text = 'name:asc' THEN mi.name END ASC,
    CASE WHEN $9::text = 'name:desc' THEN mi.name END DESC,
    mc.position NULLS LAST, mi.position, mi.name
LIMIT $10 OFFSET $11`

type ListMenuItemsPublicParams struct {
	TenantID     pgtype.UUID `json:"tenant_id"`
	CategorySlug any         `json:"category_slug"`
	Dietary      any         `json:"dietary"`
	Q            any         `json:"q"`
	Featured     any         `json:"featured"`
	Available    any         `json:"available"`
	MinPrice     any         `json:"min_price"`
	MaxPrice     any         `json:"max_price"`
	Sort         any         `json:"sort"`
	LimitValue   int32       `json:"limit_value"`
	OffsetValue  int32       `json:"offset_value"`
}

func (q *Queries) ListMenuItemsPublic(ctx context.Context, arg ListMenuItemsPublicParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItemsPublic, arg.TenantID, arg.CategorySlug, arg.Dietary, arg.Q,
		arg.Featured, arg.Available, arg.MinPrice, arg.MaxPrice, arg.Sort, arg.LimitValue, arg.OffsetValue)
	return collect(rows, err, scanMenuItem)
}

const getMenuItemBySlug = `-- name: GetMenuItemBySlug :one
SELECT ` + menuItemColumns + ` FROM menu_items WHERE tenant_id = $1 AND slug = $2`

type GetMenuItemBySlugParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Slug     string      `json:"slug"`
}

func (q *Queries) GetMenuItemBySlug(ctx context.Context, arg GetMenuItemBySlugParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItemBySlug, arg.TenantID, arg.Slug))
}

const getMenuItemByID = `-- name: GetMenuItemByID :one
SELECT ` + menuItemColumns + ` FROM menu_items WHERE tenant_id = $1 AND id = $2`

type GetMenuItemByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetMenuItemByID(ctx context.Context, arg GetMenuItemByIDParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItemByID, arg.TenantID, arg.ID))
}

const listMenuItemsByIDs = `-- name: ListMenuItemsByIDs :many
SELECT ` + menuItemColumns + ` FROM menu_items WHERE tenant_id = $1 AND id = ANY($2::uuid[])`

type ListMenuItemsByIDsParams struct {
	TenantID pgtype.UUID   `json:"tenant_id"`
	Ids      []pgtype.UUID `json:"ids"`
}

func (q *Queries) ListMenuItemsByIDs(ctx context.Context, arg ListMenuItemsByIDsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItemsByIDs, arg.TenantID, arg.Ids)
	return collect(rows, err, scanMenuItem)
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (tenant_id, category_id, slug, name, description, price, image_url, dietary, featured,
    available, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	CategoryID  pgtype.UUID `json:"category_id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	Price       int64       `json:"price"`
	ImageUrl    pgtype.Text `json:"image_url"`
	Dietary     []string    `json:"dietary"`
	Featured    bool        `json:"featured"`
	Available   bool        `json:"available"`
	Position    int32       `json:"position"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem, arg.TenantID, arg.CategoryID, arg.Slug, arg.Name,
		arg.Description, arg.Price, arg.ImageUrl, arg.Dietary, arg.Featured, arg.Available, arg.Position))
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items SET
    category_id = $3,
    slug = $4,
    name = $5,
    description = $6,
    price = $7,
    image_url = $8,
    dietary = $9,
    featured = $10,
    available = $11,
    position = $12,
    updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	ID          pgtype.UUID `json:"id"`
	CategoryID  pgtype.UUID `json:"category_id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	Price       int64       `json:"price"`
	ImageUrl    pgtype.Text `json:"image_url"`
	Dietary     []string    `json:"dietary"`
	Featured    bool        `json:"featured"`
	Available   bool        `json:"available"`
	Position    int32       `json:"position"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem, arg.TenantID, arg.ID, arg.CategoryID, arg.Slug, arg.Name,
		arg.Description, arg.Price, arg.ImageUrl, arg.Dietary, arg.Featured, arg.Available, arg.Position))
}

const setMenuItemAvailability = `-- name: SetMenuItemAvailability :one
UPDATE menu_items SET available = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + menuItemColumns

type SetMenuItemAvailabilityParams struct {
	TenantID  pgtype.UUID `json:"tenant_id"`
	ID        pgtype.UUID `json:"id"`
	Available bool        `json:"available"`
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, setMenuItemAvailability, arg.TenantID, arg.ID, arg.Available))
}

const deleteMenuItem = `-- name: DeleteMenuItem :execrows
DELETE FROM menu_items WHERE tenant_id = $1 AND id = $2`

type DeleteMenuItemParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteMenuItem(ctx context.Context, arg DeleteMenuItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMenuItem, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listModifiersByItem = `-- name: ListModifiersByItem :many
SELECT ` + menuModifierColumns + ` FROM menu_modifiers
WHERE tenant_id = $1 AND item_id = $2
ORDER BY group_name, position, name`

type ListModifiersByItemParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ItemID   pgtype.UUID `json:"item_id"`
}

func (q *Queries) ListModifiersByItem(ctx context.Context, arg ListModifiersByItemParams) ([]MenuModifier, error) {
	rows, err := q.db.Query(ctx, listModifiersByItem, arg.TenantID, arg.ItemID)
	return collect(rows, err, scanMenuModifier)
}

const listModifiersByIDs = `-- name: ListModifiersByIDs :many
SELECT ` + menuModifierColumns + ` FROM menu_modifiers
WHERE tenant_id = $1 AND id = ANY($2::uuid[])
ORDER BY group_name, position, name`

type ListModifiersByIDsParams struct {
	TenantID pgtype.UUID   `json:"tenant_id"`
	Ids      []pgtype.UUID `json:"ids"`
}

func (q *Queries) ListModifiersByIDs(ctx context.Context, arg ListModifiersByIDsParams) ([]MenuModifier, error) {
	rows, err := q.db.Query(ctx, listModifiersByIDs, arg.TenantID, arg.Ids)
	return collect(rows, err, scanMenuModifier)
}

const createMenuModifier = `-- name: CreateMenuModifier :one
INSERT INTO menu_modifiers (tenant_id, item_id, group_name, name, price_delta, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + menuModifierColumns

type CreateMenuModifierParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	ItemID     pgtype.UUID `json:"item_id"`
	GroupName  string      `json:"group_name"`
	Name       string      `json:"name"`
	PriceDelta int64       `json:"price_delta"`
	Position   int32       `json:"position"`
}

func (q *Queries) CreateMenuModifier(ctx context.Context, arg CreateMenuModifierParams) (MenuModifier, error) {
	return scanMenuModifier(q.db.QueryRow(ctx, createMenuModifier, arg.TenantID, arg.ItemID, arg.GroupName, arg.Name,
		arg.PriceDelta, arg.Position))
}

const updateMenuModifier = `-- name: UpdateMenuModifier :one
UPDATE menu_modifiers SET group_name = $4, name = $5, price_delta = $6, position = $7
WHERE tenant_id = $1 AND item_id = $2 AND id = $3
RETURNING ` + menuModifierColumns

type UpdateMenuModifierParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	ItemID     pgtype.UUID `json:"item_id"`
	ID         pgtype.UUID `json:"id"`
	GroupName  string      `json:"group_name"`
	Name       string      `json:"name"`
	PriceDelta int64       `json:"price_delta"`
	Position   int32       `json:"position"`
}

func (q *Queries) UpdateMenuModifier(ctx context.Context, arg UpdateMenuModifierParams) (MenuModifier, error) {
	return scanMenuModifier(q.db.QueryRow(ctx, updateMenuModifier, arg.TenantID, arg.ItemID, arg.ID, arg.GroupName,
		arg.Name, arg.PriceDelta, arg.Position))
}

const deleteMenuModifier = `-- name: DeleteMenuModifier :execrows
DELETE FROM menu_modifiers WHERE tenant_id = $1 AND item_id = $2 AND id = $3`

type DeleteMenuModifierParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ItemID   pgtype.UUID `json:"item_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteMenuModifier(ctx context.Context, arg DeleteMenuModifierParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMenuModifier, arg.TenantID, arg.ItemID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
