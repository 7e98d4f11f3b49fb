package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listCmsPages = `-- name: ListCmsPages :many
SELECT ` + cmsPageColumns + ` FROM cms_pages
WHERE tenant_id = $1
  AND ($2::text IS NULL OR kind = $2::text)
  AND (NOT $3::bool OR published)
ORDER BY position, title`

type ListCmsPagesParams struct {
	TenantID      pgtype.UUID `json:"tenant_id"`
	Kind          any         `json:"kind"`
	PublishedOnly bool        `json:"published_only"`
}

func (q *Queries) ListCmsPages(ctx context.Context, arg ListCmsPagesParams) ([]CmsPage, error) {
	rows, err := q.db.Query(ctx, listCmsPages, arg.TenantID, arg.Kind, arg.PublishedOnly)
	return collect(rows, err, scanCmsPage)
}

const getCmsPageBySlug = `-- name: GetCmsPageBySlug :one
SELECT ` + cmsPageColumns + ` FROM cms_pages WHERE tenant_id = $1 AND slug = $2`

type GetCmsPageBySlugParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Slug     string      `json:"slug"`
}

func (q *Queries) GetCmsPageBySlug(ctx context.Context, arg GetCmsPageBySlugParams) (CmsPage, error) {
	return scanCmsPage(q.db.QueryRow(ctx, getCmsPageBySlug, arg.TenantID, arg.Slug))
}

const getCmsPageByID = `-- name: GetCmsPageByID :one
SELECT ` + cmsPageColumns + ` FROM cms_pages WHERE tenant_id = $1 AND id = $2`

type GetCmsPageByIDParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) GetCmsPageByID(ctx context.Context, arg GetCmsPageByIDParams) (CmsPage, error) {
	return scanCmsPage(q.db.QueryRow(ctx, getCmsPageByID, arg.TenantID, arg.ID))
}

const createCmsPage = `-- name: CreateCmsPage :one
INSERT INTO cms_pages (tenant_id, slug, title, body, kind, published, position)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + cmsPageColumns

type CreateCmsPageParams struct {
	TenantID  pgtype.UUID `json:"tenant_id"`
	Slug      string      `json:"slug"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Kind      CmsPageKind `json:"kind"`
	Published bool        `json:"published"`
	Position  int32       `json:"position"`
}

func (q *Queries) CreateCmsPage(ctx context.Context, arg CreateCmsPageParams) (CmsPage, error) {
	return scanCmsPage(q.db.QueryRow(ctx, createCmsPage, arg.TenantID, arg.Slug, arg.Title, arg.Body, arg.Kind,
		arg.Published, arg.Position))
}

const updateCmsPage = `-- name: UpdateCmsPage :one
UPDATE cms_pages SET slug = $3, title = $4, body = $5, kind = $6, published = $7, position = $8, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + cmsPageColumns

type UpdateCmsPageParams struct {
	TenantID  pgtype.UUID `json:"tenant_id"`
	ID        pgtype.UUID `json:"id"`
	Slug      string      `json:"slug"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Kind      CmsPageKind `json:"kind"`
	Published bool        `json:"published"`
	Position  int32       `json:"position"`
}

func (q *Queries) UpdateCmsPage(ctx context.Context, arg UpdateCmsPageParams) (CmsPage, error) {
	return scanCmsPage(q.db.QueryRow(ctx, updateCmsPage, arg.TenantID, arg.ID, arg.Slug, arg.Title, arg.Body, arg.Kind,
		arg.Published, arg.Position))
}

const deleteCmsPage = `-- name: DeleteCmsPage :execrows
DELETE FROM cms_pages WHERE tenant_id = $1 AND id = $2`

type DeleteCmsPageParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
}

func (q *Queries) DeleteCmsPage(ctx context.Context, arg DeleteCmsPageParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCmsPage, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const createReview = `-- name: CreateReview :one
INSERT INTO reviews (tenant_id, menu_item_id, user_id, rating, comment)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + reviewColumns

type CreateReviewParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
	UserID     pgtype.UUID `json:"user_id"`
	Rating     int32       `json:"rating"`
	Comment    string      `json:"comment"`
}

func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error) {
	return scanReview(q.db.QueryRow(ctx, createReview, arg.TenantID, arg.MenuItemID, arg.UserID, arg.Rating, arg.Comment))
}

const listReviewsByMenuItem = `-- name: ListReviewsByMenuItem :many
SELECT r.id, r.tenant_id, r.menu_item_id, r.user_id, r.rating, r.comment, r.created_at, u.name
FROM reviews r
JOIN users u ON u.id = r.user_id
WHERE r.tenant_id = $1 AND r.menu_item_id = $2
ORDER BY r.created_at DESC
LIMIT $3 OFFSET $4`

type ListReviewsByMenuItemParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
	Limit      int32       `json:"limit"`
	Offset     int32       `json:"offset"`
}

type ListReviewsByMenuItemRow struct {
	Review
	AuthorName string `json:"author_name"`
}

func (q *Queries) ListReviewsByMenuItem(ctx context.Context, arg ListReviewsByMenuItemParams) ([]ListReviewsByMenuItemRow, error) {
	rows, err := q.db.Query(ctx, listReviewsByMenuItem, arg.TenantID, arg.MenuItemID, arg.Limit, arg.Offset)
	return collect(rows, err, func(row scanner) (ListReviewsByMenuItemRow, error) {
		var i ListReviewsByMenuItemRow
		err := row.Scan(&i.ID, &i.TenantID, &i.MenuItemID, &i.UserID, &i.Rating, &i.Comment, &i.CreatedAt, &i.AuthorName)
		return i, err
	})
}

const reviewStatsByMenuItem = `-- name: ReviewStatsByMenuItem :one
SELECT COUNT(*)::bigint,
    COALESCE(AVG(rating), 0)::float8,
    COUNT(*) FILTER (WHERE rating = 1)::bigint,
    COUNT(*) FILTER (WHERE rating = 2)::bigint,
    COUNT(*) FILTER (WHERE rating = 3)::bigint,
    COUNT(*) FILTER (WHERE rating = 4)::bigint,
    COUNT(*) FILTER (WHERE rating = 5)::bigint
FROM reviews WHERE tenant_id = $1 AND menu_item_id = $2`

type ReviewStatsByMenuItemParams struct {
	TenantID   pgtype.UUID `json:"tenant_id"`
	MenuItemID pgtype.UUID `json:"menu_item_id"`
}

type ReviewStatsByMenuItemRow struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
	Star1   int64   `json:"star_1"`
	Star2   int64   `json:"star_2"`
	Star3   int64   `json:"star_3"`
	Star4   int64   `json:"star_4"`
	Star5   int64   `json:"star_5"`
}

func (q *Queries) ReviewStatsByMenuItem(ctx context.Context, arg ReviewStatsByMenuItemParams) (ReviewStatsByMenuItemRow, error) {
	var i ReviewStatsByMenuItemRow
	err := q.db.QueryRow(ctx, reviewStatsByMenuItem, arg.TenantID, arg.MenuItemID).Scan(&i.Count, &i.Average,
		&i.Star1, &i.Star2, &i.Star3, &i.Star4, &i.Star5)
	return i, err
}

const deleteReview = `-- name: DeleteReview :execrows
DELETE FROM reviews WHERE tenant_id = $1 AND id = $2 AND user_id = $3`

type DeleteReviewParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	ID       pgtype.UUID `json:"id"`
	UserID   pgtype.UUID `json:"user_id"`
}

func (q *Queries) DeleteReview(ctx context.Context, arg DeleteReviewParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteReview, arg.TenantID, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
