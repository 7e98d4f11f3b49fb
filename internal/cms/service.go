// Package cms manages tenant content pages, banners and announcements.
package cms

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// Querier is the subset of dbgen used by pages.
type Querier interface {
	ListCmsPages(ctx context.Context, arg dbgen.ListCmsPagesParams) ([]dbgen.CmsPage, error)
	GetCmsPageBySlug(ctx context.Context, arg dbgen.GetCmsPageBySlugParams) (dbgen.CmsPage, error)
	GetCmsPageByID(ctx context.Context, arg dbgen.GetCmsPageByIDParams) (dbgen.CmsPage, error)
	CreateCmsPage(ctx context.Context, arg dbgen.CreateCmsPageParams) (dbgen.CmsPage, error)
	UpdateCmsPage(ctx context.Context, arg dbgen.UpdateCmsPageParams) (dbgen.CmsPage, error)
	DeleteCmsPage(ctx context.Context, arg dbgen.DeleteCmsPageParams) (int64, error)
}

type Service struct {
	Q     Querier
	Cache *cache.Cache
}

// Page is the API shape of a cms_pages row.
type Page struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	Published bool      `json:"published"`
	Position  int32     `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

func pageView(p dbgen.CmsPage) Page {
	return Page{
		ID:        common.UUIDString(p.ID),
		Slug:      p.Slug,
		Title:     p.Title,
		Body:      p.Body,
		Kind:      string(p.Kind),
		Published: p.Published,
		Position:  p.Position,
		UpdatedAt: p.UpdatedAt.Time,
	}
}

func pageViews(rows []dbgen.CmsPage) []Page {
	out := make([]Page, 0, len(rows))
	for _, p := range rows {
		out = append(out, pageView(p))
	}
	return out
}

func validKind(kind string) bool {
	switch dbgen.CmsPageKind(kind) {
	case dbgen.CmsPageKindPage, dbgen.CmsPageKindBanner, dbgen.CmsPageKindAnnouncement:
		return true
	}
	return false
}

func kindFilter(kind string) (any, error) {
	if kind == "" {
		return nil, nil
	}
	if !validKind(kind) {
		return nil, common.BadRequest("kind", "kind must be page, banner or announcement", nil)
	}
	return kind, nil
}

// Published lists published pages, optionally of one kind, in display order.
func (s *Service) Published(ctx context.Context, kind string) ([]Page, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := kindFilter(kind)
	if err != nil {
		return nil, err
	}
	key := s.Cache.Versioned(ctx, cache.CMSNamespace(ctx), "list:"+kind)
	var cached []Page
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Q.ListCmsPages(ctx, dbgen.ListCmsPagesParams{TenantID: tid, Kind: filter, PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	out := pageViews(rows)
	_ = s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// BySlug returns a published page. Drafts are invisible to the public.
func (s *Service) BySlug(ctx context.Context, slug string) (Page, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return Page{}, err
	}
	key := s.Cache.Versioned(ctx, cache.CMSNamespace(ctx), "page:"+slug)
	var cached Page
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.Q.GetCmsPageBySlug(ctx, dbgen.GetCmsPageBySlugParams{TenantID: tid, Slug: slug})
	if err != nil {
		return Page{}, common.DBError(err, "page not found")
	}
	if !p.Published {
		return Page{}, common.NotFound("page not found")
	}
	out := pageView(p)
	_ = s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// Input is the admin payload for pages.
type Input struct {
	Slug      string `json:"slug" validate:"required,max=120,slug"`
	Title     string `json:"title" validate:"required,max=200"`
	Body      string `json:"body" validate:"max=100000"`
	Kind      string `json:"kind" validate:"omitempty,oneof=page banner announcement"`
	Published bool   `json:"published"`
	Position  int32  `json:"position" validate:"gte=0"`
}

func (in Input) kind() dbgen.CmsPageKind {
	if in.Kind == "" {
		return dbgen.CmsPageKindPage
	}
	return dbgen.CmsPageKind(in.Kind)
}

func (s *Service) invalidate(ctx context.Context) {
	_ = s.Cache.Bump(ctx, cache.CMSNamespace(ctx))
}

// AdminList lists every page including drafts.
func (s *Service) AdminList(ctx context.Context, kind string) ([]Page, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := kindFilter(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListCmsPages(ctx, dbgen.ListCmsPagesParams{TenantID: tid, Kind: filter})
	if err != nil {
		return nil, err
	}
	return pageViews(rows), nil
}

func (s *Service) scoped(ctx context.Context, id string) (pgtype.UUID, pgtype.UUID, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return pgtype.UUID{}, pgtype.UUID{}, err
	}
	pid, err := common.ParseUUID("id", id)
	if err != nil {
		return pgtype.UUID{}, pgtype.UUID{}, err
	}
	return tid, pid, nil
}

// AdminGet returns a page by id regardless of its published flag.
func (s *Service) AdminGet(ctx context.Context, id string) (Page, error) {
	tid, pid, err := s.scoped(ctx, id)
	if err != nil {
		return Page{}, err
	}
	p, err := s.Q.GetCmsPageByID(ctx, dbgen.GetCmsPageByIDParams{TenantID: tid, ID: pid})
	if err != nil {
		return Page{}, common.DBError(err, "page not found")
	}
	return pageView(p), nil
}

// Create inserts a page. Slugs are unique per tenant.
func (s *Service) Create(ctx context.Context, in Input) (Page, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return Page{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return Page{}, err
	}
	p, err := s.Q.CreateCmsPage(ctx, dbgen.CreateCmsPageParams{
		TenantID:  tid,
		Slug:      in.Slug,
		Title:     in.Title,
		Body:      in.Body,
		Kind:      in.kind(),
		Published: in.Published,
		Position:  in.Position,
	})
	if err != nil {
		return Page{}, common.DBError(err, "page not found")
	}
	s.invalidate(ctx)
	return pageView(p), nil
}

// Update replaces a page.
func (s *Service) Update(ctx context.Context, id string, in Input) (Page, error) {
	tid, pid, err := s.scoped(ctx, id)
	if err != nil {
		return Page{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return Page{}, err
	}
	p, err := s.Q.UpdateCmsPage(ctx, dbgen.UpdateCmsPageParams{
		TenantID:  tid,
		ID:        pid,
		Slug:      in.Slug,
		Title:     in.Title,
		Body:      in.Body,
		Kind:      in.kind(),
		Published: in.Published,
		Position:  in.Position,
	})
	if err != nil {
		return Page{}, common.DBError(err, "page not found")
	}
	s.invalidate(ctx)
	return pageView(p), nil
}

// Delete removes a page.
func (s *Service) Delete(ctx context.Context, id string) error {
	tid, pid, err := s.scoped(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteCmsPage(ctx, dbgen.DeleteCmsPageParams{TenantID: tid, ID: pid})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("page not found")
	}
	s.invalidate(ctx)
	return nil
}
