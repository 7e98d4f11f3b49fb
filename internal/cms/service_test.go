package cms_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/cms"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type fakePages struct {
	pages     []dbgen.CmsPage
	listCalls int
}

func (f *fakePages) ListCmsPages(_ context.Context, arg dbgen.ListCmsPagesParams) ([]dbgen.CmsPage, error) {
	f.listCalls++
	var out []dbgen.CmsPage
	for _, p := range f.pages {
		if p.TenantID != arg.TenantID {
			continue
		}
		if kind, ok := arg.Kind.(string); ok && string(p.Kind) != kind {
			continue
		}
		if arg.PublishedOnly && !p.Published {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakePages) GetCmsPageBySlug(_ context.Context, arg dbgen.GetCmsPageBySlugParams) (dbgen.CmsPage, error) {
	for _, p := range f.pages {
		if p.TenantID == arg.TenantID && p.Slug == arg.Slug {
			return p, nil
		}
	}
	return dbgen.CmsPage{}, pgx.ErrNoRows
}

func (f *fakePages) GetCmsPageByID(_ context.Context, arg dbgen.GetCmsPageByIDParams) (dbgen.CmsPage, error) {
	for _, p := range f.pages {
		if p.TenantID == arg.TenantID && p.ID == arg.ID {
			return p, nil
		}
	}
	return dbgen.CmsPage{}, pgx.ErrNoRows
}

func (f *fakePages) CreateCmsPage(_ context.Context, arg dbgen.CreateCmsPageParams) (dbgen.CmsPage, error) {
	for _, p := range f.pages {
		if p.TenantID == arg.TenantID && p.Slug == arg.Slug {
			return dbgen.CmsPage{}, &pgconn.PgError{Code: "23505"}
		}
	}
	p := dbgen.CmsPage{
		ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, TenantID: arg.TenantID, Slug: arg.Slug, Title: arg.Title,
		Body: arg.Body, Kind: arg.Kind, Published: arg.Published, Position: arg.Position,
	}
	f.pages = append(f.pages, p)
	return p, nil
}

func (f *fakePages) UpdateCmsPage(_ context.Context, arg dbgen.UpdateCmsPageParams) (dbgen.CmsPage, error) {
	for i, p := range f.pages {
		if p.TenantID == arg.TenantID && p.ID == arg.ID {
			p.Slug, p.Title, p.Body, p.Kind, p.Published, p.Position = arg.Slug, arg.Title, arg.Body, arg.Kind, arg.Published, arg.Position
			f.pages[i] = p
			return p, nil
		}
	}
	return dbgen.CmsPage{}, pgx.ErrNoRows
}

func (f *fakePages) DeleteCmsPage(_ context.Context, arg dbgen.DeleteCmsPageParams) (int64, error) {
	for i, p := range f.pages {
		if p.TenantID == arg.TenantID && p.ID == arg.ID {
			f.pages = append(f.pages[:i], f.pages[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func setup(t *testing.T) (*fakePages, *cms.Service, context.Context) {
	t.Helper()
	info := tenant.Info{ID: uuid.NewString(), Slug: "warung"}
	tid := info.UUID()
	q := &fakePages{pages: []dbgen.CmsPage{
		{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, TenantID: tid, Slug: "about", Title: "About us", Kind: dbgen.CmsPageKindPage, Published: true, Position: 1},
		{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, TenantID: tid, Slug: "ramadan-hours", Title: "Ramadan hours", Kind: dbgen.CmsPageKindAnnouncement, Published: true},
		{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, TenantID: tid, Slug: "draft-promo", Title: "Draft", Kind: dbgen.CmsPageKindBanner},
		{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, TenantID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, Slug: "about", Title: "Other tenant", Kind: dbgen.CmsPageKindPage, Published: true},
	}}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return q, &cms.Service{Q: q, Cache: cache.New(rdb, time.Minute)}, tenant.WithInfo(context.Background(), info)
}

func withParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func TestPublishedPagesAreCachedUntilAdminWrite(t *testing.T) {
	q, svc, ctx := setup(t)

	pages, err := svc.Published(ctx, "")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	_, err = svc.Published(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, q.listCalls)

	created, err := svc.Create(ctx, cms.Input{Slug: "promo", Title: "Promo", Kind: "banner", Published: true})
	require.NoError(t, err)
	require.Equal(t, "banner", created.Kind)

	banners, err := svc.Published(ctx, "banner")
	require.NoError(t, err)
	require.Len(t, banners, 1)
	require.Equal(t, "promo", banners[0].Slug)

	_, err = svc.Published(ctx, "popup")
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestBySlugHidesDrafts(t *testing.T) {
	_, svc, ctx := setup(t)

	p, err := svc.BySlug(ctx, "about")
	require.NoError(t, err)
	require.Equal(t, "About us", p.Title)

	_, err = svc.BySlug(ctx, "draft-promo")
	require.ErrorIs(t, err, common.ErrNotFound)

	admin, err := svc.AdminList(ctx, "banner")
	require.NoError(t, err)
	require.Len(t, admin, 1)
	require.False(t, admin[0].Published)
}

func TestAdminCRUD(t *testing.T) {
	_, svc, ctx := setup(t)

	_, err := svc.Create(ctx, cms.Input{Slug: "about", Title: "Dup"})
	require.ErrorIs(t, err, common.ErrConflict)

	_, err = svc.Create(ctx, cms.Input{Slug: "Bad Slug", Title: "x"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_FAILED", appErr.Code)

	p, err := svc.Create(ctx, cms.Input{Slug: "faq", Title: "FAQ", Body: "Q&A"})
	require.NoError(t, err)
	require.Equal(t, "page", p.Kind)

	p, err = svc.Update(ctx, p.ID, cms.Input{Slug: "faq", Title: "FAQ", Body: "updated", Published: true})
	require.NoError(t, err)
	require.True(t, p.Published)

	got, err := svc.BySlug(ctx, "faq")
	require.NoError(t, err)
	require.Equal(t, "updated", got.Body)

	require.NoError(t, svc.Delete(ctx, p.ID))
	require.ErrorIs(t, svc.Delete(ctx, p.ID), common.ErrNotFound)
	_, err = svc.BySlug(ctx, "faq")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestHandlers(t *testing.T) {
	_, svc, ctx := setup(t)
	h := &cms.Handler{Svc: svc}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/pages",
		strings.NewReader(`{"slug":"contact","title":"Contact","published":true}`)).WithContext(ctx)
	h.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pages/contact", nil).WithContext(withParam(ctx, "slug", "contact")))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data cms.Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Contact", body.Data.Title)

	rec = httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/", nil).WithContext(withParam(ctx, "id", body.Data.ID)))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
