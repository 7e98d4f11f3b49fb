package menu_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/menu"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type itemsResponse struct {
	Data       []menu.ItemView `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type fakeMenuQueries struct {
	categories []dbgen.MenuCategory
	items      []dbgen.MenuItem
	modifiers  []dbgen.MenuModifier
	listCalls  int
}

func newID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

func newFakeMenu(tid pgtype.UUID) *fakeMenuQueries {
	mains := dbgen.MenuCategory{ID: newID(), TenantID: tid, Slug: "mains", Name: "Mains", Position: 1, Active: true}
	drinks := dbgen.MenuCategory{ID: newID(), TenantID: tid, Slug: "drinks", Name: "Drinks", Position: 0, Active: true}
	hidden := dbgen.MenuCategory{ID: newID(), TenantID: tid, Slug: "secret", Name: "Secret", Position: 2}
	sate := dbgen.MenuItem{ID: newID(), TenantID: tid, CategoryID: mains.ID, Slug: "sate-ayam", Name: "Sate Ayam", Price: 35000, Dietary: []string{"halal"}, Available: true, Featured: true}
	gado := dbgen.MenuItem{ID: newID(), TenantID: tid, CategoryID: mains.ID, Slug: "gado-gado", Name: "Gado Gado", Price: 28000, Dietary: []string{"vegetarian", "halal"}, Available: true}
	teh := dbgen.MenuItem{ID: newID(), TenantID: tid, CategoryID: drinks.ID, Slug: "es-teh", Name: "Es Teh", Price: 8000, Available: false}
	return &fakeMenuQueries{
		categories: []dbgen.MenuCategory{mains, drinks, hidden},
		items:      []dbgen.MenuItem{sate, gado, teh},
		modifiers: []dbgen.MenuModifier{
			{ID: newID(), TenantID: tid, ItemID: sate.ID, GroupName: "Size", Name: "Large", PriceDelta: 10000},
			{ID: newID(), TenantID: tid, ItemID: sate.ID, GroupName: "Extra", Name: "Lontong", PriceDelta: 5000},
			{ID: newID(), TenantID: tid, ItemID: gado.ID, GroupName: "Extra", Name: "Egg", PriceDelta: 4000},
		},
	}
}

func (f *fakeMenuQueries) ListMenuCategories(_ context.Context, arg dbgen.ListMenuCategoriesParams) ([]dbgen.MenuCategory, error) {
	var out []dbgen.MenuCategory
	for _, c := range f.categories {
		if !arg.ActiveOnly || c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeMenuQueries) GetMenuCategoryByID(_ context.Context, arg dbgen.GetMenuCategoryByIDParams) (dbgen.MenuCategory, error) {
	for _, c := range f.categories {
		if c.ID == arg.ID {
			return c, nil
		}
	}
	return dbgen.MenuCategory{}, pgx.ErrNoRows
}

func (f *fakeMenuQueries) CreateMenuCategory(_ context.Context, arg dbgen.CreateMenuCategoryParams) (dbgen.MenuCategory, error) {
	for _, c := range f.categories {
		if c.Slug == arg.Slug {
			return dbgen.MenuCategory{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c := dbgen.MenuCategory{ID: newID(), TenantID: arg.TenantID, Slug: arg.Slug, Name: arg.Name, Position: arg.Position, Active: arg.Active}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeMenuQueries) UpdateMenuCategory(context.Context, dbgen.UpdateMenuCategoryParams) (dbgen.MenuCategory, error) {
	return dbgen.MenuCategory{}, pgx.ErrNoRows
}

func (f *fakeMenuQueries) SetMenuCategoryPosition(_ context.Context, arg dbgen.SetMenuCategoryPositionParams) (int64, error) {
	for i := range f.categories {
		if f.categories[i].ID == arg.ID {
			f.categories[i].Position = arg.Position
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMenuQueries) DeleteMenuCategory(context.Context, dbgen.DeleteMenuCategoryParams) (int64, error) {
	return 0, nil
}

func (f *fakeMenuQueries) categorySlug(id pgtype.UUID) string {
	for _, c := range f.categories {
		if c.ID == id {
			return c.Slug
		}
	}
	return ""
}

func (f *fakeMenuQueries) filter(arg dbgen.CountMenuItemsPublicParams) []dbgen.MenuItem {
	var out []dbgen.MenuItem
	for _, it := range f.items {
		if s, ok := arg.CategorySlug.(string); ok && f.categorySlug(it.CategoryID) != s {
			continue
		}
		if d, ok := arg.Dietary.(string); ok {
			found := false
			for _, flag := range it.Dietary {
				found = found || flag == d
			}
			if !found {
				continue
			}
		}
		if q, ok := arg.Q.(string); ok && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(q)) {
			continue
		}
		if b, ok := arg.Available.(bool); ok && b != it.Available {
			continue
		}
		if b, ok := arg.Featured.(bool); ok && b != it.Featured {
			continue
		}
		if v, ok := arg.MinPrice.(int64); ok && it.Price < v {
			continue
		}
		if v, ok := arg.MaxPrice.(int64); ok && it.Price > v {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (f *fakeMenuQueries) CountMenuItemsPublic(_ context.Context, arg dbgen.CountMenuItemsPublicParams) (int64, error) {
	return int64(len(f.filter(arg))), nil
}

func (f *fakeMenuQueries) ListMenuItemsPublic(_ context.Context, arg dbgen.ListMenuItemsPublicParams) ([]dbgen.MenuItem, error) {
	f.listCalls++
	rows := f.filter(dbgen.CountMenuItemsPublicParams{
		CategorySlug: arg.CategorySlug, Dietary: arg.Dietary, Q: arg.Q, Featured: arg.Featured,
		Available: arg.Available, MinPrice: arg.MinPrice, MaxPrice: arg.MaxPrice,
	})
	start := int(arg.OffsetValue)
	if start > len(rows) {
		start = len(rows)
	}
	end := start + int(arg.LimitValue)
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (f *fakeMenuQueries) GetMenuItemBySlug(_ context.Context, arg dbgen.GetMenuItemBySlugParams) (dbgen.MenuItem, error) {
	for _, it := range f.items {
		if it.Slug == arg.Slug {
			return it, nil
		}
	}
	return dbgen.MenuItem{}, pgx.ErrNoRows
}

func (f *fakeMenuQueries) GetMenuItemByID(_ context.Context, arg dbgen.GetMenuItemByIDParams) (dbgen.MenuItem, error) {
	for _, it := range f.items {
		if it.ID == arg.ID {
			return it, nil
		}
	}
	return dbgen.MenuItem{}, pgx.ErrNoRows
}

func (f *fakeMenuQueries) ListMenuItemsByIDs(_ context.Context, arg dbgen.ListMenuItemsByIDsParams) ([]dbgen.MenuItem, error) {
	var out []dbgen.MenuItem
	for _, id := range arg.Ids {
		for _, it := range f.items {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (f *fakeMenuQueries) CreateMenuItem(_ context.Context, arg dbgen.CreateMenuItemParams) (dbgen.MenuItem, error) {
	it := dbgen.MenuItem{ID: newID(), TenantID: arg.TenantID, CategoryID: arg.CategoryID, Slug: arg.Slug, Name: arg.Name,
		Price: arg.Price, Dietary: arg.Dietary, Featured: arg.Featured, Available: arg.Available}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeMenuQueries) UpdateMenuItem(context.Context, dbgen.UpdateMenuItemParams) (dbgen.MenuItem, error) {
	return dbgen.MenuItem{}, pgx.ErrNoRows
}

func (f *fakeMenuQueries) SetMenuItemAvailability(_ context.Context, arg dbgen.SetMenuItemAvailabilityParams) (dbgen.MenuItem, error) {
	for i := range f.items {
		if f.items[i].ID == arg.ID {
			f.items[i].Available = arg.Available
			return f.items[i], nil
		}
	}
	return dbgen.MenuItem{}, pgx.ErrNoRows
}

func (f *fakeMenuQueries) DeleteMenuItem(context.Context, dbgen.DeleteMenuItemParams) (int64, error) {
	return 0, nil
}

func (f *fakeMenuQueries) ListModifiersByItem(_ context.Context, arg dbgen.ListModifiersByItemParams) ([]dbgen.MenuModifier, error) {
	var out []dbgen.MenuModifier
	for _, m := range f.modifiers {
		if m.ItemID == arg.ItemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMenuQueries) ListModifiersByIDs(_ context.Context, arg dbgen.ListModifiersByIDsParams) ([]dbgen.MenuModifier, error) {
	var out []dbgen.MenuModifier
	for _, id := range arg.Ids {
		for _, m := range f.modifiers {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeMenuQueries) CreateMenuModifier(_ context.Context, arg dbgen.CreateMenuModifierParams) (dbgen.MenuModifier, error) {
	m := dbgen.MenuModifier{ID: newID(), TenantID: arg.TenantID, ItemID: arg.ItemID, GroupName: arg.GroupName, Name: arg.Name, PriceDelta: arg.PriceDelta}
	f.modifiers = append(f.modifiers, m)
	return m, nil
}

func (f *fakeMenuQueries) UpdateMenuModifier(context.Context, dbgen.UpdateMenuModifierParams) (dbgen.MenuModifier, error) {
	return dbgen.MenuModifier{}, pgx.ErrNoRows
}

func (f *fakeMenuQueries) DeleteMenuModifier(context.Context, dbgen.DeleteMenuModifierParams) (int64, error) {
	return 1, nil
}

func setup(t *testing.T) (*fakeMenuQueries, *menu.Service, context.Context) {
	t.Helper()
	info := tenant.Info{ID: uuid.NewString(), Slug: "warung"}
	q := newFakeMenu(info.UUID())
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := &menu.Service{Q: q, Cache: cache.New(rdb, time.Minute), DefaultLimit: 20}
	return q, svc, tenant.WithInfo(context.Background(), info)
}

func withSlug(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func TestMenuHandlers(t *testing.T) {
	_, svc, ctx := setup(t)
	h := &menu.Handler{Svc: svc}

	t.Run("categories hide inactive", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/v1/menu/categories", nil).WithContext(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []menu.CategoryView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
	})

	t.Run("items filtered by dietary and category", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menu/items?category=mains&dietary=vegetarian&limit=5", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.Items(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
		var resp itemsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "gado-gado", resp.Data[0].Slug)
		require.Equal(t, 5, resp.Pagination.PerPage)
	})

	t.Run("unknown dietary flag", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Items(rec, httptest.NewRequest(http.MethodGet, "/api/v1/menu/items?dietary=keto", nil).WithContext(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("item detail with modifiers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menu/items/sate-ayam", nil)
		req = req.WithContext(withSlug(ctx, "slug", "sate-ayam"))
		rec := httptest.NewRecorder()
		h.Item(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data menu.ItemDetail `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, int64(35000), body.Data.Price)
		require.Len(t, body.Data.Modifiers, 2)
	})

	t.Run("missing item", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menu/items/nope", nil)
		req = req.WithContext(withSlug(ctx, "slug", "nope"))
		rec := httptest.NewRecorder()
		h.Item(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListingCacheInvalidatedByAdminWrites(t *testing.T) {
	q, svc, ctx := setup(t)
	params, err := svc.ParseListParams(nil)
	require.NoError(t, err)

	first, err := svc.ListItems(ctx, params)
	require.NoError(t, err)
	require.Equal(t, int64(3), first.Total)
	_, err = svc.ListItems(ctx, params)
	require.NoError(t, err)
	require.Equal(t, 1, q.listCalls)

	_, err = svc.CreateItem(ctx, menu.ItemInput{Slug: "kopi-tubruk", Name: "Kopi Tubruk", Price: 12000, Dietary: []string{"vegan"}})
	require.NoError(t, err)

	again, err := svc.ListItems(ctx, params)
	require.NoError(t, err)
	require.Equal(t, int64(4), again.Total)
	require.Equal(t, 2, q.listCalls)
}

func TestAdminValidation(t *testing.T) {
	_, svc, ctx := setup(t)

	_, err := svc.CreateItem(ctx, menu.ItemInput{Slug: "x", Name: "X", Dietary: []string{"paleo"}})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_FAILED", appErr.Code)

	_, err = svc.CreateCategory(ctx, menu.CategoryInput{Slug: "mains", Name: "Mains again"})
	require.ErrorIs(t, err, common.ErrConflict)

	cats, err := svc.AdminCategories(ctx)
	require.NoError(t, err)
	ids := []string{cats[2].ID, cats[1].ID, cats[0].ID}
	require.NoError(t, svc.ReorderCategories(ctx, menu.ReorderInput{IDs: ids}))
	require.Error(t, svc.ReorderCategories(ctx, menu.ReorderInput{IDs: []string{uuid.NewString()}}))
}

func TestResolveValidatesModifiers(t *testing.T) {
	q, _, ctx := setup(t)
	tid := q.items[0].TenantID
	sate, gado, teh := q.items[0], q.items[1], q.items[2]

	priced, err := menu.Resolve(ctx, q, tid, sate.ID, []pgtype.UUID{q.modifiers[0].ID, q.modifiers[1].ID, q.modifiers[0].ID})
	require.NoError(t, err)
	require.Equal(t, int64(15000), priced.ModifierTotal)
	require.Len(t, priced.ModifierIDs(), 2)

	_, err = menu.Resolve(ctx, q, tid, gado.ID, []pgtype.UUID{q.modifiers[0].ID})
	require.Error(t, err)

	_, err = menu.Resolve(ctx, q, tid, teh.ID, nil)
	require.ErrorIs(t, err, menu.ErrItemUnavailable)

	_, err = menu.Resolve(ctx, q, tid, newID(), nil)
	require.ErrorIs(t, err, common.ErrNotFound)
}
