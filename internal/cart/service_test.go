package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/promotion"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type stubPromos struct {
	discount int64
	err      error
	codes    []string
}

func (p *stubPromos) Preview(_ context.Context, code string, _ pgtype.UUID, items []promotion.Item) (promotion.PreviewResult, error) {
	p.codes = append(p.codes, code)
	if p.err != nil {
		return promotion.PreviewResult{}, p.err
	}
	return promotion.PreviewResult{Discount: p.discount, Code: code}, nil
}

type stubLoyalty struct {
	balance, lifetime, multiplier int64
}

func (l stubLoyalty) Balance(context.Context, pgtype.UUID, pgtype.UUID) (int64, int64, error) {
	return l.balance, l.lifetime, nil
}

func (l stubLoyalty) TierMultiplier(context.Context, pgtype.UUID, int64) (int64, error) {
	return l.multiplier, nil
}

type fixture struct {
	store    *memStore
	svc      *Service
	ctx      context.Context
	clock    *time.Time
	nasi     dbgen.MenuItem
	teh      dbgen.MenuItem
	egg      dbgen.MenuModifier
	large    dbgen.MenuModifier
	tehSugar dbgen.MenuModifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	info := tenant.Info{ID: uuid.NewString(), Slug: "warung", Settings: tenant.Settings{
		Currency: "IDR", TaxRateBps: 1000, PointsEarnBps: 100, PointsRedeemRatio: 1, MaxRedeemBps: 5000, TimeZone: "UTC",
	}}
	clock := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	f := &fixture{clock: &clock}
	f.store = newMemStore(func() time.Time { return *f.clock })
	tid := info.UUID()
	f.nasi = f.store.addMenuItem(dbgen.MenuItem{TenantID: tid, Name: "Nasi Goreng", Price: 30000, Available: true})
	f.teh = f.store.addMenuItem(dbgen.MenuItem{TenantID: tid, Name: "Es Teh", Price: 8000, Available: true})
	f.egg = f.store.addModifier(dbgen.MenuModifier{TenantID: tid, ItemID: f.nasi.ID, GroupName: "Extra", Name: "Telur", PriceDelta: 5000})
	f.large = f.store.addModifier(dbgen.MenuModifier{TenantID: tid, ItemID: f.nasi.ID, GroupName: "Size", Name: "Large", PriceDelta: 7000})
	f.tehSugar = f.store.addModifier(dbgen.MenuModifier{TenantID: tid, ItemID: f.teh.ID, GroupName: "Sugar", Name: "Less", PriceDelta: 0})
	f.svc = &Service{
		Q:       f.store,
		Promos:  &stubPromos{},
		Loyalty: stubLoyalty{balance: 100000, lifetime: 500, multiplier: 15000},
		TTL:     24 * time.Hour,
		Now:     func() time.Time { return *f.clock },
	}
	f.ctx = tenant.WithInfo(context.Background(), info)
	return f
}

func (f *fixture) asUser(id string) context.Context {
	return common.WithUserID(f.ctx, id)
}

func ids(values ...pgtype.UUID) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, common.UUIDString(v))
	}
	return out
}

func TestEnsureReusesAnonymousCart(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	second, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "anon-1", *second.AnonID)

	generated, err := f.svc.Ensure(f.ctx, "")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, generated.ID)
	require.NotNil(t, generated.AnonID)
}

func TestAddItemSnapshotsModifiersAndQuotes(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)

	in := AddItemInput{MenuItemID: common.UUIDString(f.nasi.ID), ModifierIDs: ids(f.large.ID, f.egg.ID), Qty: 2}
	_, err = f.svc.AddItem(f.ctx, c.ID, in)
	require.NoError(t, err)
	// same combination in another order increments the existing line
	in.ModifierIDs = ids(f.egg.ID, f.large.ID)
	in.Qty = 1
	v, err := f.svc.AddItem(f.ctx, c.ID, in)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	line := v.Items[0]
	require.Equal(t, int32(3), line.Qty)
	require.Equal(t, int64(12000), line.ModifierTotal)
	require.Len(t, line.Modifiers, 2)
	require.Equal(t, int64(126000), line.LineTotal)

	require.Equal(t, int64(126000), v.Quote.Subtotal)
	require.Equal(t, int64(12600), v.Quote.Tax)
	require.Equal(t, int64(138600), v.Quote.Total)
	require.Equal(t, int64(1386), v.Quote.PointsEarned)

	in.Notes = "no chili"
	v, err = f.svc.AddItem(f.ctx, c.ID, in)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)

	// price changes on the menu do not touch existing lines
	nasi := f.store.menu[f.nasi.ID.Bytes]
	nasi.Price = 99000
	f.store.menu[f.nasi.ID.Bytes] = nasi
	again, err := f.svc.Get(f.ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(30000), again.Items[0].UnitPrice)
}

func TestAddItemRejectsForeignModifierAndUnavailableItem(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)

	_, err = f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.nasi.ID), ModifierIDs: ids(f.tehSugar.ID), Qty: 1})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	teh := f.store.menu[f.teh.ID.Bytes]
	teh.Available = false
	f.store.menu[f.teh.ID.Bytes] = teh
	_, err = f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.teh.ID), Qty: 1})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ITEM_UNAVAILABLE", appErr.Code)

	_, err = f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.nasi.ID), Qty: 100})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_FAILED", appErr.Code)
}

func TestUpdateAndRemoveItems(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	v, err := f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.teh.ID), Qty: 1})
	require.NoError(t, err)
	itemID := v.Items[0].ID

	v, err = f.svc.UpdateQty(f.ctx, c.ID, itemID, 4)
	require.NoError(t, err)
	require.Equal(t, int64(32000), v.Quote.Subtotal)

	v, err = f.svc.UpdateQty(f.ctx, c.ID, itemID, 0)
	require.NoError(t, err)
	require.Empty(t, v.Items)

	_, err = f.svc.RemoveItem(f.ctx, c.ID, itemID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestExpiredCartIsNotFound(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)

	*f.clock = f.clock.Add(23 * time.Hour)
	_, err = f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.teh.ID), Qty: 1})
	require.NoError(t, err)

	// the write above slid the expiry forward
	*f.clock = f.clock.Add(23 * time.Hour)
	_, err = f.svc.Get(f.ctx, c.ID)
	require.NoError(t, err)

	*f.clock = f.clock.Add(25 * time.Hour)
	_, err = f.svc.Get(f.ctx, c.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	fresh, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	require.NotEqual(t, c.ID, fresh.ID)
}

func TestWritesReturnTheSlidExpiry(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	require.Equal(t, f.clock.Add(24*time.Hour), c.ExpiresAt)

	*f.clock = f.clock.Add(3 * time.Hour)
	v, err := f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.teh.ID), Qty: 1})
	require.NoError(t, err)
	require.Equal(t, f.clock.Add(24*time.Hour), v.ExpiresAt)

	*f.clock = f.clock.Add(time.Hour)
	v, err = f.svc.UpdateQty(f.ctx, c.ID, v.Items[0].ID, 2)
	require.NoError(t, err)
	require.Equal(t, f.clock.Add(24*time.Hour), v.ExpiresAt)

	stored, err := f.svc.Get(f.ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, v.ExpiresAt, stored.ExpiresAt)
}

func TestUserCartIsPrivate(t *testing.T) {
	f := newFixture(t)
	owner := f.asUser(uuid.NewString())
	c, err := f.svc.Ensure(owner, "")
	require.NoError(t, err)
	require.Nil(t, c.AnonID)

	_, err = f.svc.Get(f.ctx, c.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.svc.Get(f.asUser(uuid.NewString()), c.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetPointsCapsByBalanceAndMaxRedeem(t *testing.T) {
	f := newFixture(t)
	anon, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	_, err = f.svc.SetPoints(f.ctx, anon.ID, 10)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)

	ctx := f.asUser(uuid.NewString())
	c, err := f.svc.Ensure(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.nasi.ID), Qty: 1})
	require.NoError(t, err)

	v, err := f.svc.SetPoints(ctx, c.ID, 200000)
	require.NoError(t, err)
	require.Equal(t, int64(100000), v.PointsToRedeem)
	require.Equal(t, int64(15000), v.Quote.PointsRedeemed)
	require.Equal(t, int64(15000), v.Quote.PointsDiscount)
	require.Equal(t, int64(3000), v.Quote.Tax)
	require.Equal(t, int64(18000), v.Quote.Total)
	require.Equal(t, int64(270), v.Quote.PointsEarned)
}

func TestPromotionApplyAndRemove(t *testing.T) {
	f := newFixture(t)
	promos := f.svc.Promos.(*stubPromos)
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)

	_, err = f.svc.ApplyPromotion(f.ctx, c.ID, "hemat")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CART_EMPTY", appErr.Code)

	_, err = f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.nasi.ID), Qty: 2})
	require.NoError(t, err)
	promos.discount = 6000
	v, err := f.svc.ApplyPromotion(f.ctx, c.ID, " hemat ")
	require.NoError(t, err)
	require.Equal(t, "HEMAT", *v.PromotionCode)
	require.Equal(t, int64(6000), v.Quote.PromoDiscount)
	require.Equal(t, int64(60000-6000+6000), v.Quote.Total)

	// a code that stops qualifying is reported rather than failing the read
	promos.err = promotion.ErrExpired
	v, err = f.svc.Get(f.ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "PROMO_EXPIRED", v.PromotionError)
	require.Zero(t, v.Quote.PromoDiscount)

	v, err = f.svc.RemovePromotion(f.ctx, c.ID)
	require.NoError(t, err)
	require.Nil(t, v.PromotionCode)
}

func TestApplyPromotionHandlerMapsErrors(t *testing.T) {
	f := newFixture(t)
	f.svc.Promos = &stubPromos{err: promotion.ErrMinimumSpendUnmet}
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	_, err = f.svc.AddItem(f.ctx, c.ID, AddItemInput{MenuItemID: common.UUIDString(f.teh.ID), Qty: 1})
	require.NoError(t, err)

	h := &Handler{Svc: f.svc}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", c.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/"+c.ID+"/promotion", strings.NewReader(`{"code":"BIGSPEND"}`))
	req = req.WithContext(context.WithValue(f.ctx, chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.ApplyPromotion(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "PROMO_MIN_SPEND")
}

func TestSetContextValidatesBranch(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	tid := f.store.menu[f.nasi.ID.Bytes].TenantID
	open := dbgen.Branch{ID: newID(), TenantID: tid, Name: "Kemang", Active: true}
	closed := dbgen.Branch{ID: newID(), TenantID: tid, Name: "Old", Active: false}
	f.store.branches[open.ID.Bytes] = open
	f.store.branches[closed.ID.Bytes] = closed

	table := "12"
	v, err := f.svc.SetContext(f.ctx, c.ID, ContextInput{BranchID: common.UUIDString(open.ID), Fulfillment: "dine_in", TableNumber: &table})
	require.NoError(t, err)
	require.Equal(t, "dine_in", v.Fulfillment)
	require.Equal(t, "12", *v.TableNumber)

	v, err = f.svc.SetContext(f.ctx, c.ID, ContextInput{BranchID: common.UUIDString(open.ID), Fulfillment: "pickup", TableNumber: &table})
	require.NoError(t, err)
	require.Nil(t, v.TableNumber)

	_, err = f.svc.SetContext(f.ctx, c.ID, ContextInput{BranchID: common.UUIDString(closed.ID), Fulfillment: "pickup"})
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.SetContext(f.ctx, c.ID, ContextInput{BranchID: common.UUIDString(open.ID), Fulfillment: "drone"})
	require.Error(t, err)
}

func TestMergeFoldsGuestCartIntoUserCart(t *testing.T) {
	f := newFixture(t)
	guest, err := f.svc.Ensure(f.ctx, "anon-1")
	require.NoError(t, err)
	_, err = f.svc.AddItem(f.ctx, guest.ID, AddItemInput{MenuItemID: common.UUIDString(f.nasi.ID), Qty: 3})
	require.NoError(t, err)
	_, err = f.svc.AddItem(f.ctx, guest.ID, AddItemInput{MenuItemID: common.UUIDString(f.teh.ID), Qty: 1})
	require.NoError(t, err)
	_, err = f.svc.ApplyPromotion(f.ctx, guest.ID, "HEMAT")
	require.NoError(t, err)

	ctx := f.asUser(uuid.NewString())
	user, err := f.svc.Ensure(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, user.ID, AddItemInput{MenuItemID: common.UUIDString(f.nasi.ID), Qty: 1})
	require.NoError(t, err)

	merged, err := f.svc.Merge(ctx, "anon-1")
	require.NoError(t, err)
	require.Equal(t, user.ID, merged.ID)
	require.Len(t, merged.Items, 2)
	require.Equal(t, int32(3), merged.Items[0].Qty)
	require.Equal(t, "HEMAT", *merged.PromotionCode)

	_, err = f.svc.Get(f.ctx, guest.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.Merge(f.ctx, "anon-1")
	require.Error(t, err)
}

func TestMergeAdoptsGuestCartWhenUserHasNone(t *testing.T) {
	f := newFixture(t)
	guest, err := f.svc.Ensure(f.ctx, "anon-2")
	require.NoError(t, err)
	_, err = f.svc.AddItem(f.ctx, guest.ID, AddItemInput{MenuItemID: common.UUIDString(f.teh.ID), Qty: 2})
	require.NoError(t, err)

	uid := uuid.NewString()
	merged, err := f.svc.Merge(f.asUser(uid), "anon-2")
	require.NoError(t, err)
	require.Equal(t, guest.ID, merged.ID)
	require.Equal(t, uid, *merged.UserID)
	require.Len(t, merged.Items, 1)
}
