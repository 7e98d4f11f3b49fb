package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type memStore struct {
	ingredients map[[16]byte]*dbgen.Ingredient
	recipes     []dbgen.Recipe
	movements   []dbgen.StockMovement
	menu        map[[16]byte]bool
}

func newID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

func newMemStore() *memStore {
	return &memStore{ingredients: map[[16]byte]*dbgen.Ingredient{}, menu: map[[16]byte]bool{}}
}

func (m *memStore) ListIngredients(_ context.Context, _ pgtype.UUID) ([]dbgen.Ingredient, error) {
	var out []dbgen.Ingredient
	for _, ing := range m.ingredients {
		out = append(out, *ing)
	}
	return out, nil
}

func (m *memStore) GetIngredientByID(_ context.Context, arg dbgen.GetIngredientByIDParams) (dbgen.Ingredient, error) {
	if ing, ok := m.ingredients[arg.ID.Bytes]; ok {
		return *ing, nil
	}
	return dbgen.Ingredient{}, pgx.ErrNoRows
}

func (m *memStore) CreateIngredient(_ context.Context, arg dbgen.CreateIngredientParams) (dbgen.Ingredient, error) {
	ing := &dbgen.Ingredient{ID: newID(), TenantID: arg.TenantID, Name: arg.Name, Unit: arg.Unit, OnHand: arg.OnHand, LowThreshold: arg.LowThreshold}
	m.ingredients[ing.ID.Bytes] = ing
	return *ing, nil
}

func (m *memStore) UpdateIngredient(_ context.Context, arg dbgen.UpdateIngredientParams) (dbgen.Ingredient, error) {
	ing, ok := m.ingredients[arg.ID.Bytes]
	if !ok {
		return dbgen.Ingredient{}, pgx.ErrNoRows
	}
	ing.Name, ing.Unit, ing.LowThreshold = arg.Name, arg.Unit, arg.LowThreshold
	return *ing, nil
}

func (m *memStore) DeleteIngredient(_ context.Context, arg dbgen.DeleteIngredientParams) (int64, error) {
	if _, ok := m.ingredients[arg.ID.Bytes]; !ok {
		return 0, nil
	}
	delete(m.ingredients, arg.ID.Bytes)
	return 1, nil
}

func (m *memStore) ListLowStockIngredients(_ context.Context, _ pgtype.UUID) ([]dbgen.Ingredient, error) {
	var out []dbgen.Ingredient
	for _, ing := range m.ingredients {
		if ing.OnHand <= ing.LowThreshold {
			out = append(out, *ing)
		}
	}
	return out, nil
}

func (m *memStore) AdjustIngredientStock(_ context.Context, arg dbgen.AdjustIngredientStockParams) (dbgen.Ingredient, error) {
	ing, ok := m.ingredients[arg.ID.Bytes]
	if !ok {
		return dbgen.Ingredient{}, pgx.ErrNoRows
	}
	ing.OnHand += arg.Delta
	return *ing, nil
}

func (m *memStore) ListRecipeByMenuItem(_ context.Context, arg dbgen.ListRecipeByMenuItemParams) ([]dbgen.ListRecipeByMenuItemRow, error) {
	var out []dbgen.ListRecipeByMenuItemRow
	for _, r := range m.recipes {
		if r.MenuItemID == arg.MenuItemID {
			ing := m.ingredients[r.IngredientID.Bytes]
			out = append(out, dbgen.ListRecipeByMenuItemRow{
				TenantID: r.TenantID, MenuItemID: r.MenuItemID, IngredientID: r.IngredientID,
				Quantity: r.Quantity, IngredientName: ing.Name, Unit: ing.Unit,
			})
		}
	}
	return out, nil
}

func (m *memStore) DeleteRecipe(_ context.Context, arg dbgen.DeleteRecipeParams) error {
	kept := m.recipes[:0]
	for _, r := range m.recipes {
		if r.MenuItemID != arg.MenuItemID {
			kept = append(kept, r)
		}
	}
	m.recipes = kept
	return nil
}

func (m *memStore) InsertRecipeLine(_ context.Context, arg dbgen.InsertRecipeLineParams) error {
	m.recipes = append(m.recipes, dbgen.Recipe{TenantID: arg.TenantID, MenuItemID: arg.MenuItemID, IngredientID: arg.IngredientID, Quantity: arg.Quantity})
	return nil
}

func (m *memStore) ListRecipeLinesForItems(_ context.Context, arg dbgen.ListRecipeLinesForItemsParams) ([]dbgen.Recipe, error) {
	want := map[[16]byte]bool{}
	for _, id := range arg.MenuItemIds {
		want[id.Bytes] = true
	}
	var out []dbgen.Recipe
	for _, r := range m.recipes {
		if want[r.MenuItemID.Bytes] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) InsertStockMovement(_ context.Context, arg dbgen.InsertStockMovementParams) (dbgen.StockMovement, error) {
	mv := dbgen.StockMovement{
		ID: newID(), TenantID: arg.TenantID, IngredientID: arg.IngredientID, Kind: arg.Kind,
		Quantity: arg.Quantity, OrderID: arg.OrderID, Note: arg.Note, CreatedBy: arg.CreatedBy,
	}
	m.movements = append(m.movements, mv)
	return mv, nil
}

func (m *memStore) filtered(filter any) []dbgen.StockMovement {
	id, _ := filter.(pgtype.UUID)
	var out []dbgen.StockMovement
	for _, mv := range m.movements {
		if filter == nil || mv.IngredientID == id {
			out = append(out, mv)
		}
	}
	return out
}

func (m *memStore) ListStockMovements(_ context.Context, arg dbgen.ListStockMovementsParams) ([]dbgen.StockMovement, error) {
	rows := m.filtered(arg.IngredientID)
	start := int(arg.Offset)
	if start > len(rows) {
		start = len(rows)
	}
	end := start + int(arg.Limit)
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (m *memStore) CountStockMovements(_ context.Context, arg dbgen.CountStockMovementsParams) (int64, error) {
	return int64(len(m.filtered(arg.IngredientID))), nil
}

func (m *memStore) ListStockMovementsByOrder(_ context.Context, arg dbgen.ListStockMovementsByOrderParams) ([]dbgen.StockMovement, error) {
	var out []dbgen.StockMovement
	for _, mv := range m.movements {
		if mv.OrderID == arg.OrderID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *memStore) GetMenuItemByID(_ context.Context, arg dbgen.GetMenuItemByIDParams) (dbgen.MenuItem, error) {
	if m.menu[arg.ID.Bytes] {
		return dbgen.MenuItem{ID: arg.ID, TenantID: arg.TenantID}, nil
	}
	return dbgen.MenuItem{}, pgx.ErrNoRows
}

type recordingEmitter struct {
	topics   []string
	payloads []any
}

func (e *recordingEmitter) Emit(_ context.Context, topic string, _ pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	e.topics = append(e.topics, topic)
	e.payloads = append(e.payloads, payload)
	return dbgen.DomainEvent{Topic: topic}, nil
}

var tenantUUID = uuid.New()

func tenantCtx() context.Context {
	return tenant.With(context.Background(), tenantUUID.String())
}

func tid() pgtype.UUID { return pgtype.UUID{Bytes: tenantUUID, Valid: true} }

type fixture struct {
	store  *memStore
	svc    *Service
	events *recordingEmitter
	rice   dbgen.Ingredient
	egg    dbgen.Ingredient
	nasi   pgtype.UUID
	omelet pgtype.UUID
}

func setup(t *testing.T) fixture {
	t.Helper()
	st := newMemStore()
	em := &recordingEmitter{}
	svc := &Service{Q: st, Events: em}
	ctx := tenantCtx()

	rice, err := svc.CreateIngredient(ctx, IngredientInput{Name: "Rice", Unit: "g", OnHand: 1000, LowThreshold: 400})
	require.NoError(t, err)
	egg, err := svc.CreateIngredient(ctx, IngredientInput{Name: "Egg", Unit: "pcs", OnHand: 10, LowThreshold: 2})
	require.NoError(t, err)

	nasi, omelet := newID(), newID()
	st.menu[nasi.Bytes] = true
	st.menu[omelet.Bytes] = true

	_, err = svc.ReplaceRecipe(ctx, common.UUIDString(nasi), RecipeInput{Lines: []RecipeLine{
		{IngredientID: common.UUIDString(rice.ID), Quantity: 200},
		{IngredientID: common.UUIDString(egg.ID), Quantity: 1},
	}})
	require.NoError(t, err)
	_, err = svc.ReplaceRecipe(ctx, common.UUIDString(omelet), RecipeInput{Lines: []RecipeLine{
		{IngredientID: common.UUIDString(egg.ID), Quantity: 3},
	}})
	require.NoError(t, err)

	return fixture{store: st, svc: svc, events: em, rice: rice, egg: egg, nasi: nasi, omelet: omelet}
}

func TestDeductForOrderAggregatesRecipes(t *testing.T) {
	f := setup(t)
	order := newID()

	low, err := DeductForOrder(tenantCtx(), f.store, tid(), order, []Usage{
		{MenuItemID: f.nasi, Qty: 2},
		{MenuItemID: f.omelet, Qty: 1},
		{MenuItemID: f.nasi, Qty: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(400), f.store.ingredients[f.rice.ID.Bytes].OnHand)
	assert.Equal(t, int64(4), f.store.ingredients[f.egg.ID.Bytes].OnHand)
	require.Len(t, low, 1)
	assert.Equal(t, "Rice", low[0].Name)
	assert.Equal(t, int64(400), low[0].OnHand)

	moves, err := f.store.ListStockMovementsByOrder(context.Background(), dbgen.ListStockMovementsByOrderParams{OrderID: order})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	for _, mv := range moves {
		assert.Equal(t, dbgen.StockMovementKindUsage, mv.Kind)
		assert.Negative(t, mv.Quantity)
	}
}

func TestDeductAllowsNegativeStock(t *testing.T) {
	f := setup(t)
	low, err := DeductForOrder(tenantCtx(), f.store, tid(), newID(), []Usage{{MenuItemID: f.omelet, Qty: 5}})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), f.store.ingredients[f.egg.ID.Bytes].OnHand)
	require.Len(t, low, 1)

	low, err = DeductForOrder(tenantCtx(), f.store, tid(), newID(), []Usage{{MenuItemID: f.omelet, Qty: 1}})
	require.NoError(t, err)
	assert.Empty(t, low, "already below threshold")
}

func TestDeductSkipsItemsWithoutRecipe(t *testing.T) {
	f := setup(t)
	low, err := DeductForOrder(tenantCtx(), f.store, tid(), newID(), []Usage{{MenuItemID: newID(), Qty: 4}})
	require.NoError(t, err)
	assert.Empty(t, low)
	assert.Empty(t, f.store.movements)
}

func TestRestockForOrderIsIdempotent(t *testing.T) {
	f := setup(t)
	order := newID()
	_, err := DeductForOrder(tenantCtx(), f.store, tid(), order, []Usage{{MenuItemID: f.nasi, Qty: 2}})
	require.NoError(t, err)

	n, err := RestockForOrder(tenantCtx(), f.store, tid(), order)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(1000), f.store.ingredients[f.rice.ID.Bytes].OnHand)
	assert.Equal(t, int64(10), f.store.ingredients[f.egg.ID.Bytes].OnHand)

	n, err = RestockForOrder(tenantCtx(), f.store, tid(), order)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1000), f.store.ingredients[f.rice.ID.Bytes].OnHand)
}

func TestRecordMovement(t *testing.T) {
	f := setup(t)
	ctx := tenantCtx()

	ing, err := f.svc.RecordMovement(ctx, MovementInput{IngredientID: common.UUIDString(f.rice.ID), Kind: "waste", Quantity: 650})
	require.NoError(t, err)
	assert.Equal(t, int64(350), ing.OnHand)
	require.Equal(t, []string{events.TopicInventoryLowStock}, f.events.topics)
	payload := f.events.payloads[0].(events.LowStock)
	assert.Equal(t, "Rice", payload.Items[0].Name)

	ing, err = f.svc.RecordMovement(ctx, MovementInput{IngredientID: common.UUIDString(f.rice.ID), Kind: "purchase", Quantity: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(850), ing.OnHand)

	ing, err = f.svc.RecordMovement(ctx, MovementInput{IngredientID: common.UUIDString(f.rice.ID), Kind: "adjust", Quantity: -50})
	require.NoError(t, err)
	assert.Equal(t, int64(800), ing.OnHand)
	assert.Len(t, f.events.topics, 1)

	_, err = f.svc.RecordMovement(ctx, MovementInput{IngredientID: common.UUIDString(f.rice.ID), Kind: "purchase", Quantity: -1})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.RecordMovement(ctx, MovementInput{IngredientID: common.UUIDString(f.rice.ID), Kind: "usage", Quantity: 1})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_FAILED", appErr.Code)

	_, err = f.svc.RecordMovement(ctx, MovementInput{IngredientID: uuid.NewString(), Kind: "adjust", Quantity: 1})
	require.ErrorIs(t, err, common.ErrNotFound)

	rows, total, err := f.svc.Movements(ctx, common.UUIDString(f.rice.ID), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(-650), rows[0].Quantity)
}

func TestReplaceRecipeValidation(t *testing.T) {
	f := setup(t)
	ctx := tenantCtx()
	rice := common.UUIDString(f.rice.ID)

	_, err := f.svc.ReplaceRecipe(ctx, uuid.NewString(), RecipeInput{Lines: []RecipeLine{{IngredientID: rice, Quantity: 1}}})
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.ReplaceRecipe(ctx, common.UUIDString(f.nasi), RecipeInput{Lines: []RecipeLine{
		{IngredientID: rice, Quantity: 1}, {IngredientID: rice, Quantity: 2},
	}})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	lines, err := f.svc.ReplaceRecipe(ctx, common.UUIDString(f.nasi), RecipeInput{Lines: []RecipeLine{{IngredientID: rice, Quantity: 150}}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(150), lines[0].Quantity)
	assert.Equal(t, "g", lines[0].Unit)
}

func TestAlertLowStock(t *testing.T) {
	f := setup(t)
	n, err := f.svc.AlertLowStock(tenantCtx())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.events.topics)

	f.store.ingredients[f.egg.ID.Bytes].OnHand = 1
	n, err = f.svc.AlertLowStock(tenantCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{events.TopicInventoryLowStock}, f.events.topics)

	_, err = f.svc.AlertLowStock(context.Background())
	require.Error(t, err)
}

func TestHandlersIngredientLifecycle(t *testing.T) {
	f := setup(t)
	h := &Handler{Svc: f.svc}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/inventory/ingredients",
		strings.NewReader(`{"name":"Chili","unit":"g","on_hand":50,"low_threshold":10}`)).WithContext(tenantCtx())
	rec := httptest.NewRecorder()
	h.CreateIngredient(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/inventory/low-stock", nil).WithContext(tenantCtx())
	rec = httptest.NewRecorder()
	h.LowStock(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []dbgen.Ingredient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/inventory/movements",
		strings.NewReader(`{"ingredient_id":"`+common.UUIDString(f.egg.ID)+`","kind":"waste","quantity":0}`)).WithContext(tenantCtx())
	rec = httptest.NewRecorder()
	h.RecordMovement(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/inventory/movements?limit=1", nil).WithContext(tenantCtx())
	rec = httptest.NewRecorder()
	h.Movements(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Total-Count"))
}
