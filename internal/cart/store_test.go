package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// memStore is an in-memory Querier. Expiry checks use now, like the
// expires_at > now() predicates of the real queries.
type memStore struct {
	now       func() time.Time
	carts     map[[16]byte]*dbgen.Cart
	items     []*dbgen.CartItem
	menu      map[[16]byte]dbgen.MenuItem
	modifiers map[[16]byte]dbgen.MenuModifier
	branches  map[[16]byte]dbgen.Branch
}

func newID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:       now,
		carts:     map[[16]byte]*dbgen.Cart{},
		menu:      map[[16]byte]dbgen.MenuItem{},
		modifiers: map[[16]byte]dbgen.MenuModifier{},
		branches:  map[[16]byte]dbgen.Branch{},
	}
}

func (m *memStore) addMenuItem(it dbgen.MenuItem) dbgen.MenuItem {
	it.ID = newID()
	m.menu[it.ID.Bytes] = it
	return it
}

func (m *memStore) addModifier(mod dbgen.MenuModifier) dbgen.MenuModifier {
	mod.ID = newID()
	m.modifiers[mod.ID.Bytes] = mod
	return mod
}

func (m *memStore) lines(cartID pgtype.UUID) []dbgen.CartItem {
	var out []dbgen.CartItem
	for _, it := range m.items {
		if it.CartID == cartID {
			out = append(out, *it)
		}
	}
	return out
}

func (m *memStore) GetMenuItemByID(_ context.Context, arg dbgen.GetMenuItemByIDParams) (dbgen.MenuItem, error) {
	if it, ok := m.menu[arg.ID.Bytes]; ok {
		return it, nil
	}
	return dbgen.MenuItem{}, pgx.ErrNoRows
}

func (m *memStore) ListMenuItemsByIDs(_ context.Context, arg dbgen.ListMenuItemsByIDsParams) ([]dbgen.MenuItem, error) {
	var out []dbgen.MenuItem
	for _, id := range arg.Ids {
		if it, ok := m.menu[id.Bytes]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) ListModifiersByIDs(_ context.Context, arg dbgen.ListModifiersByIDsParams) ([]dbgen.MenuModifier, error) {
	var out []dbgen.MenuModifier
	for _, id := range arg.Ids {
		if mod, ok := m.modifiers[id.Bytes]; ok {
			out = append(out, mod)
		}
	}
	return out, nil
}

func (m *memStore) GetBranchByID(_ context.Context, arg dbgen.GetBranchByIDParams) (dbgen.Branch, error) {
	if b, ok := m.branches[arg.ID.Bytes]; ok {
		return b, nil
	}
	return dbgen.Branch{}, pgx.ErrNoRows
}

func (m *memStore) CreateCart(_ context.Context, arg dbgen.CreateCartParams) (dbgen.Cart, error) {
	c := &dbgen.Cart{
		ID:          newID(),
		TenantID:    arg.TenantID,
		UserID:      arg.UserID,
		AnonID:      arg.AnonID,
		Fulfillment: dbgen.FulfillmentPickup,
		Status:      dbgen.CartStatusActive,
		ExpiresAt:   arg.ExpiresAt,
	}
	m.carts[c.ID.Bytes] = c
	return *c, nil
}

func (m *memStore) GetCartByID(_ context.Context, arg dbgen.GetCartByIDParams) (dbgen.Cart, error) {
	if c, ok := m.carts[arg.ID.Bytes]; ok && c.TenantID == arg.TenantID {
		return *c, nil
	}
	return dbgen.Cart{}, pgx.ErrNoRows
}

func (m *memStore) live(c *dbgen.Cart) bool {
	return c.Status == dbgen.CartStatusActive && c.ExpiresAt.Time.After(m.now())
}

func (m *memStore) GetActiveCartByUser(_ context.Context, arg dbgen.GetActiveCartByUserParams) (dbgen.Cart, error) {
	for _, c := range m.carts {
		if c.TenantID == arg.TenantID && c.UserID == arg.UserID && m.live(c) {
			return *c, nil
		}
	}
	return dbgen.Cart{}, pgx.ErrNoRows
}

func (m *memStore) GetActiveCartByAnon(_ context.Context, arg dbgen.GetActiveCartByAnonParams) (dbgen.Cart, error) {
	for _, c := range m.carts {
		if c.TenantID == arg.TenantID && !c.UserID.Valid && c.AnonID == arg.AnonID && m.live(c) {
			return *c, nil
		}
	}
	return dbgen.Cart{}, pgx.ErrNoRows
}

func (m *memStore) TouchCart(_ context.Context, arg dbgen.TouchCartParams) error {
	if c, ok := m.carts[arg.ID.Bytes]; ok {
		c.ExpiresAt = arg.ExpiresAt
	}
	return nil
}

func (m *memStore) UpdateCartContext(_ context.Context, arg dbgen.UpdateCartContextParams) (dbgen.Cart, error) {
	c, ok := m.carts[arg.ID.Bytes]
	if !ok {
		return dbgen.Cart{}, pgx.ErrNoRows
	}
	c.BranchID, c.Fulfillment, c.TableNumber = arg.BranchID, arg.Fulfillment, arg.TableNumber
	return *c, nil
}

func (m *memStore) UpdateCartPromotion(_ context.Context, arg dbgen.UpdateCartPromotionParams) error {
	if c, ok := m.carts[arg.ID.Bytes]; ok {
		c.PromotionCode = arg.PromotionCode
	}
	return nil
}

func (m *memStore) UpdateCartPoints(_ context.Context, arg dbgen.UpdateCartPointsParams) error {
	if c, ok := m.carts[arg.ID.Bytes]; ok {
		c.PointsToRedeem = arg.PointsToRedeem
	}
	return nil
}

func (m *memStore) TransferCartToUser(_ context.Context, arg dbgen.TransferCartToUserParams) error {
	if c, ok := m.carts[arg.ID.Bytes]; ok {
		c.UserID, c.AnonID = arg.UserID, pgtype.Text{}
	}
	return nil
}

func (m *memStore) ExpireCart(_ context.Context, arg dbgen.ExpireCartParams) error {
	if c, ok := m.carts[arg.ID.Bytes]; ok {
		c.ExpiresAt = pgtype.Timestamptz{Time: m.now(), Valid: true}
		c.PromotionCode, c.PointsToRedeem = pgtype.Text{}, 0
	}
	return nil
}

func (m *memStore) ListCartItems(_ context.Context, arg dbgen.ListCartItemsParams) ([]dbgen.CartItem, error) {
	return m.lines(arg.CartID), nil
}

func (m *memStore) GetCartItemByID(_ context.Context, arg dbgen.GetCartItemByIDParams) (dbgen.CartItem, error) {
	for _, it := range m.items {
		if it.CartID == arg.CartID && it.ID == arg.ID {
			return *it, nil
		}
	}
	return dbgen.CartItem{}, pgx.ErrNoRows
}

func (m *memStore) FindCartItem(_ context.Context, arg dbgen.FindCartItemParams) (dbgen.CartItem, error) {
	for _, it := range m.items {
		if it.CartID == arg.CartID && it.MenuItemID == arg.MenuItemID && it.ModifierKey == arg.ModifierKey && it.Notes == arg.Notes {
			return *it, nil
		}
	}
	return dbgen.CartItem{}, pgx.ErrNoRows
}

func (m *memStore) CreateCartItem(_ context.Context, arg dbgen.CreateCartItemParams) (dbgen.CartItem, error) {
	it := &dbgen.CartItem{
		ID:            newID(),
		TenantID:      arg.TenantID,
		CartID:        arg.CartID,
		MenuItemID:    arg.MenuItemID,
		Name:          arg.Name,
		Qty:           arg.Qty,
		UnitPrice:     arg.UnitPrice,
		ModifierIds:   arg.ModifierIds,
		ModifierKey:   arg.ModifierKey,
		Modifiers:     arg.Modifiers,
		ModifierTotal: arg.ModifierTotal,
		Notes:         arg.Notes,
	}
	m.items = append(m.items, it)
	return *it, nil
}

func (m *memStore) UpdateCartItemQty(_ context.Context, arg dbgen.UpdateCartItemQtyParams) (dbgen.CartItem, error) {
	for _, it := range m.items {
		if it.CartID == arg.CartID && it.ID == arg.ID {
			it.Qty = arg.Qty
			return *it, nil
		}
	}
	return dbgen.CartItem{}, pgx.ErrNoRows
}

func (m *memStore) DeleteCartItem(_ context.Context, arg dbgen.DeleteCartItemParams) (int64, error) {
	for i, it := range m.items {
		if it.CartID == arg.CartID && it.ID == arg.ID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}
