package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/menu"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/promotion"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// MaxQty bounds a single cart line.
const MaxQty = 99

// Querier is the storage surface of the cart service.
type Querier interface {
	menu.Reader
	GetBranchByID(ctx context.Context, arg dbgen.GetBranchByIDParams) (dbgen.Branch, error)
	CreateCart(ctx context.Context, arg dbgen.CreateCartParams) (dbgen.Cart, error)
	GetCartByID(ctx context.Context, arg dbgen.GetCartByIDParams) (dbgen.Cart, error)
	GetActiveCartByUser(ctx context.Context, arg dbgen.GetActiveCartByUserParams) (dbgen.Cart, error)
	GetActiveCartByAnon(ctx context.Context, arg dbgen.GetActiveCartByAnonParams) (dbgen.Cart, error)
	TouchCart(ctx context.Context, arg dbgen.TouchCartParams) error
	UpdateCartContext(ctx context.Context, arg dbgen.UpdateCartContextParams) (dbgen.Cart, error)
	UpdateCartPromotion(ctx context.Context, arg dbgen.UpdateCartPromotionParams) error
	UpdateCartPoints(ctx context.Context, arg dbgen.UpdateCartPointsParams) error
	TransferCartToUser(ctx context.Context, arg dbgen.TransferCartToUserParams) error
	ExpireCart(ctx context.Context, arg dbgen.ExpireCartParams) error
	ListCartItems(ctx context.Context, arg dbgen.ListCartItemsParams) ([]dbgen.CartItem, error)
	GetCartItemByID(ctx context.Context, arg dbgen.GetCartItemByIDParams) (dbgen.CartItem, error)
	FindCartItem(ctx context.Context, arg dbgen.FindCartItemParams) (dbgen.CartItem, error)
	CreateCartItem(ctx context.Context, arg dbgen.CreateCartItemParams) (dbgen.CartItem, error)
	UpdateCartItemQty(ctx context.Context, arg dbgen.UpdateCartItemQtyParams) (dbgen.CartItem, error)
	DeleteCartItem(ctx context.Context, arg dbgen.DeleteCartItemParams) (int64, error)
}

// Promotions previews promotion codes against cart lines.
type Promotions interface {
	Preview(ctx context.Context, code string, userID pgtype.UUID, items []promotion.Item) (promotion.PreviewResult, error)
}

// Loyalty reports balances and tier multipliers.
type Loyalty interface {
	Balance(ctx context.Context, tid, userID pgtype.UUID) (int64, int64, error)
	TierMultiplier(ctx context.Context, tid pgtype.UUID, lifetime int64) (int64, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Q       Querier
	Tx      repo.TxFunc[Querier]
	Promos  Promotions
	Loyalty Loyalty
	TTL     time.Duration
	Now     func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) tx(ctx context.Context, fn func(q Querier) error) error {
	if s.Tx != nil {
		return s.Tx(ctx, fn)
	}
	return fn(s.Q)
}

func (s *Service) expiry() pgtype.Timestamptz {
	return common.Timestamptz(s.now().Add(s.ttl()))
}

// touch slides the expiry of c and keeps c in step with the stored row.
func (s *Service) touch(ctx context.Context, q Querier, c *dbgen.Cart) error {
	exp := s.expiry()
	if err := q.TouchCart(ctx, dbgen.TouchCartParams{TenantID: c.TenantID, ID: c.ID, ExpiresAt: exp}); err != nil {
		return err
	}
	c.ExpiresAt = exp
	return nil
}

// ModifierSnapshot is the modifier data frozen on a cart line.
type ModifierSnapshot struct {
	ID         string `json:"id"`
	Group      string `json:"group"`
	Name       string `json:"name"`
	PriceDelta int64  `json:"price_delta"`
}

// Snapshots decodes the modifiers stored on a cart line.
func Snapshots(raw []byte) []ModifierSnapshot {
	out := []ModifierSnapshot{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

// SnapshotJSON freezes modifiers at their current prices.
func SnapshotJSON(mods []dbgen.MenuModifier) ([]byte, error) {
	snap := make([]ModifierSnapshot, 0, len(mods))
	for _, m := range mods {
		snap = append(snap, ModifierSnapshot{ID: common.UUIDString(m.ID), Group: m.GroupName, Name: m.Name, PriceDelta: m.PriceDelta})
	}
	return json.Marshal(snap)
}

// ModifierKey identifies a modifier combination independent of order.
func ModifierKey(ids []pgtype.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, common.UUIDString(id))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// LineView is a priced cart line.
type LineView struct {
	ID            string             `json:"id"`
	MenuItemID    string             `json:"menu_item_id"`
	Name          string             `json:"name"`
	Qty           int32              `json:"qty"`
	UnitPrice     int64              `json:"unit_price"`
	Modifiers     []ModifierSnapshot `json:"modifiers"`
	ModifierTotal int64              `json:"modifier_total"`
	Notes         string             `json:"notes,omitempty"`
	LineTotal     int64              `json:"line_total"`
}

// View is the cart as returned to clients.
type View struct {
	ID             string        `json:"id"`
	AnonID         *string       `json:"anon_id"`
	UserID         *string       `json:"user_id"`
	BranchID       *string       `json:"branch_id"`
	Fulfillment    string        `json:"fulfillment"`
	TableNumber    *string       `json:"table_number"`
	PromotionCode  *string       `json:"promotion_code"`
	PromotionError string        `json:"promotion_error,omitempty"`
	PointsToRedeem int64         `json:"points_to_redeem"`
	ExpiresAt      time.Time     `json:"expires_at"`
	Currency       string        `json:"currency"`
	Items          []LineView    `json:"items"`
	Quote          pricing.Quote `json:"quote"`
}

func lineView(it dbgen.CartItem) LineView {
	return LineView{
		ID:            common.UUIDString(it.ID),
		MenuItemID:    common.UUIDString(it.MenuItemID),
		Name:          it.Name,
		Qty:           it.Qty,
		UnitPrice:     it.UnitPrice,
		Modifiers:     Snapshots(it.Modifiers),
		ModifierTotal: it.ModifierTotal,
		Notes:         it.Notes,
		LineTotal:     Line(it).Total(),
	}
}

// Line converts a stored cart line into a pricing line.
func Line(it dbgen.CartItem) pricing.Line {
	return pricing.Line{Qty: int(it.Qty), UnitPrice: it.UnitPrice, ModifierTotal: it.ModifierTotal}
}

func (s *Service) caller(ctx context.Context) (pgtype.UUID, bool, error) {
	raw, ok := common.UserID(ctx)
	if !ok || strings.TrimSpace(raw) == "" {
		return pgtype.UUID{}, false, nil
	}
	id, err := common.ParseUUID("user_id", raw)
	if err != nil {
		return pgtype.UUID{}, false, err
	}
	return id, true, nil
}

// load fetches an active, unexpired cart the caller may access.
func (s *Service) load(ctx context.Context, q Querier, tid pgtype.UUID, id string) (dbgen.Cart, error) {
	cid, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.Cart{}, err
	}
	c, err := q.GetCartByID(ctx, dbgen.GetCartByIDParams{TenantID: tid, ID: cid})
	if err != nil {
		return dbgen.Cart{}, common.DBError(err, "cart not found")
	}
	if c.Status != dbgen.CartStatusActive {
		return dbgen.Cart{}, common.NotFound("cart not found")
	}
	if c.ExpiresAt.Valid && !c.ExpiresAt.Time.After(s.now()) {
		return dbgen.Cart{}, common.NotFound("cart expired")
	}
	if c.UserID.Valid {
		uid, ok, err := s.caller(ctx)
		if err != nil {
			return dbgen.Cart{}, err
		}
		if !ok || !common.UUIDEqual(uid, c.UserID) {
			return dbgen.Cart{}, common.NotFound("cart not found")
		}
	}
	return c, nil
}

// Ensure returns the caller's active cart, creating one when needed. Signed-in
// callers get their user cart; everyone else is keyed by anonID.
func (s *Service) Ensure(ctx context.Context, anonID string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	uid, signedIn, err := s.caller(ctx)
	if err != nil {
		return View{}, err
	}
	var c dbgen.Cart
	if signedIn {
		c, err = s.Q.GetActiveCartByUser(ctx, dbgen.GetActiveCartByUserParams{TenantID: tid, UserID: uid})
		if errors.Is(err, pgx.ErrNoRows) {
			c, err = s.Q.CreateCart(ctx, dbgen.CreateCartParams{TenantID: tid, UserID: uid, ExpiresAt: s.expiry()})
		}
	} else {
		anonID = strings.TrimSpace(anonID)
		if anonID == "" {
			anonID = uuid.NewString()
		}
		if len(anonID) > 64 {
			return View{}, common.BadRequest("anon_id", "anon_id is too long", nil)
		}
		c, err = s.Q.GetActiveCartByAnon(ctx, dbgen.GetActiveCartByAnonParams{TenantID: tid, AnonID: common.Text(anonID)})
		if errors.Is(err, pgx.ErrNoRows) {
			c, err = s.Q.CreateCart(ctx, dbgen.CreateCartParams{TenantID: tid, AnonID: common.Text(anonID), ExpiresAt: s.expiry()})
		}
	}
	if err != nil {
		return View{}, fmt.Errorf("ensure cart: %w", err)
	}
	if err := s.touch(ctx, s.Q, &c); err != nil {
		return View{}, err
	}
	return s.view(ctx, s.Q, c)
}

// Get returns the cart with its quote.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	c, err := s.load(ctx, s.Q, tid, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, s.Q, c)
}

// ContextInput selects where and how the order will be fulfilled.
type ContextInput struct {
	BranchID    string  `json:"branch_id" validate:"required,uuid"`
	Fulfillment string  `json:"fulfillment" validate:"required,oneof=pickup dine_in delivery"`
	TableNumber *string `json:"table_number" validate:"omitempty,max=20"`
}

// SetContext sets the branch and fulfillment of the cart.
func (s *Service) SetContext(ctx context.Context, id string, in ContextInput) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return View{}, err
	}
	c, err := s.load(ctx, s.Q, tid, id)
	if err != nil {
		return View{}, err
	}
	bid, err := common.ParseUUID("branch_id", in.BranchID)
	if err != nil {
		return View{}, err
	}
	b, err := s.Q.GetBranchByID(ctx, dbgen.GetBranchByIDParams{TenantID: tid, ID: bid})
	if err != nil {
		return View{}, common.DBError(err, "branch not found")
	}
	if !b.Active {
		return View{}, common.NotFound("branch not found")
	}
	var table pgtype.Text
	if in.Fulfillment == string(dbgen.FulfillmentDineIn) {
		table = common.TextPtr(in.TableNumber)
	}
	c, err = s.Q.UpdateCartContext(ctx, dbgen.UpdateCartContextParams{
		TenantID:    tid,
		ID:          c.ID,
		BranchID:    bid,
		Fulfillment: dbgen.Fulfillment(in.Fulfillment),
		TableNumber: table,
	})
	if err != nil {
		return View{}, common.DBError(err, "cart not found")
	}
	if err := s.touch(ctx, s.Q, &c); err != nil {
		return View{}, err
	}
	return s.view(ctx, s.Q, c)
}

// AddItemInput adds a menu item with modifiers.
type AddItemInput struct {
	MenuItemID  string   `json:"menu_item_id" validate:"required,uuid"`
	ModifierIDs []string `json:"modifier_ids" validate:"omitempty,max=20,dive,uuid"`
	Qty         int      `json:"qty" validate:"required,gte=1,lte=99"`
	Notes       string   `json:"notes" validate:"max=200"`
}

// AddItem adds a line or increments the line with the same item, modifiers
// and notes. Prices are snapshotted from the menu.
func (s *Service) AddItem(ctx context.Context, id string, in AddItemInput) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return View{}, err
	}
	itemID, err := common.ParseUUID("menu_item_id", in.MenuItemID)
	if err != nil {
		return View{}, err
	}
	modIDs, err := common.UUIDs("modifier_ids", in.ModifierIDs)
	if err != nil {
		return View{}, err
	}
	notes := strings.TrimSpace(in.Notes)

	var c dbgen.Cart
	err = s.tx(ctx, func(q Querier) error {
		c, err = s.load(ctx, q, tid, id)
		if err != nil {
			return err
		}
		priced, err := menu.Resolve(ctx, q, tid, itemID, modIDs)
		if err != nil {
			return err
		}
		ids := priced.ModifierIDs()
		key := ModifierKey(ids)
		existing, err := q.FindCartItem(ctx, dbgen.FindCartItemParams{
			TenantID: tid, CartID: c.ID, MenuItemID: itemID, ModifierKey: key, Notes: notes,
		})
		switch {
		case err == nil:
			qty := int(existing.Qty) + in.Qty
			if qty > MaxQty {
				return common.BadRequest("qty", fmt.Sprintf("a line holds at most %d", MaxQty), nil)
			}
			if _, err := q.UpdateCartItemQty(ctx, dbgen.UpdateCartItemQtyParams{TenantID: tid, CartID: c.ID, ID: existing.ID, Qty: int32(qty)}); err != nil {
				return err
			}
		case errors.Is(err, pgx.ErrNoRows):
			raw, err := SnapshotJSON(priced.Modifiers)
			if err != nil {
				return err
			}
			if _, err := q.CreateCartItem(ctx, dbgen.CreateCartItemParams{
				TenantID:      tid,
				CartID:        c.ID,
				MenuItemID:    itemID,
				Name:          priced.Item.Name,
				Qty:           int32(in.Qty),
				UnitPrice:     priced.Item.Price,
				ModifierIds:   ids,
				ModifierKey:   key,
				Modifiers:     raw,
				ModifierTotal: priced.ModifierTotal,
				Notes:         notes,
			}); err != nil {
				return err
			}
		default:
			return err
		}
		return s.touch(ctx, q, &c)
	})
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, s.Q, c)
}

// UpdateQty sets a line quantity. Zero removes the line.
func (s *Service) UpdateQty(ctx context.Context, id, itemID string, qty int) (View, error) {
	if qty < 0 || qty > MaxQty {
		return View{}, common.BadRequest("qty", fmt.Sprintf("qty must be between 0 and %d", MaxQty), nil)
	}
	if qty == 0 {
		return s.RemoveItem(ctx, id, itemID)
	}
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	c, err := s.load(ctx, s.Q, tid, id)
	if err != nil {
		return View{}, err
	}
	iid, err := common.ParseUUID("item_id", itemID)
	if err != nil {
		return View{}, err
	}
	if _, err := s.Q.UpdateCartItemQty(ctx, dbgen.UpdateCartItemQtyParams{TenantID: tid, CartID: c.ID, ID: iid, Qty: int32(qty)}); err != nil {
		return View{}, common.DBError(err, "cart item not found")
	}
	if err := s.touch(ctx, s.Q, &c); err != nil {
		return View{}, err
	}
	return s.view(ctx, s.Q, c)
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, id, itemID string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	c, err := s.load(ctx, s.Q, tid, id)
	if err != nil {
		return View{}, err
	}
	iid, err := common.ParseUUID("item_id", itemID)
	if err != nil {
		return View{}, err
	}
	n, err := s.Q.DeleteCartItem(ctx, dbgen.DeleteCartItemParams{TenantID: tid, CartID: c.ID, ID: iid})
	if err != nil {
		return View{}, err
	}
	if n == 0 {
		return View{}, common.NotFound("cart item not found")
	}
	if err := s.touch(ctx, s.Q, &c); err != nil {
		return View{}, err
	}
	return s.view(ctx, s.Q, c)
}

// ApplyPromotion validates code against the current lines and stores it.
func (s *Service) ApplyPromotion(ctx context.Context, id, code string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return View{}, common.BadRequest("code", "code is required", nil)
	}
	if s.Promos == nil {
		return View{}, errors.New("promotion service not configured")
	}
	c, err := s.load(ctx, s.Q, tid, id)
	if err != nil {
		return View{}, err
	}
	items, err := s.Q.ListCartItems(ctx, dbgen.ListCartItemsParams{TenantID: tid, CartID: c.ID})
	if err != nil {
		return View{}, err
	}
	if len(items) == 0 {
		return View{}, emptyCart()
	}
	lines, err := PromotionItems(ctx, s.Q, tid, items)
	if err != nil {
		return View{}, err
	}
	if _, err := s.Promos.Preview(ctx, code, c.UserID, lines); err != nil {
		return View{}, err
	}
	if err := s.Q.UpdateCartPromotion(ctx, dbgen.UpdateCartPromotionParams{TenantID: tid, ID: c.ID, PromotionCode: common.Text(code)}); err != nil {
		return View{}, err
	}
	if err := s.touch(ctx, s.Q, &c); err != nil {
		return View{}, err
	}
	c.PromotionCode = common.Text(code)
	return s.view(ctx, s.Q, c)
}

// RemovePromotion clears the applied code.
func (s *Service) RemovePromotion(ctx context.Context, id string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	c, err := s.load(ctx, s.Q, tid, id)
	if err != nil {
		return View{}, err
	}
	if err := s.Q.UpdateCartPromotion(ctx, dbgen.UpdateCartPromotionParams{TenantID: tid, ID: c.ID}); err != nil {
		return View{}, err
	}
	if err := s.touch(ctx, s.Q, &c); err != nil {
		return View{}, err
	}
	c.PromotionCode = pgtype.Text{}
	return s.view(ctx, s.Q, c)
}

// SetPoints stores how many points the signed-in owner wants to redeem,
// capped at the current balance. The quote applies the max-redeem cap.
func (s *Service) SetPoints(ctx context.Context, id string, points int64) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	if points < 0 {
		return View{}, common.BadRequest("points", "points cannot be negative", nil)
	}
	if _, ok, _ := s.caller(ctx); !ok {
		return View{}, common.Unauthorized()
	}
	c, err := s.load(ctx, s.Q, tid, id)
	if err != nil {
		return View{}, err
	}
	if !c.UserID.Valid {
		return View{}, common.Unauthorized()
	}
	if points > 0 {
		if s.Loyalty == nil {
			return View{}, errors.New("loyalty service not configured")
		}
		balance, _, err := s.Loyalty.Balance(ctx, tid, c.UserID)
		if err != nil {
			return View{}, err
		}
		if points > balance {
			points = balance
		}
	}
	if err := s.Q.UpdateCartPoints(ctx, dbgen.UpdateCartPointsParams{TenantID: tid, ID: c.ID, PointsToRedeem: points}); err != nil {
		return View{}, err
	}
	if err := s.touch(ctx, s.Q, &c); err != nil {
		return View{}, err
	}
	c.PointsToRedeem = points
	return s.view(ctx, s.Q, c)
}

// Quote returns only the pricing breakdown of the cart.
func (s *Service) Quote(ctx context.Context, id string) (pricing.Quote, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return pricing.Quote{}, err
	}
	return v.Quote, nil
}

// Merge folds the anonymous cart identified by anonID into the caller's
// user cart. Lines present in both keep the larger quantity. When the user
// has no cart yet the anonymous cart is adopted as is.
func (s *Service) Merge(ctx context.Context, anonID string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	uid, ok, err := s.caller(ctx)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, common.Unauthorized()
	}
	anonID = strings.TrimSpace(anonID)
	if anonID == "" {
		return View{}, common.BadRequest("anon_id", "anon_id is required", nil)
	}

	var result dbgen.Cart
	err = s.tx(ctx, func(q Querier) error {
		guest, err := q.GetActiveCartByAnon(ctx, dbgen.GetActiveCartByAnonParams{TenantID: tid, AnonID: common.Text(anonID)})
		guestFound := err == nil
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		user, err := q.GetActiveCartByUser(ctx, dbgen.GetActiveCartByUserParams{TenantID: tid, UserID: uid})
		switch {
		case errors.Is(err, pgx.ErrNoRows) && guestFound:
			if err := q.TransferCartToUser(ctx, dbgen.TransferCartToUserParams{TenantID: tid, ID: guest.ID, UserID: uid}); err != nil {
				return err
			}
			guest.UserID, guest.AnonID = uid, pgtype.Text{}
			result = guest
			return s.touch(ctx, q, &result)
		case errors.Is(err, pgx.ErrNoRows):
			result, err = q.CreateCart(ctx, dbgen.CreateCartParams{TenantID: tid, UserID: uid, ExpiresAt: s.expiry()})
			return err
		case err != nil:
			return err
		}
		result = user
		if !guestFound {
			return s.touch(ctx, q, &result)
		}
		items, err := q.ListCartItems(ctx, dbgen.ListCartItemsParams{TenantID: tid, CartID: guest.ID})
		if err != nil {
			return err
		}
		for _, it := range items {
			existing, err := q.FindCartItem(ctx, dbgen.FindCartItemParams{
				TenantID: tid, CartID: user.ID, MenuItemID: it.MenuItemID, ModifierKey: it.ModifierKey, Notes: it.Notes,
			})
			if err == nil {
				if existing.Qty < it.Qty {
					if _, err := q.UpdateCartItemQty(ctx, dbgen.UpdateCartItemQtyParams{TenantID: tid, CartID: user.ID, ID: existing.ID, Qty: it.Qty}); err != nil {
						return err
					}
				}
				continue
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			if _, err := q.CreateCartItem(ctx, dbgen.CreateCartItemParams{
				TenantID:      tid,
				CartID:        user.ID,
				MenuItemID:    it.MenuItemID,
				Name:          it.Name,
				Qty:           it.Qty,
				UnitPrice:     it.UnitPrice,
				ModifierIds:   it.ModifierIds,
				ModifierKey:   it.ModifierKey,
				Modifiers:     it.Modifiers,
				ModifierTotal: it.ModifierTotal,
				Notes:         it.Notes,
			}); err != nil {
				return err
			}
		}
		if !user.PromotionCode.Valid && guest.PromotionCode.Valid {
			if err := q.UpdateCartPromotion(ctx, dbgen.UpdateCartPromotionParams{TenantID: tid, ID: user.ID, PromotionCode: guest.PromotionCode}); err != nil {
				return err
			}
			result.PromotionCode = guest.PromotionCode
		}
		if !user.BranchID.Valid && guest.BranchID.Valid {
			updated, err := q.UpdateCartContext(ctx, dbgen.UpdateCartContextParams{
				TenantID: tid, ID: user.ID, BranchID: guest.BranchID, Fulfillment: guest.Fulfillment, TableNumber: guest.TableNumber,
			})
			if err != nil {
				return err
			}
			result = updated
		}
		if err := q.ExpireCart(ctx, dbgen.ExpireCartParams{TenantID: tid, ID: guest.ID}); err != nil {
			return err
		}
		return s.touch(ctx, q, &result)
	})
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, s.Q, result)
}

// PromotionItems maps cart lines onto promotion lines, resolving categories
// from the current menu.
func PromotionItems(ctx context.Context, q menu.Reader, tid pgtype.UUID, items []dbgen.CartItem) ([]promotion.Item, error) {
	ids := make([]pgtype.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MenuItemID)
	}
	rows, err := q.ListMenuItemsByIDs(ctx, dbgen.ListMenuItemsByIDsParams{TenantID: tid, Ids: ids})
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	categories := make(map[[16]byte]*uuid.UUID, len(rows))
	for _, r := range rows {
		if r.CategoryID.Valid {
			cat := uuid.UUID(r.CategoryID.Bytes)
			categories[r.ID.Bytes] = &cat
		}
	}
	out := make([]promotion.Item, 0, len(items))
	for _, it := range items {
		mid := uuid.UUID(it.MenuItemID.Bytes)
		out = append(out, promotion.Item{MenuItemID: &mid, CategoryID: categories[it.MenuItemID.Bytes], Subtotal: Line(it).Total()})
	}
	return out, nil
}

func emptyCart() error {
	return &common.AppError{Code: "CART_EMPTY", Message: "cart is empty", HTTPStatus: http.StatusUnprocessableEntity, Err: common.ErrInvalidInput}
}

func (s *Service) view(ctx context.Context, q Querier, c dbgen.Cart) (View, error) {
	items, err := q.ListCartItems(ctx, dbgen.ListCartItemsParams{TenantID: c.TenantID, CartID: c.ID})
	if err != nil {
		return View{}, fmt.Errorf("list cart items: %w", err)
	}
	st := tenant.SettingsFrom(ctx)
	v := View{
		ID:             common.UUIDString(c.ID),
		AnonID:         common.StringPtr(c.AnonID),
		UserID:         common.UUIDPtr(c.UserID),
		BranchID:       common.UUIDPtr(c.BranchID),
		Fulfillment:    string(c.Fulfillment),
		TableNumber:    common.StringPtr(c.TableNumber),
		PromotionCode:  common.StringPtr(c.PromotionCode),
		PointsToRedeem: c.PointsToRedeem,
		ExpiresAt:      c.ExpiresAt.Time,
		Currency:       st.Currency,
		Items:          make([]LineView, 0, len(items)),
	}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		v.Items = append(v.Items, lineView(it))
		lines = append(lines, Line(it))
	}

	in := pricing.QuoteInput{
		TaxBps:       st.TaxRateBps,
		RedeemRatio:  st.PointsRedeemRatio,
		Exponent:     st.CurrencyExponent,
		MaxRedeemBps: st.MaxRedeemBps,
		EarnBps:      st.PointsEarnBps,
	}
	if c.PromotionCode.Valid && len(items) > 0 && s.Promos != nil {
		promoLines, err := PromotionItems(ctx, q, c.TenantID, items)
		if err != nil {
			return View{}, err
		}
		res, err := s.Promos.Preview(ctx, c.PromotionCode.String, c.UserID, promoLines)
		if err != nil {
			code, ok := promotion.ErrorCode(err)
			if !ok {
				return View{}, err
			}
			v.PromotionError = code
		} else {
			in.PromoDiscount = res.Discount
		}
	}
	if c.UserID.Valid && s.Loyalty != nil {
		balance, lifetime, err := s.Loyalty.Balance(ctx, c.TenantID, c.UserID)
		if err != nil {
			return View{}, err
		}
		in.PointsBalance = balance
		in.PointsRequested = c.PointsToRedeem
		if in.TierMultiplierBps, err = s.Loyalty.TierMultiplier(ctx, c.TenantID, lifetime); err != nil {
			return View{}, err
		}
	}
	v.Quote = pricing.Compute(lines, in)
	return v, nil
}
