// Package checkout turns a cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/inventory"
	"github.com/noah-isme/backend-resto/internal/loyalty"
	"github.com/noah-isme/backend-resto/internal/menu"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/promotion"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// Querier is everything order placement touches inside its transaction.
type Querier interface {
	menu.Reader
	branch.Reader
	promotion.SettleQuerier
	loyalty.LedgerQuerier
	inventory.StockQuerier
	GetCartByIDForUpdate(ctx context.Context, arg dbgen.GetCartByIDParams) (dbgen.Cart, error)
	ListCartItems(ctx context.Context, arg dbgen.ListCartItemsParams) ([]dbgen.CartItem, error)
	MarkCartCheckedOut(ctx context.Context, arg dbgen.MarkCartCheckedOutParams) (int64, error)
	CreateOrder(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error)
	CreateOrderItem(ctx context.Context, arg dbgen.CreateOrderItemParams) (dbgen.OrderItem, error)
	InsertOrderStatusHistory(ctx context.Context, arg dbgen.InsertOrderStatusHistoryParams) error
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
}

// Promotions previews and settles promotion codes.
type Promotions interface {
	Preview(ctx context.Context, code string, userID pgtype.UUID, items []promotion.Item) (promotion.PreviewResult, error)
	Settle(ctx context.Context, q promotion.SettleQuerier, tenantID pgtype.UUID, code string, orderID, userID pgtype.UUID, items []promotion.Item) (int64, error)
}

// Service places orders.
type Service struct {
	Q      Querier
	Tx     repo.TxFunc[Querier]
	Promos Promotions
	Ledger loyalty.Ledger
	Events events.Emitter
	Log    zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
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

// Input is the checkout payload. Contact fields are required for guests.
type Input struct {
	CartID string `json:"cart_id" validate:"required,uuid"`
	Name   string `json:"name" validate:"max=120"`
	Phone  string `json:"phone" validate:"max=32"`
	Email  string `json:"email" validate:"omitempty,email,max=254"`
	Notes  string `json:"notes" validate:"max=500"`
}

// Receipt is returned to the customer after a successful checkout.
type Receipt struct {
	OrderID     string        `json:"order_id"`
	Code        string        `json:"code"`
	Status      string        `json:"status"`
	BranchID    string        `json:"branch_id"`
	Fulfillment string        `json:"fulfillment"`
	TableNumber *string       `json:"table_number,omitempty"`
	Currency    string        `json:"currency"`
	Quote       pricing.Quote `json:"quote"`
	PlacedAt    time.Time     `json:"placed_at"`
}

var (
	// ErrBranchClosed is returned for pickup and dine-in orders outside opening hours.
	ErrBranchClosed = errors.New("branch closed")
	// ErrPromotionChanged is returned when the settled discount differs from the quoted one.
	ErrPromotionChanged = errors.New("promotion changed")
)

func unprocessable(code, msg string, err error) error {
	return &common.AppError{Code: code, Message: msg, HTTPStatus: http.StatusUnprocessableEntity, Err: err}
}

type placed struct {
	order dbgen.Order
	lines []events.OrderLine
	email string
	name  string
	low   []events.LowStockItem
}

// Place validates and prices the cart, then writes the order, settles the
// promotion, redeems points, deducts stock and closes the cart in a single
// transaction. Events are emitted after commit.
func (s *Service) Place(ctx context.Context, in Input) (Receipt, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return Receipt{}, err
	}
	in.Name, in.Phone, in.Email = strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Email)
	if err := common.ValidateStruct(in); err != nil {
		return Receipt{}, err
	}
	cartID, err := common.ParseUUID("cart_id", in.CartID)
	if err != nil {
		return Receipt{}, err
	}
	var caller pgtype.UUID
	if raw, ok := common.UserID(ctx); ok {
		if caller, err = common.ParseUUID("user_id", raw); err != nil {
			return Receipt{}, err
		}
	}
	if !caller.Valid && (in.Name == "" || (in.Phone == "" && in.Email == "")) {
		return Receipt{}, common.BadRequest("contact", "guests must provide a name and a phone number or email", nil)
	}

	st := tenant.SettingsFrom(ctx)
	now := s.now()
	var out placed
	var quote pricing.Quote
	err = s.tx(ctx, func(q Querier) error {
		c, err := q.GetCartByIDForUpdate(ctx, dbgen.GetCartByIDParams{TenantID: tid, ID: cartID})
		if err != nil {
			return common.DBError(err, "cart not found")
		}
		if c.Status != dbgen.CartStatusActive || !c.ExpiresAt.Time.After(now) {
			return common.NotFound("cart not found")
		}
		if c.UserID.Valid && !common.UUIDEqual(c.UserID, caller) {
			return common.NotFound("cart not found")
		}
		items, err := q.ListCartItems(ctx, dbgen.ListCartItemsParams{TenantID: tid, CartID: c.ID})
		if err != nil {
			return fmt.Errorf("list cart items: %w", err)
		}
		if len(items) == 0 {
			return unprocessable("CART_EMPTY", "cart is empty", common.ErrInvalidInput)
		}
		if !c.BranchID.Valid {
			return unprocessable("BRANCH_REQUIRED", "choose a branch before checking out", common.ErrInvalidInput)
		}
		b, sched, err := branch.Load(ctx, q, tid, c.BranchID)
		if err != nil {
			return err
		}
		if !b.Active {
			return common.NotFound("branch not found")
		}
		if c.Fulfillment != dbgen.FulfillmentDelivery && !sched.IsOpenAt(now) {
			return unprocessable("BRANCH_CLOSED", b.Name+" is closed right now", ErrBranchClosed)
		}

		// Re-price every line against the current menu.
		repriced := make([]dbgen.CartItem, 0, len(items))
		for _, it := range items {
			p, err := menu.Resolve(ctx, q, tid, it.MenuItemID, it.ModifierIds)
			if err != nil {
				return err
			}
			it.Name = p.Item.Name
			it.UnitPrice = p.Item.Price
			it.ModifierTotal = p.ModifierTotal
			if it.Modifiers, err = cart.SnapshotJSON(p.Modifiers); err != nil {
				return err
			}
			repriced = append(repriced, it)
		}
		lines := make([]pricing.Line, 0, len(repriced))
		for _, it := range repriced {
			lines = append(lines, cart.Line(it))
		}

		qin := pricing.QuoteInput{
			TaxBps:       st.TaxRateBps,
			RedeemRatio:  st.PointsRedeemRatio,
			Exponent:     st.CurrencyExponent,
			MaxRedeemBps: st.MaxRedeemBps,
			EarnBps:      st.PointsEarnBps,
		}
		var promoItems []promotion.Item
		code := ""
		if c.PromotionCode.Valid && s.Promos != nil {
			code = c.PromotionCode.String
			if promoItems, err = cart.PromotionItems(ctx, q, tid, repriced); err != nil {
				return err
			}
			res, err := s.Promos.Preview(ctx, code, caller, promoItems)
			if err != nil {
				return err
			}
			qin.PromoDiscount = res.Discount
		}
		if c.UserID.Valid {
			if qin.TierMultiplierBps, err = loyalty.AccountMultiplier(ctx, q, tid, c.UserID); err != nil {
				return err
			}
		}
		redeemer := pgtype.UUID{}
		if c.UserID.Valid && c.PointsToRedeem > 0 {
			redeemer = c.UserID
			qin.PointsRequested = c.PointsToRedeem
			qin.PointsBalance = c.PointsToRedeem
		}
		quote = pricing.Compute(lines, qin)

		ord, err := q.CreateOrder(ctx, dbgen.CreateOrderParams{
			TenantID:       tid,
			Code:           common.HumanCode("R", 6),
			UserID:         caller,
			BranchID:       c.BranchID,
			CartID:         c.ID,
			Fulfillment:    c.Fulfillment,
			GuestName:      common.Text(in.Name),
			GuestPhone:     common.Text(in.Phone),
			GuestEmail:     common.Text(in.Email),
			Notes:          common.Text(in.Notes),
			TableNumber:    c.TableNumber,
			Currency:       st.Currency,
			Subtotal:       quote.Subtotal,
			PromoDiscount:  quote.PromoDiscount,
			PointsDiscount: quote.PointsDiscount,
			Tax:            quote.Tax,
			Total:          quote.Total,
			PointsRedeemed: quote.PointsRedeemed,
			PromotionCode:  c.PromotionCode,
		})
		if err != nil {
			return common.DBError(err, "order not found")
		}
		out.order = ord

		usage := make([]inventory.Usage, 0, len(repriced))
		for i, it := range repriced {
			if _, err := q.CreateOrderItem(ctx, dbgen.CreateOrderItemParams{
				TenantID:      tid,
				OrderID:       ord.ID,
				MenuItemID:    it.MenuItemID,
				Name:          it.Name,
				Qty:           it.Qty,
				UnitPrice:     it.UnitPrice,
				Modifiers:     it.Modifiers,
				ModifierTotal: it.ModifierTotal,
				LineTotal:     lines[i].Total(),
				Notes:         it.Notes,
			}); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			usage = append(usage, inventory.Usage{MenuItemID: it.MenuItemID, Qty: it.Qty})
			out.lines = append(out.lines, orderLine(it))
		}
		if err := q.InsertOrderStatusHistory(ctx, dbgen.InsertOrderStatusHistoryParams{
			TenantID:  tid,
			OrderID:   ord.ID,
			ToStatus:  string(dbgen.OrderStatusPending),
			Note:      common.Text("order placed"),
			ChangedBy: caller,
		}); err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}

		if code != "" {
			granted, err := s.Promos.Settle(ctx, q, tid, code, ord.ID, caller, promoItems)
			if err != nil {
				return err
			}
			if granted != quote.PromoDiscount {
				return &common.AppError{Code: "PROMOTION_CHANGED", Message: "promotion changed, review the cart and retry", HTTPStatus: http.StatusConflict, Err: ErrPromotionChanged}
			}
		}
		if redeemer.Valid && quote.PointsRedeemed > 0 {
			if err := s.Ledger.Redeem(ctx, q, tid, redeemer, ord.ID, quote.PointsRedeemed); err != nil {
				if errors.Is(err, loyalty.ErrInsufficientPoints) {
					return unprocessable("INSUFFICIENT_POINTS", "not enough points", err)
				}
				return err
			}
		}

		if out.low, err = inventory.DeductForOrder(ctx, q, tid, ord.ID, usage); err != nil {
			return err
		}
		n, err := q.MarkCartCheckedOut(ctx, dbgen.MarkCartCheckedOutParams{TenantID: tid, ID: c.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return &common.AppError{Code: "CONFLICT", Message: "cart was already checked out", HTTPStatus: http.StatusConflict, Err: common.ErrConflict}
		}

		out.name, out.email = in.Name, in.Email
		if caller.Valid {
			if u, err := q.GetUserByID(ctx, caller); err == nil {
				out.email = u.Email
				if out.name == "" {
					out.name = u.Name
				}
			}
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	obs.IncCounter(obs.OrdersPlacedTotal, string(out.order.Fulfillment))
	s.emit(ctx, out, quote)
	return Receipt{
		OrderID:     common.UUIDString(out.order.ID),
		Code:        out.order.Code,
		Status:      string(out.order.Status),
		BranchID:    common.UUIDString(out.order.BranchID),
		Fulfillment: string(out.order.Fulfillment),
		TableNumber: common.StringPtr(out.order.TableNumber),
		Currency:    out.order.Currency,
		Quote:       quote,
		PlacedAt:    placedAt(out.order, now),
	}, nil
}

func placedAt(o dbgen.Order, fallback time.Time) time.Time {
	if o.CreatedAt.Valid {
		return o.CreatedAt.Time
	}
	return fallback
}

func orderLine(it dbgen.CartItem) events.OrderLine {
	line := events.OrderLine{Name: it.Name, Qty: it.Qty, Notes: it.Notes}
	for _, m := range cart.Snapshots(it.Modifiers) {
		line.Modifiers = append(line.Modifiers, m.Name)
	}
	return line
}

func (s *Service) emit(ctx context.Context, p placed, quote pricing.Quote) {
	if s.Events == nil {
		return
	}
	o := p.order
	payload := events.OrderPlaced{
		OrderID:     common.UUIDString(o.ID),
		Code:        o.Code,
		BranchID:    common.UUIDString(o.BranchID),
		Fulfillment: string(o.Fulfillment),
		TableNumber: o.TableNumber.String,
		UserID:      common.UUIDString(o.UserID),
		Email:       p.email,
		Name:        p.name,
		Total:       quote.Total,
		Currency:    o.Currency,
		Items:       p.lines,
		PlacedAt:    placedAt(o, s.now()),
	}
	if _, err := s.Events.Emit(ctx, events.TopicOrderPlaced, o.ID, payload); err != nil {
		s.Log.Warn().Err(err).Str("order", o.Code).Msg("emit order placed")
	}
	if len(p.low) > 0 {
		if _, err := s.Events.Emit(ctx, events.TopicInventoryLowStock, o.ID, events.LowStock{Items: p.low}); err != nil {
			s.Log.Warn().Err(err).Str("order", o.Code).Msg("emit low stock")
		}
	}
}
