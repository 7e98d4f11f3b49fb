// Package order exposes placed orders to customers and staff and drives
// their status lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/inventory"
	"github.com/noah-isme/backend-resto/internal/loyalty"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// ErrInvalidTransition is returned when a status change breaks the lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// Querier is the storage surface of the order service.
type Querier interface {
	inventory.StockQuerier
	loyalty.LedgerQuerier
	GetOrderByID(ctx context.Context, arg dbgen.GetOrderByIDParams) (dbgen.Order, error)
	GetOrderByCode(ctx context.Context, arg dbgen.GetOrderByCodeParams) (dbgen.Order, error)
	ListOrderItems(ctx context.Context, arg dbgen.ListOrderItemsParams) ([]dbgen.OrderItem, error)
	ListOrderStatusHistory(ctx context.Context, arg dbgen.ListOrderStatusHistoryParams) ([]dbgen.OrderStatusHistory, error)
	ListOrdersByUser(ctx context.Context, arg dbgen.ListOrdersByUserParams) ([]dbgen.Order, error)
	CountOrdersByUser(ctx context.Context, arg dbgen.CountOrdersByUserParams) (int64, error)
	ListOrdersAdmin(ctx context.Context, arg dbgen.ListOrdersAdminParams) ([]dbgen.Order, error)
	CountOrdersAdmin(ctx context.Context, arg dbgen.CountOrdersAdminParams) (int64, error)
	UpdateOrderStatusIfAllowed(ctx context.Context, arg dbgen.UpdateOrderStatusIfAllowedParams) (dbgen.Order, error)
	InsertOrderStatusHistory(ctx context.Context, arg dbgen.InsertOrderStatusHistoryParams) error
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
}

// Tracker pushes status changes to live tracking subscribers.
type Tracker interface {
	Publish(ctx context.Context, tenantID string, update events.OrderStatus) error
}

// Service implements order use cases.
type Service struct {
	Q       Querier
	Tx      repo.TxFunc[Querier]
	Ledger  loyalty.Ledger
	Events  events.Emitter
	Tracker Tracker
	Log     zerolog.Logger
	Now     func() time.Time
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

// Line is an ordered item.
type Line struct {
	MenuItemID    string                  `json:"menu_item_id"`
	Name          string                  `json:"name"`
	Qty           int32                   `json:"qty"`
	UnitPrice     int64                   `json:"unit_price"`
	Modifiers     []cart.ModifierSnapshot `json:"modifiers"`
	ModifierTotal int64                   `json:"modifier_total"`
	LineTotal     int64                   `json:"line_total"`
	Notes         string                  `json:"notes,omitempty"`
}

// Change is one status history row.
type Change struct {
	From *string   `json:"from"`
	To   string    `json:"to"`
	Note *string   `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

// Contact holds guest details. It is only shown to the owner and staff.
type Contact struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

// Summary is an order in list responses.
type Summary struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Status      string    `json:"status"`
	BranchID    string    `json:"branch_id"`
	Fulfillment string    `json:"fulfillment"`
	Currency    string    `json:"currency"`
	Total       int64     `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// Detail is a full order.
type Detail struct {
	Summary
	UserID         *string    `json:"user_id,omitempty"`
	TableNumber    *string    `json:"table_number,omitempty"`
	Subtotal       int64      `json:"subtotal"`
	PromoDiscount  int64      `json:"promo_discount"`
	PointsDiscount int64      `json:"points_discount"`
	Tax            int64      `json:"tax"`
	PointsRedeemed int64      `json:"points_redeemed"`
	PointsEarned   int64      `json:"points_earned"`
	PromotionCode  *string    `json:"promotion_code,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	Contact        *Contact   `json:"contact,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Items          []Line     `json:"items"`
	History        []Change   `json:"history"`
}

func summary(o dbgen.Order) Summary {
	return Summary{
		ID:          common.UUIDString(o.ID),
		Code:        o.Code,
		Status:      string(o.Status),
		BranchID:    common.UUIDString(o.BranchID),
		Fulfillment: string(o.Fulfillment),
		Currency:    o.Currency,
		Total:       o.Total,
		CreatedAt:   o.CreatedAt.Time,
	}
}

func (s *Service) detail(ctx context.Context, q Querier, o dbgen.Order, withContact bool) (Detail, error) {
	items, err := q.ListOrderItems(ctx, dbgen.ListOrderItemsParams{TenantID: o.TenantID, OrderID: o.ID})
	if err != nil {
		return Detail{}, fmt.Errorf("list order items: %w", err)
	}
	history, err := q.ListOrderStatusHistory(ctx, dbgen.ListOrderStatusHistoryParams{TenantID: o.TenantID, OrderID: o.ID})
	if err != nil {
		return Detail{}, fmt.Errorf("list order history: %w", err)
	}
	d := Detail{
		Summary:        summary(o),
		TableNumber:    common.StringPtr(o.TableNumber),
		Subtotal:       o.Subtotal,
		PromoDiscount:  o.PromoDiscount,
		PointsDiscount: o.PointsDiscount,
		Tax:            o.Tax,
		PointsRedeemed: o.PointsRedeemed,
		PointsEarned:   o.PointsEarned,
		PromotionCode:  common.StringPtr(o.PromotionCode),
		Items:          make([]Line, 0, len(items)),
		History:        make([]Change, 0, len(history)),
	}
	if o.CompletedAt.Valid {
		t := o.CompletedAt.Time
		d.CompletedAt = &t
	}
	if withContact {
		d.UserID = common.UUIDPtr(o.UserID)
		d.Notes = common.StringPtr(o.Notes)
		d.Contact = &Contact{Name: common.StringPtr(o.GuestName), Phone: common.StringPtr(o.GuestPhone), Email: common.StringPtr(o.GuestEmail)}
	}
	for _, it := range items {
		d.Items = append(d.Items, Line{
			MenuItemID:    common.UUIDString(it.MenuItemID),
			Name:          it.Name,
			Qty:           it.Qty,
			UnitPrice:     it.UnitPrice,
			Modifiers:     cart.Snapshots(it.Modifiers),
			ModifierTotal: it.ModifierTotal,
			LineTotal:     it.LineTotal,
			Notes:         it.Notes,
		})
	}
	for _, h := range history {
		d.History = append(d.History, Change{
			From: common.StringPtr(h.FromStatus),
			To:   h.ToStatus,
			Note: common.StringPtr(h.Note),
			At:   h.CreatedAt.Time,
		})
	}
	return d, nil
}

func caller(ctx context.Context) (pgtype.UUID, error) {
	raw, ok := common.UserID(ctx)
	if !ok {
		return pgtype.UUID{}, common.Unauthorized()
	}
	return common.ParseUUID("user_id", raw)
}

// ownOrder loads an order placed by the caller. Other users' orders are
// reported as missing.
func (s *Service) ownOrder(ctx context.Context, id string) (dbgen.Order, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Order{}, err
	}
	uid, err := caller(ctx)
	if err != nil {
		return dbgen.Order{}, err
	}
	oid, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.Order{}, err
	}
	o, err := s.Q.GetOrderByID(ctx, dbgen.GetOrderByIDParams{TenantID: tid, ID: oid})
	if err != nil {
		return dbgen.Order{}, common.DBError(err, "order not found")
	}
	if !o.UserID.Valid || !common.UUIDEqual(o.UserID, uid) {
		return dbgen.Order{}, common.NotFound("order not found")
	}
	return o, nil
}

// Mine lists the caller's orders, newest first.
func (s *Service) Mine(ctx context.Context, page, perPage int) ([]Summary, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountOrdersByUser(ctx, dbgen.CountOrdersByUserParams{TenantID: tid, UserID: uid})
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListOrdersByUser(ctx, dbgen.ListOrdersByUserParams{TenantID: tid, UserID: uid, Limit: int32(perPage), Offset: common.Offset(page, perPage)})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Summary, 0, len(rows))
	for _, o := range rows {
		out = append(out, summary(o))
	}
	return out, total, nil
}

// Get returns one of the caller's orders.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	o, err := s.ownOrder(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, s.Q, o, true)
}

// Track finds an order by its code for anyone who knows the phone number or
// email it was placed with. Contact details are not returned.
func (s *Service) Track(ctx context.Context, code, contact string) (Detail, error) {
	o, err := s.lookup(ctx, code, contact)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, s.Q, o, false)
}

// Lookup is Track without the detail; the websocket endpoint uses it to
// authorise a subscription.
func (s *Service) Lookup(ctx context.Context, code, contact string) (Summary, error) {
	o, err := s.lookup(ctx, code, contact)
	if err != nil {
		return Summary{}, err
	}
	return summary(o), nil
}

func (s *Service) lookup(ctx context.Context, code, contact string) (dbgen.Order, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Order{}, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	contact = strings.TrimSpace(contact)
	if code == "" || contact == "" {
		return dbgen.Order{}, common.BadRequest("contact", "code and phone or email are required", nil)
	}
	o, err := s.Q.GetOrderByCode(ctx, dbgen.GetOrderByCodeParams{TenantID: tid, Code: code})
	if err != nil {
		return dbgen.Order{}, common.DBError(err, "order not found")
	}
	candidates := []string{o.GuestPhone.String, o.GuestEmail.String}
	if o.UserID.Valid {
		if u, err := s.Q.GetUserByID(ctx, o.UserID); err == nil {
			candidates = append(candidates, u.Email, u.Phone.String)
		}
	}
	for _, c := range candidates {
		if c != "" && contactMatches(c, contact) {
			return o, nil
		}
	}
	return dbgen.Order{}, common.NotFound("order not found")
}

func contactMatches(stored, given string) bool {
	if strings.Contains(stored, "@") || strings.Contains(given, "@") {
		return strings.EqualFold(strings.TrimSpace(stored), given)
	}
	return digits(stored) != "" && digits(stored) == digits(given)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CancelInput carries an optional reason.
type CancelInput struct {
	Reason string `json:"reason" validate:"max=300"`
}

// Cancel lets a customer withdraw an order the restaurant has not accepted yet.
func (s *Service) Cancel(ctx context.Context, id string, in CancelInput) (Detail, error) {
	o, err := s.ownOrder(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if o.Status != dbgen.OrderStatusPending {
		return Detail{}, invalidTransition("only pending orders can be cancelled")
	}
	note := strings.TrimSpace(in.Reason)
	if note == "" {
		note = "cancelled by customer"
	}
	updated, err := s.Transition(ctx, o.ID, dbgen.OrderStatusCancelled, note)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, s.Q, updated, true)
}

// AdminFilter narrows the staff order list. Dates are YYYY-MM-DD in the
// tenant time zone; To is inclusive.
type AdminFilter struct {
	Status   string
	BranchID string
	From     string
	To       string
}

func (f AdminFilter) params(loc *time.Location) (status, branch, from, to any, err error) {
	if f.Status != "" {
		if !Valid(dbgen.OrderStatus(f.Status)) {
			return nil, nil, nil, nil, common.BadRequest("status", "unknown status", nil)
		}
		status = f.Status
	}
	if f.BranchID != "" {
		id, err := common.ParseUUID("branch_id", f.BranchID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		branch = id
	}
	if f.From != "" {
		d, err := time.ParseInLocation("2006-01-02", f.From, loc)
		if err != nil {
			return nil, nil, nil, nil, common.BadRequest("from", "expected YYYY-MM-DD", err)
		}
		from = common.Timestamptz(d)
	}
	if f.To != "" {
		d, err := time.ParseInLocation("2006-01-02", f.To, loc)
		if err != nil {
			return nil, nil, nil, nil, common.BadRequest("to", "expected YYYY-MM-DD", err)
		}
		to = common.Timestamptz(d.AddDate(0, 0, 1))
	}
	return status, branch, from, to, nil
}

// List returns orders for staff.
func (s *Service) List(ctx context.Context, f AdminFilter, page, perPage int) ([]Summary, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	status, branch, from, to, err := f.params(tenant.SettingsFrom(ctx).Location())
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountOrdersAdmin(ctx, dbgen.CountOrdersAdminParams{TenantID: tid, Status: status, BranchID: branch, From: from, To: to})
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListOrdersAdmin(ctx, dbgen.ListOrdersAdminParams{
		TenantID: tid, Status: status, BranchID: branch, From: from, To: to,
		Limit: int32(perPage), Offset: common.Offset(page, perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Summary, 0, len(rows))
	for _, o := range rows {
		out = append(out, summary(o))
	}
	return out, total, nil
}

// AdminGet returns any order of the tenant.
func (s *Service) AdminGet(ctx context.Context, id string) (Detail, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return Detail{}, err
	}
	oid, err := common.ParseUUID("id", id)
	if err != nil {
		return Detail{}, err
	}
	o, err := s.Q.GetOrderByID(ctx, dbgen.GetOrderByIDParams{TenantID: tid, ID: oid})
	if err != nil {
		return Detail{}, common.DBError(err, "order not found")
	}
	return s.detail(ctx, s.Q, o, true)
}

// StatusInput is the staff payload for moving an order.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=accepted preparing ready completed cancelled"`
	Note   string `json:"note" validate:"max=300"`
}

// SetStatus moves an order on behalf of staff.
func (s *Service) SetStatus(ctx context.Context, id string, in StatusInput) (Detail, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Detail{}, err
	}
	oid, err := common.ParseUUID("id", id)
	if err != nil {
		return Detail{}, err
	}
	o, err := s.Transition(ctx, oid, dbgen.OrderStatus(in.Status), strings.TrimSpace(in.Note))
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, s.Q, o, true)
}

func invalidTransition(msg string) error {
	return &common.AppError{Code: "INVALID_STATE", Message: msg, HTTPStatus: http.StatusConflict, Err: ErrInvalidTransition}
}

// Transition moves an order to status to and records the change. A cancelled
// order gets its stock back and its redeemed points refunded in the same
// transaction. The update is a compare-and-set on the previous status, so a
// concurrent move makes this call fail instead of overwriting it.
func (s *Service) Transition(ctx context.Context, orderID pgtype.UUID, to dbgen.OrderStatus, note string) (dbgen.Order, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Order{}, err
	}
	var actor pgtype.UUID
	if raw, ok := common.UserID(ctx); ok {
		actor, _ = common.ParseUUID("user_id", raw)
	}
	var before, after dbgen.Order
	err = s.tx(ctx, func(q Querier) error {
		var err error
		before, err = q.GetOrderByID(ctx, dbgen.GetOrderByIDParams{TenantID: tid, ID: orderID})
		if err != nil {
			return common.DBError(err, "order not found")
		}
		if !CanTransition(before.Status, to) {
			return invalidTransition(fmt.Sprintf("cannot move order from %s to %s", before.Status, to))
		}
		after, err = q.UpdateOrderStatusIfAllowed(ctx, dbgen.UpdateOrderStatusIfAllowedParams{
			TenantID: tid, ID: orderID, Status: to, FromStatus: before.Status,
		})
		if errors.Is(err, pgx.ErrNoRows) {
			return invalidTransition("order changed concurrently, reload and retry")
		}
		if err != nil {
			return err
		}
		if err := q.InsertOrderStatusHistory(ctx, dbgen.InsertOrderStatusHistoryParams{
			TenantID:   tid,
			OrderID:    orderID,
			FromStatus: common.Text(string(before.Status)),
			ToStatus:   string(to),
			Note:       common.Text(note),
			ChangedBy:  actor,
		}); err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		if to != dbgen.OrderStatusCancelled {
			return nil
		}
		if _, err := inventory.RestockForOrder(ctx, q, tid, orderID); err != nil {
			return fmt.Errorf("restock: %w", err)
		}
		if before.UserID.Valid && before.PointsRedeemed > 0 {
			if _, _, err := s.Ledger.Adjust(ctx, q, tid, before.UserID, before.PointsRedeemed, "refund for cancelled order "+before.Code); err != nil {
				return fmt.Errorf("refund points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return dbgen.Order{}, err
	}
	obs.IncCounter(obs.OrderTransitionsTotal, string(to))
	s.announce(ctx, before, after, note)
	return after, nil
}

func (s *Service) announce(ctx context.Context, before, after dbgen.Order, note string) {
	payload := events.OrderStatus{
		OrderID:  common.UUIDString(after.ID),
		Code:     after.Code,
		BranchID: common.UUIDString(after.BranchID),
		UserID:   common.UUIDString(after.UserID),
		Email:    after.GuestEmail.String,
		From:     string(before.Status),
		To:       string(after.Status),
		Note:     note,
		At:       s.now(),
	}
	if after.UserID.Valid && payload.Email == "" {
		if u, err := s.Q.GetUserByID(ctx, after.UserID); err == nil {
			payload.Email = u.Email
		}
	}
	log := s.Log.With().Str("order", after.Code).Str("to", payload.To).Logger()
	if s.Events != nil {
		topics := []string{events.TopicOrderStatusChanged}
		switch after.Status {
		case dbgen.OrderStatusCompleted:
			topics = append(topics, events.TopicOrderCompleted)
		case dbgen.OrderStatusCancelled:
			topics = append(topics, events.TopicOrderCancelled)
		}
		for _, topic := range topics {
			if _, err := s.Events.Emit(ctx, topic, after.ID, payload); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("emit order event")
			}
		}
	}
	if s.Tracker != nil {
		tid, _ := tenant.From(ctx)
		if err := s.Tracker.Publish(ctx, tid, payload); err != nil {
			log.Warn().Err(err).Msg("publish tracking update")
		}
	}
}
