package events

import (
	"encoding/json"
	"fmt"
	"time"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// OrderLine is an order item as carried in order events.
type OrderLine struct {
	Name      string   `json:"name"`
	Qty       int32    `json:"qty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// OrderPlaced is the payload of order.placed.
type OrderPlaced struct {
	OrderID     string      `json:"order_id"`
	Code        string      `json:"code"`
	BranchID    string      `json:"branch_id"`
	Fulfillment string      `json:"fulfillment"`
	TableNumber string      `json:"table_number,omitempty"`
	UserID      string      `json:"user_id,omitempty"`
	Email       string      `json:"email,omitempty"`
	Name        string      `json:"name,omitempty"`
	Total       int64       `json:"total"`
	Currency    string      `json:"currency"`
	Items       []OrderLine `json:"items"`
	PlacedAt    time.Time   `json:"placed_at"`
}

// OrderStatus is the payload of order.status_changed, order.completed and
// order.cancelled.
type OrderStatus struct {
	OrderID  string    `json:"order_id"`
	Code     string    `json:"code"`
	BranchID string    `json:"branch_id"`
	UserID   string    `json:"user_id,omitempty"`
	Email    string    `json:"email,omitempty"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Note     string    `json:"note,omitempty"`
	At       time.Time `json:"at"`
}

// LowStockItem is one ingredient under its threshold.
type LowStockItem struct {
	IngredientID string `json:"ingredient_id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	OnHand       int64  `json:"on_hand"`
	Threshold    int64  `json:"threshold"`
}

// LowStock is the payload of inventory.low_stock.
type LowStock struct {
	Items []LowStockItem `json:"items"`
}

// Reservation is the payload of reservation events.
type Reservation struct {
	ReservationID string    `json:"reservation_id"`
	Code          string    `json:"code"`
	BranchID      string    `json:"branch_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	PartySize     int32     `json:"party_size"`
	StartsAt      time.Time `json:"starts_at"`
	Status        string    `json:"status"`
}

// UserSignedUp is the payload of user.signed_up.
type UserSignedUp struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	ReferrerID string `json:"referrer_id,omitempty"`
}

// ReviewCreated is the payload of review.created.
type ReviewCreated struct {
	ReviewID   string `json:"review_id"`
	UserID     string `json:"user_id"`
	MenuItemID string `json:"menu_item_id"`
	Rating     int32  `json:"rating"`
}

// Decode unmarshals the payload of ev into T.
func Decode[T any](ev dbgen.DomainEvent) (T, error) {
	var out T
	if err := json.Unmarshal(ev.Payload, &out); err != nil {
		return out, fmt.Errorf("events: decode %s: %w", ev.Topic, err)
	}
	return out, nil
}
