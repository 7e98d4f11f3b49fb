// Package kitchen links the order flow to kitchen display stations through
// RabbitMQ. The API enqueues tickets on the Redis task queue, the worker
// relays them to the broker, and a consumer reports cooking progress back.
package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/queue"
)

const (
	// Exchange is the topic exchange tickets are published on.
	Exchange = "orders_topic"
	// Queue is the durable queue kitchen stations and the worker consume.
	Queue = "kitchen.q"
	// DeadLetterExchange receives tickets that could not be processed.
	DeadLetterExchange = "dlx"
	// DeadLetterQueue holds dead-lettered tickets.
	DeadLetterQueue = "kitchen.dlq"
	// TaskKind is the Redis queue kind for pending broker publishes.
	TaskKind = "kitchen-dispatch"
)

// Ticket is the message a kitchen station receives.
type Ticket struct {
	TenantID    string             `json:"tenant_id"`
	OrderID     string             `json:"order_id"`
	Code        string             `json:"code"`
	BranchID    string             `json:"branch_id"`
	Fulfillment string             `json:"fulfillment,omitempty"`
	TableNumber string             `json:"table_number,omitempty"`
	Status      string             `json:"status"`
	Items       []events.OrderLine `json:"items,omitempty"`
	Note        string             `json:"note,omitempty"`
	At          time.Time          `json:"at"`
}

// RoutingKey is kitchen.<branch>.<fulfillment>. Status tickets carry no
// fulfillment and route as kitchen.<branch>.status.
func (t Ticket) RoutingKey() string {
	kind := t.Fulfillment
	if kind == "" {
		kind = "status"
	}
	return fmt.Sprintf("kitchen.%s.%s", t.BranchID, kind)
}

// Priority ranks dine-in tickets first, then pickup, then delivery.
func (t Ticket) Priority() uint8 {
	switch dbgen.Fulfillment(t.Fulfillment) {
	case dbgen.FulfillmentDineIn:
		return 9
	case dbgen.FulfillmentPickup:
		return 5
	default:
		return 1
	}
}

// FromEvent builds a ticket for events the kitchen cares about: every placed
// order and every order the front of house accepts. Other events yield false.
func FromEvent(ev dbgen.DomainEvent) (Ticket, bool, error) {
	tid := common.UUIDString(ev.TenantID)
	switch ev.Topic {
	case events.TopicOrderPlaced:
		p, err := events.Decode[events.OrderPlaced](ev)
		if err != nil {
			return Ticket{}, false, err
		}
		return Ticket{
			TenantID:    tid,
			OrderID:     p.OrderID,
			Code:        p.Code,
			BranchID:    p.BranchID,
			Fulfillment: p.Fulfillment,
			TableNumber: p.TableNumber,
			Status:      string(dbgen.OrderStatusPending),
			Items:       p.Items,
			At:          p.PlacedAt,
		}, true, nil
	case events.TopicOrderStatusChanged:
		p, err := events.Decode[events.OrderStatus](ev)
		if err != nil {
			return Ticket{}, false, err
		}
		if p.To != string(dbgen.OrderStatusAccepted) {
			return Ticket{}, false, nil
		}
		return Ticket{
			TenantID: tid,
			OrderID:  p.OrderID,
			Code:     p.Code,
			BranchID: p.BranchID,
			Status:   p.To,
			Note:     p.Note,
			At:       p.At,
		}, true, nil
	}
	return Ticket{}, false, nil
}

// Enqueuer is the Redis queue producer.
type Enqueuer interface {
	Enqueue(ctx context.Context, t queue.Task) error
}

// Dispatcher is an events.Notifier that queues kitchen tickets.
type Dispatcher struct {
	Queue       Enqueuer
	MaxAttempts int
}

// Notify implements events.Notifier.
func (d Dispatcher) Notify(ctx context.Context, ev dbgen.DomainEvent) error {
	if d.Queue == nil {
		return nil
	}
	t, ok, err := FromEvent(ev)
	if err != nil || !ok {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = 8
	}
	return d.Queue.Enqueue(ctx, queue.Task{
		Kind:           TaskKind,
		Payload:        raw,
		IdempotencyKey: common.UUIDString(ev.ID),
		MaxAttempts:    attempts,
	})
}
