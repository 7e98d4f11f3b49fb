package kitchen

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// Transitioner moves orders through their lifecycle.
type Transitioner interface {
	Transition(ctx context.Context, orderID pgtype.UUID, to dbgen.OrderStatus, note string) (dbgen.Order, error)
}

// Outcome is how a delivery was settled.
type Outcome int

const (
	Acked Outcome = iota
	Requeued
	DeadLettered
)

// Consumer starts cooking accepted orders. Pending tickets are for the
// station display only and are acknowledged untouched.
type Consumer struct {
	Orders Transitioner
	Log    zerolog.Logger
}

// Run consumes deliveries until ctx is cancelled or the channel closes.
func (c Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("kitchen: delivery channel closed")
			}
			c.Settle(ctx, d)
		}
	}
}

// Settle processes one delivery and acknowledges it accordingly.
func (c Consumer) Settle(ctx context.Context, d amqp.Delivery) Outcome {
	out := c.process(ctx, d)
	switch out {
	case Requeued:
		_ = d.Nack(false, true)
	case DeadLettered:
		_ = d.Nack(false, false)
	default:
		_ = d.Ack(false)
	}
	return out
}

func (c Consumer) process(ctx context.Context, d amqp.Delivery) Outcome {
	var t Ticket
	if err := json.Unmarshal(d.Body, &t); err != nil {
		c.Log.Error().Err(err).Msg("malformed kitchen ticket")
		return DeadLettered
	}
	log := c.Log.With().Str("order", t.Code).Str("status", t.Status).Logger()
	if t.Status != string(dbgen.OrderStatusAccepted) {
		log.Info().Str("fulfillment", t.Fulfillment).Int("items", len(t.Items)).Msg("kitchen ticket received")
		return Acked
	}
	id, err := common.ParseUUID("order_id", t.OrderID)
	if err != nil || t.TenantID == "" {
		log.Error().Msg("kitchen ticket without order or tenant")
		return DeadLettered
	}
	ctx = tenant.With(ctx, t.TenantID)
	_, err = c.Orders.Transition(ctx, id, dbgen.OrderStatusPreparing, "kitchen started")
	switch {
	case err == nil:
		log.Info().Msg("order moved to preparing")
		return Acked
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, common.ErrNotFound):
		// Staff already moved or cancelled the order.
		log.Info().Err(err).Msg("kitchen ticket stale")
		return Acked
	case d.Redelivered:
		log.Error().Err(err).Msg("kitchen ticket failed twice")
		return DeadLettered
	default:
		log.Warn().Err(err).Msg("kitchen ticket failed, requeueing")
		return Requeued
	}
}
