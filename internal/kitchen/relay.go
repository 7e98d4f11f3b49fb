package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/queue"
	"github.com/noah-isme/backend-resto/internal/resilience"
)

// Publisher sends a routed message to the broker.
type Publisher interface {
	Publish(ctx context.Context, key string, priority uint8, body []byte) error
}

// Relay is the queue handler that moves tickets from Redis to RabbitMQ.
// Failed publishes return an error so the queue retries them with backoff.
// While Breaker is open tickets are not sent and wait in the queue.
type Relay struct {
	Broker  Publisher
	Breaker *resilience.Breaker
	Log     zerolog.Logger
}

// Handle implements the queue worker handler.
func (r Relay) Handle(ctx context.Context, task queue.Task) error {
	var t Ticket
	if err := json.Unmarshal(task.Payload, &t); err != nil {
		// A malformed ticket will never publish; drop it.
		r.Log.Error().Err(err).Msg("discard malformed kitchen ticket")
		obs.IncCounter(obs.KitchenPublishTotal, "malformed")
		return nil
	}
	if r.Broker == nil {
		obs.IncCounter(obs.KitchenPublishTotal, "disabled")
		return nil
	}
	err := r.Breaker.Do(ctx, func(ctx context.Context) error {
		return r.Broker.Publish(ctx, t.RoutingKey(), t.Priority(), task.Payload)
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		obs.IncCounter(obs.KitchenPublishTotal, "circuit_open")
		return fmt.Errorf("kitchen: hold %s: %w", t.Code, err)
	}
	if err != nil {
		obs.IncCounter(obs.KitchenPublishTotal, "error")
		return fmt.Errorf("kitchen: publish %s: %w", t.Code, err)
	}
	obs.IncCounter(obs.KitchenPublishTotal, "ok")
	r.Log.Debug().Str("order", t.Code).Str("status", t.Status).Str("key", t.RoutingKey()).Msg("kitchen ticket published")
	return nil
}
