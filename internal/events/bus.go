package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// EventStore appends to the domain_events table.
type EventStore interface {
	InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error)
}

// Notifier reacts to a persisted event: email, kitchen dispatch, live
// tracking and background tasks all hang off the bus this way.
type Notifier interface {
	Notify(ctx context.Context, event dbgen.DomainEvent) error
}

type NotifierFunc func(ctx context.Context, event dbgen.DomainEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event dbgen.DomainEvent) error {
	return f(ctx, event)
}

// Emitter is what services depend on; *Bus implements it.
type Emitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (dbgen.DomainEvent, error)
}

type Bus struct {
	Store     EventStore
	Notifiers []Notifier
}

var (
	errNoStore     = errors.New("events: store not configured")
	errNoTopic     = errors.New("events: topic is required")
	errNoAggregate = errors.New("events: aggregate id is required")
	errBadJSON     = errors.New("events: payload is not valid json")
)

// Emit stores the event under the tenant in ctx, then hands it to every
// notifier in order. The event stays stored when notifiers fail; their
// errors come back joined.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	if b == nil || b.Store == nil {
		return dbgen.DomainEvent{}, errNoStore
	}
	if topic = strings.TrimSpace(topic); topic == "" {
		return dbgen.DomainEvent{}, errNoTopic
	}
	if !aggregateID.Valid {
		return dbgen.DomainEvent{}, errNoAggregate
	}
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.DomainEvent{}, err
	}
	body, err := payloadJSON(payload)
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: %s payload: %w", topic, err)
	}

	ev, err := b.Store.InsertDomainEvent(ctx, dbgen.InsertDomainEventParams{
		TenantID:    tid,
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     body,
	})
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: store %s: %w", topic, err)
	}

	var errs []error
	for i, n := range b.Notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("events: %s notifier %d: %w", topic, i, err))
		}
	}
	return ev, errors.Join(errs...)
}

// payloadJSON accepts pre-encoded JSON ([]byte, json.RawMessage, string) or
// any value json.Marshal can handle. Empty input becomes {}.
func payloadJSON(payload any) ([]byte, error) {
	var raw []byte
	switch v := payload.(type) {
	case nil:
		return []byte("{}"), nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(strings.TrimSpace(v))
	default:
		return json.Marshal(v)
	}
	if len(raw) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errBadJSON
	}
	return append([]byte(nil), raw...), nil
}
