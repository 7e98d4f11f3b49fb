package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type stubStore struct {
	lastParams dbgen.InsertDomainEventParams
	calls      int
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	s.lastParams = arg
	s.calls++
	return dbgen.DomainEvent{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		TenantID:    arg.TenantID,
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
	}, nil
}

type captureNotifier struct {
	events []dbgen.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func toUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func tenantCtx() context.Context {
	return tenant.With(context.Background(), uuid.NewString())
}

func TestEmitPersistsEventForTenant(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier, nil}}

	order := uuid.New()
	ctx := tenantCtx()
	payload := events.OrderPlaced{OrderID: order.String(), Code: "R-7K2M9Q", Fulfillment: "pickup", Total: 55000}
	ev, err := bus.Emit(ctx, events.TopicOrderPlaced, toUUID(order), payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPlaced, store.lastParams.Topic)
	require.True(t, store.lastParams.TenantID.Valid)
	require.Len(t, notifier.events, 1)
	require.Equal(t, ev.ID, notifier.events[0].ID)

	decoded, err := events.Decode[events.OrderPlaced](ev)
	require.NoError(t, err)
	require.Equal(t, "R-7K2M9Q", decoded.Code)
	require.Equal(t, int64(55000), decoded.Total)
}

func TestEmitRequiresTenantAndTopic(t *testing.T) {
	store := &stubStore{}
	bus := events.Bus{Store: store}
	id := toUUID(uuid.New())

	_, err := bus.Emit(context.Background(), events.TopicOrderPlaced, id, nil)
	require.Error(t, err)
	_, err = bus.Emit(tenantCtx(), " ", id, nil)
	require.Error(t, err)
	_, err = bus.Emit(tenantCtx(), events.TopicOrderPlaced, pgtype.UUID{}, nil)
	require.Error(t, err)
	_, err = bus.Emit(tenantCtx(), events.TopicOrderPlaced, id, "not json")
	require.Error(t, err)
	require.Zero(t, store.calls)

	ev, err := bus.Emit(tenantCtx(), events.TopicInventoryLowStock, id, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(ev.Payload))
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	errA := errors.New("mail down")
	errB := errors.New("broker down")
	var seen int
	bus := events.Bus{
		Store: &stubStore{},
		Notifiers: []events.Notifier{
			&captureNotifier{err: errA},
			events.NotifierFunc(func(context.Context, dbgen.DomainEvent) error { seen++; return nil }),
			&captureNotifier{err: errB},
		},
	}
	ev, err := bus.Emit(tenantCtx(), events.TopicOrderCompleted, toUUID(uuid.New()), events.OrderStatus{To: "completed"})
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	require.Equal(t, 1, seen)
	require.True(t, ev.ID.Valid)
	require.True(t, events.Known(ev.Topic))
}
