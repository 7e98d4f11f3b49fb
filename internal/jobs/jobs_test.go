package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type enqueued struct {
	task *asynq.Task
	opts []asynq.Option
}

type fakeTasks struct {
	calls []enqueued
	seen  map[string]bool
}

func (f *fakeTasks) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	info := &asynq.TaskInfo{Type: task.Type()}
	for _, o := range opts {
		switch o.Type() {
		case asynq.TaskIDOpt:
			id := o.Value().(string)
			if f.seen[id] {
				return nil, asynq.ErrTaskIDConflict
			}
			f.seen[id] = true
			info.ID = id
		case asynq.QueueOpt:
			info.Queue = o.Value().(string)
		}
	}
	f.calls = append(f.calls, enqueued{task: task, opts: opts})
	return info, nil
}

func option(t *testing.T, opts []asynq.Option, typ asynq.OptionType) any {
	t.Helper()
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value()
		}
	}
	t.Fatalf("option %v not set", typ)
	return nil
}

func domainEvent(t *testing.T, tenantID uuid.UUID, topic string, payload any) dbgen.DomainEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return dbgen.DomainEvent{
		ID:       pgtype.UUID{Bytes: uuid.New(), Valid: true},
		TenantID: pgtype.UUID{Bytes: tenantID, Valid: true},
		Topic:    topic,
		Payload:  raw,
	}
}

func TestNotifyMapsEventsToTasks(t *testing.T) {
	tasks := &fakeTasks{}
	client := &Client{Tasks: tasks}
	tid := uuid.New()
	ctx := context.Background()
	order, user, referrer, review := uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()

	require.NoError(t, client.Notify(ctx, domainEvent(t, tid, events.TopicOrderCompleted, events.OrderStatus{OrderID: order, UserID: user, To: "completed"})))
	require.NoError(t, client.Notify(ctx, domainEvent(t, tid, events.TopicOrderCompleted, events.OrderStatus{OrderID: uuid.NewString(), To: "completed"})))
	require.NoError(t, client.Notify(ctx, domainEvent(t, tid, events.TopicUserSignedUp, events.UserSignedUp{UserID: user, ReferrerID: referrer})))
	require.NoError(t, client.Notify(ctx, domainEvent(t, tid, events.TopicReviewCreated, events.ReviewCreated{ReviewID: review, UserID: user})))
	require.NoError(t, client.Notify(ctx, domainEvent(t, tid, events.TopicOrderPlaced, events.OrderPlaced{OrderID: order})))

	require.Len(t, tasks.calls, 3)
	require.Equal(t, TypeLoyaltyAccrual, tasks.calls[0].task.Type())
	require.Equal(t, TypeSignupBonus, tasks.calls[1].task.Type())
	require.Equal(t, TypeReviewBonus, tasks.calls[2].task.Type())
	require.Equal(t, QueueLoyalty, option(t, tasks.calls[0].opts, asynq.QueueOpt))

	var p Payload
	require.NoError(t, json.Unmarshal(tasks.calls[1].task.Payload(), &p))
	require.Equal(t, Payload{TenantID: tid.String(), SubjectID: user, UserID: user, ReferrerID: referrer}, p)
}

func TestNotifyIgnoresReplayedEvents(t *testing.T) {
	tasks := &fakeTasks{}
	client := &Client{Tasks: tasks}
	ev := domainEvent(t, uuid.New(), events.TopicOrderCompleted, events.OrderStatus{OrderID: uuid.NewString(), UserID: uuid.NewString()})

	require.NoError(t, client.Notify(context.Background(), ev))
	require.NoError(t, client.Notify(context.Background(), ev))
	require.Len(t, tasks.calls, 1)
}

func TestScheduleReminderProcessesAt(t *testing.T) {
	tasks := &fakeTasks{}
	client := &Client{Tasks: tasks, MaxRetry: 3}
	at := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(t, client.ScheduleReminder(context.Background(), uuid.NewString(), uuid.NewString(), at))
	require.Len(t, tasks.calls, 1)
	require.Equal(t, TypeReservationReminder, tasks.calls[0].task.Type())
	require.Equal(t, at, option(t, tasks.calls[0].opts, asynq.ProcessAtOpt))
	require.Equal(t, 3, option(t, tasks.calls[0].opts, asynq.MaxRetryOpt))
}

type award struct {
	trigger dbgen.LoyaltyTrigger
	user    string
	source  string
}

type fakeLoyalty struct {
	accrued []string
	awards  []award
	tenants []string
	err     error
}

func (f *fakeLoyalty) AccrueOrder(ctx context.Context, _, orderID pgtype.UUID) (int64, error) {
	tid, _ := tenant.From(ctx)
	f.tenants = append(f.tenants, tid)
	f.accrued = append(f.accrued, common.UUIDString(orderID))
	return 120, f.err
}

func (f *fakeLoyalty) AwardTrigger(_ context.Context, _, userID pgtype.UUID, trigger dbgen.LoyaltyTrigger, source string) (int64, error) {
	f.awards = append(f.awards, award{trigger: trigger, user: common.UUIDString(userID), source: source})
	return 50, f.err
}

type fakeReservations struct {
	r         events.Reservation
	confirmed bool
	err       error
}

func (f fakeReservations) Reminder(context.Context, string) (events.Reservation, bool, error) {
	return f.r, f.confirmed, f.err
}

type fakeTenants struct{}

func (fakeTenants) Lookup(_ context.Context, ident string) (tenant.Info, error) {
	return tenant.Info{ID: ident, Name: "Warung Sari", Settings: tenant.DefaultSettings()}, nil
}

func process(t *testing.T, h *Handlers, typ string, p Payload) error {
	t.Helper()
	task, err := newTask(typ, p)
	require.NoError(t, err)
	return h.Mux().ProcessTask(context.Background(), task)
}

func TestHandlersCreditLoyalty(t *testing.T) {
	loyalty := &fakeLoyalty{}
	h := &Handlers{Loyalty: loyalty}
	tid, order, user, ref, review := uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()

	require.NoError(t, process(t, h, TypeLoyaltyAccrual, Payload{TenantID: tid, SubjectID: order, UserID: user}))
	require.Equal(t, []string{order}, loyalty.accrued)
	require.Equal(t, []string{tid}, loyalty.tenants)

	require.NoError(t, process(t, h, TypeSignupBonus, Payload{TenantID: tid, SubjectID: user, UserID: user, ReferrerID: ref}))
	require.NoError(t, process(t, h, TypeReviewBonus, Payload{TenantID: tid, SubjectID: review, UserID: user}))
	require.Equal(t, []award{
		{trigger: dbgen.LoyaltyTriggerSignup, user: user, source: "signup:" + user},
		{trigger: dbgen.LoyaltyTriggerReferral, user: ref, source: "referral:" + user},
		{trigger: dbgen.LoyaltyTriggerReview, user: user, source: "review:" + review},
	}, loyalty.awards)
}

func TestHandlersSkipRetryOnBadPayload(t *testing.T) {
	h := &Handlers{Loyalty: &fakeLoyalty{}}
	err := h.Mux().ProcessTask(context.Background(), asynq.NewTask(TypeLoyaltyAccrual, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = process(t, h, TypeLoyaltyAccrual, Payload{TenantID: uuid.NewString(), SubjectID: "nope"})
	require.ErrorIs(t, err, asynq.SkipRetry)

	boom := errors.New("db down")
	h.Loyalty = &fakeLoyalty{err: boom}
	err = process(t, h, TypeLoyaltyAccrual, Payload{TenantID: uuid.NewString(), SubjectID: uuid.NewString()})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestReminderSendsOnlyWhenConfirmed(t *testing.T) {
	mail := &common.InMemoryEmail{}
	r := events.Reservation{Code: "RSV-1", Name: "Budi", Email: "budi@example.com", PartySize: 2, StartsAt: time.Now().Add(2 * time.Hour)}
	h := &Handlers{Reservations: fakeReservations{r: r, confirmed: true}, Tenants: fakeTenants{}, Mail: mail}
	p := Payload{TenantID: uuid.NewString(), SubjectID: uuid.NewString()}

	require.NoError(t, process(t, h, TypeReservationReminder, p))
	require.Len(t, mail.Sent(), 1)
	require.Equal(t, "budi@example.com", mail.Sent()[0].To)

	h.Reservations = fakeReservations{r: r, confirmed: false}
	require.NoError(t, process(t, h, TypeReservationReminder, p))
	require.Len(t, mail.Sent(), 1)

	h.Reservations = fakeReservations{err: common.DBError(pgx.ErrNoRows, "reservation not found")}
	require.ErrorIs(t, process(t, h, TypeReservationReminder, p), asynq.SkipRetry)
}
