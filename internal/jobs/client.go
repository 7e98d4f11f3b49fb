package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client turns domain events into background tasks. It is an events.Notifier
// and the reservation reminder scheduler.
type Client struct {
	Tasks    Enqueuer
	MaxRetry int
	Log      zerolog.Logger
}

// enqueue submits the task under a deterministic id so a replayed event does
// not queue it twice.
func (c *Client) enqueue(ctx context.Context, typ, queue string, p Payload, opts ...asynq.Option) error {
	if c == nil || c.Tasks == nil {
		return errors.New("jobs: client not configured")
	}
	task, err := newTask(typ, p)
	if err != nil {
		return err
	}
	retry := c.MaxRetry
	if retry <= 0 {
		retry = 8
	}
	opts = append([]asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(retry),
		asynq.TaskID(typ + ":" + p.TenantID + ":" + p.SubjectID),
	}, opts...)
	info, err := c.Tasks.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jobs: enqueue %s: %w", typ, err)
	}
	c.Log.Debug().Str("task", typ).Str("id", info.ID).Str("queue", info.Queue).Msg("task enqueued")
	return nil
}

// Notify implements events.Notifier.
func (c *Client) Notify(ctx context.Context, ev dbgen.DomainEvent) error {
	tid := common.UUIDString(ev.TenantID)
	switch ev.Topic {
	case events.TopicOrderCompleted:
		p, err := events.Decode[events.OrderStatus](ev)
		if err != nil {
			return err
		}
		if p.UserID == "" {
			return nil
		}
		return c.enqueue(ctx, TypeLoyaltyAccrual, QueueLoyalty, Payload{TenantID: tid, SubjectID: p.OrderID, UserID: p.UserID})
	case events.TopicUserSignedUp:
		p, err := events.Decode[events.UserSignedUp](ev)
		if err != nil {
			return err
		}
		return c.enqueue(ctx, TypeSignupBonus, QueueLoyalty, Payload{TenantID: tid, SubjectID: p.UserID, UserID: p.UserID, ReferrerID: p.ReferrerID})
	case events.TopicReviewCreated:
		p, err := events.Decode[events.ReviewCreated](ev)
		if err != nil {
			return err
		}
		return c.enqueue(ctx, TypeReviewBonus, QueueLoyalty, Payload{TenantID: tid, SubjectID: p.ReviewID, UserID: p.UserID})
	}
	return nil
}

// ScheduleReminder queues a reminder email for a confirmed reservation.
func (c *Client) ScheduleReminder(ctx context.Context, tenantID, reservationID string, at time.Time) error {
	return c.enqueue(ctx, TypeReservationReminder, QueueDefault,
		Payload{TenantID: tenantID, SubjectID: reservationID}, asynq.ProcessAt(at))
}
