package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/notify"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// Loyalty is the part of loyalty.Service the tasks drive.
type Loyalty interface {
	AccrueOrder(ctx context.Context, tenantID, orderID pgtype.UUID) (int64, error)
	AwardTrigger(ctx context.Context, tenantID, userID pgtype.UUID, trigger dbgen.LoyaltyTrigger, source string) (int64, error)
}

// Reservations loads a booking for its reminder.
type Reservations interface {
	Reminder(ctx context.Context, id string) (events.Reservation, bool, error)
}

// Tenants resolves tenant records.
type Tenants interface {
	Lookup(ctx context.Context, ident string) (tenant.Info, error)
}

// Handlers processes the tasks on the worker.
type Handlers struct {
	Loyalty      Loyalty
	Reservations Reservations
	Tenants      Tenants
	Mail         common.EmailSender
	Log          zerolog.Logger
}

// Mux routes every task type to its handler.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeLoyaltyAccrual, h.wrap(h.accrue))
	mux.HandleFunc(TypeSignupBonus, h.wrap(h.signup))
	mux.HandleFunc(TypeReviewBonus, h.wrap(h.review))
	mux.HandleFunc(TypeReservationReminder, h.wrap(h.remind))
	return mux
}

func (h *Handlers) wrap(fn func(context.Context, Payload) error) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		p, err := decode(t)
		if err == nil {
			err = fn(tenant.With(ctx, p.TenantID), p)
		}
		result := "ok"
		if err != nil {
			result = "error"
			h.Log.Warn().Err(err).Str("task", t.Type()).Str("tenant", p.TenantID).Str("subject", p.SubjectID).Msg("task failed")
		}
		obs.IncCounter(obs.BackgroundTasksTotal, t.Type(), result)
		return err
	}
}

func ids(field string, values ...string) ([]pgtype.UUID, error) {
	out := make([]pgtype.UUID, 0, len(values))
	for _, v := range values {
		id, err := common.ParseUUID(field, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", asynq.SkipRetry, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (h *Handlers) accrue(ctx context.Context, p Payload) error {
	parsed, err := ids("id", p.TenantID, p.SubjectID)
	if err != nil {
		return err
	}
	posted, err := h.Loyalty.AccrueOrder(ctx, parsed[0], parsed[1])
	if err != nil {
		return err
	}
	h.Log.Info().Str("tenant", p.TenantID).Str("order", p.SubjectID).Int64("points", posted).Msg("order points accrued")
	return nil
}

func (h *Handlers) signup(ctx context.Context, p Payload) error {
	parsed, err := ids("id", p.TenantID, p.SubjectID)
	if err != nil {
		return err
	}
	tid, uid := parsed[0], parsed[1]
	if _, err := h.Loyalty.AwardTrigger(ctx, tid, uid, dbgen.LoyaltyTriggerSignup, "signup:"+p.SubjectID); err != nil {
		return err
	}
	if p.ReferrerID == "" {
		return nil
	}
	ref, err := ids("referrer_id", p.ReferrerID)
	if err != nil {
		return err
	}
	_, err = h.Loyalty.AwardTrigger(ctx, tid, ref[0], dbgen.LoyaltyTriggerReferral, "referral:"+p.SubjectID)
	return err
}

func (h *Handlers) review(ctx context.Context, p Payload) error {
	parsed, err := ids("id", p.TenantID, p.UserID)
	if err != nil {
		return err
	}
	_, err = h.Loyalty.AwardTrigger(ctx, parsed[0], parsed[1], dbgen.LoyaltyTriggerReview, "review:"+p.SubjectID)
	return err
}

func (h *Handlers) remind(ctx context.Context, p Payload) error {
	r, confirmed, err := h.Reservations.Reminder(ctx, p.SubjectID)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("reservation %s: %w", p.SubjectID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}
	info, err := h.Tenants.Lookup(ctx, p.TenantID)
	if err != nil {
		return err
	}
	mail, ok := notify.ReservationReminder(info, r)
	if !ok || h.Mail == nil {
		return nil
	}
	return h.Mail.Send(ctx, mail)
}
