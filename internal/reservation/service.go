// Package reservation books tables against branch opening hours and seating
// capacity.
package reservation

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

	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

var (
	// ErrSlotFull is returned when the branch has no seats left for the slot.
	ErrSlotFull = errors.New("slot full")
	// ErrInvalidTransition is returned for status moves outside the lifecycle.
	ErrInvalidTransition = errors.New("invalid reservation transition")
)

const defaultDuration = 90 * time.Minute

// Querier is the storage surface of the reservation service.
type Querier interface {
	branch.Reader
	CreateReservation(ctx context.Context, arg dbgen.CreateReservationParams) (dbgen.Reservation, error)
	GetReservationByCode(ctx context.Context, arg dbgen.GetReservationByCodeParams) (dbgen.Reservation, error)
	GetReservationByID(ctx context.Context, arg dbgen.GetReservationByIDParams) (dbgen.Reservation, error)
	ListReservationsAdmin(ctx context.Context, arg dbgen.ListReservationsAdminParams) ([]dbgen.Reservation, error)
	CountReservationsAdmin(ctx context.Context, arg dbgen.CountReservationsAdminParams) (int64, error)
	ListActiveReservationsInRange(ctx context.Context, arg dbgen.ListActiveReservationsInRangeParams) ([]dbgen.Reservation, error)
	UpdateReservationStatus(ctx context.Context, arg dbgen.UpdateReservationStatusParams) (dbgen.Reservation, error)
	ListStaleConfirmedReservations(ctx context.Context, arg dbgen.ListStaleConfirmedReservationsParams) ([]dbgen.Reservation, error)
	LockBranchReservations(ctx context.Context, branchID pgtype.UUID) error
}

// Reminders schedules the reminder sent ahead of a confirmed booking.
type Reminders interface {
	ScheduleReminder(ctx context.Context, tenantID, reservationID string, at time.Time) error
}

// Service implements reservation use cases.
type Service struct {
	Q         Querier
	Tx        repo.TxFunc[Querier]
	Events    events.Emitter
	Reminders Reminders
	// ReminderLead is how long before the booking the reminder goes out.
	ReminderLead time.Duration
	Log          zerolog.Logger
	Now          func() time.Time
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

// View is a reservation as returned by the API. Contact details are omitted
// on public lookups.
type View struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	BranchID        string     `json:"branch_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone,omitempty"`
	Email           *string    `json:"email,omitempty"`
	PartySize       int32      `json:"party_size"`
	ReservedAt      time.Time  `json:"reserved_at"`
	DurationMinutes int32      `json:"duration_minutes"`
	Status          string     `json:"status"`
	Notes           *string    `json:"notes,omitempty"`
	CancelReason    *string    `json:"cancel_reason,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toView(r dbgen.Reservation, withContact bool) View {
	v := View{
		ID:              common.UUIDString(r.ID),
		Code:            r.Code,
		BranchID:        common.UUIDString(r.BranchID),
		Name:            r.Name,
		PartySize:       r.PartySize,
		ReservedAt:      r.ReservedAt.Time,
		DurationMinutes: r.DurationMinutes,
		Status:          string(r.Status),
		CancelReason:    common.StringPtr(r.CancelReason),
		ConfirmedAt:     common.TimePtr(r.ConfirmedAt),
		CreatedAt:       r.CreatedAt.Time,
	}
	if withContact {
		v.Phone = r.Phone
		v.Email = common.StringPtr(r.Email)
		v.Notes = common.StringPtr(r.Notes)
	}
	return v
}

func payload(r dbgen.Reservation) events.Reservation {
	return events.Reservation{
		ReservationID: common.UUIDString(r.ID),
		Code:          r.Code,
		BranchID:      common.UUIDString(r.BranchID),
		Name:          r.Name,
		Email:         r.Email.String,
		PartySize:     r.PartySize,
		StartsAt:      r.ReservedAt.Time,
		Status:        string(r.Status),
	}
}

func rejection(code, msg string, status int, err error) error {
	return &common.AppError{Code: code, Message: msg, HTTPStatus: status, Err: err}
}

// CreateInput is the booking request.
type CreateInput struct {
	BranchID   string    `json:"branch_id" validate:"required,uuid"`
	Name       string    `json:"name" validate:"required,max=120"`
	Phone      string    `json:"phone" validate:"required,max=32"`
	Email      string    `json:"email" validate:"omitempty,email"`
	PartySize  int32     `json:"party_size" validate:"required,min=1"`
	ReservedAt time.Time `json:"reserved_at" validate:"required"`
	Notes      string    `json:"notes" validate:"max=500"`
}

func duration(b dbgen.Branch) time.Duration {
	if b.ReservationDurationMinutes > 0 {
		return time.Duration(b.ReservationDurationMinutes) * time.Minute
	}
	return defaultDuration
}

func seated(rows []dbgen.Reservation, start, end time.Time) int32 {
	var sum int32
	for _, r := range rows {
		if !Active(r.Status) {
			continue
		}
		rs := r.ReservedAt.Time
		re := rs.Add(time.Duration(r.DurationMinutes) * time.Minute)
		if rs.Before(end) && re.After(start) {
			sum += r.PartySize
		}
	}
	return sum
}

// Create books a table. Capacity is checked under a per-branch advisory lock
// so concurrent bookings cannot oversell a slot.
func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	if err := common.ValidateStruct(in); err != nil {
		return View{}, err
	}
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	bid, err := common.ParseUUID("branch_id", in.BranchID)
	if err != nil {
		return View{}, err
	}
	var userID pgtype.UUID
	if raw, ok := common.UserID(ctx); ok {
		if userID, err = common.ParseUUID("user_id", raw); err != nil {
			return View{}, err
		}
	}
	start := in.ReservedAt.UTC()
	if !start.After(s.now()) {
		return View{}, rejection("TIME_IN_PAST", "reservation time must be in the future", http.StatusUnprocessableEntity, common.ErrInvalidInput)
	}

	var created dbgen.Reservation
	err = s.tx(ctx, func(q Querier) error {
		b, sched, err := branch.Load(ctx, q, tid, bid)
		if err != nil {
			return err
		}
		if !b.Active {
			return common.NotFound("branch not found")
		}
		if in.PartySize > b.MaxPartySize {
			return rejection("PARTY_SIZE_INVALID", fmt.Sprintf("party size must be between 1 and %d", b.MaxPartySize), http.StatusUnprocessableEntity, common.ErrInvalidInput)
		}
		dur := duration(b)
		if !sched.Fits(start, dur) {
			return rejection("OUTSIDE_HOURS", "the branch is not open for the whole reservation", http.StatusUnprocessableEntity, common.ErrInvalidInput)
		}
		end := start.Add(dur)
		if err := q.LockBranchReservations(ctx, bid); err != nil {
			return fmt.Errorf("lock branch reservations: %w", err)
		}
		rows, err := q.ListActiveReservationsInRange(ctx, dbgen.ListActiveReservationsInRangeParams{
			TenantID: tid, BranchID: bid, From: common.Timestamptz(start), To: common.Timestamptz(end),
		})
		if err != nil {
			return fmt.Errorf("list overlapping reservations: %w", err)
		}
		if seated(rows, start, end)+in.PartySize > b.SeatingCapacity {
			return rejection("SLOT_FULL", "no seats left for this time", http.StatusConflict, ErrSlotFull)
		}
		created, err = q.CreateReservation(ctx, dbgen.CreateReservationParams{
			TenantID:        tid,
			Code:            common.HumanCode("B", 6),
			BranchID:        bid,
			UserID:          userID,
			Name:            strings.TrimSpace(in.Name),
			Phone:           strings.TrimSpace(in.Phone),
			Email:           common.Text(in.Email),
			PartySize:       in.PartySize,
			ReservedAt:      common.Timestamptz(start),
			DurationMinutes: int32(dur / time.Minute),
			Notes:           common.Text(in.Notes),
		})
		if err != nil {
			return common.DBError(err, "branch not found")
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}
	obs.IncCounter(obs.ReservationTransitionsTotal, string(created.Status))
	s.emit(ctx, events.TopicReservationCreated, created)
	return toView(created, true), nil
}

func (s *Service) emit(ctx context.Context, topic string, r dbgen.Reservation) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, r.ID, payload(r)); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Str("reservation", r.Code).Msg("emit reservation event")
	}
}

// GetByCode returns a reservation without its contact details.
func (s *Service) GetByCode(ctx context.Context, code string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	r, err := s.Q.GetReservationByCode(ctx, dbgen.GetReservationByCodeParams{TenantID: tid, Code: strings.ToUpper(strings.TrimSpace(code))})
	if err != nil {
		return View{}, common.DBError(err, "reservation not found")
	}
	return toView(r, false), nil
}

// CancelInput proves ownership of a booking by its phone number or email.
type CancelInput struct {
	Contact string `json:"contact" validate:"required"`
	Reason  string `json:"reason" validate:"max=300"`
}

// CancelByCode lets a guest cancel their own booking.
func (s *Service) CancelByCode(ctx context.Context, code string, in CancelInput) (View, error) {
	if err := common.ValidateStruct(in); err != nil {
		return View{}, err
	}
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	r, err := s.Q.GetReservationByCode(ctx, dbgen.GetReservationByCodeParams{TenantID: tid, Code: strings.ToUpper(strings.TrimSpace(code))})
	if err != nil {
		return View{}, common.DBError(err, "reservation not found")
	}
	if !contactMatches(r, in.Contact) {
		return View{}, common.NotFound("reservation not found")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "cancelled by guest"
	}
	updated, err := s.transition(ctx, tid, r, dbgen.ReservationStatusCancelled, reason)
	if err != nil {
		return View{}, err
	}
	return toView(updated, false), nil
}

func contactMatches(r dbgen.Reservation, contact string) bool {
	contact = strings.TrimSpace(contact)
	if strings.Contains(contact, "@") {
		return r.Email.Valid && strings.EqualFold(r.Email.String, contact)
	}
	d := digits(contact)
	return d != "" && d == digits(r.Phone)
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

// Slot is one bookable start time.
type Slot struct {
	StartsAt  time.Time `json:"starts_at"`
	Free      int32     `json:"free"`
	Available bool      `json:"available"`
}

// Availability lists free seats per slot for a branch on a local date
// (YYYY-MM-DD in the branch time zone).
func (s *Service) Availability(ctx context.Context, branchID, date string) ([]Slot, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	bid, err := common.ParseUUID("branch_id", branchID)
	if err != nil {
		return nil, err
	}
	b, sched, err := branch.Load(ctx, s.Q, tid, bid)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, common.NotFound("branch not found")
	}
	day, err := time.ParseInLocation("2006-01-02", date, sched.Location)
	if err != nil {
		return nil, common.BadRequest("date", "expected YYYY-MM-DD", err)
	}
	step := time.Duration(b.SlotMinutes) * time.Minute
	if step <= 0 {
		step = 30 * time.Minute
	}
	dur := duration(b)
	starts := sched.Slots(day, step, dur)
	out := make([]Slot, 0, len(starts))
	if len(starts) == 0 {
		return out, nil
	}
	rows, err := s.Q.ListActiveReservationsInRange(ctx, dbgen.ListActiveReservationsInRangeParams{
		TenantID: tid, BranchID: bid,
		From: common.Timestamptz(starts[0]), To: common.Timestamptz(starts[len(starts)-1].Add(dur)),
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, st := range starts {
		free := b.SeatingCapacity - seated(rows, st, st.Add(dur))
		if free < 0 {
			free = 0
		}
		out = append(out, Slot{StartsAt: st, Free: free, Available: free > 0 && st.After(now)})
	}
	return out, nil
}

// AdminFilter narrows the staff reservation list. Date is YYYY-MM-DD in the
// tenant time zone.
type AdminFilter struct {
	BranchID string
	Date     string
	Status   string
}

// List returns reservations for staff ordered by time.
func (s *Service) List(ctx context.Context, f AdminFilter, page, perPage int) ([]View, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	var branchID, status, from, to any
	if f.BranchID != "" {
		id, err := common.ParseUUID("branch_id", f.BranchID)
		if err != nil {
			return nil, 0, err
		}
		branchID = id
	}
	if f.Status != "" {
		switch dbgen.ReservationStatus(f.Status) {
		case dbgen.ReservationStatusPending, dbgen.ReservationStatusConfirmed, dbgen.ReservationStatusCancelled,
			dbgen.ReservationStatusCompleted, dbgen.ReservationStatusNoShow:
			status = f.Status
		default:
			return nil, 0, common.BadRequest("status", "unknown status", nil)
		}
	}
	if f.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", f.Date, tenant.SettingsFrom(ctx).Location())
		if err != nil {
			return nil, 0, common.BadRequest("date", "expected YYYY-MM-DD", err)
		}
		from, to = common.Timestamptz(d), common.Timestamptz(d.AddDate(0, 0, 1))
	}
	total, err := s.Q.CountReservationsAdmin(ctx, dbgen.CountReservationsAdminParams{TenantID: tid, BranchID: branchID, Status: status, From: from, To: to})
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListReservationsAdmin(ctx, dbgen.ListReservationsAdminParams{
		TenantID: tid, BranchID: branchID, Status: status, From: from, To: to,
		Limit: int32(perPage), Offset: common.Offset(page, perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]View, 0, len(rows))
	for _, r := range rows {
		out = append(out, toView(r, true))
	}
	return out, total, nil
}

// ReasonInput carries an optional staff note.
type ReasonInput struct {
	Reason string `json:"reason" validate:"max=300"`
}

// SetStatus moves a reservation on behalf of staff.
func (s *Service) SetStatus(ctx context.Context, id string, to dbgen.ReservationStatus, reason string) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	rid, err := common.ParseUUID("id", id)
	if err != nil {
		return View{}, err
	}
	r, err := s.Q.GetReservationByID(ctx, dbgen.GetReservationByIDParams{TenantID: tid, ID: rid})
	if err != nil {
		return View{}, common.DBError(err, "reservation not found")
	}
	updated, err := s.transition(ctx, tid, r, to, strings.TrimSpace(reason))
	if err != nil {
		return View{}, err
	}
	return toView(updated, true), nil
}

func (s *Service) transition(ctx context.Context, tid pgtype.UUID, r dbgen.Reservation, to dbgen.ReservationStatus, reason string) (dbgen.Reservation, error) {
	if !CanTransition(r.Status, to) {
		return dbgen.Reservation{}, rejection("INVALID_STATE", fmt.Sprintf("cannot move reservation from %s to %s", r.Status, to), http.StatusConflict, ErrInvalidTransition)
	}
	var cancelReason pgtype.Text
	if to == dbgen.ReservationStatusCancelled || to == dbgen.ReservationStatusNoShow {
		cancelReason = common.Text(reason)
	}
	updated, err := s.Q.UpdateReservationStatus(ctx, dbgen.UpdateReservationStatusParams{
		TenantID: tid, ID: r.ID, Status: to, FromStatus: r.Status, CancelReason: cancelReason,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.Reservation{}, rejection("INVALID_STATE", "reservation changed concurrently, reload and retry", http.StatusConflict, ErrInvalidTransition)
	}
	if err != nil {
		return dbgen.Reservation{}, err
	}
	obs.IncCounter(obs.ReservationTransitionsTotal, string(to))
	switch to {
	case dbgen.ReservationStatusConfirmed:
		s.emit(ctx, events.TopicReservationConfirmed, updated)
		s.scheduleReminder(ctx, updated)
	case dbgen.ReservationStatusCancelled:
		s.emit(ctx, events.TopicReservationCancelled, updated)
	case dbgen.ReservationStatusNoShow:
		s.emit(ctx, events.TopicReservationNoShow, updated)
	}
	return updated, nil
}

func (s *Service) scheduleReminder(ctx context.Context, r dbgen.Reservation) {
	if s.Reminders == nil {
		return
	}
	lead := s.ReminderLead
	if lead <= 0 {
		lead = 2 * time.Hour
	}
	at := r.ReservedAt.Time.Add(-lead)
	if now := s.now(); at.Before(now) {
		at = now
	}
	if err := s.Reminders.ScheduleReminder(ctx, common.UUIDString(r.TenantID), common.UUIDString(r.ID), at); err != nil {
		s.Log.Warn().Err(err).Str("reservation", r.Code).Msg("schedule reservation reminder")
	}
}

// Reminder loads a reservation for the reminder task. It reports false when
// the booking is no longer confirmed.
func (s *Service) Reminder(ctx context.Context, id string) (events.Reservation, bool, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return events.Reservation{}, false, err
	}
	rid, err := common.ParseUUID("id", id)
	if err != nil {
		return events.Reservation{}, false, err
	}
	r, err := s.Q.GetReservationByID(ctx, dbgen.GetReservationByIDParams{TenantID: tid, ID: rid})
	if err != nil {
		return events.Reservation{}, false, common.DBError(err, "reservation not found")
	}
	return payload(r), r.Status == dbgen.ReservationStatusConfirmed, nil
}

// MarkNoShows flags confirmed bookings whose start passed more than grace ago.
func (s *Service) MarkNoShows(ctx context.Context, grace time.Duration, limit int32) (int, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.Q.ListStaleConfirmedReservations(ctx, dbgen.ListStaleConfirmedReservationsParams{
		TenantID: tid, Before: common.Timestamptz(s.now().Add(-grace)), Limit: limit,
	})
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, r := range rows {
		if _, err := s.transition(ctx, tid, r, dbgen.ReservationStatusNoShow, "not seated within grace period"); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return marked, err
		}
		marked++
	}
	return marked, nil
}
