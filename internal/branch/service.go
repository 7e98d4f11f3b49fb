// Package branch manages restaurant locations and their opening hours.
package branch

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// Reader loads a branch and its hours. Checkout and reservations use it
// inside their own transactions.
type Reader interface {
	GetBranchByID(ctx context.Context, arg dbgen.GetBranchByIDParams) (dbgen.Branch, error)
	ListBranchHours(ctx context.Context, arg dbgen.ListBranchHoursParams) ([]dbgen.BranchHour, error)
}

// Querier is the storage surface of the branch service.
type Querier interface {
	Reader
	ListBranches(ctx context.Context, arg dbgen.ListBranchesParams) ([]dbgen.Branch, error)
	GetBranchBySlug(ctx context.Context, arg dbgen.GetBranchBySlugParams) (dbgen.Branch, error)
	CreateBranch(ctx context.Context, arg dbgen.CreateBranchParams) (dbgen.Branch, error)
	UpdateBranch(ctx context.Context, arg dbgen.UpdateBranchParams) (dbgen.Branch, error)
	SetBranchActive(ctx context.Context, arg dbgen.SetBranchActiveParams) (dbgen.Branch, error)
	DeleteBranchHours(ctx context.Context, arg dbgen.DeleteBranchHoursParams) error
	InsertBranchHour(ctx context.Context, arg dbgen.InsertBranchHourParams) error
}

// Load returns a branch with its schedule.
func Load(ctx context.Context, q Reader, tenantID, branchID pgtype.UUID) (dbgen.Branch, Schedule, error) {
	b, err := q.GetBranchByID(ctx, dbgen.GetBranchByIDParams{TenantID: tenantID, ID: branchID})
	if err != nil {
		return dbgen.Branch{}, Schedule{}, common.DBError(err, "branch not found")
	}
	rows, err := q.ListBranchHours(ctx, dbgen.ListBranchHoursParams{TenantID: tenantID, BranchID: branchID})
	if err != nil {
		return dbgen.Branch{}, Schedule{}, fmt.Errorf("list branch hours: %w", err)
	}
	return b, NewSchedule(b.TimeZone, rows), nil
}

// Service implements branch use cases.
type Service struct {
	Q   Querier
	Tx  repo.TxFunc[Querier]
	Now func() time.Time
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

// View is the public representation of a branch.
type View struct {
	ID                         string  `json:"id"`
	Slug                       string  `json:"slug"`
	Name                       string  `json:"name"`
	Address                    string  `json:"address"`
	City                       string  `json:"city"`
	Phone                      *string `json:"phone"`
	Email                      *string `json:"email"`
	TimeZone                   string  `json:"time_zone"`
	SeatingCapacity            int32   `json:"seating_capacity"`
	MaxPartySize               int32   `json:"max_party_size"`
	SlotMinutes                int32   `json:"slot_minutes"`
	ReservationDurationMinutes int32   `json:"reservation_duration_minutes"`
	Active                     bool    `json:"active"`
	Hours                      []Day   `json:"hours,omitempty"`
	OpenNow                    *bool   `json:"open_now,omitempty"`
}

func toView(b dbgen.Branch) View {
	return View{
		ID:                         common.UUIDString(b.ID),
		Slug:                       b.Slug,
		Name:                       b.Name,
		Address:                    b.Address,
		City:                       b.City,
		Phone:                      common.StringPtr(b.Phone),
		Email:                      common.StringPtr(b.Email),
		TimeZone:                   b.TimeZone,
		SeatingCapacity:            b.SeatingCapacity,
		MaxPartySize:               b.MaxPartySize,
		SlotMinutes:                b.SlotMinutes,
		ReservationDurationMinutes: b.ReservationDurationMinutes,
		Active:                     b.Active,
	}
}

func (s *Service) withHours(ctx context.Context, b dbgen.Branch) (View, error) {
	rows, err := s.Q.ListBranchHours(ctx, dbgen.ListBranchHoursParams{TenantID: b.TenantID, BranchID: b.ID})
	if err != nil {
		return View{}, fmt.Errorf("list branch hours: %w", err)
	}
	sched := NewSchedule(b.TimeZone, rows)
	v := toView(b)
	v.Hours = sched.Days()
	open := b.Active && sched.IsOpenAt(s.now())
	v.OpenNow = &open
	return v, nil
}

// List returns the tenant's branches; the public storefront passes activeOnly.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListBranches(ctx, dbgen.ListBranchesParams{TenantID: tid, ActiveOnly: activeOnly})
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(rows))
	for _, b := range rows {
		out = append(out, toView(b))
	}
	return out, nil
}

// GetBySlug returns a branch with its hours and open_now flag.
func (s *Service) GetBySlug(ctx context.Context, slug string, includeInactive bool) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	b, err := s.Q.GetBranchBySlug(ctx, dbgen.GetBranchBySlugParams{TenantID: tid, Slug: slug})
	if err != nil {
		return View{}, common.DBError(err, "branch not found")
	}
	if !b.Active && !includeInactive {
		return View{}, common.NotFound("branch not found")
	}
	return s.withHours(ctx, b)
}

// Input is the admin payload for a branch.
type Input struct {
	Slug                       string  `json:"slug" validate:"required,max=80,slug"`
	Name                       string  `json:"name" validate:"required,max=120"`
	Address                    string  `json:"address" validate:"required,max=300"`
	City                       string  `json:"city" validate:"required,max=120"`
	Phone                      *string `json:"phone" validate:"omitempty,max=32"`
	Email                      *string `json:"email" validate:"omitempty,email"`
	TimeZone                   string  `json:"time_zone" validate:"required,timezone"`
	SeatingCapacity            int32   `json:"seating_capacity" validate:"gte=1,lte=10000"`
	MaxPartySize               int32   `json:"max_party_size" validate:"gte=1,lte=1000"`
	SlotMinutes                int32   `json:"slot_minutes" validate:"gte=5,lte=240"`
	ReservationDurationMinutes int32   `json:"reservation_duration_minutes" validate:"gte=15,lte=720"`
}

func (in Input) check() error {
	if err := common.ValidateStruct(in); err != nil {
		return err
	}
	if in.MaxPartySize > in.SeatingCapacity {
		return common.BadRequest("max_party_size", "max_party_size cannot exceed seating_capacity", nil)
	}
	return nil
}

// Create inserts a branch. Duplicate slugs are a conflict.
func (s *Service) Create(ctx context.Context, in Input) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	if err := in.check(); err != nil {
		return View{}, err
	}
	b, err := s.Q.CreateBranch(ctx, dbgen.CreateBranchParams{
		TenantID:                   tid,
		Slug:                       in.Slug,
		Name:                       in.Name,
		Address:                    in.Address,
		City:                       in.City,
		Phone:                      common.TextPtr(in.Phone),
		Email:                      common.TextPtr(in.Email),
		TimeZone:                   in.TimeZone,
		SeatingCapacity:            in.SeatingCapacity,
		MaxPartySize:               in.MaxPartySize,
		SlotMinutes:                in.SlotMinutes,
		ReservationDurationMinutes: in.ReservationDurationMinutes,
	})
	if err != nil {
		return View{}, common.DBError(err, "branch not found")
	}
	return toView(b), nil
}

// Update replaces a branch's details.
func (s *Service) Update(ctx context.Context, id string, in Input) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	bid, err := common.ParseUUID("id", id)
	if err != nil {
		return View{}, err
	}
	if err := in.check(); err != nil {
		return View{}, err
	}
	b, err := s.Q.UpdateBranch(ctx, dbgen.UpdateBranchParams{
		TenantID:                   tid,
		ID:                         bid,
		Slug:                       in.Slug,
		Name:                       in.Name,
		Address:                    in.Address,
		City:                       in.City,
		Phone:                      common.TextPtr(in.Phone),
		Email:                      common.TextPtr(in.Email),
		TimeZone:                   in.TimeZone,
		SeatingCapacity:            in.SeatingCapacity,
		MaxPartySize:               in.MaxPartySize,
		SlotMinutes:                in.SlotMinutes,
		ReservationDurationMinutes: in.ReservationDurationMinutes,
	})
	if err != nil {
		return View{}, common.DBError(err, "branch not found")
	}
	return toView(b), nil
}

// SetActive activates or deactivates a branch.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	bid, err := common.ParseUUID("id", id)
	if err != nil {
		return View{}, err
	}
	b, err := s.Q.SetBranchActive(ctx, dbgen.SetBranchActiveParams{TenantID: tid, ID: bid, Active: active})
	if err != nil {
		return View{}, common.DBError(err, "branch not found")
	}
	return toView(b), nil
}

// HoursInput replaces the weekly schedule.
type HoursInput struct {
	Days []Day `json:"days" validate:"max=7,dive"`
}

// ReplaceHours swaps the branch's weekly hours in one transaction.
func (s *Service) ReplaceHours(ctx context.Context, id string, in HoursInput) (View, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return View{}, err
	}
	bid, err := common.ParseUUID("id", id)
	if err != nil {
		return View{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return View{}, err
	}
	seen := map[int]bool{}
	for _, d := range in.Days {
		if seen[d.Weekday] {
			return View{}, common.BadRequest("days", fmt.Sprintf("weekday %d listed twice", d.Weekday), nil)
		}
		seen[d.Weekday] = true
		if !d.Closed && d.OpensAt == d.ClosesAt {
			return View{}, common.BadRequest("days", fmt.Sprintf("weekday %d opens and closes at the same minute", d.Weekday), nil)
		}
	}
	var b dbgen.Branch
	err = s.tx(ctx, func(q Querier) error {
		var err error
		b, err = q.GetBranchByID(ctx, dbgen.GetBranchByIDParams{TenantID: tid, ID: bid})
		if err != nil {
			return common.DBError(err, "branch not found")
		}
		if err := q.DeleteBranchHours(ctx, dbgen.DeleteBranchHoursParams{TenantID: tid, BranchID: bid}); err != nil {
			return err
		}
		for _, d := range in.Days {
			if err := q.InsertBranchHour(ctx, dbgen.InsertBranchHourParams{
				TenantID: tid,
				BranchID: bid,
				Weekday:  int32(d.Weekday),
				OpensAt:  int32(d.OpensAt % MinutesPerDay),
				ClosesAt: int32(d.ClosesAt % MinutesPerDay),
				Closed:   d.Closed,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return s.withHours(ctx, b)
}
