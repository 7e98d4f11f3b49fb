package scheduler

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/loyalty"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// Job names.
const (
	JobNoShowSweep  = "reservation-no-show"
	JobPointsExpiry = "loyalty-expiry"
	JobBirthdays    = "loyalty-birthdays"
	JobLowStock     = "inventory-low-stock"
	JobReportWarm   = "reporting-warm"
)

// Specs holds the cron expressions; an empty one disables its job.
type Specs struct {
	NoShowSweep  string
	PointsExpiry string
	Birthdays    string
	LowStock     string
	ReportWarm   string
	NoShowGrace  time.Duration
}

// DefaultSpecs returns the production schedule. Birthdays run hourly so every
// tenant time zone reaches its local day; credits are keyed per year.
func DefaultSpecs() Specs {
	return Specs{
		NoShowSweep:  "*/5 * * * *",
		PointsExpiry: "15 2 * * *",
		Birthdays:    "5 * * * *",
		LowStock:     "0 * * * *",
		ReportWarm:   "30 3 * * *",
		NoShowGrace:  30 * time.Minute,
	}
}

// Reservations sweeps stale bookings.
type Reservations interface {
	MarkNoShows(ctx context.Context, grace time.Duration, limit int32) (int, error)
}

// Loyalty runs the ledger maintenance.
type Loyalty interface {
	ExpirePoints(ctx context.Context, tenantID pgtype.UUID) (loyalty.ExpiryResult, error)
	RunBirthdays(ctx context.Context, tenantID pgtype.UUID) (int, error)
}

// Inventory raises the low stock alert.
type Inventory interface {
	AlertLowStock(ctx context.Context) (int, error)
}

// Reports warms the report cache.
type Reports interface {
	Warm(ctx context.Context) error
}

// Services are the job targets.
type Services struct {
	Reservations Reservations
	Loyalty      Loyalty
	Inventory    Inventory
	Reports      Reports
}

// Register adds the maintenance jobs whose service is set.
func (s *Scheduler) Register(specs Specs, svc Services) error {
	var jobs []Job
	if svc.Reservations != nil {
		grace := specs.NoShowGrace
		jobs = append(jobs, Job{Name: JobNoShowSweep, Spec: specs.NoShowSweep, Timeout: 2 * time.Minute,
			Run: s.PerTenant(func(ctx context.Context, info tenant.Info) error {
				n, err := svc.Reservations.MarkNoShows(ctx, grace, 200)
				if n > 0 {
					s.Log.Info().Str("tenant", info.Slug).Int("reservations", n).Msg("marked no-shows")
				}
				return err
			})})
	}
	if svc.Loyalty != nil {
		jobs = append(jobs,
			Job{Name: JobPointsExpiry, Spec: specs.PointsExpiry, Timeout: 15 * time.Minute,
				Run: s.PerTenant(func(ctx context.Context, info tenant.Info) error {
					res, err := svc.Loyalty.ExpirePoints(ctx, info.UUID())
					if res.Accounts > 0 {
						s.Log.Info().Str("tenant", info.Slug).Int("accounts", res.Accounts).Int64("points", res.Points).Msg("points expired")
					}
					return err
				})},
			Job{Name: JobBirthdays, Spec: specs.Birthdays, Timeout: 10 * time.Minute,
				Run: s.PerTenant(func(ctx context.Context, info tenant.Info) error {
					n, err := svc.Loyalty.RunBirthdays(ctx, info.UUID())
					if n > 0 {
						s.Log.Info().Str("tenant", info.Slug).Int("members", n).Msg("birthday points credited")
					}
					return err
				})},
		)
	}
	if svc.Inventory != nil {
		jobs = append(jobs, Job{Name: JobLowStock, Spec: specs.LowStock, Timeout: 5 * time.Minute,
			Run: s.PerTenant(func(ctx context.Context, _ tenant.Info) error {
				_, err := svc.Inventory.AlertLowStock(ctx)
				return err
			})})
	}
	if svc.Reports != nil {
		jobs = append(jobs, Job{Name: JobReportWarm, Spec: specs.ReportWarm, Timeout: 30 * time.Minute, Run: svc.Reports.Warm})
	}
	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}
