// Package reporting serves cached admin reports over orders, reservations
// and the loyalty ledger.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// Querier defines the database access required for reports.
type Querier interface {
	SalesByDay(ctx context.Context, arg dbgen.SalesByDayParams) ([]dbgen.SalesByDayRow, error)
	TopMenuItems(ctx context.Context, arg dbgen.TopMenuItemsParams) ([]dbgen.TopMenuItemsRow, error)
	ReservationsByStatus(ctx context.Context, arg dbgen.ReservationsByStatusParams) ([]dbgen.ReservationsByStatusRow, error)
	LoyaltyTotals(ctx context.Context, arg dbgen.LoyaltyTotalsParams) (dbgen.LoyaltyTotalsRow, error)
	LoyaltyMembersByTier(ctx context.Context, tenantID pgtype.UUID) ([]dbgen.LoyaltyMembersByTierRow, error)
}

// TenantLister enumerates tenants for the nightly warm.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]dbgen.Tenant, error)
}

// Service provides cached access to report queries.
type Service struct {
	Q           Querier
	Tenants     TenantLister
	Cache       *cache.Cache
	DefaultDays int
	TopLimit    int
	Log         zerolog.Logger
	Now         func() time.Time
}

// Range is a half-open [From, To) reporting window.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) key() string {
	return r.From.UTC().Format(time.RFC3339) + "_" + r.To.UTC().Format(time.RFC3339)
}

// DayRow is one day of sales in the tenant timezone.
type DayRow struct {
	Day       string `json:"day"`
	Orders    int64  `json:"orders"`
	Revenue   int64  `json:"revenue"`
	Discounts int64  `json:"discounts"`
	AvgTicket int64  `json:"avg_ticket"`
}

// Sales is the sales-by-day report.
type Sales struct {
	Range     Range    `json:"range"`
	Days      []DayRow `json:"days"`
	Orders    int64    `json:"orders"`
	Revenue   int64    `json:"revenue"`
	AvgTicket int64    `json:"avg_ticket"`
}

// TopItem is a best seller by quantity.
type TopItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Qty        int64  `json:"qty"`
	Revenue    int64  `json:"revenue"`
}

// StatusCount groups reservations by status.
type StatusCount struct {
	Status       string `json:"status"`
	Reservations int64  `json:"reservations"`
	Covers       int64  `json:"covers"`
}

// Reservations is the reservations-by-status report.
type Reservations struct {
	Range    Range         `json:"range"`
	ByStatus []StatusCount `json:"by_status"`
	Total    int64         `json:"total"`
	Covers   int64         `json:"covers"`
}

// TierCount is the number of accounts in a tier.
type TierCount struct {
	Tier    string `json:"tier"`
	Members int64  `json:"members"`
}

// Loyalty summarises ledger movement in the window and current tier spread.
type Loyalty struct {
	Range    Range       `json:"range"`
	Issued   int64       `json:"issued"`
	Redeemed int64       `json:"redeemed"`
	Expired  int64       `json:"expired"`
	Adjusted int64       `json:"adjusted"`
	Members  []TierCount `json:"members"`
}

var errNotConfigured = errors.New("reporting service not configured")

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultRange is the trailing window ending now.
func (s *Service) DefaultRange(days int) Range {
	if days <= 0 {
		days = s.DefaultDays
	}
	if days <= 0 {
		days = 30
	}
	to := s.now().UTC().Truncate(time.Minute)
	return Range{From: to.AddDate(0, 0, -days), To: to}
}

func (s *Service) topLimit() int32 {
	if s.TopLimit > 0 {
		return int32(s.TopLimit)
	}
	return 10
}

// cached runs load once per (tenant, report, range) until the TTL lapses.
func cached[T any](ctx context.Context, s *Service, name string, rg Range, load func(pgtype.UUID) (T, error)) (T, error) {
	var zero T
	if s == nil || s.Q == nil {
		return zero, errNotConfigured
	}
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return zero, err
	}
	if !rg.From.Before(rg.To) {
		return zero, common.BadRequest("from", "from must be before to", nil)
	}
	key := cache.KeyReport(ctx, name, rg.key())
	var out T
	if ok, err := s.Cache.GetJSON(ctx, key, &out); err == nil && ok {
		return out, nil
	} else if err != nil {
		s.Log.Warn().Err(err).Str("report", name).Msg("report cache read failed")
	}
	out, err = load(tid)
	if err != nil {
		return zero, fmt.Errorf("report %s: %w", name, err)
	}
	if err := s.Cache.SetJSON(ctx, key, out); err != nil {
		s.Log.Warn().Err(err).Str("report", name).Msg("report cache write failed")
	}
	return out, nil
}

func avg(total, n int64) int64 {
	if n <= 0 {
		return 0
	}
	return total / n
}

// Sales returns revenue per day, bucketed in the tenant timezone.
func (s *Service) Sales(ctx context.Context, rg Range) (Sales, error) {
	return cached(ctx, s, "sales", rg, func(tid pgtype.UUID) (Sales, error) {
		loc := tenant.SettingsFrom(ctx).Location()
		rows, err := s.Q.SalesByDay(ctx, dbgen.SalesByDayParams{
			TenantID: tid,
			From:     common.Timestamptz(rg.From),
			To:       common.Timestamptz(rg.To),
			TimeZone: loc.String(),
		})
		if err != nil {
			return Sales{}, err
		}
		out := Sales{Range: rg, Days: make([]DayRow, 0, len(rows))}
		for _, row := range rows {
			out.Days = append(out.Days, DayRow{
				Day:       row.Day.Time.Format("2006-01-02"),
				Orders:    row.Orders,
				Revenue:   row.Revenue,
				Discounts: row.Discounts,
				AvgTicket: avg(row.Revenue, row.Orders),
			})
			out.Orders += row.Orders
			out.Revenue += row.Revenue
		}
		out.AvgTicket = avg(out.Revenue, out.Orders)
		return out, nil
	})
}

// TopItems returns best sellers within the range.
func (s *Service) TopItems(ctx context.Context, rg Range) ([]TopItem, error) {
	return cached(ctx, s, "top-items", rg, func(tid pgtype.UUID) ([]TopItem, error) {
		rows, err := s.Q.TopMenuItems(ctx, dbgen.TopMenuItemsParams{
			TenantID: tid,
			From:     common.Timestamptz(rg.From),
			To:       common.Timestamptz(rg.To),
			Limit:    s.topLimit(),
		})
		if err != nil {
			return nil, err
		}
		out := make([]TopItem, 0, len(rows))
		for _, row := range rows {
			out = append(out, TopItem{
				MenuItemID: common.UUIDString(row.MenuItemID),
				Name:       row.Name,
				Qty:        row.Qty,
				Revenue:    row.Revenue,
			})
		}
		return out, nil
	})
}

// Reservations counts bookings per status for slots inside the range.
func (s *Service) Reservations(ctx context.Context, rg Range) (Reservations, error) {
	return cached(ctx, s, "reservations", rg, func(tid pgtype.UUID) (Reservations, error) {
		rows, err := s.Q.ReservationsByStatus(ctx, dbgen.ReservationsByStatusParams{
			TenantID: tid,
			From:     common.Timestamptz(rg.From),
			To:       common.Timestamptz(rg.To),
		})
		if err != nil {
			return Reservations{}, err
		}
		out := Reservations{Range: rg, ByStatus: make([]StatusCount, 0, len(rows))}
		for _, row := range rows {
			out.ByStatus = append(out.ByStatus, StatusCount(row))
			out.Total += row.Reservations
			out.Covers += row.Covers
		}
		return out, nil
	})
}

// Loyalty reports points movement plus the current member spread.
func (s *Service) Loyalty(ctx context.Context, rg Range) (Loyalty, error) {
	return cached(ctx, s, "loyalty", rg, func(tid pgtype.UUID) (Loyalty, error) {
		totals, err := s.Q.LoyaltyTotals(ctx, dbgen.LoyaltyTotalsParams{
			TenantID: tid,
			From:     common.Timestamptz(rg.From),
			To:       common.Timestamptz(rg.To),
		})
		if err != nil {
			return Loyalty{}, err
		}
		tiers, err := s.Q.LoyaltyMembersByTier(ctx, tid)
		if err != nil {
			return Loyalty{}, err
		}
		out := Loyalty{
			Range:    rg,
			Issued:   totals.Issued,
			Redeemed: totals.Redeemed,
			Expired:  totals.Expired,
			Adjusted: totals.Adjusted,
			Members:  make([]TierCount, 0, len(tiers)),
		}
		for _, t := range tiers {
			out.Members = append(out.Members, TierCount(t))
		}
		return out, nil
	})
}

// Warm precomputes the default-range reports for every tenant so the first
// dashboard load of the day hits the cache.
func (s *Service) Warm(ctx context.Context) error {
	if s == nil || s.Tenants == nil {
		return errNotConfigured
	}
	rows, err := s.Tenants.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	rg := s.DefaultRange(0)
	var errs []error
	for _, row := range rows {
		info := tenant.InfoFromRow(row)
		tctx := tenant.WithInfo(ctx, info)
		if _, err := s.Sales(tctx, rg); err != nil {
			errs = append(errs, err)
		}
		if _, err := s.TopItems(tctx, rg); err != nil {
			errs = append(errs, err)
		}
		if _, err := s.Reservations(tctx, rg); err != nil {
			errs = append(errs, err)
		}
		if _, err := s.Loyalty(tctx, rg); err != nil {
			errs = append(errs, err)
		}
		s.Log.Debug().Str("tenant", info.Slug).Msg("reports warmed")
	}
	return errors.Join(errs...)
}
