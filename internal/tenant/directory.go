package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/obs"
)

// ErrUnknownTenant is returned when no tenant matches the identifier.
var ErrUnknownTenant = errors.New("unknown tenant")

// Settings are the per-tenant knobs consumed by pricing and loyalty.
type Settings struct {
	Currency          string `json:"currency"`
	CurrencyExponent  int    `json:"currency_exponent"`
	TaxRateBps        int64  `json:"tax_rate_bps"`
	PointsEarnBps     int64  `json:"points_earn_bps"`
	PointsRedeemRatio int64  `json:"points_redeem_ratio"`
	MaxRedeemBps      int64  `json:"max_redeem_bps"`
	PointsTTLDays     int    `json:"points_ttl_days"`
	TimeZone          string `json:"time_zone"`
}

// DefaultSettings mirrors the column defaults of the tenants table.
func DefaultSettings() Settings {
	return Settings{
		Currency:          "IDR",
		TaxRateBps:        1000,
		PointsEarnBps:     1,
		PointsRedeemRatio: 1,
		MaxRedeemBps:      5000,
		TimeZone:          "UTC",
	}
}

// Location returns the tenant time zone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(s.TimeZone)); err == nil && s.TimeZone != "" {
		return loc
	}
	return time.UTC
}

// Info is the resolved tenant record carried on the request context.
type Info struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Settings Settings `json:"settings"`
}

// UUID returns the tenant id as pgtype.UUID.
func (i Info) UUID() pgtype.UUID {
	parsed, err := uuid.Parse(i.ID)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// InfoFromRow maps a tenants row.
func InfoFromRow(row dbgen.Tenant) Info {
	return Info{
		ID:   common.UUIDString(row.ID),
		Slug: row.Slug,
		Name: row.Name,
		Settings: Settings{
			Currency:          row.Currency,
			CurrencyExponent:  int(row.CurrencyExponent),
			TaxRateBps:        int64(row.TaxRateBps),
			PointsEarnBps:     int64(row.PointsEarnBps),
			PointsRedeemRatio: int64(row.PointsRedeemRatio),
			MaxRedeemBps:      int64(row.MaxRedeemBps),
			PointsTTLDays:     int(row.PointsTtlDays),
			TimeZone:          row.TimeZone,
		},
	}
}

// Querier is the subset of dbgen used by the directory.
type Querier interface {
	GetTenantBySlug(ctx context.Context, slug string) (dbgen.Tenant, error)
	GetTenantByID(ctx context.Context, id pgtype.UUID) (dbgen.Tenant, error)
}

// Directory maps tenant slugs or UUIDs to tenant records with a Redis cache.
type Directory struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
}

func directoryKey(ident string) string {
	return "tenant:dir:" + strings.ToLower(ident)
}

// Lookup resolves ident, which may be a slug or a UUID.
func (d *Directory) Lookup(ctx context.Context, ident string) (Info, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return Info{}, ErrUnknownTenant
	}
	if d.R != nil {
		if raw, err := d.R.Get(ctx, directoryKey(ident)).Bytes(); err == nil {
			var info Info
			if json.Unmarshal(raw, &info) == nil && info.ID != "" {
				return info, nil
			}
		}
	}
	if d.Q == nil {
		return Info{}, errors.New("tenant: directory querier not configured")
	}
	var (
		row dbgen.Tenant
		err error
	)
	if parsed, perr := uuid.Parse(ident); perr == nil {
		row, err = d.Q.GetTenantByID(ctx, pgtype.UUID{Bytes: parsed, Valid: true})
	} else {
		row, err = d.Q.GetTenantBySlug(ctx, strings.ToLower(ident))
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Info{}, ErrUnknownTenant
		}
		return Info{}, fmt.Errorf("tenant lookup: %w", err)
	}
	info := InfoFromRow(row)
	if d.R != nil {
		if raw, err := json.Marshal(info); err == nil {
			ttl := d.TTL
			if ttl <= 0 {
				ttl = 5 * time.Minute
			}
			_ = d.R.Set(ctx, directoryKey(ident), raw, ttl).Err()
		}
	}
	return info, nil
}

// Invalidate drops cached entries for a tenant.
func (d *Directory) Invalidate(ctx context.Context, info Info) {
	if d == nil || d.R == nil {
		return
	}
	_ = d.R.Del(ctx, directoryKey(info.ID), directoryKey(info.Slug)).Err()
}

// Middleware replaces the raw identifier placed by Resolver with the resolved
// tenant record. Requests without an identifier pass through untouched.
func (d *Directory) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := From(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		info, err := d.Lookup(r.Context(), ident)
		if err != nil {
			if errors.Is(err, ErrUnknownTenant) {
				common.JSONError(w, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found", nil)
				return
			}
			common.JSONError(w, http.StatusServiceUnavailable, "TENANT_LOOKUP_FAILED", "unable to resolve tenant", nil)
			return
		}
		obs.Annotate(r.Context(), "tenant", info.Slug)
		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}
