package tenant

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// SettingsStore persists tenant settings.
type SettingsStore interface {
	Querier
	UpdateTenantSettings(ctx context.Context, arg dbgen.UpdateTenantSettingsParams) (dbgen.Tenant, error)
}

// Service exposes tenant settings administration.
type Service struct {
	Q   SettingsStore
	Dir *Directory
}

// UpdateSettingsInput carries a partial update; nil fields keep their value.
type UpdateSettingsInput struct {
	Name              *string `json:"name" validate:"omitempty,min=2,max=120"`
	Currency          *string `json:"currency" validate:"omitempty,len=3,uppercase"`
	CurrencyExponent  *int    `json:"currency_exponent" validate:"omitempty,gte=0,lte=4"`
	TaxRateBps        *int64  `json:"tax_rate_bps" validate:"omitempty,gte=0,lte=10000"`
	PointsEarnBps     *int64  `json:"points_earn_bps" validate:"omitempty,gte=0,lte=10000"`
	PointsRedeemRatio *int64  `json:"points_redeem_ratio" validate:"omitempty,gte=1"`
	MaxRedeemBps      *int64  `json:"max_redeem_bps" validate:"omitempty,gte=0,lte=10000"`
	PointsTTLDays     *int    `json:"points_ttl_days" validate:"omitempty,gte=0,lte=3650"`
	TimeZone          *string `json:"time_zone" validate:"omitempty,timezone"`
}

func (s *Service) current(ctx context.Context) (Info, error) {
	info, ok := InfoFrom(ctx)
	if !ok {
		return Info{}, &common.AppError{Code: "TENANT_REQUIRED", Message: "tenant context is required", HTTPStatus: http.StatusBadRequest, Err: common.ErrInvalidInput}
	}
	return info, nil
}

// Get returns the caller's tenant, read fresh from storage.
func (s *Service) Get(ctx context.Context) (Info, error) {
	info, err := s.current(ctx)
	if err != nil {
		return Info{}, err
	}
	row, err := s.Q.GetTenantByID(ctx, info.UUID())
	if err != nil {
		return Info{}, common.DBError(err, "tenant not found")
	}
	return InfoFromRow(row), nil
}

// UpdateSettings applies in and drops the directory cache entries.
func (s *Service) UpdateSettings(ctx context.Context, in UpdateSettingsInput) (Info, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Info{}, err
	}
	cur, err := s.Get(ctx)
	if err != nil {
		return Info{}, err
	}
	next := cur
	if in.Name != nil {
		next.Name = *in.Name
	}
	st := &next.Settings
	if in.Currency != nil {
		st.Currency = *in.Currency
	}
	if in.CurrencyExponent != nil {
		st.CurrencyExponent = *in.CurrencyExponent
	}
	if in.TaxRateBps != nil {
		st.TaxRateBps = *in.TaxRateBps
	}
	if in.PointsEarnBps != nil {
		st.PointsEarnBps = *in.PointsEarnBps
	}
	if in.PointsRedeemRatio != nil {
		st.PointsRedeemRatio = *in.PointsRedeemRatio
	}
	if in.MaxRedeemBps != nil {
		st.MaxRedeemBps = *in.MaxRedeemBps
	}
	if in.PointsTTLDays != nil {
		st.PointsTTLDays = *in.PointsTTLDays
	}
	if in.TimeZone != nil {
		if _, err := time.LoadLocation(*in.TimeZone); err != nil {
			return Info{}, common.BadRequest("time_zone", "unknown time zone", err)
		}
		st.TimeZone = *in.TimeZone
	}

	row, err := s.Q.UpdateTenantSettings(ctx, dbgen.UpdateTenantSettingsParams{
		ID:                cur.UUID(),
		Name:              next.Name,
		Currency:          st.Currency,
		CurrencyExponent:  int32(st.CurrencyExponent),
		TaxRateBps:        int32(st.TaxRateBps),
		PointsEarnBps:     int32(st.PointsEarnBps),
		PointsRedeemRatio: int32(st.PointsRedeemRatio),
		MaxRedeemBps:      int32(st.MaxRedeemBps),
		PointsTtlDays:     int32(st.PointsTTLDays),
		TimeZone:          st.TimeZone,
	})
	if err != nil {
		return Info{}, common.DBError(err, "tenant not found")
	}
	updated := InfoFromRow(row)
	s.Dir.Invalidate(ctx, updated)
	return updated, nil
}

// Handler exposes tenant settings endpoints for admins.
type Handler struct {
	Svc *Service
}

// Get handles GET /api/v1/admin/tenant.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tenant service not configured", nil)
		return
	}
	info, err := h.Svc.Get(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": info})
}

// Update handles PATCH /api/v1/admin/tenant.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tenant service not configured", nil)
		return
	}
	var in UpdateSettingsInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	info, err := h.Svc.UpdateSettings(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": info})
}
