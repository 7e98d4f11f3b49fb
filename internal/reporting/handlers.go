package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes the admin report endpoints.
type Handler struct {
	Svc *Service
}

// ParseRange reads from/to (RFC3339) or days from the query string.
func (s *Service) ParseRange(r *http.Request) (Range, error) {
	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr == "" && toStr == "" {
		days := common.QueryInt(r, "days", 0)
		if q.Get("days") != "" && days <= 0 {
			return Range{}, common.BadRequest("days", "days must be positive", nil)
		}
		return s.DefaultRange(days), nil
	}
	if fromStr == "" || toStr == "" {
		return Range{}, common.BadRequest("from", "from and to must be given together", nil)
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return Range{}, common.BadRequest("from", "invalid from date", err)
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return Range{}, common.BadRequest("to", "invalid to date", err)
	}
	if !from.Before(to) {
		return Range{}, common.BadRequest("from", "from must be before to", nil)
	}
	return Range{From: from, To: to}, nil
}

func serve[T any](h *Handler, w http.ResponseWriter, r *http.Request, run func(*Service, context.Context, Range) (T, error)) {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTING_NOT_CONFIGURED", "reporting service not configured", nil)
		return
	}
	rg, err := h.Svc.ParseRange(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := run(h.Svc, r.Context(), rg)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Sales handles GET /api/v1/admin/reports/sales.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, (*Service).Sales)
}

// TopItems handles GET /api/v1/admin/reports/top-items.
func (h *Handler) TopItems(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, (*Service).TopItems)
}

// Reservations handles GET /api/v1/admin/reports/reservations.
func (h *Handler) Reservations(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, (*Service).Reservations)
}

// Loyalty handles GET /api/v1/admin/reports/loyalty.
func (h *Handler) Loyalty(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, (*Service).Loyalty)
}
