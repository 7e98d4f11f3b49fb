package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler serves customer and staff order endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": v})
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, total, err := h.Svc.Mine(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, rows, page, perPage, total)
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	d, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	writeData(w, http.StatusOK, d, err)
}

// Cancel handles POST /api/v1/orders/{id}/cancel. The body is optional.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CancelInput
	if r.ContentLength > 0 {
		if err := common.DecodeAndValidate(r, &in); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	d, err := h.Svc.Cancel(r.Context(), chi.URLParam(r, "id"), in)
	writeData(w, http.StatusOK, d, err)
}

// Track handles GET /api/v1/orders/track/{code}?contact=.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	d, err := h.Svc.Track(r.Context(), chi.URLParam(r, "code"), r.URL.Query().Get("contact"))
	writeData(w, http.StatusOK, d, err)
}
