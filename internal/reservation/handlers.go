package reservation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// Handler serves public and staff reservation endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reservation service not configured", nil)
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

// Create handles POST /api/v1/reservations.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CreateInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	v, err := h.Svc.Create(r.Context(), in)
	writeData(w, http.StatusCreated, v, err)
}

// Get handles GET /api/v1/reservations/{code}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	v, err := h.Svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
	writeData(w, http.StatusOK, v, err)
}

// Cancel handles POST /api/v1/reservations/{code}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CancelInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	v, err := h.Svc.CancelByCode(r.Context(), chi.URLParam(r, "code"), in)
	writeData(w, http.StatusOK, v, err)
}

// Availability handles GET /api/v1/branches/{id}/availability?date=YYYY-MM-DD.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	slots, err := h.Svc.Availability(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("date"))
	writeData(w, http.StatusOK, slots, err)
}

// AdminList handles GET /api/v1/admin/reservations?branch_id=&date=&status=.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q := r.URL.Query()
	page, perPage := common.ParsePagination(r, 50)
	rows, total, err := h.Svc.List(r.Context(), AdminFilter{BranchID: q.Get("branch_id"), Date: q.Get("date"), Status: q.Get("status")}, page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, rows, page, perPage, total)
}

// Confirm handles POST /api/v1/admin/reservations/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, dbgen.ReservationStatusConfirmed)
}

// AdminCancel handles POST /api/v1/admin/reservations/{id}/cancel.
func (h *Handler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, dbgen.ReservationStatusCancelled)
}

// Complete handles POST /api/v1/admin/reservations/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, dbgen.ReservationStatusCompleted)
}

// NoShow handles POST /api/v1/admin/reservations/{id}/no-show.
func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, dbgen.ReservationStatusNoShow)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request, to dbgen.ReservationStatus) {
	if !h.ready(w) {
		return
	}
	var in ReasonInput
	if r.ContentLength > 0 {
		if err := common.DecodeAndValidate(r, &in); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	v, err := h.Svc.SetStatus(r.Context(), chi.URLParam(r, "id"), to, in.Reason)
	writeData(w, http.StatusOK, v, err)
}
