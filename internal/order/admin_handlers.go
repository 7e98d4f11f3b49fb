package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// AdminList handles GET /api/v1/admin/orders?status=&branch_id=&from=&to=.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q := r.URL.Query()
	f := AdminFilter{
		Status:   q.Get("status"),
		BranchID: q.Get("branch_id"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
	page, perPage := common.ParsePagination(r, 50)
	rows, total, err := h.Svc.List(r.Context(), f, page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, rows, page, perPage, total)
}

// AdminGet handles GET /api/v1/admin/orders/{id}.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	d, err := h.Svc.AdminGet(r.Context(), chi.URLParam(r, "id"))
	writeData(w, http.StatusOK, d, err)
}

// SetStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in StatusInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.Svc.SetStatus(r.Context(), chi.URLParam(r, "id"), in)
	writeData(w, http.StatusOK, d, err)
}
