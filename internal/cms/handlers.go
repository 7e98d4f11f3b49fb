package cms

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cms service not configured", nil)
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

// Pages handles GET /api/v1/pages?kind=.
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.Svc.Published(r.Context(), r.URL.Query().Get("kind"))
	writeData(w, http.StatusOK, rows, err)
}

// Page handles GET /api/v1/pages/{slug}.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	p, err := h.Svc.BySlug(r.Context(), chi.URLParam(r, "slug"))
	writeData(w, http.StatusOK, p, err)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.Svc.AdminList(r.Context(), r.URL.Query().Get("kind"))
	writeData(w, http.StatusOK, rows, err)
}

func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	p, err := h.Svc.AdminGet(r.Context(), chi.URLParam(r, "id"))
	writeData(w, http.StatusOK, p, err)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in Input
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Create(r.Context(), in)
	writeData(w, http.StatusCreated, p, err)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in Input
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	writeData(w, http.StatusOK, p, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
