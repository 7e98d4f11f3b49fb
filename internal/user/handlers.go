package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes the caller's profile and admin account management.
type Handler struct {
	Service *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Service == nil || h.Service.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user service not configured", nil)
		return false
	}
	return true
}

// Profile handles GET /api/v1/me/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	profile, err := h.Service.Get(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

// UpdateProfile handles PATCH /api/v1/me/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ProfileInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	profile, err := h.Service.Update(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

// List handles GET /api/v1/admin/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	users, total, err := h.Service.List(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, users, page, perPage, total)
}

// SetRoles handles PUT /api/v1/admin/users/{id}/roles.
func (h *Handler) SetRoles(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in RolesInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	profile, err := h.Service.SetRoles(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}
