package menu

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes public and admin menu endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "menu service not configured", nil)
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

// Categories handles GET /api/v1/menu/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.Svc.Categories(r.Context())
	writeData(w, http.StatusOK, rows, err)
}

// Items handles GET /api/v1/menu/items with filters, sorting and pagination.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, err := h.Svc.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.Svc.ListItems(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, result.Items, result.Page, result.Limit, result.Total)
}

// Item handles GET /api/v1/menu/items/{slug}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	detail, err := h.Svc.ItemBySlug(r.Context(), chi.URLParam(r, "slug"))
	writeData(w, http.StatusOK, detail, err)
}

// AdminCategories handles GET /api/v1/admin/menu/categories.
func (h *Handler) AdminCategories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.Svc.AdminCategories(r.Context())
	writeData(w, http.StatusOK, rows, err)
}

// CreateCategory handles POST /api/v1/admin/menu/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CategoryInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.CreateCategory(r.Context(), in)
	writeData(w, http.StatusCreated, c, err)
}

// UpdateCategory handles PUT /api/v1/admin/menu/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CategoryInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	writeData(w, http.StatusOK, c, err)
}

// DeleteCategory handles DELETE /api/v1/admin/menu/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderCategories handles PUT /api/v1/admin/menu/categories/order.
func (h *Handler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ReorderInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.ReorderCategories(r.Context(), in); err != nil {
		common.WriteError(w, err)
		return
	}
	rows, err := h.Svc.AdminCategories(r.Context())
	writeData(w, http.StatusOK, rows, err)
}

// CreateItem handles POST /api/v1/admin/menu/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ItemInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	it, err := h.Svc.CreateItem(r.Context(), in)
	writeData(w, http.StatusCreated, it, err)
}

// AdminItem handles GET /api/v1/admin/menu/items/{id}.
func (h *Handler) AdminItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	it, err := h.Svc.AdminItem(r.Context(), chi.URLParam(r, "id"))
	writeData(w, http.StatusOK, it, err)
}

// UpdateItem handles PUT /api/v1/admin/menu/items/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ItemInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	it, err := h.Svc.UpdateItem(r.Context(), chi.URLParam(r, "id"), in)
	writeData(w, http.StatusOK, it, err)
}

type availabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// SetAvailability handles PATCH /api/v1/admin/menu/items/{id}/availability.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req availabilityRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	it, err := h.Svc.SetAvailability(r.Context(), chi.URLParam(r, "id"), *req.Available)
	writeData(w, http.StatusOK, it, err)
}

// DeleteItem handles DELETE /api/v1/admin/menu/items/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateModifier handles POST /api/v1/admin/menu/items/{itemID}/modifiers.
func (h *Handler) CreateModifier(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ModifierInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	m, err := h.Svc.CreateModifier(r.Context(), chi.URLParam(r, "itemID"), in)
	writeData(w, http.StatusCreated, m, err)
}

// UpdateModifier handles PUT /api/v1/admin/menu/items/{itemID}/modifiers/{id}.
func (h *Handler) UpdateModifier(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ModifierInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	m, err := h.Svc.UpdateModifier(r.Context(), chi.URLParam(r, "itemID"), chi.URLParam(r, "id"), in)
	writeData(w, http.StatusOK, m, err)
}

// DeleteModifier handles DELETE /api/v1/admin/menu/items/{itemID}/modifiers/{id}.
func (h *Handler) DeleteModifier(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteModifier(r.Context(), chi.URLParam(r, "itemID"), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
