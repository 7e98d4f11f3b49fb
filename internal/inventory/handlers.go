package inventory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes admin inventory endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
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

// Ingredients handles GET /api/v1/admin/inventory/ingredients.
func (h *Handler) Ingredients(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.Svc.Ingredients(r.Context())
	writeData(w, http.StatusOK, rows, err)
}

// LowStock handles GET /api/v1/admin/inventory/low-stock.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.Svc.LowStock(r.Context())
	writeData(w, http.StatusOK, rows, err)
}

// CreateIngredient handles POST /api/v1/admin/inventory/ingredients.
func (h *Handler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in IngredientInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	ing, err := h.Svc.CreateIngredient(r.Context(), in)
	writeData(w, http.StatusCreated, ing, err)
}

// UpdateIngredient handles PUT /api/v1/admin/inventory/ingredients/{id}.
func (h *Handler) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in IngredientInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	ing, err := h.Svc.UpdateIngredient(r.Context(), chi.URLParam(r, "id"), in)
	writeData(w, http.StatusOK, ing, err)
}

// DeleteIngredient handles DELETE /api/v1/admin/inventory/ingredients/{id}.
func (h *Handler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteIngredient(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recipe handles GET /api/v1/admin/inventory/recipes/{menuItemId}.
func (h *Handler) Recipe(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	lines, err := h.Svc.Recipe(r.Context(), chi.URLParam(r, "menuItemId"))
	writeData(w, http.StatusOK, lines, err)
}

// ReplaceRecipe handles PUT /api/v1/admin/inventory/recipes/{menuItemId}.
func (h *Handler) ReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in RecipeInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	lines, err := h.Svc.ReplaceRecipe(r.Context(), chi.URLParam(r, "menuItemId"), in)
	writeData(w, http.StatusOK, lines, err)
}

// RecordMovement handles POST /api/v1/admin/inventory/movements.
func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in MovementInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	ing, err := h.Svc.RecordMovement(r.Context(), in)
	writeData(w, http.StatusCreated, ing, err)
}

// Movements handles GET /api/v1/admin/inventory/movements.
func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	rows, total, err := h.Svc.Movements(r.Context(), r.URL.Query().Get("ingredient_id"), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONList(w, rows, page, perPage, total)
}
