package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/promotion"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) write(w http.ResponseWriter, status int, v View, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, err error) {
	if code, ok := promotion.ErrorCode(err); ok {
		common.JSONError(w, http.StatusUnprocessableEntity, code, err.Error(), nil)
		return
	}
	common.WriteError(w, err)
}

type ensureRequest struct {
	AnonID string `json:"anon_id"`
}

// Ensure handles POST /api/v1/carts.
func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload ensureRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
			return
		}
	}
	if payload.AnonID == "" {
		payload.AnonID = r.Header.Get("X-Anon-ID")
	}
	v, err := h.Svc.Ensure(r.Context(), payload.AnonID)
	h.write(w, http.StatusCreated, v, err)
}

// Get handles GET /api/v1/carts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	v, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.write(w, http.StatusOK, v, err)
}

// Quote handles GET /api/v1/carts/{id}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q, err := h.Svc.Quote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": q})
}

// SetContext handles PUT /api/v1/carts/{id}/context.
func (h *Handler) SetContext(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ContextInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Svc.SetContext(r.Context(), chi.URLParam(r, "id"), in)
	h.write(w, http.StatusOK, v, err)
}

// AddItem handles POST /api/v1/carts/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in AddItemInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "id"), in)
	h.write(w, http.StatusOK, v, err)
}

// UpdateItem handles PATCH /api/v1/carts/{id}/items/{itemId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		Qty *int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Qty == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty is required", nil)
		return
	}
	v, err := h.Svc.UpdateQty(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), *payload.Qty)
	h.write(w, http.StatusOK, v, err)
}

// RemoveItem handles DELETE /api/v1/carts/{id}/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	v, err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	h.write(w, http.StatusOK, v, err)
}

// ApplyPromotion handles POST /api/v1/carts/{id}/promotion.
func (h *Handler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		Code string `json:"code" validate:"required,max=40"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Svc.ApplyPromotion(r.Context(), chi.URLParam(r, "id"), payload.Code)
	h.write(w, http.StatusOK, v, err)
}

// RemovePromotion handles DELETE /api/v1/carts/{id}/promotion.
func (h *Handler) RemovePromotion(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	v, err := h.Svc.RemovePromotion(r.Context(), chi.URLParam(r, "id"))
	h.write(w, http.StatusOK, v, err)
}

// SetPoints handles PUT /api/v1/carts/{id}/points.
func (h *Handler) SetPoints(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		Points int64 `json:"points" validate:"gte=0"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Svc.SetPoints(r.Context(), chi.URLParam(r, "id"), payload.Points)
	h.write(w, http.StatusOK, v, err)
}

// Merge handles POST /api/v1/carts/merge.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		AnonID string `json:"anon_id" validate:"required,max=64"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Svc.Merge(r.Context(), payload.AnonID)
	h.write(w, http.StatusOK, v, err)
}
