package loyalty

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler serves customer and admin loyalty endpoints.
type Handler struct {
	Svc *Service
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInsufficientPoints) {
		common.JSONError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_POINTS", "not enough points", nil)
		return
	}
	common.WriteError(w, err)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "loyalty service not configured", nil)
		return false
	}
	return true
}

// Me handles GET /api/v1/loyalty/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sum, err := h.Svc.Me(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sum})
}

// MyTransactions handles GET /api/v1/loyalty/me/transactions.
func (h *Handler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	uid, err := callerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, total, err := h.Svc.Transactions(r.Context(), uid, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONList(w, rows, page, perPage, total)
}

// Tiers handles GET /api/v1/loyalty/tiers.
func (h *Handler) Tiers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	tiers, err := h.Svc.Tiers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tiers})
}

type lookupRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// Lookup handles POST /api/v1/loyalty/lookup.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req lookupRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Svc.Lookup(r.Context(), req.Email, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// Account handles GET /api/v1/admin/loyalty/accounts/{userID}.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sum, err := h.Svc.AccountForUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sum})
}

// AccountTransactions handles GET /api/v1/admin/loyalty/accounts/{userID}/transactions.
func (h *Handler) AccountTransactions(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	uid, err := common.ParseUUID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, total, err := h.Svc.Transactions(r.Context(), uid, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONList(w, rows, page, perPage, total)
}

// Adjust handles POST /api/v1/admin/loyalty/adjustments.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in AdjustInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	txn, err := h.Svc.Adjust(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": txn})
}

// CreateTier handles POST /api/v1/admin/loyalty/tiers.
func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in TierInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	tier, err := h.Svc.CreateTier(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": tier})
}

// UpdateTier handles PUT /api/v1/admin/loyalty/tiers/{id}.
func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in TierInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	tier, err := h.Svc.UpdateTier(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tier})
}

// DeleteTier handles DELETE /api/v1/admin/loyalty/tiers/{id}.
func (h *Handler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteTier(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rules handles GET /api/v1/admin/loyalty/rules.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rules, err := h.Svc.Rules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rules})
}

// CreateRule handles POST /api/v1/admin/loyalty/rules.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in RuleInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	rule, err := h.Svc.CreateRule(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rule})
}

// UpdateRule handles PUT /api/v1/admin/loyalty/rules/{id}.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in RuleInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	rule, err := h.Svc.UpdateRule(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rule})
}

// DeleteRule handles DELETE /api/v1/admin/loyalty/rules/{id}.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.DeleteRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
