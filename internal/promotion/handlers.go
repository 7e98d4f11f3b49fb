package promotion

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes administrative promotion management endpoints.
type Handler struct {
	Svc *Service
}

type previewRequest struct {
	Code   string               `json:"code" validate:"required"`
	UserID string               `json:"user_id" validate:"omitempty,uuid"`
	Items  []previewRequestItem `json:"items" validate:"required,min=1,dive"`
}

type previewRequestItem struct {
	MenuItemID string `json:"menu_item_id" validate:"omitempty,uuid"`
	CategoryID string `json:"category_id" validate:"omitempty,uuid"`
	Subtotal   int64  `json:"subtotal" validate:"gte=0"`
}

// ErrorCode maps promotion errors onto stable API codes.
func ErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrMinimumSpendUnmet):
		return "PROMO_MIN_SPEND", true
	case errors.Is(err, ErrExpired):
		return "PROMO_EXPIRED", true
	case errors.Is(err, ErrInactive):
		return "PROMO_INACTIVE", true
	case errors.Is(err, ErrUsageLimitReached):
		return "PROMO_USAGE_LIMIT", true
	case errors.Is(err, ErrPerUserLimitReached):
		return "PROMO_PER_USER_LIMIT", true
	case errors.Is(err, ErrNotEligible):
		return "PROMO_NOT_ELIGIBLE", true
	}
	return "", false
}

func writeError(w http.ResponseWriter, err error) {
	if code, ok := ErrorCode(err); ok {
		common.JSONError(w, http.StatusUnprocessableEntity, code, err.Error(), nil)
		return
	}
	common.WriteError(w, err)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promotion service not configured", nil)
		return false
	}
	return true
}

// Create inserts a new promotion.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in Input
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	promo, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": promo})
}

// Update replaces a promotion identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in Input
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	promo, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promo})
}

// Get returns one promotion.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	promo, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promo})
}

// Deactivate switches a promotion off.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	promo, err := h.Svc.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promo})
}

// List pages through promotions; ?active=true|false filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var active *bool
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, common.BadRequest("active", "active must be a boolean", err))
			return
		}
		active = &v
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, total, err := h.Svc.List(r.Context(), active, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONList(w, rows, page, perPage, total)
}

// Preview returns the simulated discount for a promotion without persisting state.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req previewRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var userID pgtype.UUID
	if req.UserID != "" {
		userID = common.ToUUID(uuid.MustParse(req.UserID))
	}
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		item := Item{Subtotal: it.Subtotal}
		if it.MenuItemID != "" {
			id := uuid.MustParse(it.MenuItemID)
			item.MenuItemID = &id
		}
		if it.CategoryID != "" {
			id := uuid.MustParse(it.CategoryID)
			item.CategoryID = &id
		}
		items = append(items, item)
	}
	result, err := h.Svc.Preview(r.Context(), req.Code, userID, items)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
