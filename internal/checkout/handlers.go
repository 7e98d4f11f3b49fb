package checkout

import (
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/promotion"
)

type Handler struct {
	Svc *Service
}

func writeError(w http.ResponseWriter, err error) {
	if code, ok := promotion.ErrorCode(err); ok {
		common.JSONError(w, http.StatusUnprocessableEntity, code, err.Error(), nil)
		return
	}
	common.WriteError(w, err)
}

// Checkout handles POST /api/v1/checkout. Replays are absorbed by the
// Idempotency-Key middleware mounted on the route.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeAndValidate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.Svc.Place(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": receipt})
}
