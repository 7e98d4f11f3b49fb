package queue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// AdminHandler exposes the tenant's dead-lettered tasks and queue depth.
type AdminHandler struct {
	Store             Store
	Queue             Enqueuer
	VisibilityTimeout time.Duration
	Logger            zerolog.Logger
}

type dlqItem struct {
	DLQEntry
	Message json.RawMessage `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type replayRequest struct {
	IDs   []string `json:"ids" validate:"omitempty,max=200,dive,uuid"`
	Kind  string   `json:"kind" validate:"omitempty,max=64"`
	Limit int      `json:"limit" validate:"omitempty,min=1,max=500"`
}

type replayResult struct {
	Replayed []uuid.UUID      `json:"replayed"`
	Failed   map[string]string `json:"failed,omitempty"`
}

func (h *AdminHandler) tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue store unavailable", nil)
		return "", false
	}
	tid, ok := tenant.From(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant is required", nil)
		return "", false
	}
	return tid, true
}

// ListDLQ handles GET /api/v1/admin/queue/dlq.
func (h *AdminHandler) ListDLQ(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenant(w, r)
	if !ok {
		return
	}
	f := Filter{TenantID: tid, Kind: strings.TrimSpace(r.URL.Query().Get("kind"))}
	page, perPage := common.ParsePagination(r, 50)
	entries, err := h.Store.ListQueueDlq(r.Context(), f, perPage, int(common.Offset(page, perPage)))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	total, err := h.Store.CountQueueDlq(r.Context(), f)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	items := make([]dlqItem, 0, len(entries))
	for _, entry := range entries {
		item := dlqItem{DLQEntry: entry}
		if msg, err := decodeMessage(entry.Payload); err == nil && json.Valid(msg.Payload) {
			item.Payload = msg.Payload
		} else if json.Valid(entry.Payload) {
			item.Message = entry.Payload
		}
		items = append(items, item)
	}
	common.JSONList(w, items, page, perPage, total)
}

// ReplayDLQ handles POST /api/v1/admin/queue/dlq/replay. Entries are picked
// by id, or the newest Limit entries of Kind.
func (h *AdminHandler) ReplayDLQ(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var req replayRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if len(req.IDs) == 0 && strings.TrimSpace(req.Kind) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "ids or kind required", nil)
		return
	}
	ctx := r.Context()
	var entries []DLQEntry
	res := replayResult{Replayed: []uuid.UUID{}, Failed: map[string]string{}}
	if len(req.IDs) > 0 {
		for _, raw := range req.IDs {
			id := uuid.MustParse(raw)
			entry, err := h.Store.GetQueueDlq(ctx, tid, id)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					res.Failed[raw] = "not found"
				} else {
					res.Failed[raw] = err.Error()
				}
				continue
			}
			entries = append(entries, entry)
		}
	} else {
		limit := req.Limit
		if limit <= 0 {
			limit = 50
		}
		var err error
		entries, err = h.Store.ListQueueDlq(ctx, Filter{TenantID: tid, Kind: req.Kind}, limit, 0)
		if err != nil {
			common.WriteError(w, err)
			return
		}
	}
	for _, entry := range entries {
		if err := h.requeue(ctx, tid, entry); err != nil {
			res.Failed[entry.ID.String()] = err.Error()
			continue
		}
		res.Replayed = append(res.Replayed, entry.ID)
	}
	if len(res.Failed) == 0 {
		res.Failed = nil
	}
	h.Logger.Info().Str("tenant", tid).Int("replayed", len(res.Replayed)).Msg("dlq replay")
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// Stats handles GET /api/v1/admin/queue/stats?kind=. Ready and processing
// counts are shared by all tenants; the DLQ count is the caller's.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenant(w, r)
	if !ok {
		return
	}
	if h.Queue.R == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue redis unavailable", nil)
		return
	}
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	if !validKind(kind) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "kind is required", nil)
		return
	}
	ctx := r.Context()
	k := keys{h.Queue.Prefix}
	ready, err := h.Queue.R.ZCard(ctx, k.ready(kind)).Result()
	if err != nil {
		common.WriteError(w, err)
		return
	}
	processing, err := h.Queue.R.ZCard(ctx, k.processing(kind)).Result()
	if err != nil {
		common.WriteError(w, err)
		return
	}
	dlq, err := h.Store.CountQueueDlq(ctx, Filter{TenantID: tid, Kind: kind})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var lagMillis int64
	if oldest, err := h.Queue.R.ZRangeWithScores(ctx, k.ready(kind), 0, 0).Result(); err == nil && len(oldest) > 0 {
		if ts := time.Unix(0, int64(oldest[0].Score)); ts.Before(time.Now()) {
			lagMillis = time.Since(ts).Milliseconds()
		}
	}
	if QueueDepth != nil {
		QueueDepth.WithLabelValues(kind).Set(float64(ready))
	}
	if QueueDLQSize != nil {
		QueueDLQSize.WithLabelValues(kind).Set(float64(dlq))
	}
	visibility := h.VisibilityTimeout
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"kind":                 kind,
		"ready":                ready,
		"processing":           processing,
		"dlq":                  dlq,
		"oldest_lag_ms":        lagMillis,
		"visibility_timeout_s": visibility.Seconds(),
	}})
}

// requeue puts the message back with a fresh attempt budget and removes the
// DLQ row.
func (h *AdminHandler) requeue(ctx context.Context, tid string, entry DLQEntry) error {
	msg, err := decodeMessage(entry.Payload)
	if err != nil {
		return err
	}
	task := Task{
		Kind:           msg.Kind,
		Payload:        msg.Payload,
		IdempotencyKey: msg.Key,
		TenantID:       tid,
		MaxAttempts:    msg.MaxAttempts,
	}
	if err := h.Queue.Enqueue(ctx, task); err != nil {
		return err
	}
	return h.Store.DeleteQueueDlq(ctx, tid, entry.ID)
}
