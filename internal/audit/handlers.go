package audit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// Handler exposes HTTP endpoints for working with audit logs.
type Handler struct {
	Store Store
}

// Entry is the admin view of an audit log row.
type Entry struct {
	ID           string          `json:"id"`
	ActorKind    string          `json:"actor_kind"`
	ActorUserID  *string         `json:"actor_user_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int32           `json:"status"`
	IP           *string         `json:"ip,omitempty"`
	RequestID    *string         `json:"request_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toEntry(row dbgen.AuditLog) Entry {
	e := Entry{
		ID:           common.UUIDString(row.ID),
		ActorKind:    row.ActorKind,
		ActorUserID:  common.UUIDPtr(row.ActorUserID),
		Action:       row.Action,
		ResourceType: row.ResourceType,
		ResourceID:   common.StringPtr(row.ResourceID),
		Method:       row.Method,
		Path:         row.Path,
		Status:       row.Status,
		IP:           common.StringPtr(row.Ip),
		RequestID:    common.StringPtr(row.RequestID),
		CreatedAt:    row.CreatedAt.Time,
	}
	if json.Valid(row.Metadata) {
		e.Metadata = row.Metadata
	}
	return e
}

// List handles GET /api/v1/admin/audit-logs for the current tenant.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	tid, err := repo.TenantID(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	rows, err := h.Store.ListAuditLogs(r.Context(), dbgen.ListAuditLogsParams{
		TenantID: tid,
		Limit:    int32(perPage),
		Offset:   common.Offset(page, perPage),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	total, err := h.Store.CountAuditLogs(r.Context(), tid)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to count audit logs", nil)
		return
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toEntry(row))
	}
	common.JSONList(w, entries, page, perPage, total)
}
