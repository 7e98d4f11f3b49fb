package audit

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindSystem    ActorKind = "system"
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor is who performed a mutation. UserID is empty for system and
// anonymous actors.
type Actor struct {
	Kind   ActorKind
	UserID string
}

// Store is the slice of dbgen.Queries the package needs.
type Store interface {
	InsertAuditLog(ctx context.Context, arg dbgen.InsertAuditLogParams) (dbgen.AuditLog, error)
	ListAuditLogs(ctx context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AuditLog, error)
	CountAuditLogs(ctx context.Context, tenantID pgtype.UUID) (int64, error)
}

// Mutation is one audited admin write.
type Mutation struct {
	Actor      Actor
	Action     string // e.g. "orders.status", "menu.items.delete"
	Resource   string // e.g. "orders"
	ResourceID string
	Method     string
	Path       string
	Route      string
	Status     int
	IP         string
	UserAgent  string
	RequestID  string
	Query      string
}

// Service writes mutations to audit_logs under the tenant on ctx.
// SamplingRate below 1 drops that share of successful mutations; rejected
// ones (status >= 400) are always kept.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
}

var errNoStore = errors.New("audit: store not configured")

func (s Service) Record(ctx context.Context, m Mutation) error {
	if !s.Enabled {
		return nil
	}
	if m.Status < http.StatusBadRequest && s.SamplingRate > 0 && s.SamplingRate < 1 && rand.Float64() >= s.SamplingRate {
		return nil
	}
	if s.Store == nil {
		return errNoStore
	}
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	kind := m.Actor.Kind
	if kind != ActorKindUser && kind != ActorKindSystem {
		kind = ActorKindAnonymous
	}
	var actorID pgtype.UUID
	if m.Actor.UserID != "" {
		// A malformed subject is stored as NULL rather than failing the audit.
		actorID, _ = common.ParseUUID("actor", m.Actor.UserID)
	}
	var meta []byte
	if m.Query != "" {
		meta, _ = json.Marshal(map[string]string{"query": m.Query})
	}
	_, err = s.Store.InsertAuditLog(ctx, dbgen.InsertAuditLogParams{
		TenantID:     tid,
		ActorKind:    string(kind),
		ActorUserID:  actorID,
		Action:       m.Action,
		ResourceType: m.Resource,
		ResourceID:   optText(m.ResourceID),
		Method:       m.Method,
		Path:         m.Path,
		Route:        optText(m.Route),
		Status:       int32(m.Status),
		Ip:           optText(m.IP),
		UserAgent:    optText(m.UserAgent),
		RequestID:    optText(m.RequestID),
		Metadata:     meta,
	})
	return err
}

// Describe derives the resource and action names from an admin route
// pattern. The resource is the first static segment after /admin. A static
// segment following a parameter names a sub-action ("status", "cancel",
// "replay"); otherwise the HTTP verb does.
//
//	PATCH /api/v1/admin/orders/{id}/status  -> orders, orders.status
//	DELETE /api/v1/admin/menu/items/{id}    -> menu, menu.items.delete
func Describe(method, route string) (resource, action string) {
	segs := strings.Split(strings.Trim(route, "/"), "/")
	for i, s := range segs {
		if s == "admin" {
			segs = segs[i+1:]
			break
		}
	}
	var static []string
	afterParam := false
	for _, s := range segs {
		if s == "" || s == "*" {
			continue
		}
		if strings.HasPrefix(s, "{") {
			afterParam = true
			continue
		}
		static = append(static, s)
	}
	if len(static) == 0 {
		return "unknown", strings.ToLower(method)
	}
	resource = static[0]
	if afterParam && !strings.HasPrefix(segs[len(segs)-1], "{") {
		return resource, strings.Join(static, ".")
	}
	return resource, strings.Join(static, ".") + "." + verb(method)
}

func verb(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}

func optText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}
