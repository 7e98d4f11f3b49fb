package tenant

import (
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// reservedLabels are subdomains that never name a restaurant.
var reservedLabels = map[string]bool{"www": true, "api": true, "admin": true, "static": true}

// Resolver picks the tenant identifier for a request: the tenant header
// first, then the leftmost label under RootDomain, then DefaultTenant.
// Identifiers that are neither a slug nor a UUID are ignored, which leaves
// the request tenantless for RequireTenant to reject.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.Trim(strings.ToLower(strings.TrimSpace(rootDomain)), "."),
		DefaultTenant: normalize(defaultTenant),
	}
}

func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if id := r.Resolve(req); id != "" {
			req = req.WithContext(With(req.Context(), id))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the tenant identifier for req, or "".
func (r *Resolver) Resolve(req *http.Request) string {
	if raw := req.Header.Get(r.HeaderName); strings.TrimSpace(raw) != "" {
		return normalize(raw)
	}
	if label := r.subdomain(req.Host); label != "" {
		return label
	}
	return r.DefaultTenant
}

func (r *Resolver) subdomain(hostport string) string {
	if r.RootDomain == "" {
		return ""
	}
	host := strings.ToLower(strings.TrimSpace(hostport))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	prefix, ok := strings.CutSuffix(host, "."+r.RootDomain)
	if !ok || prefix == "" {
		return ""
	}
	// shop.sate.resto.test resolves to "sate".
	labels := strings.Split(prefix, ".")
	label := labels[len(labels)-1]
	if reservedLabels[label] {
		return ""
	}
	return normalize(label)
}

func normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return ""
	}
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	if slugPattern.MatchString(id) {
		return id
	}
	return ""
}
