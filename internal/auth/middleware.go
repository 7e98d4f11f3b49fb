package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

var errTenantMismatch = errors.New("auth: token issued for another tenant")

// Middleware puts the caller's identity on the request context.
type Middleware struct {
	Service      *Service
	AccessCookie string
}

// Authenticate resolves the caller when a token is present. Anonymous
// requests pass through. A bad Authorization header answers 401 so API
// clients know to refresh; a stale access cookie is ignored, since browsers
// send it to public pages too.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, bearer := m.token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.verify(r, token)
		if err != nil {
			if bearer {
				common.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r, claims)))
	})
}

// RequireAuth rejects the request unless Authenticate (or this middleware)
// can identify the caller.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.UserID(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		token, _ := m.token(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required", nil)
			return
		}
		claims, err := m.verify(r, token)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r, claims)))
	})
}

func (m Middleware) verify(r *http.Request, token string) (Claims, error) {
	if m.Service == nil {
		return Claims{}, unauthorized("authentication unavailable", errors.New("auth: service not configured"))
	}
	claims, err := m.Service.ParseAccessToken(token)
	if err != nil {
		return Claims{}, err
	}
	if current, ok := tenant.From(r.Context()); ok && current != claims.TenantID {
		return Claims{}, unauthorized("invalid token", errTenantMismatch)
	}
	return claims, nil
}

func withClaims(r *http.Request, c Claims) context.Context {
	obs.Annotate(r.Context(), "user_id", c.UserID)
	return common.WithRoles(common.WithUserID(r.Context(), c.UserID), c.Roles)
}

// token returns the access token and whether it came from the
// Authorization header.
func (m Middleware) token(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:]), true
	}
	if m.AccessCookie == "" {
		return "", false
	}
	if c, err := r.Cookie(m.AccessCookie); err == nil {
		return strings.TrimSpace(c.Value), false
	}
	return "", false
}
