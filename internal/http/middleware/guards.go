// Package middleware holds the route guards shared by the API routers.
package middleware

import (
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// RequireTenant answers 400 TENANT_REQUIRED when neither the header nor the
// host resolved a tenant.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenant.From(r.Context()); !ok {
			common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant is required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers holding none of roles. Unauthenticated callers
// get 401, authenticated ones 403. Admin satisfies a staff requirement.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch _, signedIn := common.UserID(r.Context()); {
			case !signedIn:
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			case !common.HasAnyRole(r.Context(), roles...):
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
