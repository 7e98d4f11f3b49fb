package common

import (
	"context"
	"slices"
)

type ctxKey string

const (
	userIDKey ctxKey = "auth/user-id"
	rolesKey  ctxKey = "auth/roles"
)

// Role names carried in access tokens.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// WithRoles stores the caller's roles.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, rolesKey, append([]string(nil), roles...))
}

// Roles returns the caller's roles, if any.
func Roles(ctx context.Context) []string {
	roles, _ := ctx.Value(rolesKey).([]string)
	return roles
}

// HasAnyRole reports whether the caller holds at least one of want.
// Admin implies staff.
func HasAnyRole(ctx context.Context, want ...string) bool {
	roles := Roles(ctx)
	for _, w := range want {
		if slices.Contains(roles, w) {
			return true
		}
		if w == RoleStaff && slices.Contains(roles, RoleAdmin) {
			return true
		}
	}
	return false
}
