package tenant

import (
	"context"
	"strings"
)

type idKey struct{}
type infoKey struct{}

// With stores a raw tenant identifier (slug or UUID) on ctx.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, strings.TrimSpace(id))
}

// From returns the tenant identifier on ctx. Before the directory middleware
// runs it is whatever the resolver saw; afterwards it is the tenant UUID.
func From(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(idKey{}).(string)
	return id, id != ""
}

// WithInfo stores the resolved tenant record and switches the identifier
// returned by From to the tenant UUID.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(With(ctx, info.ID), infoKey{}, info)
}

// InfoFrom returns the resolved tenant record, if the directory middleware ran.
func InfoFrom(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey{}).(Info)
	return info, ok
}

// SettingsFrom returns the tenant settings or the platform defaults.
func SettingsFrom(ctx context.Context) Settings {
	if info, ok := InfoFrom(ctx); ok {
		return info.Settings
	}
	return DefaultSettings()
}

// PrefixKey namespaces a cache or queue key by tenant.
func PrefixKey(tenantID, key string) string {
	if tenantID == "" {
		return key
	}
	return tenantID + ":" + key
}

// Key namespaces key with the tenant on ctx.
func Key(ctx context.Context, key string) string {
	id, _ := From(ctx)
	return PrefixKey(id, key)
}
