package cache

import (
	"context"

	"github.com/noah-isme/backend-resto/internal/tenant"
)

// MenuNamespace is the per-tenant namespace for menu listings and details.
func MenuNamespace(ctx context.Context) string {
	return tenant.Key(ctx, "menu")
}

// CMSNamespace is the per-tenant namespace for published pages.
func CMSNamespace(ctx context.Context) string {
	return tenant.Key(ctx, "cms")
}

// KeyReport returns a per-tenant key for a report and its range.
func KeyReport(ctx context.Context, name, rangeKey string) string {
	return tenant.Key(ctx, "report:"+name+":"+rangeKey)
}
