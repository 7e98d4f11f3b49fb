package repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

var (
	ErrTenantMissing = errors.New("tenant missing")
	ErrTenantInvalid = errors.New("tenant invalid")
)

// TenantID is the tenant_id every tenant-scoped query binds. It prefers the
// resolved directory entry and falls back to the raw id in ctx, which must
// then be a UUID. Failures are *common.AppError TENANT_REQUIRED.
func TenantID(ctx context.Context) (pgtype.UUID, error) {
	if info, ok := tenant.InfoFrom(ctx); ok {
		if id := info.UUID(); id.Valid {
			return id, nil
		}
	}
	raw, ok := tenant.From(ctx)
	if !ok {
		return pgtype.UUID{}, tenantRequired(ErrTenantMissing)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return pgtype.UUID{}, tenantRequired(fmt.Errorf("%w: %q", ErrTenantInvalid, raw))
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func tenantRequired(cause error) error {
	return &common.AppError{Code: "TENANT_REQUIRED", Message: "tenant is required", HTTPStatus: http.StatusBadRequest, Err: cause}
}
