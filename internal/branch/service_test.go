package branch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type fakeBranches struct {
	branches map[string]dbgen.Branch
	hours    map[[16]byte][]dbgen.BranchHour
}

func newFakeBranches() *fakeBranches {
	return &fakeBranches{branches: map[string]dbgen.Branch{}, hours: map[[16]byte][]dbgen.BranchHour{}}
}

func (f *fakeBranches) ListBranches(_ context.Context, arg dbgen.ListBranchesParams) ([]dbgen.Branch, error) {
	var out []dbgen.Branch
	for _, b := range f.branches {
		if !arg.ActiveOnly || b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBranches) GetBranchBySlug(_ context.Context, arg dbgen.GetBranchBySlugParams) (dbgen.Branch, error) {
	if b, ok := f.branches[arg.Slug]; ok {
		return b, nil
	}
	return dbgen.Branch{}, pgx.ErrNoRows
}

func (f *fakeBranches) GetBranchByID(_ context.Context, arg dbgen.GetBranchByIDParams) (dbgen.Branch, error) {
	for _, b := range f.branches {
		if b.ID == arg.ID {
			return b, nil
		}
	}
	return dbgen.Branch{}, pgx.ErrNoRows
}

func (f *fakeBranches) CreateBranch(_ context.Context, arg dbgen.CreateBranchParams) (dbgen.Branch, error) {
	if _, ok := f.branches[arg.Slug]; ok {
		return dbgen.Branch{}, &pgconn.PgError{Code: "23505"}
	}
	b := dbgen.Branch{
		ID:              pgtype.UUID{Bytes: uuid.New(), Valid: true},
		TenantID:        arg.TenantID,
		Slug:            arg.Slug,
		Name:            arg.Name,
		TimeZone:        arg.TimeZone,
		SeatingCapacity: arg.SeatingCapacity,
		MaxPartySize:    arg.MaxPartySize,
		SlotMinutes:     arg.SlotMinutes,
		Active:          true,
	}
	f.branches[b.Slug] = b
	return b, nil
}

func (f *fakeBranches) UpdateBranch(context.Context, dbgen.UpdateBranchParams) (dbgen.Branch, error) {
	return dbgen.Branch{}, pgx.ErrNoRows
}

func (f *fakeBranches) SetBranchActive(_ context.Context, arg dbgen.SetBranchActiveParams) (dbgen.Branch, error) {
	for slug, b := range f.branches {
		if b.ID == arg.ID {
			b.Active = arg.Active
			f.branches[slug] = b
			return b, nil
		}
	}
	return dbgen.Branch{}, pgx.ErrNoRows
}

func (f *fakeBranches) ListBranchHours(_ context.Context, arg dbgen.ListBranchHoursParams) ([]dbgen.BranchHour, error) {
	return f.hours[arg.BranchID.Bytes], nil
}

func (f *fakeBranches) DeleteBranchHours(_ context.Context, arg dbgen.DeleteBranchHoursParams) error {
	delete(f.hours, arg.BranchID.Bytes)
	return nil
}

func (f *fakeBranches) InsertBranchHour(_ context.Context, arg dbgen.InsertBranchHourParams) error {
	f.hours[arg.BranchID.Bytes] = append(f.hours[arg.BranchID.Bytes], dbgen.BranchHour{
		TenantID: arg.TenantID, BranchID: arg.BranchID, Weekday: arg.Weekday,
		OpensAt: arg.OpensAt, ClosesAt: arg.ClosesAt, Closed: arg.Closed,
	})
	return nil
}

func tenantCtx() context.Context {
	return tenant.WithInfo(context.Background(), tenant.Info{ID: uuid.NewString(), Slug: "warung"})
}

func validInput(slug string) branch.Input {
	return branch.Input{
		Slug: slug, Name: "Kemang", Address: "Jl. Kemang Raya 1", City: "Jakarta",
		TimeZone: "Asia/Jakarta", SeatingCapacity: 40, MaxPartySize: 8, SlotMinutes: 30,
		ReservationDurationMinutes: 90,
	}
}

func TestCreateAndReplaceHours(t *testing.T) {
	q := newFakeBranches()
	// Wednesday 2026-05-20 12:00 in Jakarta.
	now := time.Date(2026, 5, 20, 5, 0, 0, 0, time.UTC)
	svc := &branch.Service{Q: q, Now: func() time.Time { return now }}
	ctx := tenantCtx()

	v, err := svc.Create(ctx, validInput("kemang"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput("kemang"))
	require.ErrorIs(t, err, common.ErrConflict)

	bad := validInput("bad slug")
	_, err = svc.Create(ctx, bad)
	require.Error(t, err)

	_, err = svc.ReplaceHours(ctx, v.ID, branch.HoursInput{Days: []branch.Day{
		{Weekday: 3, OpensAt: 600, ClosesAt: 1320},
		{Weekday: 3, OpensAt: 600, ClosesAt: 1320},
	}})
	require.Error(t, err)

	got, err := svc.ReplaceHours(ctx, v.ID, branch.HoursInput{Days: []branch.Day{
		{Weekday: 3, OpensAt: 600, ClosesAt: 1320},
		{Weekday: 4, Closed: true},
	}})
	require.NoError(t, err)
	require.Len(t, got.Hours, 2)
	require.NotNil(t, got.OpenNow)
	require.True(t, *got.OpenNow)
}

func TestGetHandlerHidesInactiveBranches(t *testing.T) {
	q := newFakeBranches()
	svc := &branch.Service{Q: q}
	ctx := tenantCtx()
	v, err := svc.Create(ctx, validInput("senayan"))
	require.NoError(t, err)
	h := &branch.Handler{Svc: svc}

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/branches/senayan", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("slug", "senayan")
		req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		return rec
	}

	rec := get()
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data branch.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "senayan", body.Data.Slug)
	require.False(t, *body.Data.OpenNow)

	_, err = svc.SetActive(ctx, v.ID, false)
	require.NoError(t, err)
	rec = get()
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "NOT_FOUND"))
}
