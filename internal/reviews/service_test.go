package reviews

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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

func newID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

type memStore struct {
	// completed holds user+item pairs that appear in a completed order.
	completed map[[2][16]byte]bool
	reviews   []dbgen.Review
	names     map[[16]byte]string
}

func (m *memStore) HasCompletedOrderWithItem(_ context.Context, arg dbgen.HasCompletedOrderWithItemParams) (bool, error) {
	return m.completed[[2][16]byte{arg.UserID.Bytes, arg.MenuItemID.Bytes}], nil
}

func (m *memStore) CreateReview(_ context.Context, arg dbgen.CreateReviewParams) (dbgen.Review, error) {
	for _, r := range m.reviews {
		if r.TenantID == arg.TenantID && r.UserID == arg.UserID && r.MenuItemID == arg.MenuItemID {
			return dbgen.Review{}, &pgconn.PgError{Code: "23505"}
		}
	}
	r := dbgen.Review{
		ID: newID(), TenantID: arg.TenantID, MenuItemID: arg.MenuItemID, UserID: arg.UserID,
		Rating: arg.Rating, Comment: arg.Comment, CreatedAt: common.Timestamptz(time.Now()),
	}
	m.reviews = append(m.reviews, r)
	return r, nil
}

func (m *memStore) ListReviewsByMenuItem(_ context.Context, arg dbgen.ListReviewsByMenuItemParams) ([]dbgen.ListReviewsByMenuItemRow, error) {
	var out []dbgen.ListReviewsByMenuItemRow
	for _, r := range m.reviews {
		if r.TenantID == arg.TenantID && r.MenuItemID == arg.MenuItemID {
			out = append(out, dbgen.ListReviewsByMenuItemRow{Review: r, AuthorName: m.names[r.UserID.Bytes]})
		}
	}
	return out, nil
}

func (m *memStore) ReviewStatsByMenuItem(_ context.Context, arg dbgen.ReviewStatsByMenuItemParams) (dbgen.ReviewStatsByMenuItemRow, error) {
	var row dbgen.ReviewStatsByMenuItemRow
	var sum int64
	for _, r := range m.reviews {
		if r.TenantID != arg.TenantID || r.MenuItemID != arg.MenuItemID {
			continue
		}
		row.Count++
		sum += int64(r.Rating)
		switch r.Rating {
		case 1:
			row.Star1++
		case 2:
			row.Star2++
		case 3:
			row.Star3++
		case 4:
			row.Star4++
		case 5:
			row.Star5++
		}
	}
	if row.Count > 0 {
		row.Average = float64(sum) / float64(row.Count)
	}
	return row, nil
}

func (m *memStore) DeleteReview(_ context.Context, arg dbgen.DeleteReviewParams) (int64, error) {
	for i, r := range m.reviews {
		if r.TenantID == arg.TenantID && r.ID == arg.ID && r.UserID == arg.UserID {
			m.reviews = append(m.reviews[:i], m.reviews[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type recordingEmitter struct{ payloads []any }

func (e *recordingEmitter) Emit(_ context.Context, topic string, _ pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	e.payloads = append(e.payloads, payload)
	return dbgen.DomainEvent{Topic: topic}, nil
}

type fixture struct {
	svc    *Service
	store  *memStore
	events *recordingEmitter
	item   pgtype.UUID
	ana    pgtype.UUID
	budi   pgtype.UUID
	tenant tenant.Info
}

func newFixture() *fixture {
	f := &fixture{
		item:   newID(),
		ana:    newID(),
		budi:   newID(),
		tenant: tenant.Info{ID: uuid.NewString(), Slug: "warung"},
		events: &recordingEmitter{},
	}
	f.store = &memStore{
		completed: map[[2][16]byte]bool{{f.ana.Bytes, f.item.Bytes}: true, {f.budi.Bytes, f.item.Bytes}: true},
		names:     map[[16]byte]string{f.ana.Bytes: "Ana", f.budi.Bytes: "Budi"},
	}
	f.svc = &Service{Q: f.store, Events: f.events, Log: zerolog.Nop()}
	return f
}

func (f *fixture) as(user pgtype.UUID) context.Context {
	ctx := tenant.WithInfo(context.Background(), f.tenant)
	return common.WithUserID(ctx, common.UUIDString(user))
}

func TestCreateRequiresCompletedOrderAndIsOncePerItem(t *testing.T) {
	f := newFixture()
	item := common.UUIDString(f.item)

	v, err := f.svc.Create(f.as(f.ana), item, Input{Rating: 5, Comment: "Enak!"})
	require.NoError(t, err)
	require.Equal(t, int32(5), v.Rating)
	require.Len(t, f.events.payloads, 1)
	ev := f.events.payloads[0].(events.ReviewCreated)
	require.Equal(t, common.UUIDString(f.ana), ev.UserID)
	require.Equal(t, item, ev.MenuItemID)

	_, err = f.svc.Create(f.as(f.ana), item, Input{Rating: 4})
	require.ErrorIs(t, err, ErrAlreadyReviewed)
	require.ErrorIs(t, err, common.ErrConflict)

	_, err = f.svc.Create(f.as(newID()), item, Input{Rating: 4})
	require.ErrorIs(t, err, ErrNotEligible)

	_, err = f.svc.Create(f.as(f.budi), item, Input{Rating: 6})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.Create(tenant.WithInfo(context.Background(), f.tenant), item, Input{Rating: 3})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
	require.Len(t, f.events.payloads, 1)
}

func TestStatsAndOwnDelete(t *testing.T) {
	f := newFixture()
	item := common.UUIDString(f.item)
	mine, err := f.svc.Create(f.as(f.ana), item, Input{Rating: 5})
	require.NoError(t, err)
	_, err = f.svc.Create(f.as(f.budi), item, Input{Rating: 2})
	require.NoError(t, err)

	st, err := f.svc.Stats(f.as(f.ana), item)
	require.NoError(t, err)
	require.EqualValues(t, 2, st.Count)
	require.InDelta(t, 3.5, st.Average, 0.001)
	require.EqualValues(t, 1, st.Stars[5])
	require.EqualValues(t, 0, st.Stars[3])

	require.ErrorIs(t, f.svc.Delete(f.as(f.budi), mine.ID), common.ErrNotFound)
	require.NoError(t, f.svc.Delete(f.as(f.ana), mine.ID))

	rows, total, err := f.svc.List(f.as(f.ana), item, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Budi", rows[0].Author)
}

func TestHandlers(t *testing.T) {
	f := newFixture()
	h := &Handler{Svc: f.svc}
	item := common.UUIDString(f.item)
	withID := func(ctx context.Context) context.Context {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", item)
		return context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/menu/items/"+item+"/reviews", strings.NewReader(`{"rating":4,"comment":"ok"}`))
	h.Create(rec, req.WithContext(withID(f.as(f.ana))))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":4}`))
	h.Create(rec, req.WithContext(withID(f.as(newID()))))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/?page=1&limit=5", nil).WithContext(withID(f.as(f.ana))))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	var body struct {
		Data []View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Ana", body.Data[0].Author)
}
