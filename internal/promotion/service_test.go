package promotion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type stubQueries struct {
	promo      dbgen.Promotion
	usageCount int64
	usage      *dbgen.PromotionUsage
	inserted   []dbgen.InsertPromotionUsageParams
	increments int
	created    *dbgen.CreatePromotionParams
}

func (s *stubQueries) GetPromotionByCode(ctx context.Context, arg dbgen.GetPromotionByCodeParams) (dbgen.Promotion, error) {
	if s.promo.Code == "" || !strings.EqualFold(s.promo.Code, arg.Code) {
		return dbgen.Promotion{}, pgx.ErrNoRows
	}
	return s.promo, nil
}

func (s *stubQueries) GetPromotionByCodeForUpdate(ctx context.Context, arg dbgen.GetPromotionByCodeParams) (dbgen.Promotion, error) {
	return s.GetPromotionByCode(ctx, arg)
}

func (s *stubQueries) CountPromotionUsageByUser(ctx context.Context, arg dbgen.CountPromotionUsageByUserParams) (int64, error) {
	return s.usageCount, nil
}

func (s *stubQueries) GetPromotionUsageByOrder(ctx context.Context, arg dbgen.GetPromotionUsageByOrderParams) (dbgen.PromotionUsage, error) {
	if s.usage != nil && s.usage.OrderID == arg.OrderID {
		return *s.usage, nil
	}
	return dbgen.PromotionUsage{}, pgx.ErrNoRows
}

func (s *stubQueries) InsertPromotionUsage(ctx context.Context, arg dbgen.InsertPromotionUsageParams) (dbgen.PromotionUsage, error) {
	s.inserted = append(s.inserted, arg)
	u := dbgen.PromotionUsage{PromotionID: arg.PromotionID, OrderID: arg.OrderID, Amount: arg.Amount}
	s.usage = &u
	return u, nil
}

func (s *stubQueries) IncreasePromotionUsedCount(ctx context.Context, id pgtype.UUID) error {
	s.increments++
	s.promo.UsedCount++
	return nil
}

func (s *stubQueries) CreatePromotion(ctx context.Context, arg dbgen.CreatePromotionParams) (dbgen.Promotion, error) {
	s.created = &arg
	return dbgen.Promotion{Code: arg.Code, Kind: arg.Kind}, nil
}

func (s *stubQueries) UpdatePromotion(ctx context.Context, arg dbgen.UpdatePromotionParams) (dbgen.Promotion, error) {
	return dbgen.Promotion{}, pgx.ErrNoRows
}

func (s *stubQueries) SetPromotionActive(ctx context.Context, arg dbgen.SetPromotionActiveParams) (dbgen.Promotion, error) {
	s.promo.Active = arg.Active
	return s.promo, nil
}

func (s *stubQueries) GetPromotionByID(ctx context.Context, arg dbgen.GetPromotionByIDParams) (dbgen.Promotion, error) {
	return s.promo, nil
}

func (s *stubQueries) ListPromotions(ctx context.Context, arg dbgen.ListPromotionsParams) ([]dbgen.Promotion, error) {
	return []dbgen.Promotion{s.promo}, nil
}

func (s *stubQueries) CountPromotions(ctx context.Context, arg dbgen.CountPromotionsParams) (int64, error) {
	return 1, nil
}

func tenantCtx() context.Context {
	return tenant.With(context.Background(), uuid.NewString())
}

func newPromotion(value int64, usedCount int32) dbgen.Promotion {
	return dbgen.Promotion{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Code:      "MAKAN10",
		Value:     value,
		MinSpend:  1_000,
		UsedCount: usedCount,
		Kind:      dbgen.PromotionKindFixed,
		Active:    true,
		ValidFrom: pgtype.Timestamptz{Time: time.Now().Add(-time.Hour), Valid: true},
		ValidTo:   pgtype.Timestamptz{Time: time.Now().Add(time.Hour), Valid: true},
	}
}

func TestPreviewMinSpend(t *testing.T) {
	svc := &Service{Q: &stubQueries{promo: newPromotion(1000, 2)}}
	_, err := svc.Preview(tenantCtx(), "makan10", pgtype.UUID{}, []Item{{Subtotal: 500}})
	require.ErrorIs(t, err, ErrMinimumSpendUnmet)
}

func TestPreviewPerUserLimit(t *testing.T) {
	p := newPromotion(1000, 2)
	p.PerUserLimit = pgtype.Int4{Int32: 1, Valid: true}
	svc := &Service{Q: &stubQueries{promo: p, usageCount: 1}}
	user := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	_, err := svc.Preview(tenantCtx(), "MAKAN10", user, []Item{{Subtotal: 10_000}})
	require.ErrorIs(t, err, ErrPerUserLimitReached)
}

func TestPreviewUnknownCodeAndMissingTenant(t *testing.T) {
	svc := &Service{Q: &stubQueries{promo: newPromotion(1000, 0)}}
	_, err := svc.Preview(tenantCtx(), "NOPE", pgtype.UUID{}, []Item{{Subtotal: 10_000}})
	require.ErrorIs(t, err, ErrNotEligible)

	_, err = svc.Preview(context.Background(), "MAKAN10", pgtype.UUID{}, nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotEligible))
}

func TestSettleIsIdempotentPerOrder(t *testing.T) {
	q := &stubQueries{promo: newPromotion(5_000, 0)}
	svc := &Service{}
	order := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	items := []Item{{Subtotal: 20_000}}

	amount, err := svc.Settle(context.Background(), q, pgtype.UUID{}, "MAKAN10", order, pgtype.UUID{}, items)
	require.NoError(t, err)
	require.Equal(t, int64(5_000), amount)

	amount, err = svc.Settle(context.Background(), q, pgtype.UUID{}, "MAKAN10", order, pgtype.UUID{}, items)
	require.NoError(t, err)
	require.Equal(t, int64(5_000), amount)
	require.Len(t, q.inserted, 1)
	require.Equal(t, 1, q.increments)
}

func TestSettleRechecksUsageCapUnderLock(t *testing.T) {
	p := newPromotion(5_000, 3)
	p.UsageLimit = pgtype.Int4{Int32: 3, Valid: true}
	q := &stubQueries{promo: p}
	order := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	_, err := (&Service{}).Settle(context.Background(), q, pgtype.UUID{}, "MAKAN10", order, pgtype.UUID{}, []Item{{Subtotal: 20_000}})
	require.ErrorIs(t, err, ErrUsageLimitReached)
	require.Empty(t, q.inserted)
}

func TestCreateValidatesKindSpecificFields(t *testing.T) {
	q := &stubQueries{}
	h := &Handler{Svc: &Service{Q: q}}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"HALF","name":"Half","kind":"percent"}`))
	req = req.WithContext(tenantCtx())
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, q.created)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"half","name":"Half","kind":"percent","percent_bps":5000}`))
	req = req.WithContext(tenantCtx())
	rec = httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "HALF", q.created.Code)
	require.True(t, q.created.Active)
}

func TestPreviewHandlerMapsErrorCodes(t *testing.T) {
	p := newPromotion(1000, 0)
	p.ValidTo = pgtype.Timestamptz{Time: time.Now().Add(-time.Minute), Valid: true}
	h := &Handler{Svc: &Service{Q: &stubQueries{promo: p}}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"MAKAN10","items":[{"subtotal":5000}]}`))
	req = req.WithContext(tenantCtx())
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "PROMO_EXPIRED")
}
