package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// PreviewQuerier is used for dry-run evaluation.
type PreviewQuerier interface {
	GetPromotionByCode(ctx context.Context, arg dbgen.GetPromotionByCodeParams) (dbgen.Promotion, error)
	CountPromotionUsageByUser(ctx context.Context, arg dbgen.CountPromotionUsageByUserParams) (int64, error)
}

// SettleQuerier is used inside the checkout transaction.
type SettleQuerier interface {
	GetPromotionByCodeForUpdate(ctx context.Context, arg dbgen.GetPromotionByCodeParams) (dbgen.Promotion, error)
	CountPromotionUsageByUser(ctx context.Context, arg dbgen.CountPromotionUsageByUserParams) (int64, error)
	GetPromotionUsageByOrder(ctx context.Context, arg dbgen.GetPromotionUsageByOrderParams) (dbgen.PromotionUsage, error)
	InsertPromotionUsage(ctx context.Context, arg dbgen.InsertPromotionUsageParams) (dbgen.PromotionUsage, error)
	IncreasePromotionUsedCount(ctx context.Context, id pgtype.UUID) error
}

// AdminQuerier covers promotion management.
type AdminQuerier interface {
	CreatePromotion(ctx context.Context, arg dbgen.CreatePromotionParams) (dbgen.Promotion, error)
	UpdatePromotion(ctx context.Context, arg dbgen.UpdatePromotionParams) (dbgen.Promotion, error)
	SetPromotionActive(ctx context.Context, arg dbgen.SetPromotionActiveParams) (dbgen.Promotion, error)
	GetPromotionByID(ctx context.Context, arg dbgen.GetPromotionByIDParams) (dbgen.Promotion, error)
	ListPromotions(ctx context.Context, arg dbgen.ListPromotionsParams) ([]dbgen.Promotion, error)
	CountPromotions(ctx context.Context, arg dbgen.CountPromotionsParams) (int64, error)
}

// Querier is everything the service needs outside a transaction.
type Querier interface {
	PreviewQuerier
	AdminQuerier
}

// PreviewResult describes the outcome of evaluating a promotion without mutating state.
type PreviewResult struct {
	Discount       int64  `json:"discount"`
	EligibleAmount int64  `json:"eligible_amount"`
	Code           string `json:"code"`
}

// Service encapsulates promotion rules evaluation and settlement behaviour.
type Service struct {
	Q                   Querier
	Now                 func() time.Time
	DefaultPerUserLimit int
}

// Preview performs a dry-run evaluation for the given cart lines.
func (s *Service) Preview(ctx context.Context, code string, userID pgtype.UUID, items []Item) (PreviewResult, error) {
	if s == nil || s.Q == nil {
		return PreviewResult{}, errors.New("promotion service not configured")
	}
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return PreviewResult{}, err
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return PreviewResult{}, fmt.Errorf("code is required: %w", ErrNotEligible)
	}
	promo, err := s.Q.GetPromotionByCode(ctx, dbgen.GetPromotionByCodeParams{TenantID: tid, Code: trimmed})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PreviewResult{}, ErrNotEligible
		}
		return PreviewResult{}, err
	}
	return s.evaluate(ctx, s.Q, promo, userID, items)
}

func (s *Service) evaluate(ctx context.Context, q interface {
	CountPromotionUsageByUser(ctx context.Context, arg dbgen.CountPromotionUsageByUserParams) (int64, error)
}, promo dbgen.Promotion, userID pgtype.UUID, items []Item) (PreviewResult, error) {
	rule := RuleFromModel(promo)
	limit := s.effectivePerUserLimit(rule)
	if limit > 0 {
		rule.EffectiveLimit = limit
		if userID.Valid {
			used, err := q.CountPromotionUsageByUser(ctx, dbgen.CountPromotionUsageByUserParams{PromotionID: promo.ID, UserID: userID})
			if err != nil {
				return PreviewResult{}, err
			}
			rule.PerUserUsed = int32(used)
		}
	}
	var cartTotal int64
	for _, it := range items {
		if it.Subtotal > 0 {
			cartTotal += it.Subtotal
		}
	}
	if err := rule.Validate(s.now(), cartTotal); err != nil {
		return PreviewResult{}, err
	}
	eligible := EligibleSubtotal(items, rule)
	if eligible <= 0 {
		return PreviewResult{}, ErrNotEligible
	}
	discount := Compute(eligible, rule)
	if discount <= 0 {
		return PreviewResult{}, ErrNotEligible
	}
	return PreviewResult{Discount: discount, EligibleAmount: eligible, Code: promo.Code}, nil
}

// Settle re-evaluates the promotion under a row lock and records its usage
// for orderID. Calling it twice for the same order is a no-op. The returned
// discount is the amount actually granted.
func (s *Service) Settle(ctx context.Context, q SettleQuerier, tenantID pgtype.UUID, code string, orderID, userID pgtype.UUID, items []Item) (int64, error) {
	if q == nil {
		return 0, errors.New("promotion service not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" || !orderID.Valid {
		return 0, nil
	}
	promo, err := q.GetPromotionByCodeForUpdate(ctx, dbgen.GetPromotionByCodeParams{TenantID: tenantID, Code: code})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotEligible
		}
		return 0, err
	}
	usage, err := q.GetPromotionUsageByOrder(ctx, dbgen.GetPromotionUsageByOrderParams{PromotionID: promo.ID, OrderID: orderID})
	if err == nil {
		return usage.Amount, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	res, err := s.evaluate(ctx, q, promo, userID, items)
	if err != nil {
		return 0, err
	}
	if _, err := q.InsertPromotionUsage(ctx, dbgen.InsertPromotionUsageParams{
		TenantID:    tenantID,
		PromotionID: promo.ID,
		OrderID:     orderID,
		UserID:      userID,
		Amount:      res.Discount,
	}); err != nil {
		return 0, err
	}
	if err := q.IncreasePromotionUsedCount(ctx, promo.ID); err != nil {
		return 0, err
	}
	return res.Discount, nil
}

// Input is the admin payload for creating or updating a promotion.
type Input struct {
	Code         string     `json:"code" validate:"required,min=3,max=40,alphanum"`
	Name         string     `json:"name" validate:"required,max=120"`
	Kind         string     `json:"kind" validate:"required,oneof=percent fixed"`
	PercentBps   *int32     `json:"percent_bps" validate:"omitempty,gt=0,lte=10000"`
	Value        int64      `json:"value" validate:"gte=0"`
	MinSpend     int64      `json:"min_spend" validate:"gte=0"`
	UsageLimit   *int32     `json:"usage_limit" validate:"omitempty,gte=0"`
	PerUserLimit *int32     `json:"per_user_limit" validate:"omitempty,gte=0"`
	ValidFrom    *time.Time `json:"valid_from"`
	ValidTo      *time.Time `json:"valid_to"`
	Active       *bool      `json:"active"`
	CategoryIDs  []string   `json:"category_ids" validate:"omitempty,dive,uuid"`
	ItemIDs      []string   `json:"item_ids" validate:"omitempty,dive,uuid"`
}

func (in Input) check() error {
	if err := common.ValidateStruct(in); err != nil {
		return err
	}
	if in.Kind == KindPercent && in.PercentBps == nil {
		return common.BadRequest("percent_bps", "percent promotions need percent_bps", nil)
	}
	if in.Kind == KindFixed && in.Value <= 0 {
		return common.BadRequest("value", "fixed promotions need a positive value", nil)
	}
	if in.ValidFrom != nil && in.ValidTo != nil && in.ValidTo.Before(*in.ValidFrom) {
		return common.BadRequest("valid_to", "valid_to must be after valid_from", nil)
	}
	return nil
}

func (in Input) createParams(tid pgtype.UUID) (dbgen.CreatePromotionParams, error) {
	categories, err := common.UUIDs("category_ids", in.CategoryIDs)
	if err != nil {
		return dbgen.CreatePromotionParams{}, err
	}
	items, err := common.UUIDs("item_ids", in.ItemIDs)
	if err != nil {
		return dbgen.CreatePromotionParams{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return dbgen.CreatePromotionParams{
		TenantID:     tid,
		Code:         strings.ToUpper(strings.TrimSpace(in.Code)),
		Name:         strings.TrimSpace(in.Name),
		Kind:         dbgen.PromotionKind(in.Kind),
		PercentBps:   int4(in.PercentBps),
		Value:        in.Value,
		MinSpend:     in.MinSpend,
		UsageLimit:   int4(in.UsageLimit),
		PerUserLimit: int4(in.PerUserLimit),
		ValidFrom:    common.TimestamptzPtr(in.ValidFrom),
		ValidTo:      common.TimestamptzPtr(in.ValidTo),
		Active:       active,
		CategoryIds:  categories,
		ItemIds:      items,
	}, nil
}

// Create inserts a promotion. Duplicate codes yield 409.
func (s *Service) Create(ctx context.Context, in Input) (dbgen.Promotion, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	if err := in.check(); err != nil {
		return dbgen.Promotion{}, err
	}
	params, err := in.createParams(tid)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	promo, err := s.Q.CreatePromotion(ctx, params)
	return promo, common.DBError(err, "promotion not found")
}

// Update replaces every field of the promotion.
func (s *Service) Update(ctx context.Context, id string, in Input) (dbgen.Promotion, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	pid, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	if err := in.check(); err != nil {
		return dbgen.Promotion{}, err
	}
	c, err := in.createParams(tid)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	promo, err := s.Q.UpdatePromotion(ctx, dbgen.UpdatePromotionParams{
		TenantID:     tid,
		ID:           pid,
		Code:         c.Code,
		Name:         c.Name,
		Kind:         c.Kind,
		PercentBps:   c.PercentBps,
		Value:        c.Value,
		MinSpend:     c.MinSpend,
		UsageLimit:   c.UsageLimit,
		PerUserLimit: c.PerUserLimit,
		ValidFrom:    c.ValidFrom,
		ValidTo:      c.ValidTo,
		Active:       c.Active,
		CategoryIds:  c.CategoryIds,
		ItemIds:      c.ItemIds,
	})
	return promo, common.DBError(err, "promotion not found")
}

// Deactivate switches a promotion off without deleting its usage history.
func (s *Service) Deactivate(ctx context.Context, id string) (dbgen.Promotion, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	pid, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	promo, err := s.Q.SetPromotionActive(ctx, dbgen.SetPromotionActiveParams{TenantID: tid, ID: pid, Active: false})
	return promo, common.DBError(err, "promotion not found")
}

// Get returns one promotion.
func (s *Service) Get(ctx context.Context, id string) (dbgen.Promotion, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	pid, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.Promotion{}, err
	}
	promo, err := s.Q.GetPromotionByID(ctx, dbgen.GetPromotionByIDParams{TenantID: tid, ID: pid})
	return promo, common.DBError(err, "promotion not found")
}

// List pages through promotions, optionally filtered by active flag.
func (s *Service) List(ctx context.Context, active *bool, page, perPage int) ([]dbgen.Promotion, int64, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, 0, err
	}
	var filter any
	if active != nil {
		filter = *active
	}
	total, err := s.Q.CountPromotions(ctx, dbgen.CountPromotionsParams{TenantID: tid, Active: filter})
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListPromotions(ctx, dbgen.ListPromotionsParams{
		TenantID: tid,
		Active:   filter,
		Limit:    int32(perPage),
		Offset:   common.Offset(page, perPage),
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) effectivePerUserLimit(rule Rule) int32 {
	if rule.PerUserLimit != nil && *rule.PerUserLimit > 0 {
		return *rule.PerUserLimit
	}
	if s != nil && s.DefaultPerUserLimit > 0 {
		return int32(s.DefaultPerUserLimit)
	}
	return 0
}

// RuleFromModel converts the stored promotion into a Rule used for evaluation.
func RuleFromModel(p dbgen.Promotion) Rule {
	rule := Rule{
		Code:         p.Code,
		Kind:         string(p.Kind),
		Value:        p.Value,
		MinSpend:     p.MinSpend,
		UsedCount:    p.UsedCount,
		PerUserLimit: nullableInt32(p.PerUserLimit),
		PercentBps:   nullableInt32(p.PercentBps),
		UsageLimit:   nullableInt32(p.UsageLimit),
		Active:       p.Active,
		ItemIDs:      toUUIDSlice(p.ItemIds),
		CategoryIDs:  toUUIDSlice(p.CategoryIds),
	}
	if p.ValidFrom.Valid {
		rule.ValidFrom = &p.ValidFrom.Time
	}
	if p.ValidTo.Valid {
		rule.ValidTo = &p.ValidTo.Time
	}
	return rule
}

func nullableInt32(v pgtype.Int4) *int32 {
	if v.Valid {
		val := v.Int32
		return &val
	}
	return nil
}

func int4(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}

func toUUIDSlice(values []pgtype.UUID) []uuid.UUID {
	if len(values) == 0 {
		return nil
	}
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, uuid.UUID(v.Bytes))
		}
	}
	return out
}
