package loyalty

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/repo"
)

// TierInput is the admin payload for tiers.
type TierInput struct {
	Name          string   `json:"name" yaml:"name" validate:"required,max=60"`
	MinPoints     int64    `json:"min_points" yaml:"min_points" validate:"gte=0"`
	MultiplierBps int32    `json:"multiplier_bps" yaml:"multiplier_bps" validate:"gte=0,lte=100000"`
	Benefits      []string `json:"benefits" yaml:"benefits" validate:"omitempty,dive,max=200"`
	Position      int32    `json:"position" yaml:"position"`
}

// RuleInput is the admin payload for earning rules.
type RuleInput struct {
	Name                 string     `json:"name" yaml:"name" validate:"required,max=120"`
	Trigger              string     `json:"trigger" yaml:"trigger" validate:"required,oneof=order_placed signup referral birthday review"`
	Active               *bool      `json:"active" yaml:"active"`
	Points               int64      `json:"points" yaml:"points" validate:"gte=0"`
	PointsPerCurrencyBps int32      `json:"points_per_currency_bps" yaml:"points_per_currency_bps" validate:"gte=0,lte=10000"`
	MinOrderTotal        int64      `json:"min_order_total" yaml:"min_order_total" validate:"gte=0"`
	BranchIDs            []string   `json:"branch_ids" yaml:"branch_ids" validate:"omitempty,dive,uuid"`
	Weekdays             []int32    `json:"weekdays" yaml:"weekdays" validate:"omitempty,dive,gte=0,lte=6"`
	FirstOrderOnly       bool       `json:"first_order_only" yaml:"first_order_only"`
	ValidFrom            *time.Time `json:"valid_from" yaml:"valid_from"`
	ValidTo              *time.Time `json:"valid_to" yaml:"valid_to"`
}

func (in RuleInput) check() error {
	if err := common.ValidateStruct(in); err != nil {
		return err
	}
	if in.Points == 0 && in.PointsPerCurrencyBps == 0 {
		return common.BadRequest("points", "a rule must award points or points_per_currency_bps", nil)
	}
	if in.PointsPerCurrencyBps > 0 && in.Trigger != string(TriggerOrderPlaced) {
		return common.BadRequest("points_per_currency_bps", "only order_placed rules can scale with the order total", nil)
	}
	if in.ValidFrom != nil && in.ValidTo != nil && in.ValidTo.Before(*in.ValidFrom) {
		return common.BadRequest("valid_to", "valid_to must be after valid_from", nil)
	}
	return nil
}

func (in RuleInput) params(tid pgtype.UUID) (dbgen.CreateLoyaltyRuleParams, error) {
	branches, err := common.UUIDs("branch_ids", in.BranchIDs)
	if err != nil {
		return dbgen.CreateLoyaltyRuleParams{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	weekdays := in.Weekdays
	if weekdays == nil {
		weekdays = []int32{}
	}
	return dbgen.CreateLoyaltyRuleParams{
		TenantID:             tid,
		Name:                 in.Name,
		Trigger:              dbgen.LoyaltyTrigger(in.Trigger),
		Active:               active,
		Points:               in.Points,
		PointsPerCurrencyBps: in.PointsPerCurrencyBps,
		MinOrderTotal:        in.MinOrderTotal,
		BranchIds:            branches,
		Weekdays:             weekdays,
		FirstOrderOnly:       in.FirstOrderOnly,
		ValidFrom:            common.TimestamptzPtr(in.ValidFrom),
		ValidTo:              common.TimestamptzPtr(in.ValidTo),
	}, nil
}

func benefitsOrEmpty(b []string) []string {
	if b == nil {
		return []string{}
	}
	return b
}

// CreateTier inserts a tier.
func (s *Service) CreateTier(ctx context.Context, in TierInput) (dbgen.LoyaltyTier, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.LoyaltyTier{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return dbgen.LoyaltyTier{}, err
	}
	tier, err := s.Q.CreateLoyaltyTier(ctx, dbgen.CreateLoyaltyTierParams{
		TenantID:      tid,
		Name:          in.Name,
		MinPoints:     in.MinPoints,
		MultiplierBps: defaultMultiplier(in.MultiplierBps),
		Benefits:      benefitsOrEmpty(in.Benefits),
		Position:      in.Position,
	})
	return tier, common.DBError(err, "tier not found")
}

func defaultMultiplier(v int32) int32 {
	if v <= 0 {
		return 10000
	}
	return v
}

// UpdateTier replaces a tier.
func (s *Service) UpdateTier(ctx context.Context, id string, in TierInput) (dbgen.LoyaltyTier, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.LoyaltyTier{}, err
	}
	tierID, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.LoyaltyTier{}, err
	}
	if err := common.ValidateStruct(in); err != nil {
		return dbgen.LoyaltyTier{}, err
	}
	tier, err := s.Q.UpdateLoyaltyTier(ctx, dbgen.UpdateLoyaltyTierParams{
		TenantID:      tid,
		ID:            tierID,
		Name:          in.Name,
		MinPoints:     in.MinPoints,
		MultiplierBps: defaultMultiplier(in.MultiplierBps),
		Benefits:      benefitsOrEmpty(in.Benefits),
		Position:      in.Position,
	})
	return tier, common.DBError(err, "tier not found")
}

// DeleteTier removes a tier. Accounts pointing at it lose their tier id
// until their next earn.
func (s *Service) DeleteTier(ctx context.Context, id string) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	tierID, err := common.ParseUUID("id", id)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteLoyaltyTier(ctx, dbgen.DeleteLoyaltyTierParams{TenantID: tid, ID: tierID})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("tier not found")
	}
	return nil
}

// Rules lists every rule, active or not.
func (s *Service) Rules(ctx context.Context) ([]dbgen.LoyaltyRule, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Q.ListLoyaltyRules(ctx, dbgen.ListLoyaltyRulesParams{TenantID: tid})
}

// CreateRule inserts an earning rule.
func (s *Service) CreateRule(ctx context.Context, in RuleInput) (dbgen.LoyaltyRule, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.LoyaltyRule{}, err
	}
	if err := in.check(); err != nil {
		return dbgen.LoyaltyRule{}, err
	}
	p, err := in.params(tid)
	if err != nil {
		return dbgen.LoyaltyRule{}, err
	}
	rule, err := s.Q.CreateLoyaltyRule(ctx, p)
	return rule, common.DBError(err, "rule not found")
}

// UpdateRule replaces an earning rule.
func (s *Service) UpdateRule(ctx context.Context, id string, in RuleInput) (dbgen.LoyaltyRule, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return dbgen.LoyaltyRule{}, err
	}
	ruleID, err := common.ParseUUID("id", id)
	if err != nil {
		return dbgen.LoyaltyRule{}, err
	}
	if err := in.check(); err != nil {
		return dbgen.LoyaltyRule{}, err
	}
	p, err := in.params(tid)
	if err != nil {
		return dbgen.LoyaltyRule{}, err
	}
	rule, err := s.Q.UpdateLoyaltyRule(ctx, dbgen.UpdateLoyaltyRuleParams{
		TenantID:             tid,
		ID:                   ruleID,
		Name:                 p.Name,
		Trigger:              p.Trigger,
		Active:               p.Active,
		Points:               p.Points,
		PointsPerCurrencyBps: p.PointsPerCurrencyBps,
		MinOrderTotal:        p.MinOrderTotal,
		BranchIds:            p.BranchIds,
		Weekdays:             p.Weekdays,
		FirstOrderOnly:       p.FirstOrderOnly,
		ValidFrom:            p.ValidFrom,
		ValidTo:              p.ValidTo,
	})
	return rule, common.DBError(err, "rule not found")
}

// DeleteRule removes an earning rule. Posted transactions keep their rule id.
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return err
	}
	ruleID, err := common.ParseUUID("id", id)
	if err != nil {
		return err
	}
	n, err := s.Q.DeleteLoyaltyRule(ctx, dbgen.DeleteLoyaltyRuleParams{TenantID: tid, ID: ruleID})
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("rule not found")
	}
	return nil
}
