// Package loyalty runs the points program: tiers, earning rules, the
// append-only ledger and point expiry.
package loyalty

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

// Triggers accepted by earning rules.
const (
	TriggerOrderPlaced = dbgen.LoyaltyTriggerOrderPlaced
	TriggerSignup      = dbgen.LoyaltyTriggerSignup
	TriggerReferral    = dbgen.LoyaltyTriggerReferral
	TriggerBirthday    = dbgen.LoyaltyTriggerBirthday
	TriggerReview      = dbgen.LoyaltyTriggerReview
)

// EvalContext describes the event being scored.
type EvalContext struct {
	Now        time.Time
	Location   *time.Location
	OrderTotal int64
	BranchID   pgtype.UUID
	FirstOrder bool

	TierMultiplierBps int64
	// FallbackEarnBps applies to order_placed when no active order rule exists.
	FallbackEarnBps int64
}

// Award is the outcome of one matching rule.
type Award struct {
	RuleID   pgtype.UUID `json:"rule_id"`
	RuleName string      `json:"rule_name"`
	Points   int64       `json:"points"`
}

// Key identifies the award for idempotent posting.
func (a Award) Key() string {
	if !a.RuleID.Valid {
		return "base"
	}
	return common.UUIDString(a.RuleID)
}

// Matches reports whether rule applies to trigger under ec.
func Matches(rule dbgen.LoyaltyRule, trigger dbgen.LoyaltyTrigger, ec EvalContext) bool {
	if !rule.Active || rule.Trigger != trigger {
		return false
	}
	now := ec.Now
	if rule.ValidFrom.Valid && now.Before(rule.ValidFrom.Time) {
		return false
	}
	if rule.ValidTo.Valid && now.After(rule.ValidTo.Time) {
		return false
	}
	if trigger != TriggerOrderPlaced {
		return true
	}
	if rule.MinOrderTotal > 0 && ec.OrderTotal < rule.MinOrderTotal {
		return false
	}
	if rule.FirstOrderOnly && !ec.FirstOrder {
		return false
	}
	if len(rule.BranchIds) > 0 {
		found := false
		for _, id := range rule.BranchIds {
			if id.Valid && ec.BranchID.Valid && id.Bytes == ec.BranchID.Bytes {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(rule.Weekdays) > 0 {
		loc := ec.Location
		if loc == nil {
			loc = time.UTC
		}
		wd := int32(now.In(loc).Weekday())
		found := false
		for _, d := range rule.Weekdays {
			if d == wd {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Evaluate returns one award per matching rule. For order_placed the rule
// points are summed and the tier multiplier is applied once to that sum; the
// flooring remainder goes to the last award so each rule keeps its own entry.
// When no active order rule exists the tenant base rate produces a single
// award without a rule id.
func Evaluate(rules []dbgen.LoyaltyRule, trigger dbgen.LoyaltyTrigger, ec EvalContext) []Award {
	var awards []Award
	hasOrderRule := false
	for _, rule := range rules {
		if rule.Active && rule.Trigger == TriggerOrderPlaced {
			hasOrderRule = true
		}
		if !Matches(rule, trigger, ec) {
			continue
		}
		points := rule.Points
		if trigger == TriggerOrderPlaced {
			points += pricing.PointsEarned(ec.OrderTotal, int64(rule.PointsPerCurrencyBps))
		}
		if points <= 0 {
			continue
		}
		awards = append(awards, Award{RuleID: rule.ID, RuleName: rule.Name, Points: points})
	}
	if trigger != TriggerOrderPlaced {
		return awards
	}
	if !hasOrderRule {
		base := pricing.ApplyMultiplier(pricing.PointsEarned(ec.OrderTotal, ec.FallbackEarnBps), ec.TierMultiplierBps)
		if base > 0 {
			awards = append(awards, Award{RuleName: "base", Points: base})
		}
		return awards
	}
	return scaleAwards(awards, ec.TierMultiplierBps)
}

// scaleAwards multiplies the summed points once and splits the result back
// over the awards in proportion, flooring each share.
func scaleAwards(awards []Award, multiplierBps int64) []Award {
	if len(awards) == 0 {
		return awards
	}
	target := pricing.ApplyMultiplier(Total(awards), multiplierBps)
	var assigned int64
	for i := range awards {
		awards[i].Points = pricing.ApplyMultiplier(awards[i].Points, multiplierBps)
		assigned += awards[i].Points
	}
	awards[len(awards)-1].Points += target - assigned
	out := awards[:0]
	for _, a := range awards {
		if a.Points > 0 {
			out = append(out, a)
		}
	}
	return out
}

// Total sums award points.
func Total(awards []Award) int64 {
	var sum int64
	for _, a := range awards {
		sum += a.Points
	}
	return sum
}

// TierFor returns the highest tier whose threshold is at or below lifetime.
func TierFor(tiers []dbgen.LoyaltyTier, lifetime int64) (dbgen.LoyaltyTier, bool) {
	var (
		best  dbgen.LoyaltyTier
		found bool
	)
	for _, t := range tiers {
		if t.MinPoints <= lifetime && (!found || t.MinPoints >= best.MinPoints) {
			best = t
			found = true
		}
	}
	return best, found
}

// NextTier returns the lowest tier above lifetime.
func NextTier(tiers []dbgen.LoyaltyTier, lifetime int64) (dbgen.LoyaltyTier, bool) {
	var (
		next  dbgen.LoyaltyTier
		found bool
	)
	for _, t := range tiers {
		if t.MinPoints > lifetime && (!found || t.MinPoints < next.MinPoints) {
			next = t
			found = true
		}
	}
	return next, found
}

// MultiplierFor returns the multiplier of the tier matching lifetime, or 1×.
func MultiplierFor(tiers []dbgen.LoyaltyTier, lifetime int64) int64 {
	if t, ok := TierFor(tiers, lifetime); ok && t.MultiplierBps > 0 {
		return int64(t.MultiplierBps)
	}
	return 10000
}
