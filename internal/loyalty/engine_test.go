package loyalty

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

func orderRule(name string, points int64, bps int32) dbgen.LoyaltyRule {
	return dbgen.LoyaltyRule{ID: newID(), Name: name, Trigger: TriggerOrderPlaced, Active: true, Points: points, PointsPerCurrencyBps: bps}
}

func TestEvaluateOrderRulesWithMultiplier(t *testing.T) {
	// Wednesday.
	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	branch := newID()
	other := newID()

	perSpend := orderRule("per spend", 0, 100)
	bonus := orderRule("midweek bonus", 20, 0)
	bonus.Weekdays = []int32{int32(time.Wednesday)}
	firstOnly := orderRule("first order", 100, 0)
	firstOnly.FirstOrderOnly = true
	otherBranch := orderRule("other branch", 500, 0)
	otherBranch.BranchIds = []pgtype.UUID{other}
	bigSpend := orderRule("big spend", 50, 0)
	bigSpend.MinOrderTotal = 1_000_000
	signup := dbgen.LoyaltyRule{ID: newID(), Name: "welcome", Trigger: TriggerSignup, Active: true, Points: 50}

	rules := []dbgen.LoyaltyRule{perSpend, bonus, firstOnly, otherBranch, bigSpend, signup}
	awards := Evaluate(rules, TriggerOrderPlaced, EvalContext{
		Now:               now,
		OrderTotal:        150_000,
		BranchID:          branch,
		TierMultiplierBps: 15000,
	})
	require.Len(t, awards, 2)
	// floor(150000 * 100 / 10000) = 1500, * 1.5 = 2250
	require.Equal(t, int64(2250), awards[0].Points)
	require.Equal(t, int64(30), awards[1].Points)
	require.Equal(t, int64(2280), Total(awards))
}

func TestEvaluateScalesSummedOrderPointsOnce(t *testing.T) {
	rules := []dbgen.LoyaltyRule{orderRule("a", 5, 0), orderRule("b", 5, 0), orderRule("c", 5, 0)}
	awards := Evaluate(rules, TriggerOrderPlaced, EvalContext{Now: time.Now(), TierMultiplierBps: 15000})

	// floor(15 * 1.5) = 22, not 3 * floor(5 * 1.5) = 21.
	require.Equal(t, int64(22), Total(awards))
	require.Len(t, awards, 3)
	require.Equal(t, []int64{7, 7, 8}, []int64{awards[0].Points, awards[1].Points, awards[2].Points})
	require.Equal(t, rules[2].ID, awards[2].RuleID)

	half := Evaluate([]dbgen.LoyaltyRule{orderRule("a", 1, 0), orderRule("b", 1, 0)}, TriggerOrderPlaced,
		EvalContext{Now: time.Now(), TierMultiplierBps: 5000})
	require.Len(t, half, 1)
	require.Equal(t, int64(1), Total(half))
}

func TestEvaluateFallsBackToTenantRate(t *testing.T) {
	awards := Evaluate(nil, TriggerOrderPlaced, EvalContext{Now: time.Now(), OrderTotal: 99_999, FallbackEarnBps: 100})
	require.Len(t, awards, 1)
	require.Equal(t, "base", awards[0].Key())
	require.Equal(t, int64(999), awards[0].Points)

	inactive := orderRule("paused", 10, 0)
	inactive.Active = false
	awards = Evaluate([]dbgen.LoyaltyRule{inactive}, TriggerOrderPlaced, EvalContext{Now: time.Now(), OrderTotal: 10_000, FallbackEarnBps: 100})
	require.Len(t, awards, 1)
	require.Equal(t, int64(100), awards[0].Points)
}

func TestEvaluateRespectsValidityWindow(t *testing.T) {
	now := time.Now()
	rule := dbgen.LoyaltyRule{ID: newID(), Trigger: TriggerReview, Active: true, Points: 10,
		ValidTo: pgtype.Timestamptz{Time: now.Add(-time.Minute), Valid: true}}
	require.Empty(t, Evaluate([]dbgen.LoyaltyRule{rule}, TriggerReview, EvalContext{Now: now}))
}

func TestTierSelection(t *testing.T) {
	tiers := []dbgen.LoyaltyTier{
		{Name: "Gold", MinPoints: 5000, MultiplierBps: 15000},
		{Name: "Bronze", MinPoints: 0, MultiplierBps: 10000},
		{Name: "Silver", MinPoints: 1000, MultiplierBps: 12000},
	}
	tier, ok := TierFor(tiers, 1200)
	require.True(t, ok)
	require.Equal(t, "Silver", tier.Name)
	next, ok := NextTier(tiers, 1200)
	require.True(t, ok)
	require.Equal(t, "Gold", next.Name)
	_, ok = NextTier(tiers, 9000)
	require.False(t, ok)
	require.Equal(t, int64(15000), MultiplierFor(tiers, 5000))
	require.Equal(t, int64(10000), MultiplierFor(nil, 5000))
}
