package promotion

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestComputePercent(t *testing.T) {
	percent := int32(2000)
	rule := Rule{Kind: KindPercent, PercentBps: &percent}
	if discount := Compute(100_000, rule); discount != 20_000 {
		t.Fatalf("expected 20000 discount, got %d", discount)
	}
}

func TestComputeFixedCapsAtEligible(t *testing.T) {
	rule := Rule{Kind: KindFixed, Value: 50_000}
	if discount := Compute(30_000, rule); discount != 30_000 {
		t.Fatalf("expected discount capped at 30000, got %d", discount)
	}
}

func TestEligibleSubtotalScoped(t *testing.T) {
	satay := uuidMust("11111111-1111-1111-1111-111111111111")
	tea := uuidMust("22222222-2222-2222-2222-222222222222")
	drinks := uuidMust("33333333-3333-3333-3333-333333333333")
	rule := Rule{ItemIDs: []uuid.UUID{satay}}
	items := []Item{
		{MenuItemID: &satay, Subtotal: 50_000},
		{MenuItemID: &tea, CategoryID: &drinks, Subtotal: 70_000},
	}
	if eligible := EligibleSubtotal(items, rule); eligible != 50_000 {
		t.Fatalf("expected eligible subtotal 50000, got %d", eligible)
	}
	rule = Rule{CategoryIDs: []uuid.UUID{drinks}}
	if eligible := EligibleSubtotal(items, rule); eligible != 70_000 {
		t.Fatalf("expected eligible subtotal 70000, got %d", eligible)
	}
	if eligible := EligibleSubtotal(items, Rule{}); eligible != 120_000 {
		t.Fatalf("expected whole cart, got %d", eligible)
	}
}

func TestValidateWindowAndActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	cases := []struct {
		name string
		rule Rule
		want error
	}{
		{"inactive flag", Rule{}, ErrInactive},
		{"not started", Rule{Active: true, ValidFrom: &later}, ErrInactive},
		{"expired", Rule{Active: true, ValidTo: &earlier}, ErrExpired},
		{"min spend", Rule{Active: true, MinSpend: 10}, ErrMinimumSpendUnmet},
		{"ok", Rule{Active: true, ValidFrom: &earlier, ValidTo: &later}, nil},
	}
	for _, tc := range cases {
		if err := tc.rule.Validate(now, 5); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidateZeroLimitsAreUnlimited(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	zero, two := int32(0), int32(2)

	unlimited := Rule{Active: true, UsageLimit: &zero, UsedCount: 500, PerUserUsed: 9}
	require.NoError(t, unlimited.Validate(now, 0))

	capped := Rule{Active: true, UsageLimit: &two, UsedCount: 2}
	require.ErrorIs(t, capped.Validate(now, 0), ErrUsageLimitReached)

	perUser := Rule{Active: true, EffectiveLimit: 2, PerUserUsed: 2}
	require.ErrorIs(t, perUser.Validate(now, 0), ErrPerUserLimitReached)
}

func uuidMust(value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		panic(err)
	}
	return id
}
