package promotion

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/pricing"
)

var (
	// ErrNotEligible is returned when the promotion does not apply to any line.
	ErrNotEligible = errors.New("promotion not eligible")
	// ErrUsageLimitReached indicates the promotion has exhausted the global quota.
	ErrUsageLimitReached = errors.New("promotion usage limit reached")
	// ErrPerUserLimitReached indicates the caller has exceeded the per-user allowance.
	ErrPerUserLimitReached = errors.New("promotion per-user usage limit reached")
	// ErrInactive is returned before the window opens or when the promotion is switched off.
	ErrInactive = errors.New("promotion not active")
	// ErrExpired is returned after the window closes.
	ErrExpired = errors.New("promotion expired")
	// ErrMinimumSpendUnmet indicates the cart subtotal did not meet the requirement.
	ErrMinimumSpendUnmet = errors.New("promotion minimum spend not met")
)

// Kinds of promotion.
const (
	KindPercent = "percent"
	KindFixed   = "fixed"
)

// Rule captures the runtime constraints of a promotion.
type Rule struct {
	Code           string
	Kind           string
	Value          int64
	PercentBps     *int32
	MinSpend       int64
	UsageLimit     *int32
	UsedCount      int32
	PerUserLimit   *int32
	ValidFrom      *time.Time
	ValidTo        *time.Time
	Active         bool
	ItemIDs        []uuid.UUID
	CategoryIDs    []uuid.UUID
	PerUserUsed    int32
	EffectiveLimit int32
}

// Item represents a cart line considered for discount.
type Item struct {
	MenuItemID *uuid.UUID
	CategoryID *uuid.UUID
	Subtotal   int64
}

// Validate ensures the rule can be applied at now for the given subtotal.
func (r Rule) Validate(now time.Time, cartTotal int64) error {
	if !r.Active {
		return ErrInactive
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrInactive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	// A zero or absent usage limit means unlimited.
	if r.UsageLimit != nil && *r.UsageLimit > 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if r.EffectiveLimit > 0 && r.PerUserUsed >= r.EffectiveLimit {
		return ErrPerUserLimitReached
	}
	if cartTotal < r.MinSpend {
		return ErrMinimumSpendUnmet
	}
	return nil
}

func (r Rule) scoped() bool {
	return len(r.ItemIDs) > 0 || len(r.CategoryIDs) > 0
}

// EligibleSubtotal sums the lines the rule applies to. Unscoped rules cover
// the whole cart; scoped rules match by menu item or by category.
func EligibleSubtotal(items []Item, r Rule) int64 {
	var total int64
	for _, it := range items {
		if it.Subtotal <= 0 {
			continue
		}
		if !r.scoped() || ruleMatchesItem(r, it) {
			total += it.Subtotal
		}
	}
	return total
}

func ruleMatchesItem(r Rule, it Item) bool {
	if it.MenuItemID != nil {
		for _, id := range r.ItemIDs {
			if id == *it.MenuItemID {
				return true
			}
		}
	}
	if it.CategoryID != nil {
		for _, id := range r.CategoryIDs {
			if id == *it.CategoryID {
				return true
			}
		}
	}
	return false
}

// Compute determines the discount for the eligible subtotal.
func Compute(eligible int64, r Rule) int64 {
	if eligible <= 0 {
		return 0
	}
	switch r.Kind {
	case KindPercent:
		if r.PercentBps == nil {
			return 0
		}
		return pricing.PercentDiscount(eligible, int64(*r.PercentBps))
	default:
		return pricing.FixedDiscount(r.Value, eligible)
	}
}
