// Package pricing holds the integer money arithmetic shared by carts,
// checkout and loyalty. All amounts are minor units; all rates are basis points.
package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor units.
type Money = int64

const bpsDenominator = 10000

// Line describes a priced cart or order line.
type Line struct {
	Qty           int
	UnitPrice     Money
	ModifierTotal Money
}

// Total returns qty × (unit price + modifiers). Non-positive quantities count as zero.
func (l Line) Total() Money {
	if l.Qty <= 0 {
		return 0
	}
	return Money(l.Qty) * (l.UnitPrice + l.ModifierTotal)
}

// Subtotal sums line totals.
func Subtotal(lines []Line) Money {
	var subtotal Money
	for _, l := range lines {
		subtotal += l.Total()
	}
	return subtotal
}

// Tax returns floor(base × bps / 10000).
func Tax(base Money, bps int64) Money {
	if base <= 0 || bps <= 0 {
		return 0
	}
	return base * bps / bpsDenominator
}

// PercentDiscount returns floor(subtotal × bps / 10000) capped at subtotal.
func PercentDiscount(subtotal Money, bps int64) Money {
	if subtotal <= 0 || bps <= 0 {
		return 0
	}
	d := subtotal * bps / bpsDenominator
	if d > subtotal {
		return subtotal
	}
	return d
}

// FixedDiscount returns min(value, subtotal), never negative.
func FixedDiscount(value, subtotal Money) Money {
	if value <= 0 || subtotal <= 0 {
		return 0
	}
	if value > subtotal {
		return subtotal
	}
	return value
}

// PointsEarned returns floor(total × perCurrencyBps / 10000).
func PointsEarned(total Money, perCurrencyBps int64) int64 {
	if total <= 0 || perCurrencyBps <= 0 {
		return 0
	}
	return total * perCurrencyBps / bpsDenominator
}

// ApplyMultiplier returns floor(points × multiplierBps / 10000). A zero
// multiplier is treated as 1×.
func ApplyMultiplier(points int64, multiplierBps int64) int64 {
	if points <= 0 {
		return 0
	}
	if multiplierBps <= 0 {
		return points
	}
	return points * multiplierBps / bpsDenominator
}

func pow10(exp int) int64 {
	p := int64(1)
	for i := 0; i < exp; i++ {
		p *= 10
	}
	return p
}

// PointsValue converts points into minor units: floor(points × 10^exp / ratio),
// where ratio is the number of points worth one major unit.
func PointsValue(points, ratio int64, exponent int) Money {
	if points <= 0 || ratio <= 0 {
		return 0
	}
	return points * pow10(exponent) / ratio
}

// PointsForValue is the inverse of PointsValue: ceil(value × ratio / 10^exp).
func PointsForValue(value Money, ratio int64, exponent int) int64 {
	if value <= 0 || ratio <= 0 {
		return 0
	}
	unit := pow10(exponent)
	return (value*ratio + unit - 1) / unit
}

// QuoteInput carries everything Quote needs besides the lines.
type QuoteInput struct {
	TaxBps        int64
	PromoDiscount Money

	PointsRequested int64
	PointsBalance   int64
	RedeemRatio     int64
	Exponent        int
	MaxRedeemBps    int64

	EarnBps           int64
	TierMultiplierBps int64
}

// Quote is the priced breakdown of a cart or order.
type Quote struct {
	Subtotal       Money `json:"subtotal"`
	PromoDiscount  Money `json:"promo_discount"`
	PointsDiscount Money `json:"points_discount"`
	PointsRedeemed int64 `json:"points_redeemed"`
	Tax            Money `json:"tax"`
	Total          Money `json:"total"`
	PointsEarned   int64 `json:"points_earned"`
}

// Discount returns the combined promotion and points discount.
func (q Quote) Discount() Money {
	return q.PromoDiscount + q.PointsDiscount
}

// Compute prices lines. Promotion first, then points capped at what is left
// and by MaxRedeemBps of the subtotal, then tax on the pre-discount subtotal.
func Compute(lines []Line, in QuoteInput) Quote {
	q := Quote{Subtotal: Subtotal(lines)}
	q.PromoDiscount = FixedDiscount(in.PromoDiscount, q.Subtotal)

	points := in.PointsRequested
	if points > in.PointsBalance {
		points = in.PointsBalance
	}
	if points > 0 {
		limit := q.Subtotal - q.PromoDiscount
		if in.MaxRedeemBps > 0 {
			if pct := PercentDiscount(q.Subtotal, in.MaxRedeemBps); pct < limit {
				limit = pct
			}
		} else {
			limit = 0
		}
		value := PointsValue(points, in.RedeemRatio, in.Exponent)
		if value > limit {
			points = PointsForValue(limit, in.RedeemRatio, in.Exponent)
			value = PointsValue(points, in.RedeemRatio, in.Exponent)
			if value > limit {
				value = limit
			}
		}
		if value <= 0 {
			points = 0
			value = 0
		}
		q.PointsRedeemed = points
		q.PointsDiscount = value
	}

	q.Tax = Tax(q.Subtotal, in.TaxBps)
	q.Total = q.Subtotal - q.PromoDiscount - q.PointsDiscount + q.Tax
	if q.Total < 0 {
		q.Total = 0
	}
	q.PointsEarned = ApplyMultiplier(PointsEarned(q.Total, in.EarnBps), in.TierMultiplierBps)
	return q
}

// Format renders minor units for display, e.g. "IDR 125,000" or "USD 12.50".
func Format(amount Money, currency string, exponent int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	major, minor := amount, Money(0)
	if exponent > 0 {
		unit := pow10(exponent)
		major, minor = amount/unit, amount%unit
	}
	digits := strconv.FormatInt(major, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if exponent > 0 {
		out += fmt.Sprintf(".%0*d", exponent, minor)
	}
	if currency = strings.TrimSpace(currency); currency != "" {
		out = currency + " " + out
	}
	return out
}
