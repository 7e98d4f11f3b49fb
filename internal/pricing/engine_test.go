package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArithmeticHelpersFloor(t *testing.T) {
	require.Equal(t, Money(1099), Tax(10999, 1000))
	require.Equal(t, Money(0), Tax(-5, 1000))
	require.Equal(t, Money(3333), PercentDiscount(33333, 1000))
	require.Equal(t, Money(500), PercentDiscount(500, 20000))
	require.Equal(t, Money(200), FixedDiscount(500, 200))
	require.Equal(t, Money(0), FixedDiscount(-1, 200))
	require.Equal(t, int64(12), PointsEarned(125000, 1))
	require.Equal(t, int64(18), ApplyMultiplier(12, 15000))
	require.Equal(t, int64(12), ApplyMultiplier(12, 0))
}

func TestPointsValueRoundTrip(t *testing.T) {
	// 100 points = 1.00 USD (exponent 2).
	require.Equal(t, Money(150), PointsValue(150, 100, 2))
	require.Equal(t, int64(150), PointsForValue(150, 100, 2))
	// 3 points per rupiah, exponent 0: 10 points buy 3, 3 rupiah need 9 points.
	require.Equal(t, Money(3), PointsValue(10, 3, 0))
	require.Equal(t, int64(9), PointsForValue(3, 3, 0))
}

func TestComputeOrdersDiscountsBeforeTax(t *testing.T) {
	lines := []Line{
		{Qty: 2, UnitPrice: 25000, ModifierTotal: 5000},
		{Qty: 1, UnitPrice: 15000},
		{Qty: 0, UnitPrice: 99999},
	}
	q := Compute(lines, QuoteInput{
		TaxBps:          1000,
		PromoDiscount:   10000,
		PointsRequested: 5000,
		PointsBalance:   8000,
		RedeemRatio:     1,
		MaxRedeemBps:    5000,
		EarnBps:         100,
	})
	require.Equal(t, Money(75000), q.Subtotal)
	require.Equal(t, Money(10000), q.PromoDiscount)
	require.Equal(t, int64(5000), q.PointsRedeemed)
	require.Equal(t, Money(5000), q.PointsDiscount)
	require.Equal(t, Money(7500), q.Tax)
	require.Equal(t, Money(67500), q.Total)
	require.Equal(t, int64(675), q.PointsEarned)
	require.Equal(t, Money(15000), q.Discount())
}

func TestComputeCapsPointsByBalanceAndMaxRedeem(t *testing.T) {
	lines := []Line{{Qty: 1, UnitPrice: 10000}}

	q := Compute(lines, QuoteInput{PointsRequested: 9000, PointsBalance: 2000, RedeemRatio: 1, MaxRedeemBps: 10000})
	require.Equal(t, int64(2000), q.PointsRedeemed)

	q = Compute(lines, QuoteInput{PointsRequested: 9000, PointsBalance: 9000, RedeemRatio: 1, MaxRedeemBps: 5000})
	require.Equal(t, int64(5000), q.PointsRedeemed)
	require.Equal(t, Money(5000), q.PointsDiscount)

	q = Compute(lines, QuoteInput{PromoDiscount: 8000, PointsRequested: 9000, PointsBalance: 9000, RedeemRatio: 1, MaxRedeemBps: 5000})
	require.Equal(t, int64(2000), q.PointsRedeemed)
	require.Equal(t, Money(0), q.Total)

	q = Compute(lines, QuoteInput{PointsRequested: 100, PointsBalance: 100, RedeemRatio: 1})
	require.Zero(t, q.PointsRedeemed)
}

func TestComputeNeverGoesNegative(t *testing.T) {
	q := Compute([]Line{{Qty: 1, UnitPrice: 100}}, QuoteInput{PromoDiscount: 1000})
	require.Equal(t, Money(100), q.PromoDiscount)
	require.Equal(t, Money(0), q.Total)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		amount   Money
		currency string
		exponent int
		want     string
	}{
		{125000, "IDR", 0, "IDR 125,000"},
		{999, "IDR", 0, "IDR 999"},
		{1250, "USD", 2, "USD 12.50"},
		{123456705, "USD", 2, "USD 1,234,567.05"},
		{-5, "", 2, "-0.05"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Format(tc.amount, tc.currency, tc.exponent))
	}
}
