package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDomainMetricsHelpers(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegisterDomainMetrics("resto_test", reg)

	IncCounter(OrdersPlacedTotal, "pickup")
	IncCounter(OrdersPlacedTotal, "pickup")
	AddCounter(LoyaltyPointsTotal, 120, "earn")
	AddCounter(LoyaltyPointsTotal, -5, "earn")

	require.Equal(t, 2.0, testutil.ToFloat64(OrdersPlacedTotal.WithLabelValues("pickup")))
	require.Equal(t, 120.0, testutil.ToFloat64(LoyaltyPointsTotal.WithLabelValues("earn")))

	IncCounter(nil, "ignored")
}
