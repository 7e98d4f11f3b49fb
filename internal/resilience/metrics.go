package resilience

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/backend-resto/internal/obs"
)

// Breaker collectors stay nil until Register is called.
var (
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
)

// Register creates the breaker collectors under namespace.
func Register(namespace string, reg prometheus.Registerer) {
	BreakerState = obs.Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "breaker_state",
		Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"}))
	BreakerTransitions = obs.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "breaker_transitions_total",
		Help:      "Breaker state transitions.",
	}, []string{"target", "from", "to"}))
}
