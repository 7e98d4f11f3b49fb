package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersPlacedTotal counts orders placed by fulfillment mode.
	OrdersPlacedTotal *prometheus.CounterVec
	// OrderTransitionsTotal counts order status changes by target status.
	OrderTransitionsTotal *prometheus.CounterVec
	// ReservationTransitionsTotal counts reservation status changes by target status.
	ReservationTransitionsTotal *prometheus.CounterVec
	// LoyaltyPointsTotal sums points moved through the ledger by kind.
	LoyaltyPointsTotal *prometheus.CounterVec
	// KitchenPublishTotal counts kitchen broker publish outcomes.
	KitchenPublishTotal *prometheus.CounterVec
	// TrackingSubscribers is the number of open order tracking websockets.
	TrackingSubscribers prometheus.Gauge
	// NotificationDeliveriesTotal tracks email dispatch outcomes.
	NotificationDeliveriesTotal *prometheus.CounterVec
	// NotificationAttemptLatency records delivery attempt latency in milliseconds.
	NotificationAttemptLatency *prometheus.HistogramVec
	// BackgroundTasksTotal counts asynq task outcomes by type.
	BackgroundTasksTotal *prometheus.CounterVec
	// ScheduledRunsTotal counts cron job runs by job and result.
	ScheduledRunsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Count of orders placed by fulfillment mode.",
		}, []string{"fulfillment"})
		OrderTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Count of order status transitions.",
		}, []string{"status"})
		ReservationTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_transitions_total",
			Help:      "Count of reservation status transitions.",
		}, []string{"status"})
		LoyaltyPointsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_points_total",
			Help:      "Loyalty points posted to the ledger by kind.",
		}, []string{"kind"})
		KitchenPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_publish_total",
			Help:      "Kitchen broker publish outcomes.",
		}, []string{"result"})
		TrackingSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracking_subscribers",
			Help:      "Open order tracking websocket connections.",
		})
		NotificationDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Count of notification delivery outcomes.",
		}, []string{"channel", "result"})
		NotificationAttemptLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_attempt_duration_ms",
			Help:      "Latency for notification delivery attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"channel"})
		BackgroundTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_tasks_total",
			Help:      "Background task outcomes.",
		}, []string{"type", "result"})
		ScheduledRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_runs_total",
			Help:      "Scheduled job runs.",
		}, []string{"job", "result"})

		mustRegisterCollector(reg, OrdersPlacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersPlacedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderTransitionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderTransitionsTotal = v
			}
		})
		mustRegisterCollector(reg, ReservationTransitionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReservationTransitionsTotal = v
			}
		})
		mustRegisterCollector(reg, LoyaltyPointsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LoyaltyPointsTotal = v
			}
		})
		mustRegisterCollector(reg, KitchenPublishTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				KitchenPublishTotal = v
			}
		})
		mustRegisterCollector(reg, TrackingSubscribers, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				TrackingSubscribers = v
			}
		})
		mustRegisterCollector(reg, NotificationDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotificationDeliveriesTotal = v
			}
		})
		mustRegisterCollector(reg, NotificationAttemptLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				NotificationAttemptLatency = v
			}
		})
		mustRegisterCollector(reg, BackgroundTasksTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BackgroundTasksTotal = v
			}
		})
		mustRegisterCollector(reg, ScheduledRunsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ScheduledRunsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

// IncCounter bumps vec for labels when the collector is registered.
func IncCounter(vec *prometheus.CounterVec, labels ...string) {
	if vec != nil {
		vec.WithLabelValues(labels...).Inc()
	}
}

// AddCounter adds v to vec for labels when the collector is registered.
func AddCounter(vec *prometheus.CounterVec, v float64, labels ...string) {
	if vec != nil && v > 0 {
		vec.WithLabelValues(labels...).Add(v)
	}
}

// AddGauge adjusts g when it has been registered.
func AddGauge(g prometheus.Gauge, v float64) {
	if g == nil {
		return
	}
	g.Add(v)
}

// Register registers c with reg and returns it, or returns the collector that
// is already registered under the same descriptor.
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
	return c
}
