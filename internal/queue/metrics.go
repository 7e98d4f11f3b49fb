package queue

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/backend-resto/internal/obs"
)

// Queue collectors stay nil until Register is called.
var (
	QueueDepth          *prometheus.GaugeVec
	QueueProcessedTotal *prometheus.CounterVec
	QueueDLQSize        *prometheus.GaugeVec
)

// Register creates the queue collectors under namespace.
func Register(namespace string, reg prometheus.Registerer) {
	QueueDepth = obs.Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Ready tasks per kind.",
	}, []string{"kind"}))
	QueueProcessedTotal = obs.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_processed_total",
		Help:      "Processed tasks by outcome.",
	}, []string{"kind", "status"}))
	QueueDLQSize = obs.Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_dlq_size",
		Help:      "Dead-lettered tasks per kind.",
	}, []string{"kind"}))
}

func recordProcessed(kind, status string) {
	obs.IncCounter(QueueProcessedTotal, kind, status)
}
