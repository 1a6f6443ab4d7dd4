package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lunari"

var (
	ticksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Total matching passes executed",
		},
	)

	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "deliveries_total",
			Help:      "Scheduled deliveries by outcome",
		},
		[]string{"status"},
	)

	skippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "skipped_total",
			Help:      "Subscribers due this minute that were skipped",
		},
		[]string{"reason"},
	)

	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "dispatch_duration_seconds",
			Help:      "Time to look up and send one delivery",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

func recordDelivery(status string, d time.Duration) {
	deliveriesTotal.WithLabelValues(status).Inc()
	dispatchDuration.Observe(d.Seconds())
}

func recordSkipped(reason string) {
	skippedTotal.WithLabelValues(reason).Inc()
}
