package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegisterMetrics exposes the number of known users on reg.
func RegisterMetrics(r *Registry, reg prometheus.Registerer) prometheus.GaugeFunc {
	return promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "lunari",
			Subsystem: "registry",
			Name:      "users",
			Help:      "Known users, subscribed or not",
		},
		func() float64 { return float64(r.Len()) },
	)
}
