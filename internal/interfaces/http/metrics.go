package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the read API. These are operational metrics exposed
// on the debug listener; the domain /metrics endpoint is a separate JSON
// summary served by the handlers.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the API metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orderstats_http_request_duration_seconds",
				Help:    "Read API request duration by route, method and status",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"route", "method", "status"},
		),
	}
}
