package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message outcome labels.
const (
	OutcomeOK      = "ok"      // aggregated and acknowledged
	OutcomePoison  = "poison"  // body not decodable, dropped
	OutcomeInvalid = "invalid" // failed validation, dropped
	OutcomeRetry   = "retry"   // store failure, left for redelivery
)

// Metrics instruments the consumer pipeline.
type Metrics struct {
	Messages        *prometheus.CounterVec
	ProcessDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
}

// NewMetrics registers the consumer metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderstats_messages_total",
				Help: "Messages processed by final outcome",
			},
			[]string{"outcome"},
		),
		ProcessDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orderstats_process_duration_seconds",
				Help:    "Per-message decode+validate+aggregate+ack duration",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
		),
		BatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orderstats_batch_size",
				Help:    "Messages received per long-poll",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
	}
}
