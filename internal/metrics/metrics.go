package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the treasury ledger.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ledger operations by kind and outcome
	Operations *prometheus.CounterVec

	// Recipients per committed settlement
	BatchSize prometheus.Histogram

	// Settlement latency including transfers and commit
	SettleLatency prometheus.Histogram

	// Compensating transfers issued after a partial settlement
	Compensations *prometheus.CounterVec
}

// New creates a Metrics instance with all ledger metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_operations_total",
			Help: "Total ledger operations by kind and outcome",
		}, []string{"operation", "outcome"}), // outcome: "ok" or the error kind

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "treasury_settlement_recipients",
			Help:    "Number of recipients in committed settlements",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 75, 100},
		}),

		SettleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "treasury_settlement_duration_seconds",
			Help:    "Duration of settlement execution including transfers and commit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_compensations_total",
			Help: "Compensating transfers issued to undo partial effects, by result",
		}, []string{"result"}),
	}
}

// IncrementOperation records one ledger operation outcome.
func (m *Metrics) IncrementOperation(operation, outcome string) {
	if m != nil {
		m.Operations.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveSettlement records a committed settlement.
func (m *Metrics) ObserveSettlement(recipients int, d time.Duration) {
	if m != nil {
		m.BatchSize.Observe(float64(recipients))
		m.SettleLatency.Observe(d.Seconds())
	}
}

// IncrementCompensation records one compensating transfer.
func (m *Metrics) IncrementCompensation(ok bool) {
	if m != nil {
		result := "ok"
		if !ok {
			result = "failed"
		}
		m.Compensations.WithLabelValues(result).Inc()
	}
}
