package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for proof generation.
type Metrics struct {
	ProofsGenerated prometheus.Counter
	ProofFailures   *prometheus.CounterVec
	ProveLatency    prometheus.Histogram
}

// New registers and returns proof metrics collectors.
func New() *Metrics {
	return &Metrics{
		ProofsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkkyc_proofs_generated_total",
			Help: "Total number of proofs generated",
		}),
		ProofFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkkyc_proof_failures_total",
			Help: "Total number of failed proof generations, labeled by error code",
		}, []string{"code"}),
		ProveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "zkkyc_prove_latency_seconds",
			Help: "Latency of proving-capability calls in seconds",
			// Proving can take seconds; extend the default buckets.
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) IncrementGenerated() {
	m.ProofsGenerated.Inc()
}

func (m *Metrics) IncrementFailure(code string) {
	m.ProofFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveProveLatency(durationSeconds float64) {
	m.ProveLatency.Observe(durationSeconds)
}
