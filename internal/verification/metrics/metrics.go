package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the verification pipeline.
type Metrics struct {
	Verifications      *prometheus.CounterVec
	ReplaysRejected    prometheus.Counter
	NullifiersConsumed prometheus.Counter
	VerifyLatency      prometheus.Histogram
}

// New registers and returns verification metrics collectors.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkkyc_verifications_total",
			Help: "Total number of proof verifications, labeled by outcome",
		}, []string{"outcome"}),
		ReplaysRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkkyc_proof_replays_rejected_total",
			Help: "Total number of proofs rejected because their nullifier was already consumed",
		}),
		NullifiersConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkkyc_nullifiers_consumed_total",
			Help: "Total number of nullifiers committed to the ledger",
		}),
		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zkkyc_verify_latency_seconds",
			Help:    "Latency of the full verification pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementVerification(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementReplayRejected() {
	m.ReplaysRejected.Inc()
}

func (m *Metrics) IncrementNullifiersConsumed() {
	m.NullifiersConsumed.Inc()
}

func (m *Metrics) ObserveVerifyLatency(durationSeconds float64) {
	m.VerifyLatency.Observe(durationSeconds)
}
