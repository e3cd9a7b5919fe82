package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for credential operations.
type Metrics struct {
	CredentialsIssued     *prometheus.CounterVec
	CredentialsRevoked    prometheus.Counter
	CredentialsSuperseded prometheus.Counter
	ValidityChecks        *prometheus.CounterVec
	IssueLatency          prometheus.Histogram
}

// New registers and returns credential metrics collectors.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkkyc_credentials_issued_total",
			Help: "Total number of credentials issued, labeled by issuer",
		}, []string{"issuer"}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkkyc_credentials_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		CredentialsSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkkyc_credentials_superseded_total",
			Help: "Total number of credentials superseded by reissuance",
		}),
		ValidityChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkkyc_credential_validity_checks_total",
			Help: "Total number of validity checks, labeled by outcome",
		}, []string{"outcome"}),
		IssueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zkkyc_credential_issue_latency_seconds",
			Help:    "Latency of credential issuance in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementIssued(issuer string) {
	m.CredentialsIssued.WithLabelValues(issuer).Inc()
}

func (m *Metrics) IncrementRevoked() {
	m.CredentialsRevoked.Inc()
}

func (m *Metrics) IncrementSuperseded() {
	m.CredentialsSuperseded.Inc()
}

func (m *Metrics) IncrementValidityCheck(outcome string) {
	m.ValidityChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveIssueLatency(durationSeconds float64) {
	m.IssueLatency.Observe(durationSeconds)
}
