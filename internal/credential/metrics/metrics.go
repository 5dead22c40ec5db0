package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	OutcomeCached   = "cached"
	OutcomeVerified = "verified"
	OutcomeDenied   = "denied"
	OutcomeOffline  = "offline"
)

// Metrics holds Prometheus collectors for the learner's credential requests.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	MintCallDuration prometheus.Histogram
}

// New registers collectors with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "entangledu_credential_requests_total",
			Help: "Credential requests by outcome",
		}, []string{"outcome"}),
		MintCallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "entangledu_credential_mint_call_seconds",
			Help:    "Duration of mint calls to the issuer",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementRequests(outcome string) {
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveMintCall(seconds float64) {
	m.MintCallDuration.Observe(seconds)
}
