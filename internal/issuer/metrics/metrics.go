package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mint outcomes.
const (
	OutcomeIssued        = "issued"
	OutcomeInvalid       = "invalid_request"
	OutcomeSigningFailed = "signing_failed"
	OutcomeStoreFailed   = "store_failed"
)

// Metrics holds Prometheus collectors for the issuer.
type Metrics struct {
	MintsTotal      *prometheus.CounterVec
	SigningDuration prometheus.Histogram
	MintLogSize     prometheus.Gauge
}

// New registers issuer collectors with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MintsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "entangledu_mints_total",
			Help: "Total number of mint requests, labeled by outcome",
		}, []string{"outcome"}),
		SigningDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "entangledu_signing_duration_seconds",
			Help:    "Time spent signing certificate digests",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		MintLogSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "entangledu_mint_log_size",
			Help: "Number of certificates in the mint log",
		}),
	}
}

func (m *Metrics) IncrementMints(outcome string) {
	m.MintsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSigningDuration(seconds float64) {
	m.SigningDuration.Observe(seconds)
}

func (m *Metrics) SetMintLogSize(n int) {
	m.MintLogSize.Set(float64(n))
}
