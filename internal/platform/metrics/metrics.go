package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry.
// Counters track lifecycle transitions; the histogram covers request latency.
type Metrics struct {
	IssuersCreated      prometheus.Counter
	IssuersRemoved      prometheus.Counter
	EarnersRegistered   prometheus.Counter
	CertificatesIssued  prometheus.Counter
	CertificatesRevoked prometheus.Counter
	TransfersBlocked    prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates a Metrics instance registered on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a Metrics instance registered on the given registerer so
// tests can use isolated registries.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IssuersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "attestry_issuers_created_total",
			Help: "Total number of issuers created",
		}),
		IssuersRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "attestry_issuers_removed_total",
			Help: "Total number of issuers removed",
		}),
		EarnersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "attestry_earners_registered_total",
			Help: "Total number of earners registered",
		}),
		CertificatesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "attestry_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		CertificatesRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "attestry_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		TransfersBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "attestry_transfers_blocked_total",
			Help: "Total number of ownership changes rejected by the transfer guard",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attestry_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, start time.Time) {
	m.RequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
}
