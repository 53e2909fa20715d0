package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome and result label values shared by the collectors below.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNoData  = "no_data"
	OutcomeInvalid = "invalid"
	OutcomeDropped = "dropped"
)

// Metrics groups the collectors exported by the lookup pipeline.
// Methods on a nil *Metrics are no-ops.
type Metrics struct {
	CacheRequests    *prometheus.CounterVec
	StoreLookups     *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	Resolutions      *prometheus.CounterVec
	AuditEvents      *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phonecheck_cache_requests_total",
			Help: "Result cache lookups by entry kind and result",
		}, []string{"kind", "result"}),
		StoreLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phonecheck_store_lookups_total",
			Help: "Phone record store lookups by result",
		}, []string{"result"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phonecheck_provider_requests_total",
			Help: "Outbound lookup API requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		ProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phonecheck_provider_request_duration_seconds",
			Help:    "Latency of outbound lookup API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phonecheck_resolutions_total",
			Help: "Resolve calls by outcome",
		}, []string{"outcome"}),
		AuditEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phonecheck_audit_events_total",
			Help: "Query audit entries by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveCache(kind, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveStoreLookup(result string) {
	if m == nil {
		return
	}
	m.StoreLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveProviderRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(operation, outcome).Inc()
	m.ProviderDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAudit(outcome string) {
	if m == nil {
		return
	}
	m.AuditEvents.WithLabelValues(outcome).Inc()
}
