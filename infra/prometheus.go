package infra

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// KycMetrics holds the service collectors, on a dedicated registry so that tests can
// build as many instances as they need.
type KycMetrics struct {
	registry *prometheus.Registry

	transitions        *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
	sideEffectFailures *prometheus.CounterVec
}

func NewKycMetrics() *KycMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &KycMetrics{
		registry: registry,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_state_transitions_total",
			Help: "Number of recorded kyc case state transitions",
		}, []string{"from", "to"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_upstream_call_duration_seconds",
			Help:    "Duration of the calls to the document intelligence and reasoning services",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"service", "outcome"}),
		sideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_side_effect_failures_total",
			Help: "Number of failed non critical writes",
		}, []string{"name"}),
	}
}

func (m *KycMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *KycMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *KycMetrics) TransitionRecorded(from, to string) {
	if from == "" {
		from = "none"
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *KycMetrics) UpstreamCallDone(service string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.upstreamDuration.WithLabelValues(service, outcome).Observe(time.Since(start).Seconds())
}

func (m *KycMetrics) SideEffectFailed(name string) {
	m.sideEffectFailures.WithLabelValues(name).Inc()
}
