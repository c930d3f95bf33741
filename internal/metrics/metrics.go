// Package metrics exposes Prometheus instrumentation for the engines.
//
// Metrics live on a private registry so tests and multiple servers in one
// process do not collide on the default one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shelfwise"

// Recompute results.
const (
	ResultOK       = "ok"
	ResultSkipped  = "skipped" // book no longer exists
	ResultRetried  = "retried"
	ResultQueued   = "queued"
	ResultFailed   = "failed"
	ResultRejected = "rejected" // breaker open
)

// Metrics holds every collector the server exports.
type Metrics struct {
	registry *prometheus.Registry

	RecomputeTotal       *prometheus.CounterVec
	RecomputeDuration    *prometheus.HistogramVec
	QueueDepth           prometheus.Gauge
	QueueProcessed       *prometheus.CounterVec
	SagaCompensations    *prometheus.CounterVec
	Recommendations      *prometheus.CounterVec
	ActivitiesPurged     prometheus.Counter
	BreakerState         *prometheus.GaugeVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsRejected *prometheus.CounterVec
}

// New builds the collectors and registers them with Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		RecomputeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_recompute_total",
			Help:      "Aggregate recomputations by aggregate and result.",
		}, []string{"aggregate", "result"}),
		RecomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_recompute_duration_seconds",
			Help:      "Time spent recomputing a book aggregate, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"aggregate"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recompute_queue_depth",
			Help:      "Recompute jobs waiting in the durable queue.",
		}),
		QueueProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_queue_processed_total",
			Help:      "Queued recompute jobs processed by result.",
		}, []string{"result"}),
		SagaCompensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_compensations_total",
			Help:      "Compensating actions run by saga step and result.",
		}, []string{"step", "result"}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation requests served by mode.",
		}, []string{"mode"}),
		ActivitiesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_purged_total",
			Help:      "Expired activities removed by the retention sweep.",
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status class.",
		}, []string{"method", "status"}),
		HTTPRequestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_rate_limited_total",
			Help:      "HTTP requests rejected by the rate limiter.",
		}, []string{"scope"}),
	}

	reg.MustRegister(
		m.RecomputeTotal,
		m.RecomputeDuration,
		m.QueueDepth,
		m.QueueProcessed,
		m.SagaCompensations,
		m.Recommendations,
		m.ActivitiesPurged,
		m.BreakerState,
		m.HTTPRequestsTotal,
		m.HTTPRequestsRejected,
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRecompute counts one recompute outcome.
func (m *Metrics) RecordRecompute(aggregate, result string) {
	m.RecomputeTotal.WithLabelValues(aggregate, result).Inc()
}

// ObserveRecompute records how long a recompute took.
func (m *Metrics) ObserveRecompute(aggregate string, seconds float64) {
	m.RecomputeDuration.WithLabelValues(aggregate).Observe(seconds)
}

// RecordCompensation counts a saga compensation.
func (m *Metrics) RecordCompensation(step string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	m.SagaCompensations.WithLabelValues(step, result).Inc()
}

// RecordRecommendation counts a recommendation response by mode.
func (m *Metrics) RecordRecommendation(mode string) {
	m.Recommendations.WithLabelValues(mode).Inc()
}
