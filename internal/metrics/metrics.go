// Package metrics holds the Prometheus collectors of the handover service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "handover"

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing, so components can be built without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	ResultsFound     prometheus.Histogram
	ResultsHidden    prometheus.Counter
	RecordsDropped   *prometheus.CounterVec
	DraftConfidence  prometheus.Histogram
	HandoverSaves    *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ResultsFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results_found",
			Help:      "Number of normalised results per aggregation",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 20, 50, 100},
		}),
		ResultsHidden: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_hidden_total",
			Help:      "Results ranked below the tertiary band",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Source records dropped during normalisation",
		}, []string{"source"}),
		DraftConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "draft_confidence",
			Help:      "Confidence of generated handover drafts",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		HandoverSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Handover saves by outcome",
		}, []string{"outcome"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream search calls by source and outcome",
		}, []string{"source", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Aggregate cache lookups by result",
		}, []string{"result"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.ResultsFound,
		m.ResultsHidden,
		m.RecordsDropped,
		m.DraftConfidence,
		m.HandoverSaves,
		m.UpstreamRequests,
		m.CacheLookups,
		m.HTTPDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAggregation records the size of a tiered result set.
func (m *Metrics) ObserveAggregation(found, hidden int, draftConfidence float64) {
	if m == nil {
		return
	}
	m.ResultsFound.Observe(float64(found))
	m.ResultsHidden.Add(float64(hidden))
	m.DraftConfidence.Observe(draftConfidence)
}

// RecordDropped counts a dropped source record.
func (m *Metrics) RecordDropped(source string) {
	if m == nil {
		return
	}
	m.RecordsDropped.WithLabelValues(source).Inc()
}

// RecordSave counts a handover save by outcome ("ok" or "error").
func (m *Metrics) RecordSave(outcome string) {
	if m == nil {
		return
	}
	m.HandoverSaves.WithLabelValues(outcome).Inc()
}

// RecordUpstream counts an upstream call by source and outcome.
func (m *Metrics) RecordUpstream(source, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(source, outcome).Inc()
}

// RecordCache counts a cache lookup ("hit", "miss" or "error").
func (m *Metrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveHTTP records the duration of an HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
