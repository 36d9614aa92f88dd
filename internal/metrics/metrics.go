package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK          = "ok"
	OutcomeValidation  = "validation"
	OutcomeConflict    = "conflict"
	OutcomePersistence = "persistence"
	OutcomeConsistency = "consistency"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	sagaTotal     *prometheus.CounterVec
	compensations *prometheus.CounterVec
	orphanHeaders *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry so tests and multiple
// servers in one process never collide.
func New(prefix string) *Metrics {
	if prefix == "" {
		prefix = "kasirstok"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		sagaTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_saga_total",
			Help: "Document sagas by document, operation and outcome",
		}, []string{"document", "op", "outcome"}),
		compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_saga_compensations_total",
			Help: "Headers rolled back after a failed line insert",
		}, []string{"document"}),
		orphanHeaders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_saga_orphan_headers_total",
			Help: "Compensating deletes that failed and may have left a header without lines",
		}, []string{"document"}),
		storeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_store_call_duration_seconds",
			Help:    "Duration of record store calls made by the saga",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) Saga(document, op, outcome string) {
	if m == nil {
		return
	}
	m.sagaTotal.WithLabelValues(document, op, outcome).Inc()
}

func (m *Metrics) Compensated(document string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(document).Inc()
}

func (m *Metrics) OrphanHeader(document string) {
	if m == nil {
		return
	}
	m.orphanHeaders.WithLabelValues(document).Inc()
}

// TrackStoreCall returns a func that records the elapsed time when called.
func (m *Metrics) TrackStoreCall(call string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.storeDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) HTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
