package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/orchestration"
)

// Metrics holds the server's Prometheus collectors. Each instance owns a
// private registry so that several servers (and tests) can coexist.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	activeRequests  prometheus.Gauge
	requestDuration *prometheus.HistogramVec
	termsGenerated  *prometheus.CounterVec
	overflows       *prometheus.CounterVec
}

var _ orchestration.Recorder = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fibiter_requests_total",
			Help: "Total number of HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fibiter_active_requests",
			Help: "Number of HTTP requests currently being served.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fibiter_request_duration_seconds",
			Help:    "HTTP request latency by endpoint.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"endpoint"}),
		termsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fibiter_terms_generated_total",
			Help: "Total number of sequence terms produced by backend.",
		}, []string{"backend"}),
		overflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fibiter_overflows_total",
			Help: "Number of runs stopped by a fixed-width overflow, by backend.",
		}, []string{"backend"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.activeRequests,
		m.requestDuration,
		m.termsGenerated,
		m.overflows,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// ObserveRequest records a finished request.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveTerm counts one produced term.
func (m *Metrics) ObserveTerm(source string, _ fibonacci.Term) {
	m.termsGenerated.WithLabelValues(source).Inc()
}

// ObserveOverflow counts a run that hit the uint64 limit.
func (m *Metrics) ObserveOverflow(source string) {
	m.overflows.WithLabelValues(source).Inc()
}

// WritePrometheus serves the registry in the Prometheus text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
