package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	GateDecisions   *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	SyncRuns        *prometheus.CounterVec
	EventsMirrored  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Route access gate decisions by outcome.",
		}, []string{"decision"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Handled HTTP requests.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Calls to the remote scholaRSerbisyo API.",
		}, []string{"endpoint", "code"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of calls to the remote API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_sync_runs_total",
			Help: "Event mirror sync runs by result.",
		}, []string{"result"}),
		EventsMirrored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "events_mirrored",
			Help: "Events in the mirror after the last successful sync.",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.GateDecisions,
		m.HTTPRequests,
		m.HTTPDuration,
		m.BackendRequests,
		m.BackendDuration,
		m.SyncRuns,
		m.EventsMirrored,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveBackend matches backend.Observer.
func (m *Metrics) ObserveBackend(endpoint string, code int, elapsed time.Duration) {
	m.BackendRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.BackendDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
