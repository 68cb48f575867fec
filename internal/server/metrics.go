package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/fractalcalc/internal/metrics"
)

// Metrics instruments the HTTP endpoint itself and serves the render
// collectors it was built on.
type Metrics struct {
	collectors     *metrics.Collectors
	handler        http.HandlerFunc
	activeRequests prometheus.Gauge
	requests       *prometheus.CounterVec
}

// NewMetrics registers the HTTP instruments on c's registry. A nil c
// allocates a private set of render collectors.
func NewMetrics(col *metrics.Collectors) *Metrics {
	if col == nil {
		col = metrics.NewCollectors()
	}
	m := &Metrics{
		collectors: col,
		handler:    col.WritePrometheus,
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fractal", Subsystem: "http", Name: "active_requests",
			Help: "Requests currently being served.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fractal", Subsystem: "http", Name: "requests_total",
			Help: "Requests served, by method and status code.",
		}, []string{"method", "code"}),
	}
	col.Registry().MustRegister(m.activeRequests, m.requests)
	return m
}

// IncrementActiveRequests marks a request as in flight.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests marks a request as finished.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(method string, code int) {
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// WritePrometheus serves every registered collector in the text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.collectors.Scrapes.Inc()
	m.handler(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
