package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fractal"

// Task outcomes recorded by the pool.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomePanic    = "panic"
	OutcomeCanceled = "canceled"
)

// Collectors groups the Prometheus instruments of one render engine. Each
// instance owns its registry, so several engines (and tests) never collide on
// registration.
type Collectors struct {
	registry *prometheus.Registry
	handler  http.Handler

	QueueDepth    *prometheus.GaugeVec
	Running       prometheus.Gauge
	Tasks         *prometheus.CounterVec
	TaskDuration  prometheus.Histogram
	AdmissionWait prometheus.Histogram
	Passes        *prometheus.CounterVec
	PassDuration  prometheus.Histogram
	Rows          prometheus.Counter
	Scrapes       prometheus.Counter
}

// NewCollectors creates and registers the render collectors together with
// the Go runtime and process collectors.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pool", Name: "queue_depth",
			Help: "Tasks admitted to the pool and not yet picked up by a worker.",
		}, []string{"priority"}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pool", Name: "running_tasks",
			Help: "Tasks currently executing.",
		}),
		Tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pool", Name: "tasks_total",
			Help: "Tasks finished, by outcome.",
		}, []string{"outcome"}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pool", Name: "task_duration_seconds",
			Help:    "Execution time of pool tasks.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		AdmissionWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pool", Name: "admission_wait_seconds",
			Help:    "Time submitters spent blocked on a full pending queue.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "render", Name: "passes_total",
			Help: "Render passes finished, by outcome.",
		}, []string{"outcome"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "render", Name: "pass_duration_seconds",
			Help:    "Wall time of complete render passes.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
		}),
		Rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "render", Name: "rows_total",
			Help: "Rows copied into output fields.",
		}),
		Scrapes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "metrics_scrapes_total",
			Help: "Requests served by the metrics endpoint.",
		}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.QueueDepth, c.Running, c.Tasks, c.TaskDuration, c.AdmissionWait,
		c.Passes, c.PassDuration, c.Rows, c.Scrapes,
	)
	c.handler = promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return c
}

// Registry exposes the underlying registry, e.g. for testutil gathering.
func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// WritePrometheus serves the registry in the Prometheus text format.
func (c *Collectors) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}
