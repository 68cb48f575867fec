// Package metrics collects runtime memory readings and the Prometheus
// collectors shared by the worker pool and the render engine.
package metrics
