// Package server exposes the render metrics over HTTP for Prometheus
// scraping while a render or an interactive session runs.
package server
