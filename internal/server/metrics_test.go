package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/metrics"
)

// TestNewMetrics tests the Metrics constructor.
func TestNewMetrics(t *testing.T) {
	m := NewMetrics(nil)

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	if m.handler == nil {
		t.Error("Metrics.handler should be initialized")
	}
}

// TestMetrics_IncrementDecrementActiveRequests tests the active requests gauge.
func TestMetrics_IncrementDecrementActiveRequests(t *testing.T) {
	m := NewMetrics(nil)

	m.IncrementActiveRequests()
	m.IncrementActiveRequests()
	if got := testutil.ToFloat64(m.activeRequests); got != 2 {
		t.Errorf("active requests = %v, want 2", got)
	}
	m.DecrementActiveRequests()
	if got := testutil.ToFloat64(m.activeRequests); got != 1 {
		t.Errorf("active requests = %v, want 1", got)
	}
}

// TestMetrics_WritePrometheus tests the Prometheus metrics endpoint.
func TestMetrics_WritePrometheus(t *testing.T) {
	c := metrics.NewCollectors()
	m := NewMetrics(c)

	m.IncrementActiveRequests()
	defer m.DecrementActiveRequests()
	m.RecordRequest(http.MethodGet, http.StatusOK)
	c.Rows.Add(3)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rec := httptest.NewRecorder()

	m.WritePrometheus(rec, req)

	body := rec.Body.String()

	for _, want := range []string{
		"fractal_http_active_requests",
		"fractal_http_requests_total",
		"fractal_render_rows_total 3",
		"fractal_pool_running_tasks",
		"go_",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %s", want)
		}
	}

	if got := testutil.ToFloat64(c.Scrapes); got != 1 {
		t.Errorf("scrapes = %v, want 1", got)
	}
}

// TestServer_metricsMiddleware tests the metrics tracking middleware.
func TestServer_metricsMiddleware(t *testing.T) {
	t.Run("Next handler is called", func(t *testing.T) {
		s := &Server{
			metrics: NewMetrics(nil),
		}

		nextCalled := false
		next := func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		}

		handler := s.metricsMiddleware(next)
		req := httptest.NewRequest("GET", "/test", http.NoBody)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if !nextCalled {
			t.Error("next handler was not called")
		}
	})

	t.Run("Requests are counted by status", func(t *testing.T) {
		s := &Server{
			metrics: NewMetrics(nil),
		}

		next := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}

		handler := s.metricsMiddleware(next)
		req := httptest.NewRequest("GET", "/test", http.NoBody)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
		}
		if got := testutil.ToFloat64(s.metrics.requests.WithLabelValues("GET", "418")); got != 1 {
			t.Errorf("requests{GET,418} = %v, want 1", got)
		}
		if got := testutil.ToFloat64(s.metrics.activeRequests); got != 0 {
			t.Errorf("active requests after completion = %v, want 0", got)
		}
	})
}

// TestServer_handleMetrics tests the /metrics endpoint handler.
func TestServer_handleMetrics(t *testing.T) {
	t.Run("GET returns metrics", func(t *testing.T) {
		s := &Server{
			metrics: NewMetrics(nil),
		}

		req := httptest.NewRequest("GET", "/metrics", http.NoBody)
		rec := httptest.NewRecorder()

		s.handleMetrics(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		body := rec.Body.String()
		if !strings.Contains(body, "fractal_") {
			t.Error("response should contain fractal metrics")
		}
	})

	for _, method := range []string{"POST", "PUT"} {
		t.Run(method+" returns method not allowed", func(t *testing.T) {
			s := &Server{
				metrics: NewMetrics(nil),
				logger:  newTestLogger(),
			}

			req := httptest.NewRequest(method, "/metrics", http.NoBody)
			rec := httptest.NewRecorder()

			s.handleMetrics(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
			if rec.Header().Get("Allow") != http.MethodGet {
				t.Errorf("Allow = %q, want GET", rec.Header().Get("Allow"))
			}
		})
	}
}

// testLogger is a minimal logger for testing that implements logging.Logger.
type testLogger struct{}

func newTestLogger() *testLogger                                  { return &testLogger{} }
func (l *testLogger) Info(_ string, _ ...logging.Field)           {}
func (l *testLogger) Error(_ string, _ error, _ ...logging.Field) {}
func (l *testLogger) Debug(_ string, _ ...logging.Field)          {}
func (l *testLogger) Printf(_ string, _ ...any)                   {}
func (l *testLogger) Println(_ ...any)                            {}
