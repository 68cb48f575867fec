package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/fractalcalc/internal/metrics"
)

func TestDefaultSecurityConfig(t *testing.T) {
	t.Parallel()
	c := DefaultSecurityConfig()

	if !c.EnableCORS || !slices.Equal(c.AllowedOrigins, []string{"*"}) {
		t.Errorf("CORS = %v %v, want enabled for any origin", c.EnableCORS, c.AllowedOrigins)
	}
	// Scrapers only read; nothing on the endpoint accepts a body.
	if !slices.Equal(c.AllowedMethods, []string{http.MethodGet, http.MethodOptions}) {
		t.Errorf("AllowedMethods = %v, want [GET OPTIONS]", c.AllowedMethods)
	}
	if c.MaxHeaderBytes != 1<<16 {
		t.Errorf("MaxHeaderBytes = %d, want 64 KiB", c.MaxHeaderBytes)
	}
}

// Every route and every outcome carries the hardening headers, including
// the 405 answered for a write to /metrics.
func TestHandler_HardeningHeaders(t *testing.T) {
	t.Parallel()
	h := New("", metrics.NewCollectors(), newTestLogger()).Handler()

	tests := []struct {
		method, path string
		code         int
	}{
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed},
	}
	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "1; mode=block",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, http.NoBody))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			for k, v := range want {
				if got := rec.Header().Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

// A dashboard's preflight is answered by the middleware: it never reaches
// the scrape handler, so it is neither a scrape nor a counted request.
func TestHandler_PreflightIsNotAScrape(t *testing.T) {
	t.Parallel()
	c := metrics.NewCollectors()
	s := New("", c, newTestLogger())

	req := httptest.NewRequest(http.MethodOptions, "/metrics", http.NoBody)
	req.Header.Set("Origin", "http://grafana.local:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("preflight body = %q, want empty", rec.Body.String())
	}
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Allow-Origin = %q, want *", h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Access-Control-Allow-Methods") != "GET, OPTIONS" {
		t.Errorf("Allow-Methods = %q, want %q", h.Get("Access-Control-Allow-Methods"), "GET, OPTIONS")
	}
	if h.Get("Access-Control-Max-Age") != "86400" {
		t.Errorf("Max-Age = %q, want 86400", h.Get("Access-Control-Max-Age"))
	}
	if got := testutil.ToFloat64(c.Scrapes); got != 0 {
		t.Errorf("scrapes = %v after a preflight, want 0", got)
	}
	if got := testutil.CollectAndCount(s.metrics.requests); got != 0 {
		t.Errorf("requests_total has %d series after a preflight, want none", got)
	}
}

func TestWithSecurityConfig_Origins(t *testing.T) {
	t.Parallel()
	const dashboard = "https://ops.example.com"
	cfg := DefaultSecurityConfig()
	cfg.AllowedOrigins = []string{dashboard}

	tests := []struct {
		name   string
		config SecurityConfig
		origin string
		want   string
	}{
		{"listed origin is echoed", cfg, dashboard, dashboard},
		{"other origin gets nothing", cfg, "https://evil.example", ""},
		{"no origin gets nothing", cfg, "", ""},
		{"cors disabled", SecurityConfig{AllowedOrigins: []string{"*"}}, dashboard, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := New("", metrics.NewCollectors(), newTestLogger(), WithSecurityConfig(tt.config)).Handler()
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
				t.Errorf("healthz = %d %q, want 200 ok", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
			if tt.want == "" && rec.Header().Get("Access-Control-Allow-Methods") != "" {
				t.Error("CORS method list should only accompany an allowed origin")
			}
		})
	}
}

// Serve hands MaxHeaderBytes to the listener, so an oversized scrape request
// is refused before it reaches a handler.
func TestServe_MaxHeaderBytes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cfg := DefaultSecurityConfig()
	cfg.MaxHeaderBytes = 1 << 10
	c := metrics.NewCollectors()
	s := New("", c, newTestLogger(), WithSecurityConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("Serve did not stop after cancel")
		}
	}()

	req, _ := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/metrics", http.NoBody)
	req.Header.Set("X-Padding", strings.Repeat("a", 64<<10))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusRequestHeaderFieldsTooLarge {
		t.Errorf("status = %d, want 431", resp.StatusCode)
	}
	if got := testutil.ToFloat64(c.Scrapes); got != 0 {
		t.Errorf("scrapes = %v, the oversized request should not be served", got)
	}
}
