package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lazypower/thoughtgraph/internal/metrics"
	"github.com/lazypower/thoughtgraph/internal/store"
)

func testServer(t *testing.T, opts Options) (*Server, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if opts.Version == "" {
		opts.Version = "test-version"
	}
	srv := New(db, opts)
	t.Cleanup(srv.Close)
	return srv, db
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t, Options{})

	w := do(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
	if body["view"] != "none" {
		t.Errorf("view = %v, want none", body["view"])
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	srv, _ := testServer(t, Options{})
	w := do(t, srv, "GET", "/api/nowhere/else/entirely", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewCollector("thoughtgraph")
	srv, _ := testServer(t, Options{Metrics: m})

	do(t, srv, "GET", "/api/health", "")
	do(t, srv, "GET", "/api/thoughts/?page=2", "")

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/health", "200")); got != 1 {
		t.Errorf("health requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/{kind}/", "200")); got != 1 {
		t.Errorf("list requests keyed by pattern = %v, want 1", got)
	}

	w := do(t, srv, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "thoughtgraph_http_requests_total") {
		t.Error("metrics output missing request counter")
	}
}

func TestCORS(t *testing.T) {
	srv, _ := testServer(t, Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest("OPTIONS", "/graph/api/data/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestUIFallback(t *testing.T) {
	ui := fstest.MapFS{
		"index.html": {Data: []byte("<html>graph</html>")},
		"app.js":     {Data: []byte("console.log(1)")},
	}
	srv, _ := testServer(t, Options{UI: ui})

	w := do(t, srv, "GET", "/app.js", "")
	if !strings.Contains(w.Body.String(), "console.log") {
		t.Errorf("app.js body = %q", w.Body.String())
	}
	w = do(t, srv, "GET", "/graph", "")
	if !strings.Contains(w.Body.String(), "graph</html>") {
		t.Errorf("fallback body = %q", w.Body.String())
	}
}

func TestUINotEmbedded(t *testing.T) {
	srv, _ := testServer(t, Options{})
	w := do(t, srv, "GET", "/", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
