package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fhm/internal/log"
	"fhm/internal/services"
	"fhm/internal/storage"
)

func newTestLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, opts Options) (*Server, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	ingest := services.NewIngestService(store, nil)
	srv := NewServer(":0", store, ingest, newTestLogger(), opts)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return srv, store
}

func TestRootEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Financial Health Manager" {
		t.Errorf("message = %q, want %q", body["message"], "Financial Health Manager")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, rr.Code, http.StatusOK)
		}
		if rr.Body.String() != "ok" {
			t.Errorf("%s body = %q, want %q", path, rr.Body.String(), "ok")
		}
	}
}

type failingPinger struct {
	*storage.MemoryStore
}

func (failingPinger) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestReadyEndpointStorageDown(t *testing.T) {
	store := failingPinger{MemoryStore: storage.NewMemoryStore()}
	ingest := services.NewIngestService(store.MemoryStore, nil)
	srv := NewServer(":0", store, ingest, newTestLogger(), Options{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rr, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for name, want := range headers {
		if got := rr.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("Content-Security-Policy = %q, want restrictive default-src", csp)
	}
	if id := rr.Header().Get("X-Request-ID"); !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-ID = %q, want generated req_ prefix", id)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req_supplied")
	srv.Handler.ServeHTTP(rr, req)

	if id := rr.Header().Get("X-Request-ID"); id != "req_supplied" {
		t.Errorf("X-Request-ID = %q, want supplied ID echoed back", id)
	}
}

func TestRateLimitOnPost(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimitPerMinute: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/yoy", nil)
		srv.Handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)

		if i == 2 {
			if rr.Code != http.StatusTooManyRequests {
				t.Fatalf("third POST status = %d, want %d (all: %v)", rr.Code, http.StatusTooManyRequests, codes)
			}
			if ra := rr.Header().Get("Retry-After"); ra != "60" {
				t.Errorf("Retry-After = %q, want %q", ra, "60")
			}
		} else if rr.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d rate limited too early", i+1)
		}
	}

	// GET endpoints stay unthrottled.
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %d status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/summarize", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	// Serve one request first so the request counter has a series.
	warm := httptest.NewRecorder()
	srv.Handler.ServeHTTP(warm, httptest.NewRequest(http.MethodGet, "/", nil))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	for _, metric := range []string{
		"fhm_http_requests_total",
		"fhm_summary_cache_misses_total",
		"go_goroutines",
	} {
		if !strings.Contains(rr.Body.String(), metric) {
			t.Errorf("metrics output missing %q", metric)
		}
	}
}

func TestShutdownIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
