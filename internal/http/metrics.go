package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fhm/internal/cache"
	"fhm/internal/core"
)

// appMetrics holds the Prometheus instruments exported at /metrics.
// Each server owns a private registry, so tests can construct servers
// freely without duplicate-registration panics.
type appMetrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	uploadsTotal     *prometheus.CounterVec
	rowsParsedTotal  prometheus.Counter
	rowsSkippedTotal prometheus.Counter
	rateLimitedTotal prometheus.Counter
}

func newAppMetrics() *appMetrics {
	m := &appMetrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fhm_http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhm_uploads_total",
				Help: "Uploaded files by outcome",
			},
			[]string{"status"},
		),
		rowsParsedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fhm_rows_parsed_total",
			Help: "Transactions parsed from uploaded files",
		}),
		rowsSkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fhm_rows_skipped_total",
			Help: "Rows skipped during normalization",
		}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fhm_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.requestsTotal,
		m.requestDuration,
		m.uploadsTotal,
		m.rowsParsedTotal,
		m.rowsSkippedTotal,
		m.rateLimitedTotal,
	)

	return m
}

// registerSummaryCache exports the summary cache's hit and miss
// counters by reading the cache's own stats on scrape.
func (m *appMetrics) registerSummaryCache(c *cache.LRUCache[core.Summary]) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "fhm_summary_cache_hits_total",
		Help: "Summary cache hits",
	}, func() float64 {
		hits, _ := c.Stats()
		return float64(hits)
	}))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "fhm_summary_cache_misses_total",
		Help: "Summary cache misses",
	}, func() float64 {
		_, misses := c.Stats()
		return float64(misses)
	}))
}

// handler serves the registry in the Prometheus text format.
func (m *appMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records a request counter and duration histogram around
// the wrapped handler.
func (m *appMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := routeLabel(r.URL.Path)
		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel normalizes a request path to a bounded label set so
// unknown paths cannot blow up metric cardinality.
func routeLabel(path string) string {
	switch path {
	case "/", "/healthz", "/readyz", "/metrics", "/summarize", "/yoy", "/uploads":
		return path
	}
	if strings.HasPrefix(path, "/month/") {
		return "/month/{month}"
	}
	return "other"
}
