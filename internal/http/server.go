package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"fhm/internal/backend"
	"fhm/internal/cache"
	"fhm/internal/core"
	"fhm/internal/log"
	"fhm/internal/services"
)

const (
	defaultMaxUploadBytes     = 5 * 1024 * 1024
	defaultRateLimitPerMinute = 60

	readTimeout    = 10 * time.Second
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	maxHeaderBytes = 1 << 16

	summaryCacheSize     = 128
	summaryCacheTTL      = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Minute

	defaultUploadsLimit = 50
	maxUploadsLimit     = 500
)

// Options tunes the request-facing limits of a Server. Zero values fall
// back to the package defaults.
type Options struct {
	MaxUploadBytes     int64
	RateLimitPerMinute int
}

// Server is the JSON API server: the stdlib http.Server plus the
// recorder, the ingest service, the per-IP rate limiter and the
// summary cache.
type Server struct {
	http.Server

	recorder backend.Recorder
	ingest   *services.IngestService
	logger   *log.Logger

	rateLimiter  *rateLimiter
	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager
	metrics      *appMetrics

	maxUploadBytes int64
	shutdownOnce   sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. The recorder persists uploads; the ingest service decides
// between inline recording and handing work to the queue.
func NewServer(addr string, recorder backend.Recorder, ingest *services.IngestService, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	maxUploadBytes := opts.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		recorder:       recorder,
		ingest:         ingest,
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(opts.RateLimitPerMinute),
		summaryCache:   cache.NewLRUCache[core.Summary](summaryCacheSize, summaryCacheTTL),
		cacheManager:   cache.NewManager(),
		metrics:        newAppMetrics(),
		maxUploadBytes: maxUploadBytes,
	}
	s.metrics.registerSummaryCache(s.summaryCache)

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())
	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("POST /month/{month}", s.handleMonthDetails)
	mux.HandleFunc("POST /yoy", s.handleYoY)
	mux.HandleFunc("GET /uploads", s.handleListUploads)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        s.middleware(mux),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	return s
}

// middleware composes the standard chain around the mux. Outermost
// first: security headers, request ID plus structured request logging,
// the POST rate limit, Prometheus instrumentation.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.metrics.instrument(next)
	h = s.withRateLimit(h)
	h = s.withRequestLogging(h)
	h = log.RequestIDMiddleware(requestIDFromRequest)(h)
	h = s.withRequestID(h)
	h = log.Middleware(s.logger)(h)
	return withSecurityHeaders(h)
}

// withRequestID assigns each request an ID, honoring one supplied by a
// proxy, and reflects it back in the response headers.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = generateRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestLogging emits the request started/completed pair with
// duration and status. Logs go through the context logger so the
// request ID rides along.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		structured := log.NewStructuredLogger(log.FromContext(r.Context()))
		structured.LogHTTPStart(r.Context(), r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		structured.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// withRateLimit applies the per-IP limit to POST endpoints only; reads
// and probes stay unthrottled.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP) {
				s.metrics.rateLimitedTotal.Inc()
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
