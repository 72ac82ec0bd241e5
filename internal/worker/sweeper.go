package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fhm/internal/storage"
)

// SweeperConfig holds configuration for the stale upload sweeper
type SweeperConfig struct {
	// Interval is how often to scan for stale uploads (default: 1m)
	Interval time.Duration

	// Age is how long an upload may sit in pending or processing before
	// it counts as stuck (default: 15m)
	Age time.Duration

	// BatchSize is the max number of uploads requeued per sweep (default: 50)
	BatchSize int
}

// DefaultSweeperConfig returns sensible defaults
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:  time.Minute,
		Age:       15 * time.Minute,
		BatchSize: 50,
	}
}

// StaleLister finds uploads stuck in pending or processing.
type StaleLister interface {
	ListStaleUploads(ctx context.Context, age time.Duration, limit int) ([]storage.Upload, error)
}

// Publisher re-hands stuck uploads to the queue.
type Publisher interface {
	PublishIngestJob(ctx context.Context, uploadID string) error
}

// Sweeper requeues uploads stuck in pending or processing, usually left
// behind by a worker crash or a lost delivery.
type Sweeper struct {
	store     StaleLister
	publisher Publisher
	config    SweeperConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSweeper creates a new sweeper
func NewSweeper(store StaleLister, publisher Publisher, config SweeperConfig) *Sweeper {
	return &Sweeper{
		store:     store,
		publisher: publisher,
		config:    config,
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sweeper is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Sweeper started",
		"interval", s.config.Interval,
		"age", s.config.Age,
		"batch_size", s.config.BatchSize)

	return nil
}

// Stop gracefully stops the sweeper and waits for completion.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// Signal stop
	close(s.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Sweeper stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sweeper stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the sweeper is currently running
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runLoop is the main sweep loop
func (s *Sweeper) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup to recover uploads left behind by a
	// previous crash.
	s.sweep(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep requeues one batch of stale uploads.
func (s *Sweeper) sweep(ctx context.Context) {
	stale, err := s.store.ListStaleUploads(ctx, s.config.Age, s.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list stale uploads", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	slog.InfoContext(ctx, "Requeuing stale uploads", "count", len(stale))

	for _, u := range stale {
		if err := s.publisher.PublishIngestJob(ctx, u.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to requeue stale upload",
				"upload_id", u.ID, "error", err)
			continue
		}
		slog.InfoContext(ctx, "Requeued stale upload",
			"upload_id", u.ID,
			"status", u.Status,
			"age", time.Since(u.UpdatedAt).Round(time.Second))
	}
}
