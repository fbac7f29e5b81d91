package trains

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"zugfinder.bahnradar.org/internal/logging"
)

// ErrRebuildInProgress is returned when a manual rebuild is requested while
// another rebuild is still running. Concurrent rebuilds are rejected, never
// queued.
var ErrRebuildInProgress = errors.New("index rebuild already in progress")

// Scheduler drives index rebuilds: once at startup, then on a fixed
// interval, plus operator-triggered manual rebuilds.
type Scheduler struct {
	builder  *Builder
	interval time.Duration
	logger   *slog.Logger

	rebuildMu    sync.Mutex
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	startOnce    sync.Once
	stopOnce     sync.Once
}

// NewScheduler creates a Scheduler rebuilding every interval.
func NewScheduler(builder *Builder, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		builder:      builder,
		interval:     interval,
		logger:       logger.With(slog.String("component", "rebuild_scheduler")),
		shutdownChan: make(chan struct{}),
	}
}

// Start launches the background rebuild loop: an immediate initial rebuild,
// then one rebuild per interval. Safe to call once; subsequent calls are
// no-ops.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run()
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.runScheduledRebuild()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runScheduledRebuild()
		case <-s.shutdownChan:
			logging.LogOperation(s.logger, "shutting_down_rebuild_scheduler")
			return
		}
	}
}

func (s *Scheduler) runScheduledRebuild() {
	// A manual rebuild may still be running; the scheduled pass is skipped
	// rather than queued so drift does not compound.
	if !s.rebuildMu.TryLock() {
		logging.LogOperation(s.logger, "scheduled_rebuild_skipped_already_running")
		return
	}
	defer s.rebuildMu.Unlock()

	ctx := logging.WithLogger(context.Background(), s.logger)
	if _, err := s.builder.Rebuild(ctx); err != nil {
		logging.LogError(s.logger, "scheduled index rebuild failed", err)
	}
}

// TriggerManual runs one rebuild on the caller's goroutine and returns its
// summary. If a rebuild is already running it returns ErrRebuildInProgress.
func (s *Scheduler) TriggerManual(ctx context.Context) (*RebuildSummary, error) {
	if !s.rebuildMu.TryLock() {
		return nil, ErrRebuildInProgress
	}
	defer s.rebuildMu.Unlock()

	return s.builder.Rebuild(ctx)
}

// Stop shuts down the background rebuild loop and waits for it to exit.
// In-flight rebuilds run to completion. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
	})
	s.wg.Wait()
}
