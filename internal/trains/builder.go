package trains

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"zugfinder.bahnradar.org/internal/clock"
	"zugfinder.bahnradar.org/internal/hafas"
	"zugfinder.bahnradar.org/internal/logging"
	"zugfinder.bahnradar.org/internal/metrics"
)

// BoardClient is the slice of the upstream client the builder needs.
type BoardClient interface {
	Departures(ctx context.Context, stationID string, opts hafas.BoardOptions) ([]hafas.ScheduleRecord, error)
	Arrivals(ctx context.Context, stationID string, opts hafas.BoardOptions) ([]hafas.ScheduleRecord, error)
}

// Window is one contiguous time span polled during a rebuild, expressed as
// an offset from the rebuild's start time.
type Window struct {
	Offset   time.Duration
	Duration time.Duration
}

// DefaultWindows covers the next 24 hours in four six-hour spans.
func DefaultWindows() []Window {
	windows := make([]Window, 4)
	for i := range windows {
		windows[i] = Window{
			Offset:   time.Duration(i) * 6 * time.Hour,
			Duration: 6 * time.Hour,
		}
	}
	return windows
}

// RebuildSummary reports the outcome of one rebuild pass.
type RebuildSummary struct {
	Entries     int           `json:"entries"`
	Trains      int           `json:"trains"`
	Stations    int           `json:"stations"`
	FetchErrors int           `json:"fetchErrors"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"durationMs"`
	CompletedAt time.Time     `json:"completedAt"`
}

// BuilderConfig tunes a Builder.
type BuilderConfig struct {
	Catalog      []Station
	Windows      []Window
	BoardResults int
	// Pacer spaces out successive upstream calls to stay below the
	// provider's rate limits. Use rate.NewLimiter(rate.Inf, 1) in tests
	// to disable pacing.
	Pacer *rate.Limiter
}

// DefaultBuilderConfig paces roughly one upstream call per second.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Catalog:      DefaultCatalog(),
		Windows:      DefaultWindows(),
		BoardResults: 150,
		Pacer:        rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Builder performs full index rebuild passes: it polls every catalog
// station across every configured window, files each usable record under
// its lookup keys, and publishes the result as one atomic snapshot.
type Builder struct {
	client  BoardClient
	store   *Store
	config  BuilderConfig
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Metrics
}

// NewBuilder creates a Builder. Metrics may be nil.
func NewBuilder(client BoardClient, store *Store, config BuilderConfig, logger *slog.Logger, clk clock.Clock, m *metrics.Metrics) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if config.Pacer == nil {
		config.Pacer = rate.NewLimiter(rate.Inf, 1)
	}
	return &Builder{
		client:  client,
		store:   store,
		config:  config,
		logger:  logger.With(slog.String("component", "index_builder")),
		clock:   clk,
		metrics: m,
	}
}

// Rebuild runs one full build pass and atomically publishes the result.
// Individual station/window fetch failures are logged and skipped; only a
// context cancellation aborts the pass. On abort the previously published
// snapshot stays live and its status is restored.
func (b *Builder) Rebuild(ctx context.Context) (*RebuildSummary, error) {
	start := b.clock.Now()
	previousStatus := b.store.Current().Meta().Status
	b.store.SetStatus(StatusBuilding)

	logging.LogOperation(b.logger, "index_rebuild_started",
		slog.Int("stations", len(b.config.Catalog)),
		slog.Int("windows", len(b.config.Windows)))

	entries := make(map[string]*IndexEntry)
	var keys []string
	fetchErrors := 0

	for _, station := range b.config.Catalog {
		for windowIdx, window := range b.config.Windows {
			opts := hafas.BoardOptions{
				When:     start.Add(window.Offset),
				Duration: window.Duration,
				Results:  b.config.BoardResults,
			}

			records, err := b.fetchBoard(ctx, "departures", station, opts)
			if err != nil {
				if ctx.Err() != nil {
					b.abort(previousStatus)
					return nil, ctx.Err()
				}
				fetchErrors++
			} else {
				keys = b.merge(entries, keys, records, station, fmt.Sprintf("departure:w%d", windowIdx))
			}

			records, err = b.fetchBoard(ctx, "arrivals", station, opts)
			if err != nil {
				if ctx.Err() != nil {
					b.abort(previousStatus)
					return nil, ctx.Err()
				}
				fetchErrors++
			} else {
				keys = b.merge(entries, keys, records, station, fmt.Sprintf("arrival:w%d", windowIdx))
			}
		}
	}

	trainCount := countDistinctTrains(entries)
	completedAt := b.clock.Now()
	meta := Meta{
		Status:      StatusReady,
		LastUpdated: completedAt,
		EntryCount:  len(entries),
		TrainCount:  trainCount,
	}
	b.store.Publish(NewSnapshot(entries, keys, meta))

	duration := completedAt.Sub(start)
	summary := &RebuildSummary{
		Entries:     len(entries),
		Trains:      trainCount,
		Stations:    len(b.config.Catalog),
		FetchErrors: fetchErrors,
		Duration:    duration,
		DurationMS:  duration.Milliseconds(),
		CompletedAt: completedAt,
	}

	if b.metrics != nil {
		b.metrics.RebuildsTotal.WithLabelValues("success").Inc()
		b.metrics.RebuildDuration.Observe(duration.Seconds())
		b.metrics.IndexEntries.Set(float64(len(entries)))
		b.metrics.IndexTrains.Set(float64(trainCount))
	}

	logging.LogOperation(b.logger, "index_rebuild_completed",
		slog.Int("entries", summary.Entries),
		slog.Int("trains", summary.Trains),
		slog.Int("fetch_errors", summary.FetchErrors),
		slog.Duration("duration", duration))

	return summary, nil
}

func (b *Builder) abort(previousStatus Status) {
	b.store.SetStatus(previousStatus)
	if b.metrics != nil {
		b.metrics.RebuildsTotal.WithLabelValues("aborted").Inc()
	}
}

// fetchBoard paces and issues one board request. A failed fetch is logged
// here and never escalates past the single station/window pair.
func (b *Builder) fetchBoard(ctx context.Context, kind string, station Station, opts hafas.BoardOptions) ([]hafas.ScheduleRecord, error) {
	if err := b.config.Pacer.Wait(ctx); err != nil {
		return nil, err
	}

	var records []hafas.ScheduleRecord
	var err error
	if kind == "departures" {
		records, err = b.client.Departures(ctx, station.ID, opts)
	} else {
		records, err = b.client.Arrivals(ctx, station.ID, opts)
	}
	if err != nil {
		logging.LogError(b.logger, "station board fetch failed", err,
			slog.String("kind", kind),
			slog.String("station_id", station.ID),
			slog.String("station_name", station.Name))
		return nil, err
	}
	return records, nil
}

// merge files records under their lookup keys. Within one build pass the
// first writer per key wins, which favors earlier catalog stations and
// windows deterministically.
func (b *Builder) merge(entries map[string]*IndexEntry, keys []string, records []hafas.ScheduleRecord, station Station, source string) []string {
	for _, rec := range records {
		entry, entryKeys, ok := BuildEntry(rec, station, source)
		if !ok {
			continue
		}
		for _, key := range entryKeys {
			if _, exists := entries[key]; exists {
				continue
			}
			entries[key] = entry
			keys = append(keys, key)
		}
	}
	return keys
}

func countDistinctTrains(entries map[string]*IndexEntry) int {
	seen := make(map[string]struct{})
	for _, entry := range entries {
		seen[entry.TrainNumber] = struct{}{}
	}
	return len(seen)
}
