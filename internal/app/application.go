package app

import (
	"log/slog"

	"zugfinder.bahnradar.org/internal/appconf"
	"zugfinder.bahnradar.org/internal/clock"
	"zugfinder.bahnradar.org/internal/config"
	"zugfinder.bahnradar.org/internal/hafas"
	"zugfinder.bahnradar.org/internal/metrics"
	"zugfinder.bahnradar.org/internal/trains"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware: configuration, the upstream client, the train index
// components, and observability plumbing.
type Application struct {
	Config    appconf.Config
	AppConfig config.AppConfig
	Logger    *slog.Logger
	Client    *hafas.Client
	Store     *trains.Store
	Builder   *trains.Builder
	Scheduler *trains.Scheduler
	Fallback  *trains.StagedSearch
	Clock     clock.Clock
	Metrics   *metrics.Metrics
}
