package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"zugfinder.bahnradar.org/internal/app"
	"zugfinder.bahnradar.org/internal/appconf"
	"zugfinder.bahnradar.org/internal/clock"
	"zugfinder.bahnradar.org/internal/config"
	"zugfinder.bahnradar.org/internal/hafas"
	"zugfinder.bahnradar.org/internal/logging"
	"zugfinder.bahnradar.org/internal/metrics"
	"zugfinder.bahnradar.org/internal/restapi"
	"zugfinder.bahnradar.org/internal/trains"
)

// fallbackStationLimit bounds how many catalog stations the staged search
// probes per stage; scanning the full catalog would be too slow for an
// interactive request.
const fallbackStationLimit = 4

// ParseAPIKeys splits a comma-separated API key list, trimming whitespace
// and dropping empty items.
func ParseAPIKeys(raw string) []string {
	keys := []string{}
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// BuildApplication wires together every component of the service.
func BuildApplication(cfg appconf.Config, appCfg config.AppConfig) (*app.Application, error) {
	logger := logging.NewLogger(cfg.Verbose)
	slog.SetDefault(logger)

	m := metrics.New()
	clk := clock.RealClock{}

	client := hafas.NewClient(appCfg.ClientConfig(), logger, m, clk)
	store := trains.NewStore()

	pacer := rate.NewLimiter(rate.Inf, 1)
	if appCfg.Index.PaceMS > 0 {
		pacer = rate.NewLimiter(rate.Every(time.Duration(appCfg.Index.PaceMS)*time.Millisecond), 1)
	}

	builder := trains.NewBuilder(client, store, trains.BuilderConfig{
		Catalog:      appCfg.Catalog(),
		Windows:      appCfg.Windows(),
		BoardResults: appCfg.Index.BoardResults,
		Pacer:        pacer,
	}, logger, clk, m)

	scheduler := trains.NewScheduler(builder, appCfg.RebuildInterval(), logger)

	fallbackStations := appCfg.Catalog()
	if len(fallbackStations) > fallbackStationLimit {
		fallbackStations = fallbackStations[:fallbackStationLimit]
	}
	fallback := trains.NewStagedSearch(client, fallbackStations, appCfg.FallbackRoutes(), logger)

	return &app.Application{
		Config:    cfg,
		AppConfig: appCfg,
		Logger:    logger,
		Client:    client,
		Store:     store,
		Builder:   builder,
		Scheduler: scheduler,
		Fallback:  fallback,
		Clock:     clk,
		Metrics:   m,
	}, nil
}

// CreateServer builds the HTTP server with the full middleware chain:
// request ID, request logging, metrics, and per-key rate limiting.
func CreateServer(coreApp *app.Application) (*http.Server, *restapi.RateLimitMiddleware) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	rateLimiter := restapi.NewRateLimitMiddleware(coreApp.Config.RateLimit, time.Second, coreApp.Config.ApiKeys, coreApp.Clock)

	var handler http.Handler = mux
	handler = rateLimiter.Handler()(handler)
	handler = restapi.MetricsHandler(coreApp.Metrics)(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", coreApp.Config.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server, rateLimiter
}
