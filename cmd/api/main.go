package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zugfinder.bahnradar.org/internal/appconf"
	"zugfinder.bahnradar.org/internal/config"
	"zugfinder.bahnradar.org/internal/logging"
)

func main() {
	var (
		port       = flag.Int("port", 4000, "API server port")
		env        = flag.String("env", "development", "Environment (development|test|production)")
		apiKeys    = flag.String("api-keys", "", "Comma-separated list of valid API keys")
		rateLimit  = flag.Int("rate-limit", 100, "Requests per second per API key")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		configPath = flag.String("config", "", "Path to YAML config file")
	)
	flag.Parse()

	appCfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg := appconf.Config{
		Port:      *port,
		Env:       appconf.EnvFlagToEnvironment(*env),
		ApiKeys:   ParseAPIKeys(*apiKeys),
		Verbose:   *verbose,
		RateLimit: *rateLimit,
	}

	coreApp, err := BuildApplication(cfg, appCfg)
	if err != nil {
		slog.Error("failed to build application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	coreApp.Scheduler.Start()

	server, rateLimiter := CreateServer(coreApp)

	go func() {
		logging.LogOperation(coreApp.Logger, "server_starting",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError(coreApp.Logger, "server failed", err)
			os.Exit(1)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logging.LogOperation(coreApp.Logger, "shutdown_signal_received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.LogError(coreApp.Logger, "server shutdown failed", err)
	}

	coreApp.Scheduler.Stop()
	rateLimiter.Stop()

	logging.LogOperation(coreApp.Logger, "server_stopped")
}
