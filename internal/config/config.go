// Package config loads the service configuration file: upstream API
// settings, the station catalog, polling windows, and rebuild cadence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"zugfinder.bahnradar.org/internal/hafas"
	"zugfinder.bahnradar.org/internal/trains"
)

// UpstreamConfig configures the HAFAS-style transit API client.
type UpstreamConfig struct {
	BaseURL          string  `yaml:"baseURL" validate:"required,url"`
	CacheTTLSeconds  int     `yaml:"cacheTTLSeconds" validate:"gte=0"`
	CacheMaxEntries  int     `yaml:"cacheMaxEntries" validate:"gte=0"`
	RetryMaxAttempts int     `yaml:"retryMaxAttempts" validate:"gte=0"`
	RetryBaseDelayMS int     `yaml:"retryBaseDelayMS" validate:"gte=0"`
	RetryGrowth      float64 `yaml:"retryGrowth" validate:"gte=0"`
}

// IndexConfig configures the rebuild poller and scheduler.
type IndexConfig struct {
	RebuildIntervalMinutes int `yaml:"rebuildIntervalMinutes" validate:"gte=1"`
	WindowCount            int `yaml:"windowCount" validate:"gte=1,lte=12"`
	WindowHours            int `yaml:"windowHours" validate:"gte=1,lte=24"`
	BoardResults           int `yaml:"boardResults" validate:"gte=1"`
	PaceMS                 int `yaml:"paceMS" validate:"gte=0"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	Upstream UpstreamConfig   `yaml:"upstream" validate:"required"`
	Index    IndexConfig      `yaml:"index"`
	Stations []trains.Station `yaml:"stations" validate:"omitempty,dive"`
	Routes   []trains.Route   `yaml:"routes" validate:"omitempty,dive"`
}

// Default returns the built-in configuration used when no file is given.
func Default() AppConfig {
	return AppConfig{
		Upstream: UpstreamConfig{
			BaseURL:          "https://v6.db.transport.rest",
			CacheTTLSeconds:  120,
			CacheMaxEntries:  500,
			RetryMaxAttempts: 3,
			RetryBaseDelayMS: 1000,
			RetryGrowth:      2.0,
		},
		Index: IndexConfig{
			RebuildIntervalMinutes: 60,
			WindowCount:            4,
			WindowHours:            6,
			BoardResults:           150,
			PaceMS:                 1000,
		},
	}
}

// Load reads and validates the configuration file at path. An empty path
// yields the defaults. File values overlay the defaults field by field.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

// ClientConfig converts the upstream section into a hafas client config.
func (c AppConfig) ClientConfig() hafas.Config {
	return hafas.Config{
		BaseURL:         c.Upstream.BaseURL,
		CacheTTL:        time.Duration(c.Upstream.CacheTTLSeconds) * time.Second,
		CacheMaxEntries: c.Upstream.CacheMaxEntries,
		Retry: hafas.RetryPolicy{
			MaxRetries:   c.Upstream.RetryMaxAttempts,
			BaseDelay:    time.Duration(c.Upstream.RetryBaseDelayMS) * time.Millisecond,
			GrowthFactor: c.Upstream.RetryGrowth,
		},
	}
}

// Catalog returns the configured station catalog, or the default major-hub
// catalog when none is configured.
func (c AppConfig) Catalog() []trains.Station {
	if len(c.Stations) > 0 {
		return c.Stations
	}
	return trains.DefaultCatalog()
}

// FallbackRoutes returns the configured long-distance corridors, or the
// defaults when none are configured.
func (c AppConfig) FallbackRoutes() []trains.Route {
	if len(c.Routes) > 0 {
		return c.Routes
	}
	return trains.DefaultRoutes()
}

// Windows returns the polling windows derived from the index section.
func (c AppConfig) Windows() []trains.Window {
	count := c.Index.WindowCount
	if count <= 0 {
		count = 4
	}
	hours := c.Index.WindowHours
	if hours <= 0 {
		hours = 6
	}
	windows := make([]trains.Window, count)
	for i := range windows {
		windows[i] = trains.Window{
			Offset:   time.Duration(i) * time.Duration(hours) * time.Hour,
			Duration: time.Duration(hours) * time.Hour,
		}
	}
	return windows
}

// RebuildInterval returns the scheduler period.
func (c AppConfig) RebuildInterval() time.Duration {
	if c.Index.RebuildIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Index.RebuildIntervalMinutes) * time.Minute
}
