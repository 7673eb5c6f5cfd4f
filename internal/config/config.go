// Package config loads client configuration from the environment, with an
// optional .env file outside production.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config collects the knobs for the client pipeline and its stores.
type Config struct {
	// APIBaseURL is the backend root, e.g. http://localhost:8085.
	APIBaseURL string
	// StateDBPath is the bbolt file holding session state and offline cache.
	StateDBPath string
	// CacheMaxAge is the offline-cache freshness window.
	CacheMaxAge time.Duration
	// HealthURL is probed periodically to derive connectivity.
	HealthURL string
	// ProbeInterval is the connectivity probe period.
	ProbeInterval time.Duration
	// HTTPTimeout bounds each API request.
	HTTPTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored unless APP_ENV=production.
func Load() Config {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := Config{
		APIBaseURL:    envOr("CITASMART_API_URL", "http://localhost:8085"),
		StateDBPath:   envOr("CITASMART_STATE_DB", defaultStatePath()),
		CacheMaxAge:   envDurationOr("CITASMART_CACHE_MAX_AGE", 24*time.Hour),
		ProbeInterval: envDurationOr("CITASMART_PROBE_INTERVAL", 30*time.Second),
		HTTPTimeout:   envDurationOr("CITASMART_HTTP_TIMEOUT", 30*time.Second),
	}
	cfg.HealthURL = envOr("CITASMART_HEALTH_URL", cfg.APIBaseURL+"/health")
	return cfg
}

func defaultStatePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "citasmart", "state.db")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
