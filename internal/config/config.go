// Package config loads runtime settings from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings. Every field has a workable default so
// the server runs with an empty environment (in-memory stores, no Redis).
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":5000"`
	RedisAddr  string `envconfig:"REDIS_ADDR"`

	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"15s"`
	StaleThreshold time.Duration `envconfig:"STALE_THRESHOLD" default:"10s"`

	JoinRateMax    int           `envconfig:"JOIN_RATE_MAX" default:"20"`
	JoinRateWindow time.Duration `envconfig:"JOIN_RATE_WINDOW" default:"1m"`
}

// Load reads a .env file if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
