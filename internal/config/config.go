// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings. CLI flags override the environment.
type Config struct {
	// DB is the SQLite database path. ":memory:" keeps everything in memory.
	DB string `env:"LEORA_DB" envDefault:"leora.db"`
	// Timezone decides which calendar day "today" is.
	Timezone string     `env:"LEORA_TIMEZONE" envDefault:"Local"`
	LogLevel slog.Level `env:"LEORA_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
