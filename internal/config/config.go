// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// Package config loads and validates Audiograph configuration. Precedence,
// lowest to highest: struct defaults, YAML config file, AUDIOGRAPH_*
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Audiograph server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Engine   EngineConfig   `koanf:"engine"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig holds DuckDB listen store settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory" validate:"required"`
	// Threads caps DuckDB worker threads; 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
	// InstallAggregations installs the precomputed aggregation catalog at
	// startup. When false the engine computes every metric locally.
	InstallAggregations bool `koanf:"install_aggregations"`
}

// EngineConfig holds analytics engine tuning.
type EngineConfig struct {
	// RepeatThreshold is the lifetime play count at which a track counts
	// as a repeat track in the loyalty gauge.
	RepeatThreshold int `koanf:"repeat_threshold" validate:"min=1"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size" validate:"min=1"`
	MaxPageSize     int           `koanf:"max_page_size" validate:"min=1"`
	RateLimitReqs   int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. These are
// overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3941,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:                "/data/audiograph.duckdb",
			MaxMemory:           "2GB",
			Threads:             0,
			InstallAggregations: true,
		},
		Engine: EngineConfig{
			RepeatThreshold: 5,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     200,
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("invalid configuration: api.default_page_size (%d) exceeds api.max_page_size (%d)",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}
	return nil
}

// ListenAddr renders the host:port address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
