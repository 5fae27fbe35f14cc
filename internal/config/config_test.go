// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 3941 {
		t.Errorf("Expected default port 3941, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/data/audiograph.duckdb" {
		t.Errorf("Unexpected default database path: %s", cfg.Database.Path)
	}
	if !cfg.Database.InstallAggregations {
		t.Error("Expected aggregation install to default on")
	}
	if cfg.Engine.RepeatThreshold != 5 {
		t.Errorf("Expected default repeat threshold 5, got %d", cfg.Engine.RepeatThreshold)
	}
	if cfg.API.DefaultPageSize != 20 || cfg.API.MaxPageSize != 200 {
		t.Errorf("Unexpected page size defaults: %d/%d", cfg.API.DefaultPageSize, cfg.API.MaxPageSize)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging defaults: %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AUDIOGRAPH_SERVER_PORT", "8080")
	t.Setenv("AUDIOGRAPH_ENGINE_REPEAT_THRESHOLD", "3")
	t.Setenv("AUDIOGRAPH_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected env-overridden port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Engine.RepeatThreshold != 3 {
		t.Errorf("Expected env-overridden threshold 3, got %d", cfg.Engine.RepeatThreshold)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected env-overridden level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 4000
  timeout: 45s
database:
  path: /tmp/test.duckdb
api:
  default_page_size: 50
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Expected port 4000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 45*time.Second {
		t.Errorf("Expected timeout 45s, got %v", cfg.Server.Timeout)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("Unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.API.DefaultPageSize != 50 {
		t.Errorf("Expected page size 50, got %d", cfg.API.DefaultPageSize)
	}
	// Unset keys keep their defaults.
	if cfg.API.MaxPageSize != 200 {
		t.Errorf("Expected default max page size, got %d", cfg.API.MaxPageSize)
	}
}

func TestValidate(t *testing.T) {
	t.Run("rejects bad port", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Expected validation error for port 0")
		}
	})

	t.Run("rejects default page size above max", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.API.DefaultPageSize = 500
		if err := cfg.Validate(); err == nil {
			t.Error("Expected validation error for default > max page size")
		}
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Logging.Level = "verbose"
		if err := cfg.Validate(); err == nil {
			t.Error("Expected validation error for unknown log level")
		}
	})
}

func TestListenAddr(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.ListenAddr(); got != "0.0.0.0:3941" {
		t.Errorf("Expected 0.0.0.0:3941, got %q", got)
	}
}
