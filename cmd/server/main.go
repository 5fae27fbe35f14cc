// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// Package main is the entry point for the Audiograph server.
//
// Audiograph is a self-hosted analytics engine for a personal music
// listening log. It answers dashboard queries (summary, rankings, trends,
// the listening clock, streaks, discovery, loyalty, and history) over a
// DuckDB-backed listen store.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, YAML file,
//     AUDIOGRAPH_* environment variables)
//  2. Store: DuckDB listen store, optionally installing the precomputed
//     aggregation catalog
//  3. Engine: the analytics engine over the store handle
//  4. HTTP server: chi REST API under /api/v1 plus /metrics
//  5. Supervision: a suture tree restarts the HTTP server on failure
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the server stops accepting
// connections, waits for in-flight requests up to the shutdown timeout,
// then closes the store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/colin-rod/audiograph-sub000/internal/api"
	"github.com/colin-rod/audiograph-sub000/internal/config"
	"github.com/colin-rod/audiograph-sub000/internal/engine"
	"github.com/colin-rod/audiograph-sub000/internal/logging"
	"github.com/colin-rod/audiograph-sub000/internal/store"
	"github.com/colin-rod/audiograph-sub000/internal/supervisor"
	"github.com/colin-rod/audiograph-sub000/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "audiograph: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (YAML)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", cfg.ListenAddr()).
		Str("db_path", cfg.Database.Path).
		Msg("starting audiograph")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("store close failed")
		}
	}()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}

	if cfg.Database.InstallAggregations {
		if err := db.InstallAggregations(ctx); err != nil {
			// The engine falls back to local computation, so a failed
			// install degrades performance rather than availability.
			logging.Warn().Err(err).Msg("aggregation install failed, metrics will compute locally")
		}
	}

	eng := engine.New(db, engine.Options{RepeatThreshold: cfg.Engine.RepeatThreshold})
	server := api.NewServer(eng, cfg.API)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      server.NewRouter(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logging.Info().Msg("audiograph stopped")
	return nil
}
