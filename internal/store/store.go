// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// Package store defines the listen store contract consumed by the
// analytics engine, its typed error taxonomy, and the DuckDB-backed
// implementation.
//
// A store handle always exposes the raw row-query capability (all valid
// listen events). It may additionally expose the named-aggregation
// capability: precomputed aggregations invoked by name that return rows.
// The engine detects that capability with a type assertion and falls back
// to local computation when an aggregation call reports not_installed.
package store

import (
	"context"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// Aggregation names accepted by Aggregator implementations. Each name maps
// to one precomputed aggregation whose row shape the engine's transformers
// understand.
const (
	AggSummary          = "summary"
	AggTopArtists       = "top_artists"
	AggTopTracks        = "top_tracks"
	AggTrendsMonthly    = "trends_monthly"
	AggTrendsWeekly     = "trends_weekly"
	AggClock            = "clock"
	AggActiveDays       = "active_days"
	AggDiscovery        = "discovery"
	AggLoyaltyMonthly   = "loyalty_monthly"
	AggLoyaltyTopTracks = "loyalty_top_tracks"
	AggHistory          = "history"
	AggHistoryCount     = "history_count"
	AggTimeframes       = "timeframes"
)

// Row is one result row of a named aggregation, keyed by column name.
type Row map[string]any

// AggregateParams carries the window plus the metric-specific parameters
// of a named aggregation call. Zero values mean "not set"; aggregations
// ignore parameters they do not use.
type AggregateParams struct {
	Window models.TimeWindow
	Limit  int
	Offset int
	Search string

	// RepeatThreshold is the lifetime play count at which a track counts
	// as a repeat track. Used by the loyalty aggregations.
	RepeatThreshold int
}

// Handle is the queryable listen store consumed by the engine.
//
// QueryListens returns every valid event in the log, ordered by played_at
// ascending. Rows with an unparseable timestamp or a missing/negative
// duration are excluded at this boundary; their absence is not an error.
//
// ID identifies the handle for cache keying. Two handles over the same
// underlying data share raw-row fetches only when they share an ID.
type Handle interface {
	ID() string
	QueryListens(ctx context.Context) ([]models.ListenEvent, error)
}

// Aggregator is the optional named-aggregation capability of a store
// handle. Aggregate returns the rows of the named precomputed aggregation,
// or a *Error: code not_installed when the aggregation schema is absent,
// unauthorized when the store rejects the call, transport otherwise.
type Aggregator interface {
	Aggregate(ctx context.Context, name string, params AggregateParams) ([]Row, error)
}
