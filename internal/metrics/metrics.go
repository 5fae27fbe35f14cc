// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// Package metrics defines the Prometheus instrumentation for Audiograph:
// store query performance, raw-row cache efficiency, local-fallback
// frequency, and API latency/throughput.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiograph_store_query_duration_seconds",
			Help:    "Duration of listen store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiograph_store_query_errors_total",
			Help: "Total number of listen store query errors",
		},
		[]string{"operation", "code"},
	)

	// Raw-row cache metrics
	RawRowCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiograph_raw_row_cache_hits_total",
			Help: "Raw-row cache lookups served from a resolved fetch",
		},
	)

	RawRowCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiograph_raw_row_cache_misses_total",
			Help: "Raw-row cache lookups that joined or started a fetch",
		},
	)

	RawRowFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiograph_raw_row_fetches_total",
			Help: "Underlying full-table listen fetches issued to the store",
		},
	)

	// Engine metrics
	AggregationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiograph_aggregation_fallbacks_total",
			Help: "Metric computations that fell back to the local engine",
		},
		[]string{"metric"},
	)

	RemoteAggregations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiograph_remote_aggregations_total",
			Help: "Named-aggregation dispatches by outcome",
		},
		[]string{"name", "outcome"}, // outcome: ok, not_installed, unauthorized, transport, error
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiograph_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiograph_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)
