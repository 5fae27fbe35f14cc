// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/colin-rod/audiograph-sub000/internal/metrics"
	"github.com/colin-rod/audiograph-sub000/internal/models"
	"github.com/colin-rod/audiograph-sub000/internal/store"
)

// remoteDispatcher wraps a store Aggregator with a circuit breaker.
// Transport failures trip the breaker; domain errors like unauthorized
// or not_installed pass through without counting against it, since they
// describe the request or the store's capability, not its health.
type remoteDispatcher struct {
	agg     store.Aggregator
	breaker *gobreaker.CircuitBreaker[[]store.Row]
}

func newRemoteDispatcher(agg store.Aggregator) *remoteDispatcher {
	settings := gobreaker.Settings{
		Name:    "store-aggregations",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !store.IsTransport(err)
		},
	}
	return &remoteDispatcher{
		agg:     agg,
		breaker: gobreaker.NewCircuitBreaker[[]store.Row](settings),
	}
}

// aggregate runs a named aggregation through the breaker. An open breaker
// is reported as a transport error so callers treat it like any other
// store outage.
func (d *remoteDispatcher) aggregate(ctx context.Context, name string, params store.AggregateParams) ([]store.Row, error) {
	rows, err := d.breaker.Execute(func() ([]store.Row, error) {
		return d.agg.Aggregate(ctx, name, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = store.NewTransportError("aggregate."+name, err)
		}
		outcome := string(store.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
		metrics.RemoteAggregations.WithLabelValues(name, outcome).Inc()
		return nil, err
	}
	metrics.RemoteAggregations.WithLabelValues(name, "ok").Inc()
	return rows, nil
}

// Row field accessors. Driver row values arrive with driver-dependent
// dynamic types, so numeric fields tolerate every integer width plus
// float64, and absent or NULL columns decode to the zero value.

func rowString(r store.Row, key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func rowStringPtr(r store.Row, key string) *string {
	if r[key] == nil {
		return nil
	}
	s := rowString(r, key)
	return &s
}

func rowInt64(r store.Row, key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case uint32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func rowInt(r store.Row, key string) int {
	return int(rowInt64(r, key))
}

func rowTime(r store.Row, key string) time.Time {
	if t, ok := r[key].(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

// Per-metric decoders from store rows to the shared intermediates.

func decodeSummary(rows []store.Row) summaryAgg {
	var agg summaryAgg
	if len(rows) == 0 {
		return agg
	}
	r := rows[0]
	agg.totalMS = rowInt64(r, "total_ms")
	agg.distinctArtists = rowInt(r, "distinct_artists")
	agg.distinctTracks = rowInt(r, "distinct_tracks")
	agg.topArtist = rowStringPtr(r, "top_artist")
	if r["most_active_year"] != nil {
		year := rowInt(r, "most_active_year")
		agg.mostActiveYear = &year
	}
	return agg
}

func decodeRanked(rows []store.Row) []rankedAgg {
	ranked := make([]rankedAgg, 0, len(rows))
	for _, r := range rows {
		ranked = append(ranked, rankedAgg{
			name:    rowString(r, "name"),
			artist:  rowString(r, "artist"),
			totalMS: rowInt64(r, "total_ms"),
		})
	}
	return ranked
}

func decodeTrends(rows []store.Row) []trendAgg {
	trends := make([]trendAgg, 0, len(rows))
	for _, r := range rows {
		trends = append(trends, trendAgg{
			period:  rowString(r, "period"),
			totalMS: rowInt64(r, "total_ms"),
			plays:   rowInt(r, "plays"),
		})
	}
	return trends
}

func decodeClock(rows []store.Row) []clockAgg {
	cells := make([]clockAgg, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, clockAgg{
			dow:     rowInt(r, "dow"),
			hod:     rowInt(r, "hod"),
			totalMS: rowInt64(r, "total_ms"),
		})
	}
	return cells
}

func decodeActiveDays(rows []store.Row) []int64 {
	days := make([]int64, 0, len(rows))
	for _, r := range rows {
		if t := rowTime(r, "day"); !t.IsZero() {
			days = append(days, dayNumber(t))
		}
	}
	return days
}

func decodeDiscovery(rows []store.Row) []discoveryAgg {
	points := make([]discoveryAgg, 0, len(rows))
	for _, r := range rows {
		points = append(points, discoveryAgg{
			period:  rowString(r, "period"),
			artists: rowInt(r, "new_artists"),
			tracks:  rowInt(r, "new_tracks"),
		})
	}
	return points
}

func decodeLoyaltyMonthly(rows []store.Row) []loyaltyMonthAgg {
	months := make([]loyaltyMonthAgg, 0, len(rows))
	for _, r := range rows {
		months = append(months, loyaltyMonthAgg{
			period: rowString(r, "period"),
			total:  rowInt(r, "total_plays"),
			repeat: rowInt(r, "repeat_plays"),
		})
	}
	return months
}

func decodeRepeatTracks(rows []store.Row) []repeatTrackAgg {
	ranked := make([]repeatTrackAgg, 0, len(rows))
	for _, r := range rows {
		ranked = append(ranked, repeatTrackAgg{
			track:  rowString(r, "track"),
			artist: rowString(r, "artist"),
			plays:  rowInt(r, "plays"),
		})
	}
	return ranked
}

func decodeHistory(rows []store.Row) []models.ListenEvent {
	events := make([]models.ListenEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, models.ListenEvent{
			PlayedAt:   rowTime(r, "played_at"),
			Track:      rowStringPtr(r, "track"),
			Artist:     rowStringPtr(r, "artist"),
			DurationMS: rowInt64(r, "duration_ms"),
		})
	}
	return events
}

func decodeTimeframes(rows []store.Row) []models.TimeframeOption {
	options := make([]models.TimeframeOption, 0, len(rows))
	for _, r := range rows {
		options = append(options, models.TimeframeOption{
			Year:  rowInt(r, "year"),
			Month: rowInt(r, "month"),
		})
	}
	return options
}
