// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// This file implements the named-aggregation capability of the DuckDB
// store: one SQL query per aggregation name, all reading the valid_listens
// view. Row shapes are part of the store contract; the engine's
// transformers decode them. Sums are kept in integer milliseconds so the
// precomputed path and the local path order and total identically; the
// engine converts to hours exactly once at its output boundary.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/colin-rod/audiograph-sub000/internal/metrics"
	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// aggregationNames lists every installed aggregation, recorded in the
// aggregation catalog by InstallAggregations.
var aggregationNames = []string{
	AggSummary,
	AggTopArtists,
	AggTopTracks,
	AggTrendsMonthly,
	AggTrendsWeekly,
	AggClock,
	AggActiveDays,
	AggDiscovery,
	AggLoyaltyMonthly,
	AggLoyaltyTopTracks,
	AggHistory,
	AggHistoryCount,
	AggTimeframes,
}

// Aggregate implements Aggregator.
func (db *DB) Aggregate(ctx context.Context, name string, params AggregateParams) ([]Row, error) {
	if !db.AggregationsInstalled() {
		return nil, NewNotInstalledError(name)
	}

	query, args, err := buildAggregationQuery(name, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	stmt, err := db.stmt(ctx, query)
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues(name, string(ErrCodeTransport)).Inc()
		return nil, NewTransportError(name, err)
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues(name, string(ErrCodeTransport)).Inc()
		return nil, NewTransportError(name, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, NewTransportError(name, err)
	}

	metrics.StoreQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return result, nil
}

// buildAggregationQuery maps an aggregation name to its SQL and arguments.
func buildAggregationQuery(name string, params AggregateParams) (string, []any, error) {
	windowSQL, windowArgs := buildWindowClause(params.Window, "played_at")

	switch name {
	case AggSummary:
		return buildSummaryQuery(windowSQL, windowArgs)
	case AggTopArtists:
		query := fmt.Sprintf(`
			SELECT artist AS name,
			       CAST(SUM(duration_ms) AS BIGINT) AS total_ms
			FROM valid_listens
			WHERE artist IS NOT NULL%s
			GROUP BY artist
			ORDER BY total_ms DESC, name ASC
			LIMIT ? OFFSET ?`, windowSQL)
		args := append(windowArgs, params.Limit, params.Offset)
		return query, args, nil
	case AggTopTracks:
		query := fmt.Sprintf(`
			SELECT track AS name,
			       COALESCE(artist, '') AS artist,
			       CAST(SUM(duration_ms) AS BIGINT) AS total_ms
			FROM valid_listens
			WHERE track IS NOT NULL%s
			GROUP BY track, COALESCE(artist, '')
			ORDER BY total_ms DESC, name ASC, artist ASC
			LIMIT ? OFFSET ?`, windowSQL)
		args := append(windowArgs, params.Limit, params.Offset)
		return query, args, nil
	case AggTrendsMonthly:
		query := fmt.Sprintf(`
			SELECT strftime(played_at, '%%Y-%%m') AS period,
			       CAST(SUM(duration_ms) AS BIGINT) AS total_ms,
			       CAST(COUNT(*) AS BIGINT) AS plays
			FROM valid_listens
			WHERE 1=1%s
			GROUP BY period
			ORDER BY period ASC`, windowSQL)
		return query, windowArgs, nil
	case AggTrendsWeekly:
		// ISO-8601 weeks: Monday-start, Thursday-anchored numbering.
		query := fmt.Sprintf(`
			SELECT printf('%%04d-W%%02d',
			              CAST(EXTRACT(isoyear FROM played_at) AS INT),
			              CAST(EXTRACT(week FROM played_at) AS INT)) AS period,
			       CAST(SUM(duration_ms) AS BIGINT) AS total_ms,
			       CAST(COUNT(*) AS BIGINT) AS plays
			FROM valid_listens
			WHERE 1=1%s
			GROUP BY period
			ORDER BY period ASC`, windowSQL)
		return query, windowArgs, nil
	case AggClock:
		query := fmt.Sprintf(`
			SELECT CAST(dayofweek(played_at) AS INT) AS dow,
			       CAST(hour(played_at) AS INT) AS hod,
			       CAST(SUM(duration_ms) AS BIGINT) AS total_ms
			FROM valid_listens
			WHERE 1=1%s
			GROUP BY dow, hod
			ORDER BY dow ASC, hod ASC`, windowSQL)
		return query, windowArgs, nil
	case AggActiveDays:
		query := fmt.Sprintf(`
			SELECT DISTINCT CAST(played_at AS DATE) AS day
			FROM valid_listens
			WHERE 1=1%s
			ORDER BY day ASC`, windowSQL)
		return query, windowArgs, nil
	case AggDiscovery:
		return buildDiscoveryQuery(params.Window)
	case AggLoyaltyMonthly:
		query := fmt.Sprintf(`
			WITH lifetime AS (
				SELECT track, COALESCE(artist, '') AS artist,
				       CAST(COUNT(*) AS BIGINT) AS plays
				FROM valid_listens
				WHERE track IS NOT NULL
				GROUP BY track, COALESCE(artist, '')
			)
			SELECT strftime(v.played_at, '%%Y-%%m') AS period,
			       CAST(COUNT(*) AS BIGINT) AS total_plays,
			       CAST(COUNT(*) FILTER (WHERE l.plays >= ?) AS BIGINT) AS repeat_plays
			FROM valid_listens v
			LEFT JOIN lifetime l
			  ON v.track = l.track AND COALESCE(v.artist, '') = l.artist
			WHERE v.track IS NOT NULL%s
			GROUP BY period
			ORDER BY period ASC`, strings.ReplaceAll(windowSQL, "played_at", "v.played_at"))
		args := append([]any{params.RepeatThreshold}, windowArgs...)
		return query, args, nil
	case AggLoyaltyTopTracks:
		// Lifetime counts over the unfiltered history; the window does not
		// apply here.
		query := `
			SELECT track,
			       COALESCE(artist, '') AS artist,
			       CAST(COUNT(*) AS BIGINT) AS plays
			FROM valid_listens
			WHERE track IS NOT NULL
			GROUP BY track, COALESCE(artist, '')
			HAVING COUNT(*) >= ?
			ORDER BY plays DESC, track ASC, artist ASC
			LIMIT ?`
		return query, []any{params.RepeatThreshold, params.Limit}, nil
	case AggHistory:
		searchSQL, searchArgs := buildSearchClause(params.Search)
		query := fmt.Sprintf(`
			SELECT track, artist, played_at, duration_ms
			FROM valid_listens
			WHERE 1=1%s%s
			ORDER BY played_at DESC, COALESCE(track, '') ASC, COALESCE(artist, '') ASC
			LIMIT ? OFFSET ?`, windowSQL, searchSQL)
		args := append(windowArgs, searchArgs...)
		args = append(args, params.Limit, params.Offset)
		return query, args, nil
	case AggHistoryCount:
		searchSQL, searchArgs := buildSearchClause(params.Search)
		query := fmt.Sprintf(`
			SELECT CAST(COUNT(*) AS BIGINT) AS total
			FROM valid_listens
			WHERE 1=1%s%s`, windowSQL, searchSQL)
		return query, append(windowArgs, searchArgs...), nil
	case AggTimeframes:
		return `
			SELECT CAST(EXTRACT(year FROM played_at) AS INT) AS year,
			       CAST(EXTRACT(month FROM played_at) AS INT) AS month
			FROM valid_listens
			GROUP BY year, month
			ORDER BY year DESC, month DESC`, nil, nil
	default:
		return "", nil, NewNotInstalledError(name)
	}
}

// buildSummaryQuery produces the single-row dashboard summary aggregation.
func buildSummaryQuery(windowSQL string, windowArgs []any) (string, []any, error) {
	query := fmt.Sprintf(`
		WITH w AS (
			SELECT * FROM valid_listens WHERE 1=1%s
		)
		SELECT
			CAST(COALESCE((SELECT SUM(duration_ms) FROM w), 0) AS BIGINT) AS total_ms,
			CAST((SELECT COUNT(DISTINCT artist) FROM w WHERE artist IS NOT NULL) AS BIGINT) AS distinct_artists,
			CAST((SELECT COUNT(*) FROM (
				SELECT DISTINCT track, COALESCE(artist, '') FROM w WHERE track IS NOT NULL
			)) AS BIGINT) AS distinct_tracks,
			(SELECT artist FROM w WHERE artist IS NOT NULL
			 GROUP BY artist
			 ORDER BY SUM(duration_ms) DESC, artist ASC
			 LIMIT 1) AS top_artist,
			(SELECT year FROM (
				SELECT CAST(EXTRACT(year FROM played_at) AS INT) AS year,
				       SUM(duration_ms) AS total_ms
				FROM w GROUP BY year
			) ORDER BY total_ms DESC, year ASC LIMIT 1) AS most_active_year`, windowSQL)
	return query, windowArgs, nil
}

// buildDiscoveryQuery produces the discovery timeline aggregation.
// First occurrences are global over the entire history; the window filters
// those global first-occurrence dates, not the events themselves.
func buildDiscoveryQuery(window models.TimeWindow) (string, []any, error) {
	firstSQL, firstArgs := buildWindowClause(window, "first_at")
	query := fmt.Sprintf(`
		WITH artist_firsts AS (
			SELECT MIN(played_at) AS first_at
			FROM valid_listens
			WHERE artist IS NOT NULL
			GROUP BY artist
		),
		track_firsts AS (
			SELECT MIN(played_at) AS first_at
			FROM valid_listens
			WHERE track IS NOT NULL
			GROUP BY track, COALESCE(artist, '')
		)
		SELECT period,
		       CAST(SUM(artists) AS BIGINT) AS new_artists,
		       CAST(SUM(tracks) AS BIGINT) AS new_tracks
		FROM (
			SELECT strftime(first_at, '%%Y-%%m') AS period, 1 AS artists, 0 AS tracks
			FROM artist_firsts WHERE 1=1%s
			UNION ALL
			SELECT strftime(first_at, '%%Y-%%m') AS period, 0 AS artists, 1 AS tracks
			FROM track_firsts WHERE 1=1%s
		)
		GROUP BY period
		ORDER BY period ASC`, firstSQL, firstSQL)
	args := append(append([]any{}, firstArgs...), firstArgs...)
	return query, args, nil
}

// buildWindowClause renders the half-open [start, end) membership test for
// col. The returned SQL starts with " AND " or is empty for an unbounded
// window.
func buildWindowClause(window models.TimeWindow, col string) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	if window.Start != nil {
		fmt.Fprintf(&sb, " AND %s >= ?", col)
		args = append(args, window.Start.UTC())
	}
	if window.End != nil {
		fmt.Fprintf(&sb, " AND %s < ?", col)
		args = append(args, window.End.UTC())
	}
	return sb.String(), args
}

// buildSearchClause renders the case-insensitive substring match on track
// or artist used by the history aggregations.
func buildSearchClause(search string) (string, []any) {
	if search == "" {
		return "", nil
	}
	clause := ` AND (contains(lower(COALESCE(track, '')), lower(?))
		OR contains(lower(COALESCE(artist, '')), lower(?)))`
	return clause, []any{search, search}
}
