// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// This file is the local aggregation engine: every metric computed from
// the raw valid-event set. It is the fallback path used when the store's
// precomputed aggregations are not installed, and it must produce
// structurally identical results to them. Totals are carried in integer
// milliseconds end to end so ordering and sums match the SQL path exactly;
// conversion to hours happens once, in the transformers.
package engine

import (
	"fmt"
	"sort"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// Intermediate aggregate shapes shared by the local engine and the remote
// row decoders. One transformer per shape maps these to the output types.
type (
	summaryAgg struct {
		totalMS         int64
		distinctArtists int
		distinctTracks  int
		topArtist       *string
		mostActiveYear  *int
	}

	rankedAgg struct {
		name    string
		artist  string
		totalMS int64
	}

	trendAgg struct {
		period  string
		totalMS int64
		plays   int
	}

	clockAgg struct {
		dow     int
		hod     int
		totalMS int64
	}

	discoveryAgg struct {
		period  string
		artists int
		tracks  int
	}

	loyaltyMonthAgg struct {
		period string
		total  int
		repeat int
	}

	repeatTrackAgg struct {
		track  string
		artist string
		plays  int
	}
)

// trackKey identifies a track as the (track, artist) pair so same-named
// tracks by different artists are never conflated. A missing artist maps
// to the empty string on both computation paths.
type trackKey struct {
	track  string
	artist string
}

// filterWindow returns the events inside the half-open window.
func filterWindow(events []models.ListenEvent, w models.TimeWindow) []models.ListenEvent {
	if w.IsUnbounded() {
		return events
	}
	var out []models.ListenEvent
	for _, ev := range events {
		if w.Contains(ev.PlayedAt) {
			out = append(out, ev)
		}
	}
	return out
}

// artistOrEmpty collapses a missing artist to "".
func artistOrEmpty(ev models.ListenEvent) string {
	if ev.Artist == nil {
		return ""
	}
	return *ev.Artist
}

// monthKey renders the UTC calendar month bucket key, e.g. "2024-01".
func monthKey(ev models.ListenEvent) string {
	t := ev.PlayedAt.UTC()
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// isoWeekKey renders the ISO-8601 week bucket key, e.g. "2024-W05".
// ISO weeks start on Monday and are numbered by the Thursday-anchored
// rule, so early January can belong to the previous ISO year.
func isoWeekKey(ev models.ListenEvent) string {
	year, week := ev.PlayedAt.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// localSummary computes the dashboard summary aggregate.
func localSummary(events []models.ListenEvent, w models.TimeWindow) summaryAgg {
	var agg summaryAgg

	artistMS := make(map[string]int64)
	yearMS := make(map[int]int64)
	tracks := make(map[trackKey]struct{})

	for _, ev := range filterWindow(events, w) {
		agg.totalMS += ev.DurationMS
		if ev.Artist != nil {
			artistMS[*ev.Artist] += ev.DurationMS
		}
		if ev.Track != nil {
			tracks[trackKey{track: *ev.Track, artist: artistOrEmpty(ev)}] = struct{}{}
		}
		yearMS[ev.PlayedAt.UTC().Year()] += ev.DurationMS
	}

	agg.distinctArtists = len(artistMS)
	agg.distinctTracks = len(tracks)

	// Max per-artist listening time, ties broken ascending by name.
	var topArtist string
	var topMS int64 = -1
	for artist, ms := range artistMS {
		if ms > topMS || (ms == topMS && artist < topArtist) {
			topArtist, topMS = artist, ms
		}
	}
	if topMS >= 0 {
		agg.topArtist = &topArtist
	}

	// Max per-year listening time, ties broken ascending by year.
	var topYear int
	var topYearMS int64 = -1
	for year, ms := range yearMS {
		if ms > topYearMS || (ms == topYearMS && year < topYear) {
			topYear, topYearMS = year, ms
		}
	}
	if topYearMS >= 0 {
		agg.mostActiveYear = &topYear
	}

	return agg
}

// localTopArtists computes the paginated per-artist ranking.
func localTopArtists(events []models.ListenEvent, w models.TimeWindow, limit, offset int) []rankedAgg {
	artistMS := make(map[string]int64)
	for _, ev := range filterWindow(events, w) {
		if ev.Artist != nil {
			artistMS[*ev.Artist] += ev.DurationMS
		}
	}

	ranked := make([]rankedAgg, 0, len(artistMS))
	for artist, ms := range artistMS {
		ranked = append(ranked, rankedAgg{name: artist, totalMS: ms})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].totalMS != ranked[j].totalMS {
			return ranked[i].totalMS > ranked[j].totalMS
		}
		return ranked[i].name < ranked[j].name
	})
	return paginate(ranked, offset, limit)
}

// localTopTracks computes the paginated per-track ranking keyed by
// (track, artist).
func localTopTracks(events []models.ListenEvent, w models.TimeWindow, limit, offset int) []rankedAgg {
	trackMS := make(map[trackKey]int64)
	for _, ev := range filterWindow(events, w) {
		if ev.Track != nil {
			trackMS[trackKey{track: *ev.Track, artist: artistOrEmpty(ev)}] += ev.DurationMS
		}
	}

	ranked := make([]rankedAgg, 0, len(trackMS))
	for key, ms := range trackMS {
		ranked = append(ranked, rankedAgg{name: key.track, artist: key.artist, totalMS: ms})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.totalMS != b.totalMS {
			return a.totalMS > b.totalMS
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.artist < b.artist
	})
	return paginate(ranked, offset, limit)
}

// localTrends buckets events chronologically by the given period key
// function (calendar month or ISO week).
func localTrends(events []models.ListenEvent, w models.TimeWindow, keyFn func(models.ListenEvent) string) []trendAgg {
	type bucket struct {
		totalMS int64
		plays   int
	}
	buckets := make(map[string]*bucket)
	for _, ev := range filterWindow(events, w) {
		key := keyFn(ev)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.totalMS += ev.DurationMS
		b.plays++
	}

	trends := make([]trendAgg, 0, len(buckets))
	for key, b := range buckets {
		trends = append(trends, trendAgg{period: key, totalMS: b.totalMS, plays: b.plays})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].period < trends[j].period })
	return trends
}

// localClock buckets events by (UTC day-of-week, UTC hour-of-day).
// At most 168 buckets; missing buckets mean zero.
func localClock(events []models.ListenEvent, w models.TimeWindow) []clockAgg {
	cellMS := make(map[[2]int]int64)
	for _, ev := range filterWindow(events, w) {
		t := ev.PlayedAt.UTC()
		cellMS[[2]int{int(t.Weekday()), t.Hour()}] += ev.DurationMS
	}

	cells := make([]clockAgg, 0, len(cellMS))
	for key, ms := range cellMS {
		cells = append(cells, clockAgg{dow: key[0], hod: key[1], totalMS: ms})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].dow != cells[j].dow {
			return cells[i].dow < cells[j].dow
		}
		return cells[i].hod < cells[j].hod
	})
	return cells
}

// localTimeframes lists the distinct (year, month) combinations with data,
// newest first.
func localTimeframes(events []models.ListenEvent) []models.TimeframeOption {
	seen := make(map[[2]int]struct{})
	for _, ev := range events {
		t := ev.PlayedAt.UTC()
		seen[[2]int{t.Year(), int(t.Month())}] = struct{}{}
	}

	options := make([]models.TimeframeOption, 0, len(seen))
	for key := range seen {
		options = append(options, models.TimeframeOption{Year: key[0], Month: key[1]})
	}
	sort.Slice(options, func(i, j int) bool {
		if options[i].Year != options[j].Year {
			return options[i].Year > options[j].Year
		}
		return options[i].Month > options[j].Month
	})
	return options
}

// paginate slices a ranking by offset then limit. An offset past the end
// yields an empty slice; a non-positive limit yields no rows.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
