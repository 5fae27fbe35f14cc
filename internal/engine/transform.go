// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// Transformers map the shared intermediate aggregates to the output
// payloads. Millisecond-to-hour conversion and rounding happen here and
// nowhere else, so both computation paths round exactly once.

const msPerHour = 3_600_000.0

// round1 converts a millisecond total to hours rounded to one decimal.
func round1(ms int64) float64 {
	return math.Round(float64(ms)/msPerHour*10) / 10
}

// hoursLabel renders an hours value with exactly one decimal, e.g. "2.4".
func hoursLabel(hours float64) string {
	return strconv.FormatFloat(hours, 'f', 1, 64)
}

// monthLabel renders a "2024-01" period key as "Jan 2024". Unparseable
// keys pass through unchanged.
func monthLabel(period string) string {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return period
	}
	return t.Format("Jan 2006")
}

// weekLabel renders a "2024-W05" period key as "W05 2024".
func weekLabel(period string) string {
	year, week, ok := strings.Cut(period, "-")
	if !ok {
		return period
	}
	return week + " " + year
}

func transformSummary(agg summaryAgg) *models.DashboardSummary {
	summary := &models.DashboardSummary{
		TotalHours:      hoursLabel(round1(agg.totalMS)),
		DistinctArtists: agg.distinctArtists,
		DistinctTracks:  agg.distinctTracks,
		TopArtist:       agg.topArtist,
	}
	if agg.mostActiveYear != nil {
		year := strconv.Itoa(*agg.mostActiveYear)
		summary.MostActiveYear = &year
	}
	return summary
}

func transformRanked(ranked []rankedAgg) []models.RankedEntry {
	entries := make([]models.RankedEntry, 0, len(ranked))
	for _, r := range ranked {
		entries = append(entries, models.RankedEntry{
			Name:   r.name,
			Artist: r.artist,
			Hours:  round1(r.totalMS),
		})
	}
	return entries
}

func transformTrends(trends []trendAgg, label func(string) string) []models.TrendPoint {
	points := make([]models.TrendPoint, 0, len(trends))
	for _, t := range trends {
		points = append(points, models.TrendPoint{
			PeriodKey: t.period,
			Label:     label(t.period),
			Hours:     round1(t.totalMS),
			Count:     t.plays,
		})
	}
	return points
}

func transformClock(cells []clockAgg) []models.ClockCell {
	out := make([]models.ClockCell, 0, len(cells))
	for _, c := range cells {
		out = append(out, models.ClockCell{
			DayOfWeek: c.dow,
			HourOfDay: c.hod,
			Hours:     round1(c.totalMS),
		})
	}
	return out
}

func transformStreaks(agg streakAgg) *models.StreakStats {
	stats := &models.StreakStats{
		LongestLength: agg.longestLen,
		CurrentLength: agg.currentLen,
	}
	if agg.longestLen > 0 {
		stats.LongestStart = dayString(agg.longestStart)
		stats.LongestEnd = dayString(agg.longestEnd)
	}
	if agg.currentLen > 0 {
		stats.CurrentStart = dayString(agg.currentStart)
		stats.CurrentEnd = dayString(agg.currentEnd)
	}
	return stats
}

func transformDiscovery(points []discoveryAgg) []models.DiscoveryPoint {
	out := make([]models.DiscoveryPoint, 0, len(points))
	for _, p := range points {
		out = append(out, models.DiscoveryPoint{
			MonthKey:   p.period,
			Label:      monthLabel(p.period),
			NewArtists: p.artists,
			NewTracks:  p.tracks,
		})
	}
	return out
}

func transformLoyalty(months []loyaltyMonthAgg, tracks []repeatTrackAgg, threshold int) *models.LoyaltyGauge {
	gauge := &models.LoyaltyGauge{
		RepeatThreshold: threshold,
		Monthly:         make([]models.LoyaltyMonth, 0, len(months)),
		TopRepeatTracks: make([]models.RepeatTrack, 0, len(tracks)),
	}
	for _, m := range months {
		share := 0.0
		if m.total > 0 {
			share = math.Round(float64(m.repeat)/float64(m.total)*1000) / 1000
		}
		gauge.Monthly = append(gauge.Monthly, models.LoyaltyMonth{
			MonthKey:    m.period,
			Label:       monthLabel(m.period),
			RepeatShare: share,
			RepeatCount: m.repeat,
			TotalCount:  m.total,
		})
	}
	for _, t := range tracks {
		gauge.TopRepeatTracks = append(gauge.TopRepeatTracks, models.RepeatTrack{
			Track:     t.track,
			Artist:    t.artist,
			PlayCount: t.plays,
		})
	}
	return gauge
}

func transformHistory(events []models.ListenEvent, total int) *models.HistoryPage {
	page := &models.HistoryPage{
		Rows:  make([]models.HistoryRow, 0, len(events)),
		Total: total,
	}
	for _, ev := range events {
		page.Rows = append(page.Rows, models.HistoryRow{
			Track:      ev.Track,
			Artist:     ev.Artist,
			PlayedAt:   ev.PlayedAt,
			DurationMS: ev.DurationMS,
		})
	}
	return page
}
