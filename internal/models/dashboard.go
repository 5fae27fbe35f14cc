// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package models

import "time"

// This file contains the derived metric payloads produced by the analytics
// engine. Every hours figure is the sum of duration_ms / 3,600,000 over the
// contributing events, rounded to one decimal exactly once at the output
// boundary. Both computation paths (precomputed store aggregations and the
// local engine) produce structurally identical values for these types.

// DashboardSummary is the headline card of the dashboard.
type DashboardSummary struct {
	// TotalHours is formatted with exactly one decimal, e.g. "2.4".
	TotalHours      string  `json:"total_hours"`
	DistinctArtists int     `json:"distinct_artists"`
	DistinctTracks  int     `json:"distinct_tracks"`
	TopArtist       *string `json:"top_artist"`
	MostActiveYear  *string `json:"most_active_year"`
}

// RankedEntry is one row of a paginated ranking (top artists or top
// tracks). For track rankings Artist disambiguates same-named tracks;
// for artist rankings it is empty. Entries are ordered descending by
// hours with ties broken ascending by name.
type RankedEntry struct {
	Name   string  `json:"name"`
	Artist string  `json:"artist,omitempty"`
	Hours  float64 `json:"hours"`
}

// TrendPoint is one bucket of a listening trend series, either a UTC
// calendar month or an ISO-8601 week. PeriodKey sorts chronologically.
type TrendPoint struct {
	PeriodKey string  `json:"period"`
	Label     string  `json:"label"`
	Hours     float64 `json:"hours"`
	Count     int     `json:"count"`
}

// ClockCell is one (day-of-week, hour-of-day) bucket of the listening
// clock heatmap. DayOfWeek follows the UTC convention 0=Sunday..6=Saturday.
// Absent cells mean zero listening.
type ClockCell struct {
	DayOfWeek int     `json:"day_of_week"`
	HourOfDay int     `json:"hour_of_day"`
	Hours     float64 `json:"hours"`
}

// StreakStats describes the longest and the current consecutive-day
// listening streaks. Dates are UTC calendar days in "2006-01-02" form;
// a length of zero leaves the date fields empty.
type StreakStats struct {
	LongestLength int    `json:"longest_length"`
	LongestStart  string `json:"longest_start,omitempty"`
	LongestEnd    string `json:"longest_end,omitempty"`
	CurrentLength int    `json:"current_length"`
	CurrentStart  string `json:"current_start,omitempty"`
	CurrentEnd    string `json:"current_end,omitempty"`
}

// DiscoveryPoint is one month of the discovery timeline: how many artists
// and tracks had their first-ever listen in that month. First occurrence is
// global over the entire history; a discovery counts toward a requested
// window only when that global first occurrence falls inside it.
type DiscoveryPoint struct {
	MonthKey   string `json:"month"`
	Label      string `json:"label"`
	NewArtists int    `json:"new_artists"`
	NewTracks  int    `json:"new_tracks"`
}

// LoyaltyMonth is one month of the repeat-listen gauge: the share of plays
// within the window that belong to repeat-classified tracks.
type LoyaltyMonth struct {
	MonthKey    string  `json:"month"`
	Label       string  `json:"label"`
	RepeatShare float64 `json:"repeat_share"`
	RepeatCount int     `json:"repeat_count"`
	TotalCount  int     `json:"total_count"`
}

// RepeatTrack is a track whose lifetime play count reached the repeat
// threshold, ranked by that lifetime count.
type RepeatTrack struct {
	Track     string `json:"track"`
	Artist    string `json:"artist,omitempty"`
	PlayCount int    `json:"play_count"`
}

// LoyaltyGauge is the repeat-listen loyalty metric. Repeat classification
// uses lifetime play counts over the unfiltered history regardless of the
// requested window.
type LoyaltyGauge struct {
	RepeatThreshold int            `json:"repeat_threshold"`
	Monthly         []LoyaltyMonth `json:"monthly"`
	TopRepeatTracks []RepeatTrack  `json:"top_repeat_tracks"`
}

// HistoryRow is one event of the paginated listening history.
type HistoryRow struct {
	Track      *string   `json:"track"`
	Artist     *string   `json:"artist"`
	PlayedAt   time.Time `json:"played_at"`
	DurationMS int64     `json:"duration_ms"`
}

// HistoryPage is a page of listening history with the total match count
// computed before pagination.
type HistoryPage struct {
	Rows  []HistoryRow `json:"rows"`
	Total int          `json:"total"`
}

// TimeframeOption is one (year, month) combination that has listen data,
// used to populate the dashboard's timeframe picker.
type TimeframeOption struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// DashboardData is the composed all-in-one bundle: every metric for one
// timeframe, computed against the same resolved window.
type DashboardData struct {
	Timeframe    string            `json:"timeframe"`
	Summary      *DashboardSummary `json:"summary"`
	TopArtists   []RankedEntry     `json:"top_artists"`
	TopTracks    []RankedEntry     `json:"top_tracks"`
	Trends       []TrendPoint      `json:"trends"`
	WeeklyTrends []TrendPoint      `json:"weekly_trends"`
	Clock        []ClockCell       `json:"clock"`
	Streaks      *StreakStats      `json:"streaks"`
	Discovery    []DiscoveryPoint  `json:"discovery"`
	Loyalty      *LoyaltyGauge     `json:"loyalty"`
}
