// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// Package models defines the shared data types for Audiograph: the raw
// listen event, time windows and timeframe selectors, and the derived
// metric payloads returned by the analytics engine.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ListenEvent is one playback record from the listen log. Events are
// immutable and owned by the ingestion pipeline; the analytics engine only
// reads them. The store returns only valid events: PlayedAt is always set
// and DurationMS is non-negative. Artist and Track remain nullable.
type ListenEvent struct {
	PlayedAt   time.Time `json:"played_at"`
	Artist     *string   `json:"artist"`
	Track      *string   `json:"track"`
	DurationMS int64     `json:"duration_ms"`
}

// TimeWindow is a half-open interval [Start, End). A nil bound means
// unbounded on that side.
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the window (start <= t < end).
func (w TimeWindow) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && !t.Before(*w.End) {
		return false
	}
	return true
}

// IsUnbounded reports whether the window covers all time.
func (w TimeWindow) IsUnbounded() bool {
	return w.Start == nil && w.End == nil
}

// Timeframe selects the scope of an aggregation: all time, one calendar
// year, or one calendar month. The zero value means all time.
type Timeframe struct {
	Year  int        `json:"year,omitempty"`
	Month time.Month `json:"month,omitempty"`
}

// AllTime reports whether the selector covers the full history.
func (tf Timeframe) AllTime() bool {
	return tf.Year == 0
}

// String renders the selector in the canonical form used by the API:
// "all", "2024", or "2024-03".
func (tf Timeframe) String() string {
	switch {
	case tf.Year == 0:
		return "all"
	case tf.Month == 0:
		return strconv.Itoa(tf.Year)
	default:
		return fmt.Sprintf("%04d-%02d", tf.Year, int(tf.Month))
	}
}

// ParseTimeframe parses a timeframe selector. Accepted forms are "all"
// (or empty), "2024", and "2024-03".
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return Timeframe{}, nil
	}

	parts := strings.SplitN(s, "-", 2)
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 || year > 9999 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", s)
	}
	if len(parts) == 1 {
		return Timeframe{Year: year}, nil
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", s)
	}
	return Timeframe{Year: year, Month: time.Month(month)}, nil
}
