// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"sort"
	"time"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// streakAgg is the computed streak pair in UTC day numbers. Day numbers
// are days since the Unix epoch, which makes consecutive-day checks a
// plain integer difference immune to DST and month boundaries.
type streakAgg struct {
	longestLen   int
	longestStart int64
	longestEnd   int64
	currentLen   int
	currentStart int64
	currentEnd   int64
}

const secondsPerDay = 24 * 60 * 60

// dayNumber maps a timestamp to its UTC calendar day number.
func dayNumber(t time.Time) int64 {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Unix() / secondsPerDay
}

// dayString renders a day number as an ISO date.
func dayString(day int64) string {
	return time.Unix(day*secondsPerDay, 0).UTC().Format("2006-01-02")
}

// activeDays extracts the sorted distinct UTC day numbers with at least
// one listen inside the window.
func activeDays(events []models.ListenEvent, w models.TimeWindow) []int64 {
	seen := make(map[int64]struct{})
	for _, ev := range filterWindow(events, w) {
		seen[dayNumber(ev.PlayedAt)] = struct{}{}
	}
	days := make([]int64, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// computeStreaks walks a sorted distinct day-number slice and finds the
// longest run of consecutive days and the run ending on the latest active
// day. When several runs tie for longest, the latest one wins. Both paths
// feed this function, so streak semantics cannot diverge between them.
func computeStreaks(days []int64) streakAgg {
	var agg streakAgg
	if len(days) == 0 {
		return agg
	}

	runStart := days[0]
	prev := days[0]
	runLen := 1

	closeRun := func() {
		if runLen >= agg.longestLen {
			agg.longestLen = runLen
			agg.longestStart = runStart
			agg.longestEnd = prev
		}
	}

	for _, day := range days[1:] {
		if day == prev+1 {
			runLen++
		} else {
			closeRun()
			runStart = day
			runLen = 1
		}
		prev = day
	}
	closeRun()

	// The current streak is the run containing the latest active day.
	agg.currentEnd = prev
	agg.currentLen = runLen
	agg.currentStart = runStart

	return agg
}

// localStreaks computes streaks from the raw event set.
func localStreaks(events []models.ListenEvent, w models.TimeWindow) streakAgg {
	return computeStreaks(activeDays(events, w))
}
