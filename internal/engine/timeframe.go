// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"time"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// ResolveWindow maps a timeframe selector to its half-open UTC time
// window. All-time resolves to the unbounded window, a year to
// [Jan 1 Y, Jan 1 Y+1), and a month to [1st, 1st of next month). Pure;
// both the precomputed and the local computation paths resolve the window
// through this single function so they always see identical bounds.
func ResolveWindow(tf models.Timeframe) models.TimeWindow {
	if tf.AllTime() {
		return models.TimeWindow{}
	}

	var start time.Time
	var end time.Time
	if tf.Month == 0 {
		start = time.Date(tf.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
	} else {
		start = time.Date(tf.Year, tf.Month, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}
	return models.TimeWindow{Start: &start, End: &end}
}
