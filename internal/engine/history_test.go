// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"testing"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

func TestLocalHistory(t *testing.T) {
	t.Parallel()

	events := []models.ListenEvent{
		listen("2024-01-01T10:00:00Z", "Radiohead", "Creep", 1000),
		listen("2024-01-02T10:00:00Z", "Portishead", "Roads", 1000),
		listen("2024-01-03T10:00:00Z", "Radiohead", "Karma Police", 1000),
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		rows, total := localHistory(events, models.TimeWindow{}, "", 10, 0)
		if total != 3 || len(rows) != 3 {
			t.Fatalf("Expected 3 rows, got %d (total %d)", len(rows), total)
		}
		if *rows[0].Track != "Karma Police" || *rows[2].Track != "Creep" {
			t.Errorf("Unexpected order: %q .. %q", *rows[0].Track, *rows[2].Track)
		}
	})

	t.Run("search matches artist case-insensitively", func(t *testing.T) {
		t.Parallel()

		rows, total := localHistory(events, models.TimeWindow{}, "RADIOHEAD", 10, 0)
		if total != 2 {
			t.Fatalf("Expected 2 matches, got %d", total)
		}
		for _, row := range rows {
			if *row.Artist != "Radiohead" {
				t.Errorf("Unexpected artist %q", *row.Artist)
			}
		}
	})

	t.Run("search matches track substring", func(t *testing.T) {
		t.Parallel()

		_, total := localHistory(events, models.TimeWindow{}, "karma", 10, 0)
		if total != 1 {
			t.Errorf("Expected 1 match, got %d", total)
		}
	})

	t.Run("total counts matches beyond the page", func(t *testing.T) {
		t.Parallel()

		rows, total := localHistory(events, models.TimeWindow{}, "", 1, 0)
		if len(rows) != 1 {
			t.Errorf("Expected page of 1, got %d", len(rows))
		}
		if total != 3 {
			t.Errorf("Expected total 3, got %d", total)
		}
	})

	t.Run("equal timestamps tie-break by track name", func(t *testing.T) {
		t.Parallel()

		same := []models.ListenEvent{
			listen("2024-01-01T10:00:00Z", "A", "Beta", 1000),
			listen("2024-01-01T10:00:00Z", "A", "Alpha", 1000),
		}
		rows, _ := localHistory(same, models.TimeWindow{}, "", 10, 0)
		if *rows[0].Track != "Alpha" {
			t.Errorf("Expected Alpha first on timestamp tie, got %q", *rows[0].Track)
		}
	})

	t.Run("no matches yields empty page and zero total", func(t *testing.T) {
		t.Parallel()

		rows, total := localHistory(events, models.TimeWindow{}, "zzz", 10, 0)
		if len(rows) != 0 || total != 0 {
			t.Errorf("Expected empty result, got %d rows total %d", len(rows), total)
		}
	})

	t.Run("events without names excluded by search but not listing", func(t *testing.T) {
		t.Parallel()

		anon := append([]models.ListenEvent{
			{PlayedAt: events[0].PlayedAt.Add(1), DurationMS: 1000},
		}, events...)

		_, totalAll := localHistory(anon, models.TimeWindow{}, "", 10, 0)
		if totalAll != 4 {
			t.Errorf("Expected 4 rows unfiltered, got %d", totalAll)
		}
		_, totalSearch := localHistory(anon, models.TimeWindow{}, "road", 10, 0)
		if totalSearch != 1 {
			t.Errorf("Expected 1 search match, got %d", totalSearch)
		}
	})
}
