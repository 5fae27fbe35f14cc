// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"testing"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

func TestLocalDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("artist counted once in its first month", func(t *testing.T) {
		t.Parallel()

		events := []models.ListenEvent{
			listen("2024-01-10T10:00:00Z", "Artist A", "t1", 1000),
			listen("2024-02-15T10:00:00Z", "Artist A", "t1", 1000),
			listen("2024-03-20T10:00:00Z", "Artist A", "t1", 1000),
		}
		points := localDiscovery(events, models.TimeWindow{})

		if len(points) != 1 {
			t.Fatalf("Expected 1 discovery bucket, got %d", len(points))
		}
		if points[0].period != "2024-01" {
			t.Errorf("Expected bucket 2024-01, got %q", points[0].period)
		}
		if points[0].artists != 1 || points[0].tracks != 1 {
			t.Errorf("Expected 1 artist and 1 track, got %+v", points[0])
		}
	})

	t.Run("window excludes discoveries made before it", func(t *testing.T) {
		t.Parallel()

		events := []models.ListenEvent{
			listen("2023-06-10T10:00:00Z", "Artist A", "t1", 1000),
			listen("2024-02-15T10:00:00Z", "Artist A", "t1", 1000),
			listen("2024-02-16T10:00:00Z", "Artist B", "t2", 1000),
		}
		w := ResolveWindow(models.Timeframe{Year: 2024})
		points := localDiscovery(events, w)

		// Artist A's first occurrence is 2023, so only Artist B appears.
		if len(points) != 1 {
			t.Fatalf("Expected 1 bucket, got %d", len(points))
		}
		if points[0].artists != 1 {
			t.Errorf("Expected 1 new artist in 2024, got %d", points[0].artists)
		}
		if points[0].tracks != 1 {
			t.Errorf("Expected 1 new track in 2024, got %d", points[0].tracks)
		}
	})

	t.Run("track firsts independent of artist firsts", func(t *testing.T) {
		t.Parallel()

		events := []models.ListenEvent{
			listen("2024-01-10T10:00:00Z", "Artist A", "Old Song", 1000),
			listen("2024-03-10T10:00:00Z", "Artist A", "New Song", 1000),
		}
		points := localDiscovery(events, models.TimeWindow{})

		if len(points) != 2 {
			t.Fatalf("Expected 2 buckets, got %d", len(points))
		}
		if points[1].period != "2024-03" || points[1].artists != 0 || points[1].tracks != 1 {
			t.Errorf("Expected a track-only bucket for 2024-03, got %+v", points[1])
		}
	})

	t.Run("unordered input finds the true first occurrence", func(t *testing.T) {
		t.Parallel()

		events := []models.ListenEvent{
			listen("2024-05-10T10:00:00Z", "Artist A", "t1", 1000),
			listen("2024-01-10T10:00:00Z", "Artist A", "t1", 1000),
		}
		points := localDiscovery(events, models.TimeWindow{})
		if len(points) != 1 || points[0].period != "2024-01" {
			t.Errorf("Expected single bucket 2024-01, got %+v", points)
		}
	})
}
