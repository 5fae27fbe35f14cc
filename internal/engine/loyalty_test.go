// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"math/rand"
	"testing"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// repeatHistory builds a history where "Favorite" has 5 lifetime plays
// (a repeat track at the default threshold) and "Once" has 1.
func repeatHistory() []models.ListenEvent {
	events := []models.ListenEvent{
		listen("2024-01-01T10:00:00Z", "A", "Favorite", 1000),
		listen("2024-01-05T10:00:00Z", "A", "Favorite", 1000),
		listen("2024-01-10T10:00:00Z", "A", "Favorite", 1000),
		listen("2024-02-01T10:00:00Z", "A", "Favorite", 1000),
		listen("2024-02-05T10:00:00Z", "A", "Favorite", 1000),
		listen("2024-02-10T10:00:00Z", "B", "Once", 1000),
	}
	return events
}

func TestLocalLoyaltyMonthly(t *testing.T) {
	t.Parallel()

	t.Run("repeat classification uses lifetime counts", func(t *testing.T) {
		t.Parallel()

		months := localLoyaltyMonthly(repeatHistory(), models.TimeWindow{}, 5)

		if len(months) != 2 {
			t.Fatalf("Expected 2 months, got %d", len(months))
		}
		jan, feb := months[0], months[1]
		if jan.period != "2024-01" || jan.total != 3 || jan.repeat != 3 {
			t.Errorf("Unexpected January bucket: %+v", jan)
		}
		if feb.period != "2024-02" || feb.total != 3 || feb.repeat != 2 {
			t.Errorf("Unexpected February bucket: %+v", feb)
		}
	})

	t.Run("narrow window cannot demote a repeat track", func(t *testing.T) {
		t.Parallel()

		// Only February is in the window, but Favorite's lifetime count
		// still classifies its February plays as repeats.
		w := ResolveWindow(models.Timeframe{Year: 2024, Month: 2})
		months := localLoyaltyMonthly(repeatHistory(), w, 5)

		if len(months) != 1 {
			t.Fatalf("Expected 1 month, got %d", len(months))
		}
		if months[0].repeat != 2 {
			t.Errorf("Expected 2 repeat plays in February, got %d", months[0].repeat)
		}
	})

	t.Run("classification invariant to input order", func(t *testing.T) {
		t.Parallel()

		events := repeatHistory()
		shuffled := make([]models.ListenEvent, len(events))
		copy(shuffled, events)
		rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		a := localLoyaltyMonthly(events, models.TimeWindow{}, 5)
		b := localLoyaltyMonthly(shuffled, models.TimeWindow{}, 5)
		if len(a) != len(b) {
			t.Fatalf("Bucket count differs: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("Bucket %d differs: %+v vs %+v", i, a[i], b[i])
			}
		}
	})
}

func TestLocalLoyaltyTopTracks(t *testing.T) {
	t.Parallel()

	t.Run("only tracks at the threshold appear", func(t *testing.T) {
		t.Parallel()

		tracks := localLoyaltyTopTracks(repeatHistory(), 5, 5)
		if len(tracks) != 1 {
			t.Fatalf("Expected 1 repeat track, got %d", len(tracks))
		}
		if tracks[0].track != "Favorite" || tracks[0].plays != 5 {
			t.Errorf("Unexpected repeat track: %+v", tracks[0])
		}
	})

	t.Run("lower threshold admits more tracks", func(t *testing.T) {
		t.Parallel()

		tracks := localLoyaltyTopTracks(repeatHistory(), 1, 5)
		if len(tracks) != 2 {
			t.Fatalf("Expected 2 tracks at threshold 1, got %d", len(tracks))
		}
		if tracks[0].track != "Favorite" {
			t.Errorf("Expected Favorite ranked first, got %q", tracks[0].track)
		}
	})
}

func TestTransformLoyalty(t *testing.T) {
	t.Parallel()

	gauge := transformLoyalty(
		[]loyaltyMonthAgg{{period: "2024-01", total: 3, repeat: 2}},
		[]repeatTrackAgg{{track: "Favorite", artist: "A", plays: 5}},
		5,
	)

	if gauge.RepeatThreshold != 5 {
		t.Errorf("Expected threshold 5, got %d", gauge.RepeatThreshold)
	}
	if len(gauge.Monthly) != 1 {
		t.Fatalf("Expected 1 month, got %d", len(gauge.Monthly))
	}
	m := gauge.Monthly[0]
	if m.RepeatShare != 0.667 {
		t.Errorf("Expected repeat share 0.667, got %v", m.RepeatShare)
	}
	if m.Label != "Jan 2024" {
		t.Errorf("Expected label Jan 2024, got %q", m.Label)
	}
	if len(gauge.TopRepeatTracks) != 1 || gauge.TopRepeatTracks[0].PlayCount != 5 {
		t.Errorf("Unexpected top repeat tracks: %+v", gauge.TopRepeatTracks)
	}
}
