// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"sort"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// localLoyaltyMonthly splits each month's plays into repeat and non-repeat
// listens. A play is a repeat listen when its track's lifetime play count
// meets the threshold; lifetime counts are taken over the full history so
// a narrow window cannot demote a heavily-repeated track.
func localLoyaltyMonthly(events []models.ListenEvent, w models.TimeWindow, threshold int) []loyaltyMonthAgg {
	lifetime := lifetimePlayCounts(events)

	type bucket struct {
		total  int
		repeat int
	}
	buckets := make(map[string]*bucket)
	for _, ev := range filterWindow(events, w) {
		if ev.Track == nil {
			continue
		}
		key := monthKey(ev)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.total++
		if lifetime[trackKey{track: *ev.Track, artist: artistOrEmpty(ev)}] >= threshold {
			b.repeat++
		}
	}

	months := make([]loyaltyMonthAgg, 0, len(buckets))
	for key, b := range buckets {
		months = append(months, loyaltyMonthAgg{period: key, total: b.total, repeat: b.repeat})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].period < months[j].period })
	return months
}

// localLoyaltyTopTracks ranks tracks meeting the repeat threshold by
// lifetime play count, ties broken by name then artist ascending.
func localLoyaltyTopTracks(events []models.ListenEvent, threshold, limit int) []repeatTrackAgg {
	lifetime := lifetimePlayCounts(events)

	ranked := make([]repeatTrackAgg, 0, len(lifetime))
	for key, plays := range lifetime {
		if plays >= threshold {
			ranked = append(ranked, repeatTrackAgg{track: key.track, artist: key.artist, plays: plays})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.plays != b.plays {
			return a.plays > b.plays
		}
		if a.track != b.track {
			return a.track < b.track
		}
		return a.artist < b.artist
	})
	return paginate(ranked, 0, limit)
}

// lifetimePlayCounts counts plays per (track, artist) over all history,
// ignoring any window.
func lifetimePlayCounts(events []models.ListenEvent) map[trackKey]int {
	counts := make(map[trackKey]int)
	for _, ev := range events {
		if ev.Track != nil {
			counts[trackKey{track: *ev.Track, artist: artistOrEmpty(ev)}]++
		}
	}
	return counts
}
