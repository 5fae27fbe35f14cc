// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"sort"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// localDiscovery counts first-ever artist and track appearances per month.
// "First" is global: an artist discovered before the window never counts
// inside it, so first occurrences are resolved over the full history and
// only then filtered by the window.
func localDiscovery(events []models.ListenEvent, w models.TimeWindow) []discoveryAgg {
	artistFirst := make(map[string]models.ListenEvent)
	trackFirst := make(map[trackKey]models.ListenEvent)

	for _, ev := range events {
		if ev.Artist != nil {
			if cur, ok := artistFirst[*ev.Artist]; !ok || ev.PlayedAt.Before(cur.PlayedAt) {
				artistFirst[*ev.Artist] = ev
			}
		}
		if ev.Track != nil {
			key := trackKey{track: *ev.Track, artist: artistOrEmpty(ev)}
			if cur, ok := trackFirst[key]; !ok || ev.PlayedAt.Before(cur.PlayedAt) {
				trackFirst[key] = ev
			}
		}
	}

	type bucket struct {
		artists int
		tracks  int
	}
	buckets := make(map[string]*bucket)
	add := func(ev models.ListenEvent, isTrack bool) {
		if !w.Contains(ev.PlayedAt) {
			return
		}
		key := monthKey(ev)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		if isTrack {
			b.tracks++
		} else {
			b.artists++
		}
	}
	for _, ev := range artistFirst {
		add(ev, false)
	}
	for _, ev := range trackFirst {
		add(ev, true)
	}

	points := make([]discoveryAgg, 0, len(buckets))
	for key, b := range buckets {
		points = append(points, discoveryAgg{period: key, artists: b.artists, tracks: b.tracks})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].period < points[j].period })
	return points
}
