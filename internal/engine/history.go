// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"sort"
	"strings"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// localHistory filters, sorts, and paginates the raw listen history.
// The search term matches track or artist case-insensitively as a
// substring; rows are newest first with a deterministic name tiebreak.
// Total counts all matching rows, not just the returned page.
func localHistory(events []models.ListenEvent, w models.TimeWindow, search string, limit, offset int) ([]models.ListenEvent, int) {
	var matched []models.ListenEvent
	needle := strings.ToLower(search)
	for _, ev := range filterWindow(events, w) {
		if needle != "" && !matchesSearch(ev, needle) {
			continue
		}
		matched = append(matched, ev)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.PlayedAt.Equal(b.PlayedAt) {
			return a.PlayedAt.After(b.PlayedAt)
		}
		at, bt := derefOrEmpty(a.Track), derefOrEmpty(b.Track)
		if at != bt {
			return at < bt
		}
		return derefOrEmpty(a.Artist) < derefOrEmpty(b.Artist)
	})

	return paginate(matched, offset, limit), len(matched)
}

func matchesSearch(ev models.ListenEvent, needle string) bool {
	if ev.Track != nil && strings.Contains(strings.ToLower(*ev.Track), needle) {
		return true
	}
	if ev.Artist != nil && strings.Contains(strings.ToLower(*ev.Artist), needle) {
		return true
	}
	return false
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
