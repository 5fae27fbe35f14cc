// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package models

import (
	"testing"
	"time"
)

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Timeframe
		wantErr bool
	}{
		{name: "empty means all time", input: "", want: Timeframe{}},
		{name: "all keyword", input: "all", want: Timeframe{}},
		{name: "all is case insensitive", input: "ALL", want: Timeframe{}},
		{name: "year", input: "2024", want: Timeframe{Year: 2024}},
		{name: "month", input: "2024-03", want: Timeframe{Year: 2024, Month: time.March}},
		{name: "december", input: "2023-12", want: Timeframe{Year: 2023, Month: time.December}},
		{name: "whitespace trimmed", input: " 2024 ", want: Timeframe{Year: 2024}},
		{name: "month zero rejected", input: "2024-00", wantErr: true},
		{name: "month thirteen rejected", input: "2024-13", wantErr: true},
		{name: "garbage rejected", input: "nope", wantErr: true},
		{name: "negative year rejected", input: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTimeframe(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestTimeframeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tf   Timeframe
		want string
	}{
		{Timeframe{}, "all"},
		{Timeframe{Year: 2024}, "2024"},
		{Timeframe{Year: 2024, Month: time.March}, "2024-03"},
		{Timeframe{Year: 2023, Month: time.December}, "2023-12"},
	}

	for _, tt := range tests {
		if got := tt.tf.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestTimeframeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"all", "2024", "2024-03"} {
		tf, err := ParseTimeframe(s)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", s, err)
		}
		if got := tf.String(); got != s {
			t.Errorf("Expected round trip of %q, got %q", s, got)
		}
	}
}

func TestTimeWindowContains(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	w := TimeWindow{Start: &start, End: &end}

	t.Run("start is inclusive", func(t *testing.T) {
		if !w.Contains(start) {
			t.Error("Expected start bound to be contained")
		}
	})

	t.Run("end is exclusive", func(t *testing.T) {
		if w.Contains(end) {
			t.Error("Expected end bound to be excluded")
		}
	})

	t.Run("interior", func(t *testing.T) {
		if !w.Contains(start.Add(12 * time.Hour)) {
			t.Error("Expected interior timestamp to be contained")
		}
	})

	t.Run("before start", func(t *testing.T) {
		if w.Contains(start.Add(-time.Nanosecond)) {
			t.Error("Expected timestamp before start to be excluded")
		}
	})

	t.Run("unbounded contains everything", func(t *testing.T) {
		var unbounded TimeWindow
		if !unbounded.IsUnbounded() {
			t.Fatal("Expected zero window to be unbounded")
		}
		if !unbounded.Contains(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Error("Expected unbounded window to contain any timestamp")
		}
	})
}
