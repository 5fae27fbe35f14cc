// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/colin-rod/audiograph-sub000/internal/config"
	"github.com/colin-rod/audiograph-sub000/internal/engine"
	"github.com/colin-rod/audiograph-sub000/internal/models"
	"github.com/colin-rod/audiograph-sub000/internal/store"
)

// fakeStore is a raw-row-only store handle serving a fixed event set.
type fakeStore struct {
	id     string
	events []models.ListenEvent
	err    error
}

func (f *fakeStore) ID() string { return f.id }

func (f *fakeStore) QueryListens(ctx context.Context) ([]models.ListenEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func strPtr(s string) *string { return &s }

func testEvents() []models.ListenEvent {
	return []models.ListenEvent{
		{PlayedAt: time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC), Artist: strPtr("Artist B"), Track: strPtr("Track B1"), DurationMS: 3_600_000},
		{PlayedAt: time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC), Artist: strPtr("Artist A"), Track: strPtr("Track A1"), DurationMS: 1_800_000},
		{PlayedAt: time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC), Artist: strPtr("Artist A"), Track: strPtr("Track A2"), DurationMS: 900_000},
		{PlayedAt: time.Date(2023, 12, 25, 18, 0, 0, 0, time.UTC), Artist: strPtr("Artist C"), Track: strPtr("Track C1"), DurationMS: 2_401_200},
	}
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		DefaultPageSize: 20,
		MaxPageSize:     200,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	}
}

func newTestRouter(t *testing.T, h store.Handle) http.Handler {
	t.Helper()
	eng := engine.New(h, engine.Options{})
	return NewServer(eng, testAPIConfig()).NewRouter()
}

func doRequest(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	handler.ServeHTTP(w, r)

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response for %s: %v", path, err)
	}
	return w, resp
}

func TestHandleSummary(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "s", events: testEvents()})

	w, resp := doRequest(t, router, "/api/v1/stats/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !resp.Success {
		t.Fatal("Expected success response")
	}

	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	var summary models.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.TotalHours != "2.4" {
		t.Errorf("Expected total hours 2.4, got %q", summary.TotalHours)
	}
	if summary.DistinctArtists != 3 {
		t.Errorf("Expected 3 distinct artists, got %d", summary.DistinctArtists)
	}
}

func TestHandleSummaryWithTimeframe(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "tf", events: testEvents()})

	w, resp := doRequest(t, router, "/api/v1/stats/summary?timeframe=2023")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	data, _ := json.Marshal(resp.Data)
	var summary models.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.TopArtist == nil || *summary.TopArtist != "Artist C" {
		t.Errorf("Expected Artist C for 2023, got %v", summary.TopArtist)
	}
}

func TestHandleInvalidTimeframe(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "bad", events: testEvents()})

	w, resp := doRequest(t, router, "/api/v1/stats/summary?timeframe=2024-99")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if resp.Success {
		t.Error("Expected failure envelope")
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("Expected %s, got %+v", ErrCodeValidationFailed, resp.Error)
	}
}

func TestHandleStoreErrors(t *testing.T) {
	t.Parallel()

	t.Run("transport maps to 503", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeStore{id: "t503", err: store.NewTransportError("query_listens", nil)})
		w, resp := doRequest(t, router, "/api/v1/stats/summary")
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("Expected 503, got %d", w.Code)
		}
		if resp.Error == nil || resp.Error.Code != ErrCodeServiceUnavailable {
			t.Errorf("Unexpected error payload: %+v", resp.Error)
		}
	})

	t.Run("unauthorized maps to 401", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeStore{id: "t401", err: store.NewUnauthorizedError("query_listens", nil)})
		w, resp := doRequest(t, router, "/api/v1/stats/summary")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", w.Code)
		}
		if resp.Error == nil || resp.Error.Code != ErrCodeUnauthorized {
			t.Errorf("Unexpected error payload: %+v", resp.Error)
		}
	})
}

func TestHandleTopArtistsPagination(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "pg", events: testEvents()})

	t.Run("limit and offset applied", func(t *testing.T) {
		t.Parallel()

		w, resp := doRequest(t, router, "/api/v1/stats/top-artists?limit=1&offset=1")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		data, _ := json.Marshal(resp.Data)
		var entries []models.RankedEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Name != "Artist A" {
			t.Errorf("Expected [Artist A], got %+v", entries)
		}
		if resp.Meta == nil || resp.Meta.Pagination == nil {
			t.Fatal("Expected pagination metadata")
		}
		if resp.Meta.Pagination.Offset != 1 || resp.Meta.Pagination.Limit != 1 {
			t.Errorf("Unexpected pagination meta: %+v", resp.Meta.Pagination)
		}
	})

	t.Run("has_more reflects remaining rows", func(t *testing.T) {
		t.Parallel()

		w, resp := doRequest(t, router, "/api/v1/stats/top-artists?limit=2")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if !resp.Meta.Pagination.HasMore {
			t.Error("Expected has_more true with a third artist remaining")
		}
	})

	t.Run("has_more false when page ends at last row", func(t *testing.T) {
		t.Parallel()

		w, resp := doRequest(t, router, "/api/v1/stats/top-artists?limit=3")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if resp.Meta.Pagination.Count != 3 {
			t.Errorf("Expected 3 entries, got %d", resp.Meta.Pagination.Count)
		}
		if resp.Meta.Pagination.HasMore {
			t.Error("Expected has_more false when the page ends at the last artist")
		}
	})

	t.Run("invalid limit rejected", func(t *testing.T) {
		t.Parallel()

		w, _ := doRequest(t, router, "/api/v1/stats/top-artists?limit=zero")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("limit capped at maximum", func(t *testing.T) {
		t.Parallel()

		w, resp := doRequest(t, router, "/api/v1/stats/top-artists?limit=99999")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if resp.Meta.Pagination.Limit != 200 {
			t.Errorf("Expected limit capped to 200, got %d", resp.Meta.Pagination.Limit)
		}
	})
}

func TestHandleHistory(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "h", events: testEvents()})

	w, resp := doRequest(t, router, "/api/v1/history?search=artist+a&limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp.Meta == nil || resp.Meta.Pagination == nil {
		t.Fatal("Expected pagination metadata")
	}
	p := resp.Meta.Pagination
	if p.Total != 2 {
		t.Errorf("Expected total 2, got %d", p.Total)
	}
	if p.Count != 1 {
		t.Errorf("Expected 1 row on the page, got %d", p.Count)
	}
	if !p.HasMore {
		t.Error("Expected has_more true")
	}
}

func TestHandleTimeframes(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "tfs", events: testEvents()})

	w, resp := doRequest(t, router, "/api/v1/timeframes")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	data, _ := json.Marshal(resp.Data)
	var options []models.TimeframeOption
	if err := json.Unmarshal(data, &options); err != nil {
		t.Fatal(err)
	}
	if len(options) != 2 {
		t.Fatalf("Expected 2 options, got %d", len(options))
	}
	if options[0].Year != 2024 || options[0].Month != 1 {
		t.Errorf("Expected newest option first, got %+v", options[0])
	}
}

func TestHandleDashboard(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "db", events: testEvents()})

	w, resp := doRequest(t, router, "/api/v1/dashboard?timeframe=all")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	data, _ := json.Marshal(resp.Data)
	var dashboard models.DashboardData
	if err := json.Unmarshal(data, &dashboard); err != nil {
		t.Fatal(err)
	}
	if dashboard.Timeframe != "all" {
		t.Errorf("Expected timeframe all, got %q", dashboard.Timeframe)
	}
	if dashboard.Summary == nil || dashboard.Summary.TotalHours != "2.4" {
		t.Errorf("Unexpected summary: %+v", dashboard.Summary)
	}
	if len(dashboard.TopArtists) != 3 {
		t.Errorf("Expected 3 artists, got %d", len(dashboard.TopArtists))
	}
	if len(dashboard.Trends) != 2 {
		t.Errorf("Expected 2 trend buckets, got %d", len(dashboard.Trends))
	}
	if dashboard.Streaks == nil || dashboard.Streaks.LongestLength != 2 {
		t.Errorf("Unexpected streaks: %+v", dashboard.Streaks)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "hp"})

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		w, resp := doRequest(t, router, path)
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 for %s, got %d", path, w.Code)
		}
		if !resp.Success {
			t.Errorf("Expected success for %s", path)
		}
	}
}

func TestHandleNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "nf"})

	w, resp := doRequest(t, router, "/api/v1/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND envelope, got %+v", resp.Error)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeStore{id: "rid", events: testEvents()})

	t.Run("generated when absent", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		router.ServeHTTP(w, r)
		if w.Header().Get(RequestHeaderID) == "" {
			t.Error("Expected a generated request ID header")
		}
	})

	t.Run("client id echoed", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		r.Header.Set(RequestHeaderID, "trace-me")
		router.ServeHTTP(w, r)
		if got := w.Header().Get(RequestHeaderID); got != "trace-me" {
			t.Errorf("Expected echoed request ID, got %q", got)
		}

		var resp APIResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Meta == nil || resp.Meta.RequestID != "trace-me" {
			t.Errorf("Expected request ID in meta, got %+v", resp.Meta)
		}
	})
}
