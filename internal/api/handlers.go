// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/colin-rod/audiograph-sub000/internal/config"
	"github.com/colin-rod/audiograph-sub000/internal/engine"
	"github.com/colin-rod/audiograph-sub000/internal/logging"
	"github.com/colin-rod/audiograph-sub000/internal/models"
	"github.com/colin-rod/audiograph-sub000/internal/store"
)

// Server holds the handler dependencies.
type Server struct {
	engine *engine.Engine
	cfg    config.APIConfig
	start  time.Time
}

// NewServer creates the API server over an analytics engine.
func NewServer(eng *engine.Engine, cfg config.APIConfig) *Server {
	return &Server{
		engine: eng,
		cfg:    cfg,
		start:  time.Now(),
	}
}

// parseTimeframe reads the "timeframe" query parameter. Absent means all
// time; a malformed value is a validation error.
func parseTimeframe(r *http.Request) (models.Timeframe, error) {
	return models.ParseTimeframe(r.URL.Query().Get("timeframe"))
}

// parsePagination reads "limit" and "offset", applying the configured
// default and maximum page sizes.
func (s *Server) parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = s.cfg.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errInvalidParam{"limit", raw}
		}
		if limit > s.cfg.MaxPageSize {
			limit = s.cfg.MaxPageSize
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errInvalidParam{"offset", raw}
		}
	}
	return limit, offset, nil
}

type errInvalidParam struct {
	name  string
	value string
}

func (e errInvalidParam) Error() string {
	return "invalid " + e.name + " parameter: " + e.value
}

// writeEngineError maps store error codes to HTTP statuses: unauthorized
// stores produce 401, unreachable ones 503, everything else 500.
func writeEngineError(rw *ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())
	logger.Error().Err(err).Str("path", r.URL.Path).Msg("metric query failed")
	switch {
	case store.IsUnauthorized(err):
		rw.Unauthorized("Store rejected the request")
	case store.IsTransport(err):
		rw.ServiceUnavailable("Store is unreachable")
	default:
		rw.InternalError("Failed to compute metric")
	}
}

// handleMetric runs the common flow shared by the single-metric endpoints:
// parse the timeframe, compute, map errors, write the envelope.
func handleMetric[T any](s *Server, w http.ResponseWriter, r *http.Request, compute func(models.Timeframe) (T, error)) {
	rw := NewResponseWriter(w, r)
	tf, err := parseTimeframe(r)
	if err != nil {
		rw.ValidationError("Invalid timeframe", err.Error())
		return
	}
	data, err := compute(tf)
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(data)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) (*models.DashboardSummary, error) {
		return s.engine.Summary(r.Context(), tf)
	})
}

func (s *Server) handleTopArtists(w http.ResponseWriter, r *http.Request) {
	s.handleRanked(w, r, s.engine.TopArtists)
}

func (s *Server) handleTopTracks(w http.ResponseWriter, r *http.Request) {
	s.handleRanked(w, r, s.engine.TopTracks)
}

func (s *Server) handleRanked(w http.ResponseWriter, r *http.Request, rank func(ctx context.Context, tf models.Timeframe, limit, offset int) ([]models.RankedEntry, error)) {
	rw := NewResponseWriter(w, r)
	tf, err := parseTimeframe(r)
	if err != nil {
		rw.ValidationError("Invalid timeframe", err.Error())
		return
	}
	limit, offset, err := s.parsePagination(r)
	if err != nil {
		rw.ValidationError("Invalid pagination", err.Error())
		return
	}
	// Fetch one row past the page to detect whether a next page exists.
	entries, err := rank(r.Context(), tf, limit+1, offset)
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	rw.SuccessWithPagination(entries, &PaginationMeta{
		Count:   len(entries),
		Offset:  offset,
		Limit:   limit,
		HasMore: hasMore,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) ([]models.TrendPoint, error) {
		return s.engine.Trends(r.Context(), tf)
	})
}

func (s *Server) handleWeeklyTrends(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) ([]models.TrendPoint, error) {
		return s.engine.WeeklyTrends(r.Context(), tf)
	})
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) ([]models.ClockCell, error) {
		return s.engine.Clock(r.Context(), tf)
	})
}

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) (*models.StreakStats, error) {
		return s.engine.Streaks(r.Context(), tf)
	})
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) ([]models.DiscoveryPoint, error) {
		return s.engine.Discovery(r.Context(), tf)
	})
}

func (s *Server) handleLoyalty(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) (*models.LoyaltyGauge, error) {
		return s.engine.Loyalty(r.Context(), tf)
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tf, err := parseTimeframe(r)
	if err != nil {
		rw.ValidationError("Invalid timeframe", err.Error())
		return
	}
	limit, offset, err := s.parsePagination(r)
	if err != nil {
		rw.ValidationError("Invalid pagination", err.Error())
		return
	}
	search := r.URL.Query().Get("search")

	page, err := s.engine.History(r.Context(), tf, search, limit, offset)
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.SuccessWithPagination(page.Rows, &PaginationMeta{
		Total:   page.Total,
		Count:   len(page.Rows),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(page.Rows) < page.Total,
	})
}

func (s *Server) handleTimeframes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	options, err := s.engine.Timeframes(r.Context())
	if err != nil {
		writeEngineError(rw, r, err)
		return
	}
	rw.Success(options)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	handleMetric(s, w, r, func(tf models.Timeframe) (*models.DashboardData, error) {
		return s.engine.Dashboard(r.Context(), tf)
	})
}

// healthStatus is the health endpoint payload.
type healthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(healthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.start).Seconds()),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).NotFound("Unknown endpoint: " + r.URL.Path)
}
