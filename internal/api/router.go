// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the chi router with the full middleware stack and all
// API routes mounted.
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(Metrics)
	r.Use(CORS(s.cfg.CORSOrigins))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))

		r.Get("/health", s.handleHealth)
		r.Get("/health/live", s.handleHealth)
		r.Get("/health/ready", s.handleHealth)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/top-artists", s.handleTopArtists)
			r.Get("/top-tracks", s.handleTopTracks)
			r.Get("/trends", s.handleTrends)
			r.Get("/trends/weekly", s.handleWeeklyTrends)
			r.Get("/clock", s.handleClock)
			r.Get("/streaks", s.handleStreaks)
			r.Get("/discovery", s.handleDiscovery)
			r.Get("/loyalty", s.handleLoyalty)
		})

		r.Get("/history", s.handleHistory)
		r.Get("/timeframes", s.handleTimeframes)
		r.Get("/dashboard", s.handleDashboard)
	})

	r.NotFound(s.handleNotFound)

	return r
}
