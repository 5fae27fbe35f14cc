// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// dashboardRankingLimit is how many top artists and tracks the composed
// bundle carries.
const dashboardRankingLimit = 10

// Dashboard composes every metric for one timeframe into a single bundle.
// Metrics run concurrently; the first failure cancels the rest and the
// whole call fails, so the bundle is never partially populated.
func (e *Engine) Dashboard(ctx context.Context, tf models.Timeframe) (*models.DashboardData, error) {
	data := &models.DashboardData{Timeframe: tf.String()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Summary, err = e.Summary(ctx, tf)
		return err
	})
	g.Go(func() error {
		var err error
		data.TopArtists, err = e.TopArtists(ctx, tf, dashboardRankingLimit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		data.TopTracks, err = e.TopTracks(ctx, tf, dashboardRankingLimit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		data.Trends, err = e.Trends(ctx, tf)
		return err
	})
	g.Go(func() error {
		var err error
		data.WeeklyTrends, err = e.WeeklyTrends(ctx, tf)
		return err
	})
	g.Go(func() error {
		var err error
		data.Clock, err = e.Clock(ctx, tf)
		return err
	})
	g.Go(func() error {
		var err error
		data.Streaks, err = e.Streaks(ctx, tf)
		return err
	})
	g.Go(func() error {
		var err error
		data.Discovery, err = e.Discovery(ctx, tf)
		return err
	})
	g.Go(func() error {
		var err error
		data.Loyalty, err = e.Loyalty(ctx, tf)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
