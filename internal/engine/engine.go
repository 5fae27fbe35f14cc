// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

// Package engine computes every dashboard metric from a listen store.
// It prefers the store's precomputed aggregations and transparently falls
// back to computing over the raw event set when the store reports they
// are not installed. The two paths are required to produce structurally
// identical results; rounding to display precision happens once, at the
// output boundary.
package engine

import (
	"context"
	"sync/atomic"

	"github.com/colin-rod/audiograph-sub000/internal/logging"
	"github.com/colin-rod/audiograph-sub000/internal/metrics"
	"github.com/colin-rod/audiograph-sub000/internal/models"
	"github.com/colin-rod/audiograph-sub000/internal/store"
)

// DefaultRepeatThreshold is the lifetime play count at which a track is
// classified as a repeat listen.
const DefaultRepeatThreshold = 5

// Options tunes engine behavior.
type Options struct {
	// RepeatThreshold overrides DefaultRepeatThreshold when positive.
	RepeatThreshold int
}

// Engine answers metric queries against a single listen store handle.
// Safe for concurrent use.
type Engine struct {
	handle    store.Handle
	remote    *remoteDispatcher
	cache     *RowCache
	threshold int

	// remoteDown is set after the store first reports its aggregations
	// are not installed; from then on every call computes locally.
	remoteDown atomic.Bool
}

// New builds an engine over the given handle. Stores that implement
// store.Aggregator get the precomputed path; everything else computes
// locally from the start.
func New(h store.Handle, opts Options) *Engine {
	e := &Engine{
		handle:    h,
		cache:     NewRowCache(),
		threshold: DefaultRepeatThreshold,
	}
	if opts.RepeatThreshold > 0 {
		e.threshold = opts.RepeatThreshold
	}
	if agg, ok := h.(store.Aggregator); ok {
		e.remote = newRemoteDispatcher(agg)
	} else {
		e.remoteDown.Store(true)
	}
	return e
}

// RepeatThreshold reports the configured repeat-listen threshold.
func (e *Engine) RepeatThreshold() int {
	return e.threshold
}

// rows loads the raw valid-event set for local computation, served from
// the per-handle cache after the first fetch.
func (e *Engine) rows(ctx context.Context) ([]models.ListenEvent, error) {
	return e.cache.Rows(ctx, e.handle)
}

// dispatch runs a metric remotely when the precomputed path is up, and
// locally otherwise. A not_installed error from the remote path flips the
// engine to local mode permanently and retries the same call locally.
// Transport and unauthorized errors surface to the caller untouched.
func dispatch[T any](ctx context.Context, e *Engine, metric string, remote func(ctx context.Context) (T, error), local func(ctx context.Context) (T, error)) (T, error) {
	if e.remote != nil && !e.remoteDown.Load() {
		out, err := remote(ctx)
		if err == nil {
			return out, nil
		}
		if !store.IsNotInstalled(err) {
			var zero T
			return zero, err
		}
		if e.remoteDown.CompareAndSwap(false, true) {
			metrics.AggregationFallbacks.WithLabelValues(metric).Inc()
			logging.Warn().
				Str("store_id", e.handle.ID()).
				Str("metric", metric).
				Msg("store aggregations not installed, computing locally")
		}
	}
	return local(ctx)
}

// Summary computes the headline summary for a timeframe.
func (e *Engine) Summary(ctx context.Context, tf models.Timeframe) (*models.DashboardSummary, error) {
	w := ResolveWindow(tf)
	agg, err := dispatch(ctx, e, "summary",
		func(ctx context.Context) (summaryAgg, error) {
			rows, err := e.remote.aggregate(ctx, store.AggSummary, store.AggregateParams{Window: w})
			if err != nil {
				return summaryAgg{}, err
			}
			return decodeSummary(rows), nil
		},
		func(ctx context.Context) (summaryAgg, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return summaryAgg{}, err
			}
			return localSummary(events, w), nil
		})
	if err != nil {
		return nil, err
	}
	return transformSummary(agg), nil
}

// TopArtists returns the artist ranking page for a timeframe.
func (e *Engine) TopArtists(ctx context.Context, tf models.Timeframe, limit, offset int) ([]models.RankedEntry, error) {
	return e.ranked(ctx, tf, limit, offset, store.AggTopArtists, localTopArtists)
}

// TopTracks returns the track ranking page for a timeframe.
func (e *Engine) TopTracks(ctx context.Context, tf models.Timeframe, limit, offset int) ([]models.RankedEntry, error) {
	return e.ranked(ctx, tf, limit, offset, store.AggTopTracks, localTopTracks)
}

func (e *Engine) ranked(ctx context.Context, tf models.Timeframe, limit, offset int, name string, localFn func([]models.ListenEvent, models.TimeWindow, int, int) []rankedAgg) ([]models.RankedEntry, error) {
	w := ResolveWindow(tf)
	ranked, err := dispatch(ctx, e, name,
		func(ctx context.Context) ([]rankedAgg, error) {
			rows, err := e.remote.aggregate(ctx, name, store.AggregateParams{Window: w, Limit: limit, Offset: offset})
			if err != nil {
				return nil, err
			}
			return decodeRanked(rows), nil
		},
		func(ctx context.Context) ([]rankedAgg, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return nil, err
			}
			return localFn(events, w, limit, offset), nil
		})
	if err != nil {
		return nil, err
	}
	return transformRanked(ranked), nil
}

// Trends returns the monthly listening trend for a timeframe.
func (e *Engine) Trends(ctx context.Context, tf models.Timeframe) ([]models.TrendPoint, error) {
	return e.trends(ctx, tf, store.AggTrendsMonthly, monthKey, monthLabel)
}

// WeeklyTrends returns the ISO-week listening trend for a timeframe.
func (e *Engine) WeeklyTrends(ctx context.Context, tf models.Timeframe) ([]models.TrendPoint, error) {
	return e.trends(ctx, tf, store.AggTrendsWeekly, isoWeekKey, weekLabel)
}

func (e *Engine) trends(ctx context.Context, tf models.Timeframe, name string, keyFn func(models.ListenEvent) string, label func(string) string) ([]models.TrendPoint, error) {
	w := ResolveWindow(tf)
	trends, err := dispatch(ctx, e, name,
		func(ctx context.Context) ([]trendAgg, error) {
			rows, err := e.remote.aggregate(ctx, name, store.AggregateParams{Window: w})
			if err != nil {
				return nil, err
			}
			return decodeTrends(rows), nil
		},
		func(ctx context.Context) ([]trendAgg, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return nil, err
			}
			return localTrends(events, w, keyFn), nil
		})
	if err != nil {
		return nil, err
	}
	return transformTrends(trends, label), nil
}

// Clock returns the hour-by-weekday listening heatmap for a timeframe.
func (e *Engine) Clock(ctx context.Context, tf models.Timeframe) ([]models.ClockCell, error) {
	w := ResolveWindow(tf)
	cells, err := dispatch(ctx, e, store.AggClock,
		func(ctx context.Context) ([]clockAgg, error) {
			rows, err := e.remote.aggregate(ctx, store.AggClock, store.AggregateParams{Window: w})
			if err != nil {
				return nil, err
			}
			return decodeClock(rows), nil
		},
		func(ctx context.Context) ([]clockAgg, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return nil, err
			}
			return localClock(events, w), nil
		})
	if err != nil {
		return nil, err
	}
	return transformClock(cells), nil
}

// Streaks returns the consecutive-day streak stats for a timeframe.
func (e *Engine) Streaks(ctx context.Context, tf models.Timeframe) (*models.StreakStats, error) {
	w := ResolveWindow(tf)
	days, err := dispatch(ctx, e, store.AggActiveDays,
		func(ctx context.Context) ([]int64, error) {
			rows, err := e.remote.aggregate(ctx, store.AggActiveDays, store.AggregateParams{Window: w})
			if err != nil {
				return nil, err
			}
			return decodeActiveDays(rows), nil
		},
		func(ctx context.Context) ([]int64, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return nil, err
			}
			return activeDays(events, w), nil
		})
	if err != nil {
		return nil, err
	}
	return transformStreaks(computeStreaks(days)), nil
}

// Discovery returns the first-listen discovery timeline for a timeframe.
func (e *Engine) Discovery(ctx context.Context, tf models.Timeframe) ([]models.DiscoveryPoint, error) {
	w := ResolveWindow(tf)
	points, err := dispatch(ctx, e, store.AggDiscovery,
		func(ctx context.Context) ([]discoveryAgg, error) {
			rows, err := e.remote.aggregate(ctx, store.AggDiscovery, store.AggregateParams{Window: w})
			if err != nil {
				return nil, err
			}
			return decodeDiscovery(rows), nil
		},
		func(ctx context.Context) ([]discoveryAgg, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return nil, err
			}
			return localDiscovery(events, w), nil
		})
	if err != nil {
		return nil, err
	}
	return transformDiscovery(points), nil
}

// loyaltyTopLimit caps the repeat-track leaderboard.
const loyaltyTopLimit = 5

// Loyalty returns the repeat-listen gauge for a timeframe.
func (e *Engine) Loyalty(ctx context.Context, tf models.Timeframe) (*models.LoyaltyGauge, error) {
	w := ResolveWindow(tf)

	type loyaltyAgg struct {
		months []loyaltyMonthAgg
		tracks []repeatTrackAgg
	}
	agg, err := dispatch(ctx, e, store.AggLoyaltyMonthly,
		func(ctx context.Context) (loyaltyAgg, error) {
			params := store.AggregateParams{Window: w, RepeatThreshold: e.threshold}
			monthRows, err := e.remote.aggregate(ctx, store.AggLoyaltyMonthly, params)
			if err != nil {
				return loyaltyAgg{}, err
			}
			trackRows, err := e.remote.aggregate(ctx, store.AggLoyaltyTopTracks, store.AggregateParams{
				RepeatThreshold: e.threshold,
				Limit:           loyaltyTopLimit,
			})
			if err != nil {
				return loyaltyAgg{}, err
			}
			return loyaltyAgg{months: decodeLoyaltyMonthly(monthRows), tracks: decodeRepeatTracks(trackRows)}, nil
		},
		func(ctx context.Context) (loyaltyAgg, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return loyaltyAgg{}, err
			}
			return loyaltyAgg{
				months: localLoyaltyMonthly(events, w, e.threshold),
				tracks: localLoyaltyTopTracks(events, e.threshold, loyaltyTopLimit),
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return transformLoyalty(agg.months, agg.tracks, e.threshold), nil
}

// History returns one page of searchable listening history.
func (e *Engine) History(ctx context.Context, tf models.Timeframe, search string, limit, offset int) (*models.HistoryPage, error) {
	w := ResolveWindow(tf)

	type historyAgg struct {
		events []models.ListenEvent
		total  int
	}
	agg, err := dispatch(ctx, e, store.AggHistory,
		func(ctx context.Context) (historyAgg, error) {
			params := store.AggregateParams{Window: w, Search: search, Limit: limit, Offset: offset}
			rows, err := e.remote.aggregate(ctx, store.AggHistory, params)
			if err != nil {
				return historyAgg{}, err
			}
			countRows, err := e.remote.aggregate(ctx, store.AggHistoryCount, store.AggregateParams{Window: w, Search: search})
			if err != nil {
				return historyAgg{}, err
			}
			total := 0
			if len(countRows) > 0 {
				total = rowInt(countRows[0], "total")
			}
			return historyAgg{events: decodeHistory(rows), total: total}, nil
		},
		func(ctx context.Context) (historyAgg, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return historyAgg{}, err
			}
			page, total := localHistory(events, w, search, limit, offset)
			return historyAgg{events: page, total: total}, nil
		})
	if err != nil {
		return nil, err
	}
	return transformHistory(agg.events, agg.total), nil
}

// Timeframes lists the (year, month) combinations with data, newest first.
func (e *Engine) Timeframes(ctx context.Context) ([]models.TimeframeOption, error) {
	return dispatch(ctx, e, store.AggTimeframes,
		func(ctx context.Context) ([]models.TimeframeOption, error) {
			rows, err := e.remote.aggregate(ctx, store.AggTimeframes, store.AggregateParams{})
			if err != nil {
				return nil, err
			}
			return decodeTimeframes(rows), nil
		},
		func(ctx context.Context) ([]models.TimeframeOption, error) {
			events, err := e.rows(ctx)
			if err != nil {
				return nil, err
			}
			return localTimeframes(events), nil
		})
}

// Evict drops the cached raw event set so the next local computation
// refetches from the store.
func (e *Engine) Evict() {
	e.cache.Evict(e.handle)
}
