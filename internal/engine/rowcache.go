// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/colin-rod/audiograph-sub000/internal/metrics"
	"github.com/colin-rod/audiograph-sub000/internal/models"
	"github.com/colin-rod/audiograph-sub000/internal/store"
)

// RowCache memoizes the full valid-event fetch per store handle. Concurrent
// callers against the same handle share a single in-flight fetch; once
// resolved, the event set is reused for the cache's lifetime. A failed
// fetch is never cached, so the next caller retries instead of replaying
// the failure.
//
// The cache is scoped to an engine instance and never persisted.
type RowCache struct {
	group singleflight.Group

	mu       sync.RWMutex
	resolved map[string][]models.ListenEvent
}

// NewRowCache creates an empty raw-row cache.
func NewRowCache() *RowCache {
	return &RowCache{resolved: make(map[string][]models.ListenEvent)}
}

// Rows returns the full valid event set for the handle, fetching at most
// once no matter how many callers arrive concurrently. Late arrivals
// attach to the pending fetch instead of issuing a duplicate query.
//
// The underlying fetch is detached from the caller's cancellation: a
// caller losing interest discards its result, but the in-flight fetch
// completes and remains valid for the cache.
func (c *RowCache) Rows(ctx context.Context, h store.Handle) ([]models.ListenEvent, error) {
	key := h.ID()

	c.mu.RLock()
	rows, ok := c.resolved[key]
	c.mu.RUnlock()
	if ok {
		metrics.RawRowCacheHits.Inc()
		return rows, nil
	}

	metrics.RawRowCacheMisses.Inc()
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		metrics.RawRowFetches.Inc()
		rows, err := h.QueryListens(fetchCtx)
		if err != nil {
			// Not stored: the slot stays empty and the next call retries.
			return nil, err
		}
		c.mu.Lock()
		c.resolved[key] = rows
		c.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ListenEvent), nil
}

// Evict drops the resolved event set for the handle, forcing the next
// call to fetch again.
func (c *RowCache) Evict(h store.Handle) {
	c.mu.Lock()
	delete(c.resolved, h.ID())
	c.mu.Unlock()
}
