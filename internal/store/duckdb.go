// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/colin-rod/audiograph-sub000/internal/config"
	"github.com/colin-rod/audiograph-sub000/internal/logging"
	"github.com/colin-rod/audiograph-sub000/internal/metrics"
	"github.com/colin-rod/audiograph-sub000/internal/models"
)

// defaultQueryTimeout bounds store queries that arrive without a deadline.
const defaultQueryTimeout = 30 * time.Second

// DB is the DuckDB-backed listen store. It implements Handle
// unconditionally and Aggregator when the aggregation catalog has been
// installed (InstallAggregations). A DB with the catalog absent still
// satisfies the Aggregator interface but reports not_installed for every
// name, exercising the engine's fallback path.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
	id   string

	// Prepared statement caching, double-checked locking.
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex

	aggMu        sync.RWMutex
	aggInstalled bool
}

// Interface conformance.
var (
	_ Handle     = (*DB)(nil)
	_ Aggregator = (*DB)(nil)
)

// Open opens (creating if needed) the DuckDB listen store at cfg.Path and
// initializes the schema.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		id:        uuid.NewString(),
		stmtCache: make(map[string]*sql.Stmt),
	}

	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("aggregations", db.AggregationsInstalled()).
		Msg("Listen store opened")

	return db, nil
}

// initialize creates the listen log table, the valid-event view every query
// reads from, and loads the aggregation capability state.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS listens (
			played_at   TIMESTAMP,
			artist      VARCHAR,
			track       VARCHAR,
			duration_ms BIGINT
		)`,
		// Validity boundary: rows missing a timestamp or carrying a
		// missing/negative duration are excluded from every aggregation,
		// silently. All read paths go through this view.
		`CREATE OR REPLACE VIEW valid_listens AS
			SELECT played_at, artist, track, duration_ms
			FROM listens
			WHERE played_at IS NOT NULL
			  AND duration_ms IS NOT NULL
			  AND duration_ms >= 0`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	installed, err := db.catalogInstalled(ctx)
	if err != nil {
		return err
	}
	db.aggMu.Lock()
	db.aggInstalled = installed
	db.aggMu.Unlock()
	return nil
}

// catalogInstalled checks for the aggregation catalog marker table.
func (db *DB) catalogInstalled(ctx context.Context) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_name = 'aggregation_catalog'`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to probe aggregation catalog: %w", err)
	}
	return count > 0, nil
}

// InstallAggregations installs the named-aggregation capability on this
// handle. Idempotent.
func (db *DB) InstallAggregations(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS aggregation_catalog (name VARCHAR PRIMARY KEY)`); err != nil {
		return NewTransportError("install_aggregations", err)
	}
	for _, name := range aggregationNames {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO aggregation_catalog VALUES (?)`, name); err != nil {
			return NewTransportError("install_aggregations", err)
		}
	}

	db.aggMu.Lock()
	db.aggInstalled = true
	db.aggMu.Unlock()

	logging.Info().Msg("Aggregation catalog installed")
	return nil
}

// AggregationsInstalled reports whether the named-aggregation capability is
// available on this handle.
func (db *DB) AggregationsInstalled() bool {
	db.aggMu.RLock()
	defer db.aggMu.RUnlock()
	return db.aggInstalled
}

// ID implements Handle.
func (db *DB) ID() string { return db.id }

// QueryListens implements Handle: the full valid event set, played_at
// ascending.
func (db *DB) QueryListens(ctx context.Context) ([]models.ListenEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT played_at, artist, track, duration_ms
		 FROM valid_listens
		 ORDER BY played_at ASC`)
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues("query_listens", string(ErrCodeTransport)).Inc()
		return nil, NewTransportError("query_listens", err)
	}
	defer rows.Close()

	var events []models.ListenEvent
	for rows.Next() {
		var (
			ev     models.ListenEvent
			artist sql.NullString
			track  sql.NullString
		)
		if err := rows.Scan(&ev.PlayedAt, &artist, &track, &ev.DurationMS); err != nil {
			return nil, NewTransportError("query_listens", err)
		}
		if artist.Valid {
			ev.Artist = &artist.String
		}
		if track.Valid {
			ev.Track = &track.String
		}
		ev.PlayedAt = ev.PlayedAt.UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, NewTransportError("query_listens", err)
	}

	metrics.StoreQueryDuration.WithLabelValues("query_listens").Observe(time.Since(start).Seconds())
	return events, nil
}

// AppendListens bulk-inserts raw rows into the listen log. This is the
// write surface used by the external ingestion pipeline and by tests; the
// analytics engine itself never writes. Invalid rows are stored as-is and
// filtered at read time.
func (db *DB) AppendListens(ctx context.Context, rows []RawListen) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return NewTransportError("append_listens", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO listens (played_at, artist, track, duration_ms) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return NewTransportError("append_listens", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		var playedAt any
		if r.PlayedAt != nil {
			playedAt = r.PlayedAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx, playedAt, r.Artist, r.Track, r.DurationMS); err != nil {
			return NewTransportError("append_listens", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return NewTransportError("append_listens", err)
	}
	return nil
}

// RawListen is an unvalidated listen log row as the ingestion pipeline
// produces it. Every field is nullable.
type RawListen struct {
	PlayedAt   *time.Time
	Artist     *string
	Track      *string
	DurationMS *int64
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the connection and all cached prepared statements.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				logging.Warn().Err(err).Msg("Failed to close prepared statement")
			}
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// stmt returns a cached prepared statement for query, preparing it on
// first use. Double-checked locking keeps the hot path on the read lock.
func (db *DB) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	s, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return s, nil
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()
	if s, ok := db.stmtCache[query]; ok {
		return s, nil
	}
	s, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	db.stmtCache[query] = s
	return s, nil
}

// ensureContext attaches the default timeout when the caller provided no
// deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultQueryTimeout)
}
