package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/albapepper/cruxlog/internal/config"
	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

// SQLiteSchema mirrors db.Schema for the embedded store. Dates are stored as
// YYYY-MM-DD text.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS ticks (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id             TEXT NOT NULL,
    source_type         TEXT NOT NULL,
    route_name          TEXT NOT NULL,
    route_key           TEXT NOT NULL,
    route_grade         TEXT NOT NULL DEFAULT '',
    tick_date           TEXT NOT NULL,
    length              INTEGER,
    pitches             INTEGER,
    location            TEXT,
    location_raw        TEXT,
    route_type          TEXT,
    lead_style          TEXT,
    notes               TEXT,
    route_url           TEXT,
    route_quality       REAL,
    user_quality        REAL,
    send_bool           INTEGER NOT NULL DEFAULT 0,
    discipline          TEXT,
    length_category     TEXT,
    season_category     TEXT,
    binned_grade        TEXT,
    binned_code         INTEGER NOT NULL DEFAULT 0,
    cur_max_sport       INTEGER NOT NULL DEFAULT 0,
    cur_max_trad        INTEGER NOT NULL DEFAULT 0,
    cur_max_tr          INTEGER NOT NULL DEFAULT 0,
    cur_max_boulder     INTEGER NOT NULL DEFAULT 0,
    cur_max_mixed       INTEGER NOT NULL DEFAULT 0,
    cur_max_winter_ice  INTEGER NOT NULL DEFAULT 0,
    cur_max_aid         INTEGER NOT NULL DEFAULT 0,
    cur_max_route       INTEGER NOT NULL DEFAULT 0,
    difficulty_category TEXT,
    crux_angle          TEXT,
    crux_energy         TEXT,
    created_at          TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (user_id, route_key, tick_date)
);

CREATE INDEX IF NOT EXISTS idx_ticks_user_date ON ticks (user_id, tick_date);

CREATE TABLE IF NOT EXISTS performance_pyramid (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id       TEXT NOT NULL,
    tick_id       INTEGER NOT NULL REFERENCES ticks (id) ON DELETE CASCADE,
    route_name    TEXT NOT NULL,
    location      TEXT,
    discipline    TEXT NOT NULL,
    send_date     TEXT NOT NULL,
    binned_code   INTEGER NOT NULL,
    binned_grade  TEXT NOT NULL,
    num_attempts  INTEGER NOT NULL,
    days_attempts INTEGER NOT NULL,
    num_sends     INTEGER NOT NULL,
    crux_angle    TEXT,
    crux_energy   TEXT
);

CREATE INDEX IF NOT EXISTS idx_pyramid_user ON performance_pyramid (user_id, discipline);

CREATE TABLE IF NOT EXISTS tags (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tick_tags (
    tick_id INTEGER NOT NULL REFERENCES ticks (id) ON DELETE CASCADE,
    tag_id  INTEGER NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
    PRIMARY KEY (tick_id, tag_id)
);

CREATE TABLE IF NOT EXISTS user_sources (
    user_id      TEXT NOT NULL,
    source_type  TEXT NOT NULL,
    profile_url  TEXT,
    last_sync_at TEXT NOT NULL,
    PRIMARY KEY (user_id, source_type)
);
`

var (
	liteInsertTick = insertSQL(config.TicksTable, tickColumns, question,
		"ON CONFLICT (user_id, route_key, tick_date) DO NOTHING RETURNING id")
	liteInsertPyramid = insertSQL(config.PyramidTable, pyramidColumns, question, "")
)

// SQLite is the persistence gateway over an embedded database file.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (creating if needed) the database at path and applies the
// schema.
func NewSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(SQLiteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

// WithinTx runs fn in one transaction, committing only when fn succeeds.
func (s *SQLite) WithinTx(ctx context.Context, fn func(tx pipeline.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&liteTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Rollback failed", "error", rbErr)
		}
		s.logger.Warn("Transaction rolled back", "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Pyramid returns the user's stored pyramid.
func (s *SQLite) Pyramid(ctx context.Context, userID string) ([]provider.PyramidEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, tick_id, route_name, COALESCE(location, ''), discipline, send_date,
		        binned_code, binned_grade, num_attempts, days_attempts, num_sends,
		        COALESCE(crux_angle, ''), COALESCE(crux_energy, '')
		 FROM performance_pyramid WHERE user_id = ?
		 ORDER BY discipline, binned_code DESC, send_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("query pyramid: %w", err)
	}
	defer rows.Close()

	entries := []provider.PyramidEntry{}
	for rows.Next() {
		var e provider.PyramidEntry
		var discipline, date, angle, energy string
		if err := rows.Scan(&e.UserID, &e.TickID, &e.RouteName, &e.Location, &discipline, &date,
			&e.BinnedCode, &e.BinnedGrade, &e.NumAttempts, &e.DaysAttempts, &e.NumSends,
			&angle, &energy); err != nil {
			return nil, fmt.Errorf("scan pyramid: %w", err)
		}
		if e.SendDate, err = time.Parse(time.DateOnly, date); err != nil {
			return nil, fmt.Errorf("parse send date %q: %w", date, err)
		}
		e.TickIndex = -1
		e.Discipline = provider.Discipline(discipline)
		e.CruxAngle = provider.CruxAngle(angle)
		e.CruxEnergy = provider.CruxEnergy(energy)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TickCount returns how many ticks are stored for the user.
func (s *SQLite) TickCount(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM ticks WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ticks: %w", err)
	}
	return n, nil
}

// LastSync returns when the user's source was last synced.
func (s *SQLite) LastSync(ctx context.Context, userID string, source provider.SourceType) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT last_sync_at FROM user_sources WHERE user_id = ? AND source_type = ?",
		userID, string(source)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last sync: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last sync %q: %w", raw, err)
	}
	return at, true, nil
}

// Ping checks the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Transaction
// --------------------------------------------------------------------------

type liteTx struct {
	tx *sql.Tx
}

func (t *liteTx) SaveTicks(ctx context.Context, userID string, ticks []*provider.Tick) ([]int64, int, error) {
	ids := make([]int64, len(ticks))
	skipped := 0
	for i, tick := range ticks {
		day := tick.Day().Format(time.DateOnly)
		err := t.tx.QueryRowContext(ctx, liteInsertTick, tickValues(userID, tick, day)...).Scan(&ids[i])
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("insert tick %q: %w", tick.RouteName, err)
		}

		// Conflict: reuse the existing row.
		err = t.tx.QueryRowContext(ctx,
			"SELECT id FROM ticks WHERE user_id = ? AND route_key = ? AND tick_date = ?",
			userID, routeKey(tick.RouteName), day).Scan(&ids[i])
		if err != nil {
			return nil, 0, fmt.Errorf("lookup duplicate tick %q: %w", tick.RouteName, err)
		}
		skipped++
	}
	return ids, skipped, nil
}

func (t *liteTx) SavePyramid(ctx context.Context, userID string, entries []provider.PyramidEntry) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM performance_pyramid WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear pyramid: %w", err)
	}
	for _, e := range entries {
		date := e.SendDate.Format(time.DateOnly)
		if _, err := t.tx.ExecContext(ctx, liteInsertPyramid, pyramidValues(userID, e, date)...); err != nil {
			return fmt.Errorf("insert pyramid entry %q: %w", e.RouteName, err)
		}
	}
	return nil
}

func (t *liteTx) SaveTags(ctx context.Context, tags []provider.Tag, ids []int64) error {
	for _, tag := range tags {
		tickIDs, err := tagTickIDs(tag, ids)
		if err != nil {
			return err
		}

		var tagID int64
		err = t.tx.QueryRowContext(ctx,
			`INSERT INTO tags (name) VALUES (?)
			 ON CONFLICT (name) DO UPDATE SET name = excluded.name
			 RETURNING id`, tag.Name).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", tag.Name, err)
		}

		for _, tickID := range tickIDs {
			if _, err := t.tx.ExecContext(ctx,
				"INSERT INTO tick_tags (tick_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				tickID, tagID); err != nil {
				return fmt.Errorf("link tag %q: %w", tag.Name, err)
			}
		}
	}
	return nil
}

func (t *liteTx) UpdateSyncTimestamp(ctx context.Context, userID string, source provider.SourceType, profileURL string) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO user_sources (user_id, source_type, profile_url, last_sync_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, source_type)
		 DO UPDATE SET last_sync_at = excluded.last_sync_at,
		               profile_url = COALESCE(excluded.profile_url, user_sources.profile_url)`,
		userID, string(source), nullString(profileURL), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert sync timestamp: %w", err)
	}
	return nil
}
