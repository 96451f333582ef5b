package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/cruxlog/internal/config"
	"github.com/albapepper/cruxlog/internal/db"
	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

var (
	pgInsertTick = insertSQL(config.TicksTable, tickColumns, dollar,
		"ON CONFLICT (user_id, route_key, tick_date) DO NOTHING RETURNING id")
	pgInsertPyramid = insertSQL(config.PyramidTable, pyramidColumns, dollar, "")
)

// Postgres is the persistence gateway over a pgx pool.
type Postgres struct {
	pool   *db.Pool
	logger *slog.Logger
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *db.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

// WithinTx runs fn in one transaction, committing only when fn succeeds.
func (p *Postgres) WithinTx(ctx context.Context, fn func(tx pipeline.Tx) error) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
	if err != nil {
		p.logger.Warn("Transaction rolled back", "error", err)
	}
	return err
}

// Pyramid returns the user's stored pyramid.
func (p *Postgres) Pyramid(ctx context.Context, userID string) ([]provider.PyramidEntry, error) {
	rows, err := p.pool.Query(ctx, "pyramid_by_user", userID)
	if err != nil {
		return nil, fmt.Errorf("query pyramid: %w", err)
	}
	defer rows.Close()

	entries := []provider.PyramidEntry{}
	for rows.Next() {
		var e provider.PyramidEntry
		var discipline, angle, energy string
		if err := rows.Scan(&e.UserID, &e.TickID, &e.RouteName, &e.Location, &discipline, &e.SendDate,
			&e.BinnedCode, &e.BinnedGrade, &e.NumAttempts, &e.DaysAttempts, &e.NumSends,
			&angle, &energy); err != nil {
			return nil, fmt.Errorf("scan pyramid: %w", err)
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
func (p *Postgres) TickCount(ctx context.Context, userID string) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, "tick_count_by_user", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ticks: %w", err)
	}
	return n, nil
}

// LastSync returns when the user's source was last synced.
func (p *Postgres) LastSync(ctx context.Context, userID string, source provider.SourceType) (time.Time, bool, error) {
	var at time.Time
	err := p.pool.QueryRow(ctx, "last_sync", userID, string(source)).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last sync: %w", err)
	}
	return at, true, nil
}

// Ping checks the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.HealthCheck(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// --------------------------------------------------------------------------
// Transaction
// --------------------------------------------------------------------------

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) SaveTicks(ctx context.Context, userID string, ticks []*provider.Tick) ([]int64, int, error) {
	ids := make([]int64, len(ticks))
	skipped := 0
	for i, tick := range ticks {
		day := tick.Day()
		err := t.tx.QueryRow(ctx, pgInsertTick, tickValues(userID, tick, day)...).Scan(&ids[i])
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, fmt.Errorf("insert tick %q: %w", tick.RouteName, err)
		}

		// Conflict: reuse the existing row.
		err = t.tx.QueryRow(ctx,
			"SELECT id FROM ticks WHERE user_id = $1 AND route_key = $2 AND tick_date = $3",
			userID, routeKey(tick.RouteName), day).Scan(&ids[i])
		if err != nil {
			return nil, 0, fmt.Errorf("lookup duplicate tick %q: %w", tick.RouteName, err)
		}
		skipped++
	}
	return ids, skipped, nil
}

func (t *pgTx) SavePyramid(ctx context.Context, userID string, entries []provider.PyramidEntry) error {
	if _, err := t.tx.Exec(ctx, "DELETE FROM performance_pyramid WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clear pyramid: %w", err)
	}
	for _, e := range entries {
		if _, err := t.tx.Exec(ctx, pgInsertPyramid, pyramidValues(userID, e, e.SendDate)...); err != nil {
			return fmt.Errorf("insert pyramid entry %q: %w", e.RouteName, err)
		}
	}
	return nil
}

func (t *pgTx) SaveTags(ctx context.Context, tags []provider.Tag, ids []int64) error {
	for _, tag := range tags {
		tickIDs, err := tagTickIDs(tag, ids)
		if err != nil {
			return err
		}

		var tagID int64
		err = t.tx.QueryRow(ctx,
			`INSERT INTO tags (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, tag.Name).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", tag.Name, err)
		}

		for _, tickID := range tickIDs {
			if _, err := t.tx.Exec(ctx,
				"INSERT INTO tick_tags (tick_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				tickID, tagID); err != nil {
				return fmt.Errorf("link tag %q: %w", tag.Name, err)
			}
		}
	}
	return nil
}

func (t *pgTx) UpdateSyncTimestamp(ctx context.Context, userID string, source provider.SourceType, profileURL string) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO user_sources (user_id, source_type, profile_url, last_sync_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, source_type)
		 DO UPDATE SET last_sync_at = EXCLUDED.last_sync_at,
		               profile_url = COALESCE(EXCLUDED.profile_url, user_sources.profile_url)`,
		userID, string(source), nullString(profileURL))
	if err != nil {
		return fmt.Errorf("upsert sync timestamp: %w", err)
	}
	return nil
}
