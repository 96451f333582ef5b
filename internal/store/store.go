// Package store implements the persistence gateway on top of Postgres
// (internal/db) or an embedded SQLite file. Both back ends share the column
// mapping in this file and commit one sync inside a single transaction.
//
// Ticks are deduplicated on (user, route name, tick date): a duplicate keeps
// the existing row and its id is returned in place of a new one.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

// Store is a persistence gateway plus the read side used by the caller
// surfaces.
type Store interface {
	pipeline.Store
	Pyramid(ctx context.Context, userID string) ([]provider.PyramidEntry, error)
	TickCount(ctx context.Context, userID string) (int, error)
	LastSync(ctx context.Context, userID string, source provider.SourceType) (time.Time, bool, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)

// --------------------------------------------------------------------------
// Column mapping
// --------------------------------------------------------------------------

var tickColumns = []string{
	"user_id", "source_type", "route_name", "route_key", "route_grade", "tick_date",
	"length", "pitches", "location", "location_raw", "route_type", "lead_style",
	"notes", "route_url", "route_quality", "user_quality", "send_bool",
	"discipline", "length_category", "season_category", "binned_grade", "binned_code",
	"cur_max_sport", "cur_max_trad", "cur_max_tr", "cur_max_boulder",
	"cur_max_mixed", "cur_max_winter_ice", "cur_max_aid", "cur_max_route",
	"difficulty_category", "crux_angle", "crux_energy",
}

var pyramidColumns = []string{
	"user_id", "tick_id", "route_name", "location", "discipline", "send_date",
	"binned_code", "binned_grade", "num_attempts", "days_attempts", "num_sends",
	"crux_angle", "crux_energy",
}

// routeKey is the dedup identity of a route name.
func routeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// tickValues returns the row for a tick in tickColumns order. date is the
// tick date already encoded for the driver.
func tickValues(userID string, t *provider.Tick, date any) []any {
	m := t.CurMax
	return []any{
		userID, string(t.SourceType), t.RouteName, routeKey(t.RouteName), t.RouteGrade, date,
		nullInt(t.Length), nullInt(t.Pitches), nullString(t.Location), nullString(t.LocationRaw),
		nullString(t.RouteType), nullString(t.LeadStyle),
		nullString(t.Notes), nullString(t.RouteURL), t.RouteQuality, t.UserQuality, t.IsSend(),
		nullString(string(t.Discipline)), nullString(string(t.LengthCategory)), nullString(t.SeasonCategory),
		nullString(t.BinnedGrade), t.BinnedCode,
		m.Sport, m.Trad, m.TopRope, m.Boulder,
		m.Mixed, m.WinterIce, m.Aid, m.Route,
		nullString(t.DifficultyCategory), nullString(string(t.CruxAngle)), nullString(string(t.CruxEnergy)),
	}
}

func pyramidValues(userID string, e provider.PyramidEntry, date any) []any {
	return []any{
		userID, e.TickID, e.RouteName, nullString(e.Location), string(e.Discipline), date,
		e.BinnedCode, e.BinnedGrade, e.NumAttempts, e.DaysAttempts, e.NumSends,
		nullString(string(e.CruxAngle)), nullString(string(e.CruxEnergy)),
	}
}

// insertSQL builds an INSERT for the columns; ph renders the n-th (1-based)
// placeholder for the driver.
func insertSQL(table string, cols []string, ph func(n int) string, suffix string) string {
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "), suffix)
}

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// tagTickIDs returns the distinct tick ids a tag applies to, in index order.
func tagTickIDs(tag provider.Tag, ids []int64) ([]int64, error) {
	seen := make(map[int64]bool, len(tag.TickIndices))
	out := make([]int64, 0, len(tag.TickIndices))
	for _, idx := range tag.TickIndices {
		if idx < 0 || idx >= len(ids) {
			return nil, fmt.Errorf("tag %q: tick index %d out of range", tag.Name, idx)
		}
		if id := ids[idx]; !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
