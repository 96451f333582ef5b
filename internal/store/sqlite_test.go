package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cruxlog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tick(name string, date time.Time, code int, send bool) *provider.Tick {
	t := &provider.Tick{
		SourceType:  provider.SourceMountainProject,
		RouteName:   name,
		RouteGrade:  "5.11a",
		TickDate:    date,
		Location:    "Crag, Area",
		Discipline:  provider.DisciplineSport,
		BinnedCode:  code,
		BinnedGrade: "5.11a",
	}
	t.SetSend(send)
	return t
}

func saveAll(ctx context.Context, s *SQLite, userID string, ticks []*provider.Tick, pyr []provider.PyramidEntry, tags []provider.Tag) (ids []int64, skipped int, err error) {
	err = s.WithinTx(ctx, func(tx pipeline.Tx) error {
		ids, skipped, err = tx.SaveTicks(ctx, userID, ticks)
		if err != nil {
			return err
		}
		for i := range pyr {
			pyr[i].TickID = ids[pyr[i].TickIndex]
		}
		if err := tx.SavePyramid(ctx, userID, pyr); err != nil {
			return err
		}
		if err := tx.SaveTags(ctx, tags, ids); err != nil {
			return err
		}
		return tx.UpdateSyncTimestamp(ctx, userID, provider.SourceMountainProject, "https://mp.example/user/1/a")
	})
	return ids, skipped, err
}

func TestSQLiteSaveAndDedup(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	ticks := []*provider.Tick{
		tick("Chicken Chokers", day(2024, 5, 4), 10, true),
		tick("Bubba Lou", day(2024, 5, 5), 12, false),
		tick(" chicken chokers ", day(2024, 5, 4), 10, true), // same route, same day
	}
	pyr := []provider.PyramidEntry{{
		UserID: "u1", TickIndex: 0, RouteName: "Chicken Chokers", Discipline: provider.DisciplineSport,
		SendDate: day(2024, 5, 4), BinnedCode: 10, BinnedGrade: "5.11a", NumAttempts: 2, DaysAttempts: 1, NumSends: 1,
		CruxAngle: provider.CruxAngleOverhang,
	}}
	tags := []provider.Tag{{Name: "crimpy", TickIndices: []int{0, 2}}}

	ids, skipped, err := saveAll(ctx, s, "u1", ticks, pyr, tags)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, ids[0], ids[2], "duplicate maps to the existing row")
	assert.NotEqual(t, ids[0], ids[1])

	n, err := s.TickCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-processing the same batch persists nothing new.
	again, skipped, err := saveAll(ctx, s, "u1", ticks, pyr, tags)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, ids, again)

	n, err = s.TickCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Other users are independent.
	_, skipped, err = saveAll(ctx, s, "u2", ticks[:1], nil, nil)
	require.NoError(t, err)
	assert.Zero(t, skipped)

	var links int
	require.NoError(t, s.db.QueryRow("SELECT count(*) FROM tick_tags").Scan(&links))
	assert.Equal(t, 1, links)
}

func TestSQLitePyramidReplaced(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	ticks := []*provider.Tick{tick("A", day(2024, 1, 1), 10, true), tick("B", day(2024, 1, 2), 12, true)}
	first := []provider.PyramidEntry{
		{TickIndex: 0, RouteName: "A", Discipline: provider.DisciplineSport, SendDate: day(2024, 1, 1), BinnedCode: 10, BinnedGrade: "5.11a", NumAttempts: 1, DaysAttempts: 1, NumSends: 1},
		{TickIndex: 1, RouteName: "B", Discipline: provider.DisciplineSport, SendDate: day(2024, 1, 2), BinnedCode: 12, BinnedGrade: "5.11c", NumAttempts: 3, DaysAttempts: 2, NumSends: 1, CruxEnergy: provider.CruxEnergyPower},
	}
	_, _, err := saveAll(ctx, s, "u1", ticks, first, nil)
	require.NoError(t, err)

	got, err := s.Pyramid(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].RouteName, "highest code first")
	assert.Equal(t, day(2024, 1, 2), got[0].SendDate)
	assert.Equal(t, provider.CruxEnergyPower, got[0].CruxEnergy)
	assert.Equal(t, -1, got[0].TickIndex)

	_, _, err = saveAll(ctx, s, "u1", ticks, first[:1], nil)
	require.NoError(t, err)
	got, err = s.Pyramid(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].RouteName)

	empty, err := s.Pyramid(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}

func TestSQLiteRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx pipeline.Tx) error {
		if _, _, err := tx.SaveTicks(ctx, "u1", []*provider.Tick{tick("A", day(2024, 1, 1), 10, true)}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.TickCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n, "nothing persisted after rollback")

	_, ok, err := s.LastSync(ctx, "u1", provider.SourceMountainProject)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteTagIndexOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, _, err := saveAll(ctx, s, "u1",
		[]*provider.Tick{tick("A", day(2024, 1, 1), 10, true)}, nil,
		[]provider.Tag{{Name: "slab", TickIndices: []int{3}}})
	require.Error(t, err)

	n, err := s.TickCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteLastSync(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	before := time.Now().Add(-time.Second)
	_, _, err := saveAll(ctx, s, "u1", []*provider.Tick{tick("A", day(2024, 1, 1), 10, true)}, nil, nil)
	require.NoError(t, err)

	at, ok, err := s.LastSync(ctx, "u1", provider.SourceMountainProject)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.After(before))
	require.NoError(t, s.Ping(ctx))
}
