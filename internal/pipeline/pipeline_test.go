package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/provider"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --------------------------------------------------------------------------
// Fakes
// --------------------------------------------------------------------------

type fakeRaw []provider.Tick

func (f fakeRaw) Len() int { return len(f) }

type fakeSource struct {
	rows     fakeRaw
	err      error
	skipDate bool
	calls    atomic.Int32
	onFetch  func()
}

func (s *fakeSource) Fetch(ctx context.Context, _ Credentials) (RawBatch, error) {
	s.calls.Add(1)
	if s.onFetch != nil {
		s.onFetch()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *fakeSource) Normalize(raw RawBatch, userID string) ([]*provider.Tick, error) {
	rows, ok := raw.(fakeRaw)
	if !ok {
		return nil, fmt.Errorf("unexpected raw batch %T", raw)
	}
	out := make([]*provider.Tick, len(rows))
	for i := range rows {
		t := rows[i]
		t.UserID = userID
		if !s.skipDate {
			t.Mark(provider.FieldDate)
		}
		out[i] = &t
	}
	return out, nil
}

func (s *fakeSource) adapter() Adapter {
	return Adapter{Fetcher: s, Normalizer: s}
}

type memState struct {
	ticks   map[string]int64
	pyramid map[string][]provider.PyramidEntry
	tags    map[string][]int64
	synced  map[string]string
	nextID  int64
}

type memStore struct {
	mu     sync.Mutex
	state  memState
	failOn string
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		ticks:   map[string]int64{},
		pyramid: map[string][]provider.PyramidEntry{},
		tags:    map[string][]int64{},
		synced:  map[string]string{},
	}}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := memState{
		ticks:   maps.Clone(s.state.ticks),
		pyramid: maps.Clone(s.state.pyramid),
		tags:    maps.Clone(s.state.tags),
		synced:  maps.Clone(s.state.synced),
		nextID:  s.state.nextID,
	}
	if err := fn(&memTx{st: &staged, failOn: s.failOn}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *memStore) tickCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.ticks)
}

type memTx struct {
	st     *memState
	failOn string
}

func (tx *memTx) fail(op string) error {
	if tx.failOn == op {
		return fmt.Errorf("%s: disk full", op)
	}
	return nil
}

func (tx *memTx) SaveTicks(_ context.Context, userID string, ticks []*provider.Tick) ([]int64, int, error) {
	if err := tx.fail("ticks"); err != nil {
		return nil, 0, err
	}
	ids := make([]int64, len(ticks))
	skipped := 0
	for i, t := range ticks {
		key := userID + "|" + strings.ToLower(t.RouteName) + "|" + t.Day().Format(time.DateOnly)
		if id, ok := tx.st.ticks[key]; ok {
			ids[i] = id
			skipped++
			continue
		}
		tx.st.nextID++
		tx.st.ticks[key] = tx.st.nextID
		ids[i] = tx.st.nextID
	}
	return ids, skipped, nil
}

func (tx *memTx) SavePyramid(_ context.Context, userID string, entries []provider.PyramidEntry) error {
	if err := tx.fail("pyramid"); err != nil {
		return err
	}
	tx.st.pyramid[userID] = append([]provider.PyramidEntry(nil), entries...)
	return nil
}

func (tx *memTx) SaveTags(_ context.Context, tags []provider.Tag, ids []int64) error {
	if err := tx.fail("tags"); err != nil {
		return err
	}
	for _, tag := range tags {
		for _, i := range tag.TickIndices {
			tx.st.tags[tag.Name] = append(tx.st.tags[tag.Name], ids[i])
		}
	}
	return nil
}

func (tx *memTx) UpdateSyncTimestamp(_ context.Context, userID string, source provider.SourceType, _ string) error {
	if err := tx.fail("sync"); err != nil {
		return err
	}
	tx.st.synced[userID] = string(source)
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func row(name, g, routeType, style, day string) provider.Tick {
	d, err := time.Parse(time.DateOnly, day)
	if err != nil {
		panic(err)
	}
	return provider.Tick{
		RouteName:   name,
		RouteGrade:  g,
		RouteType:   routeType,
		LeadStyle:   style,
		TickDate:    d,
		LocationRaw: "Rifle > Arsenal",
	}
}

func sampleRows() fakeRaw {
	rows := fakeRaw{
		row("Warmup", "5.10a", "Sport", "Redpoint", "2024-03-02"),
		row("Project X", "5.12a", "Sport", "Fell/Hung", "2024-03-01"),
		row("Project X", "5.12a", "Sport", "Redpoint", "2024-03-09"),
		row("Easy Day", "5.11a", "Sport", "Onsight", "2024-03-10"),
		row("Boulder A", "V5", "Boulder", "Send", "2024-03-05"),
		row("Boulder B", "V2", "Boulder", "Send", "2024-03-06"),
		row("Mystery", "5.9", "", "", "2024-03-07"),
	}
	rows[2].Notes = "#crimpy and steep"
	rows[4].RawTags = []string{"Highball", "made-up"}
	return rows
}

func newTestOrchestrator(t *testing.T, store Store, sources map[provider.SourceType]Adapter) *Orchestrator {
	t.Helper()
	engine, err := grade.NewEngine(nil)
	require.NoError(t, err)
	o, err := New(Deps{Grades: engine, Store: store, Sources: sources}, nil)
	require.NoError(t, err)
	return o
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestProcessEndToEnd(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	store := newMemStore()
	o := newTestOrchestrator(t, store, map[provider.SourceType]Adapter{provider.SourceMountainProject: src.adapter()})

	res, err := o.Process(context.Background(), "u1", provider.SourceMountainProject, Credentials{ProfileURL: "https://example.test/u1"})
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.NotEmpty(t, res.SyncID)
	assert.Equal(t, 7, res.Saved)
	assert.Equal(t, 0, res.Skipped)
	assert.Contains(t, res.Summary(), "state=done")

	ticks := res.Ticks
	require.Len(t, ticks, 7)
	for _, tk := range ticks {
		assert.NotNil(t, tk.Send, tk.RouteName)
		assert.Equal(t, "u1", tk.UserID)
		assert.Equal(t, provider.SourceMountainProject, tk.SourceType)
	}

	assert.Equal(t, provider.DifficultyProject, ticks[0].DifficultyCategory)
	assert.Equal(t, 7, ticks[0].CurMax.Sport)
	assert.Equal(t, 0, ticks[1].CurMax.Sport)
	assert.Equal(t, "5.12a", ticks[2].BinnedGrade)
	assert.Equal(t, provider.DifficultyProject, ticks[2].DifficultyCategory)
	assert.Equal(t, provider.DifficultyBaseVolume, ticks[3].DifficultyCategory)
	assert.Equal(t, 15, ticks[3].CurMax.Sport)
	assert.Equal(t, 15, ticks[3].CurMax.Route)
	assert.Equal(t, 106, ticks[3].CurMax.Boulder)
	assert.Equal(t, provider.DifficultyProject, ticks[4].DifficultyCategory)
	assert.Equal(t, provider.DifficultyTier4, ticks[5].DifficultyCategory)
	assert.Equal(t, provider.DisciplineUnset, ticks[6].Discipline)
	assert.Equal(t, provider.DifficultyOther, ticks[6].DifficultyCategory)

	require.Len(t, res.Pyramid, 5)
	top := res.Pyramid[0]
	assert.Equal(t, "Project X", top.RouteName)
	assert.Equal(t, 2, top.NumAttempts)
	assert.Equal(t, 2, top.DaysAttempts)
	assert.NotZero(t, top.TickID)

	require.Len(t, res.Tags, 2)
	assert.Equal(t, provider.Tag{Name: "crimpy", TickIndices: []int{2}}, res.Tags[0])
	assert.Equal(t, provider.Tag{Name: "highball", TickIndices: []int{4}}, res.Tags[1])

	assert.Equal(t, 7, store.tickCount())
	assert.Equal(t, "mountain_project", store.state.synced["u1"])
}

func TestProcessIsIdempotent(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	store := newMemStore()
	o := newTestOrchestrator(t, store, map[provider.SourceType]Adapter{provider.SourceEightA: src.adapter()})

	_, err := o.Process(context.Background(), "u1", provider.SourceEightA, Credentials{})
	require.NoError(t, err)

	res, err := o.Process(context.Background(), "u1", provider.SourceEightA, Credentials{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)
	assert.Equal(t, 7, res.Skipped)
	assert.Equal(t, 7, store.tickCount())
}

func TestProcessUnsupportedSource(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	o := newTestOrchestrator(t, newMemStore(), map[provider.SourceType]Adapter{provider.SourceEightA: src.adapter()})

	res, err := o.Process(context.Background(), "u1", provider.SourceType("strava"), Credentials{})
	require.ErrorIs(t, err, ErrUnsupportedSourceType)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, int32(0), src.calls.Load())

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, StateFetching, failure.State)
	assert.False(t, o.Supports("strava"))
}

func TestProcessFetchErrorSurfacedUnchanged(t *testing.T) {
	gatewayErr := errors.New("login rejected")
	src := &fakeSource{err: gatewayErr}
	store := newMemStore()
	o := newTestOrchestrator(t, store, map[provider.SourceType]Adapter{provider.SourceEightA: src.adapter()})

	_, err := o.Process(context.Background(), "u1", provider.SourceEightA, Credentials{Username: "x"})
	require.ErrorIs(t, err, gatewayErr)

	var fetchErr *SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, provider.SourceEightA, fetchErr.Source)
	assert.Same(t, gatewayErr, fetchErr.Unwrap())
	assert.Zero(t, store.tickCount())
}

func TestProcessEmptySourceData(t *testing.T) {
	for name, rows := range map[string]fakeRaw{
		"no rows":       {},
		"no route name": {row("  ", "5.10a", "Sport", "Redpoint", "2024-01-01")},
	} {
		t.Run(name, func(t *testing.T) {
			src := &fakeSource{rows: rows}
			o := newTestOrchestrator(t, newMemStore(), map[provider.SourceType]Adapter{provider.SourceEightA: src.adapter()})

			_, err := o.Process(context.Background(), "u1", provider.SourceEightA, Credentials{})
			require.ErrorIs(t, err, ErrEmptySourceData)

			var failure *Failure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, StateNormalizing, failure.State)
		})
	}
}

func TestProcessMissingDateColumn(t *testing.T) {
	src := &fakeSource{rows: sampleRows(), skipDate: true}
	o := newTestOrchestrator(t, newMemStore(), map[provider.SourceType]Adapter{provider.SourceEightA: src.adapter()})

	_, err := o.Process(context.Background(), "u1", provider.SourceEightA, Credentials{})
	var missing *provider.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, provider.FieldDate, missing.Field)
}

func TestProcessCommitFailureRollsBack(t *testing.T) {
	for _, op := range []string{"ticks", "pyramid", "tags", "sync"} {
		t.Run(op, func(t *testing.T) {
			src := &fakeSource{rows: sampleRows()}
			store := newMemStore()
			store.failOn = op
			o := newTestOrchestrator(t, store, map[provider.SourceType]Adapter{provider.SourceEightA: src.adapter()})

			res, err := o.Process(context.Background(), "u1", provider.SourceEightA, Credentials{})
			var commitErr *CommitError
			require.ErrorAs(t, err, &commitErr)
			assert.Contains(t, err.Error(), "disk full")
			assert.Equal(t, StateFailed, res.State)
			assert.Zero(t, res.Saved)
			assert.Zero(t, store.tickCount())
			assert.Empty(t, store.state.synced)
		})
	}
}

func TestProcessCancelledBeforeCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{rows: sampleRows(), onFetch: cancel}
	store := newMemStore()
	o := newTestOrchestrator(t, store, map[provider.SourceType]Adapter{provider.SourceEightA: src.adapter()})

	_, err := o.Process(ctx, "u1", provider.SourceEightA, Credentials{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.tickCount())
}

func TestRunningMaxNonDecreasing(t *testing.T) {
	ticks := []*provider.Tick{}
	disciplines := []provider.Discipline{provider.DisciplineSport, provider.DisciplineTrad, provider.DisciplineBoulder}
	for i := 0; i < 60; i++ {
		d := disciplines[i%3]
		code := 1 + (i*7)%28
		if d.IsBoulder() {
			code = 101 + (i*5)%18
		}
		tk := &provider.Tick{
			RouteName:  fmt.Sprintf("r%d", i),
			Discipline: d,
			BinnedCode: code,
			TickDate:   time.Date(2024, 1, 1+(i*13)%60, 0, 0, 0, 0, time.UTC),
		}
		tk.SetSend(i%4 != 0)
		ticks = append(ticks, tk)
	}
	// A boulder code on a sport tick never advances the sport column.
	stray := &provider.Tick{RouteName: "stray", Discipline: provider.DisciplineSport, BinnedCode: 118, TickDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	stray.SetSend(true)
	ticks = append(ticks, stray)

	runningMax(ticks)

	assert.Equal(t, provider.DifficultyOther, stray.DifficultyCategory)
	assert.LessOrEqual(t, stray.CurMax.Sport, grade.MaxRouteCode)

	sorted := append([]*provider.Tick(nil), ticks...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Day().Before(sorted[j-1].Day()); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	last := map[provider.Discipline]int{}
	for _, tk := range sorted {
		require.True(t, tk.Has(provider.FieldRunningMax))
		for _, d := range disciplines {
			v, _ := tk.CurMax.For(d)
			assert.GreaterOrEqual(t, v, last[d])
			last[d] = v
		}
	}
}

func TestDifficulty(t *testing.T) {
	prior := provider.MaxSnapshot{Sport: 15, Boulder: 106}
	tests := []struct {
		d    provider.Discipline
		code int
		want string
	}{
		{provider.DisciplineSport, 16, provider.DifficultyProject},
		{provider.DisciplineSport, 15, provider.DifficultyProject},
		{provider.DisciplineSport, 14, provider.DifficultyTier2},
		{provider.DisciplineSport, 13, provider.DifficultyTier3},
		{provider.DisciplineSport, 12, provider.DifficultyTier4},
		{provider.DisciplineSport, 11, provider.DifficultyBaseVolume},
		{provider.DisciplineSport, 0, provider.DifficultyOther},
		{provider.DisciplineSport, 106, provider.DifficultyOther},
		{provider.DisciplineBoulder, 15, provider.DifficultyOther},
		{provider.DisciplineBoulder, 105, provider.DifficultyTier2},
		{provider.DisciplineTrad, 5, provider.DifficultyProject},
		{provider.DisciplineUnset, 10, provider.DifficultyOther},
	}
	for _, tt := range tests {
		got := difficulty(&provider.Tick{Discipline: tt.d, BinnedCode: tt.code}, prior)
		assert.Equal(t, tt.want, got, "%s %d", tt.d, tt.code)
	}
}

func TestExtractTags(t *testing.T) {
	ticks := []*provider.Tick{
		{RawTags: []string{"Crimpy", "crimps", "unknown"}, Notes: "so #Crimpy"},
		{RawTags: []string{"Sit Start"}, Notes: "#sandbagged #notatag"},
		{RawTags: nil},
		{RawTags: []string{"first-ascent", "CRIMP"}},
	}
	tags := extractTags(ticks)
	assert.Equal(t, []provider.Tag{
		{Name: "crimpy", TickIndices: []int{0, 3}},
		{Name: "first_ascent", TickIndices: []int{3}},
		{Name: "sandbag", TickIndices: []int{1}},
		{Name: "sit_start", TickIndices: []int{1}},
	}, tags)
}

type blockingFetcher struct {
	active, peak atomic.Int32
}

func (f *blockingFetcher) Fetch(ctx context.Context, _ Credentials) (RawBatch, error) {
	n := f.active.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	f.active.Add(-1)
	return fakeRaw{}, nil
}

func TestFetchPoolBoundsConcurrency(t *testing.T) {
	pool := NewFetchPool(0)
	assert.Equal(t, DefaultFetchWorkers, pool.Workers())

	f := &blockingFetcher{}
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Fetch(context.Background(), f, Credentials{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, f.peak.Load(), int32(DefaultFetchWorkers))
	assert.GreaterOrEqual(t, f.peak.Load(), int32(1))
}

func TestFetchPoolHonoursContext(t *testing.T) {
	pool := NewFetchPool(1)
	started := make(chan struct{})
	hold := make(chan struct{})
	released := make(chan struct{})

	go func() {
		defer close(released)
		_, _ = pool.Fetch(context.Background(), fetchFunc(func() {
			close(started)
			<-hold
		}), Credentials{})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Fetch(ctx, fetchFunc(func() {}), Credentials{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(hold)
	<-released
}

type fetchFunc func()

func (f fetchFunc) Fetch(context.Context, Credentials) (RawBatch, error) {
	f()
	return fakeRaw{}, nil
}
