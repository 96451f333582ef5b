// Package pipeline orchestrates one logbook sync: fetch raw data from a
// source, normalize it into canonical ticks, classify, resolve grades and
// running maxima, build the pyramid and tags, and commit everything as one
// unit through the persistence gateway.
//
// A sync moves through a fixed sequence of states and ends in Done or
// Failed. A failed sync is never resumed; it must be re-run from Fetching.
// The orchestrator holds no per-user state, but callers must not run two
// syncs for the same user at once.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/cruxlog/internal/classify"
	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/provider"
	"github.com/albapepper/cruxlog/internal/pyramid"
)

// --------------------------------------------------------------------------
// States
// --------------------------------------------------------------------------

// State is a step of the sync state machine.
type State int

const (
	StateFetching State = iota
	StateNormalizing
	StateClassifying
	StateGradeResolving
	StateEntityBuilding
	StateCommitting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateFetching:       "fetching",
	StateNormalizing:    "normalizing",
	StateClassifying:    "classifying",
	StateGradeResolving: "grade_resolving",
	StateEntityBuilding: "entity_building",
	StateCommitting:     "committing",
	StateDone:           "done",
	StateFailed:         "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// --------------------------------------------------------------------------
// Result
// --------------------------------------------------------------------------

// Result is the outcome of one sync.
type Result struct {
	SyncID   string
	UserID   string
	Source   provider.SourceType
	State    State
	Ticks    []*provider.Tick
	Pyramid  []provider.PyramidEntry
	Tags     []provider.Tag
	Saved    int
	Skipped  int
	Duration time.Duration
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"sync=%s user=%s source=%s state=%s ticks=%d saved=%d skipped=%d pyramid=%d tags=%d dur=%s",
		r.SyncID, r.UserID, r.Source, r.State, len(r.Ticks), r.Saved, r.Skipped,
		len(r.Pyramid), len(r.Tags), r.Duration.Round(time.Millisecond))
}

// --------------------------------------------------------------------------
// Orchestrator
// --------------------------------------------------------------------------

// Deps holds the collaborators of an Orchestrator. Grades, Store and at
// least one source are required; the rest have defaults.
type Deps struct {
	Grades     *grade.Engine
	Classifier *classify.Classifier
	Pyramid    *pyramid.Builder
	Store      Store
	Sources    map[provider.SourceType]Adapter
	FetchPool  *FetchPool
	Recorder   Recorder
}

// Orchestrator runs syncs. It is safe for concurrent use by syncs of
// different users.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger
}

// New creates an Orchestrator.
func New(deps Deps, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Grades == nil {
		return nil, fmt.Errorf("pipeline: grade engine is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("pipeline: store is required")
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.New(classify.DefaultConfig())
	}
	if deps.Pyramid == nil {
		deps.Pyramid = pyramid.New(pyramid.DefaultTopGrades)
	}
	if deps.FetchPool == nil {
		deps.FetchPool = NewFetchPool(DefaultFetchWorkers)
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	return &Orchestrator{deps: deps, logger: logger}, nil
}

// Supports reports whether an adapter is registered for source.
func (o *Orchestrator) Supports(source provider.SourceType) bool {
	_, ok := o.deps.Sources[source]
	return ok
}

// run carries the per-sync state.
type run struct {
	result  *Result
	creds   Credentials
	adapter Adapter
	logger  *slog.Logger
	entered time.Time
}

// Process runs one sync for userID against source. On failure the returned
// error is a *Failure and the result is in StateFailed; nothing has been
// persisted.
func (o *Orchestrator) Process(ctx context.Context, userID string, source provider.SourceType, creds Credentials) (*Result, error) {
	start := time.Now()
	syncID := uuid.NewString()
	r := &run{
		result: &Result{SyncID: syncID, UserID: userID, Source: source, State: StateFetching},
		creds:  creds,
		logger: o.logger.With("sync_id", syncID, "user_id", userID, "source", string(source)),
	}

	err := o.execute(ctx, r)
	r.result.Duration = time.Since(start)

	if err != nil {
		failedIn := r.result.State
		r.result.State = StateFailed
		r.result.Saved, r.result.Skipped = 0, 0
		o.deps.Recorder.ObserveSync(string(source), StateFailed.String(), 0, 0)
		r.logger.Error("Sync failed", "state", failedIn.String(), "error", err)
		return r.result, &Failure{SyncID: syncID, State: failedIn, Err: err}
	}

	o.deps.Recorder.ObserveSync(string(source), StateDone.String(), r.result.Saved, r.result.Skipped)
	r.logger.Info("Sync finished", "summary", r.result.Summary())
	return r.result, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	adapter, ok := o.deps.Sources[r.result.Source]
	if !ok || adapter.Fetcher == nil || adapter.Normalizer == nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedSourceType, r.result.Source)
	}
	r.adapter = adapter

	o.enter(r, StateFetching)
	raw, err := o.deps.FetchPool.Fetch(ctx, adapter.Fetcher, r.creds)
	if err != nil {
		return &SourceFetchError{Source: r.result.Source, Err: err}
	}
	r.logger.Info("Fetch complete", "rows", raw.Len())

	o.enter(r, StateNormalizing)
	ticks, err := o.normalize(r, raw)
	if err != nil {
		return err
	}
	r.result.Ticks = ticks

	o.enter(r, StateClassifying)
	binGrades(o.deps.Grades, ticks)
	if err := o.deps.Classifier.Classify(ticks); err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	o.enter(r, StateGradeResolving)
	rebinGrades(o.deps.Grades, ticks)
	runningMax(ticks)

	o.enter(r, StateEntityBuilding)
	entries, err := o.deps.Pyramid.Build(r.result.UserID, ticks)
	if err != nil {
		return fmt.Errorf("build pyramid: %w", err)
	}
	r.result.Pyramid = entries
	r.result.Tags = extractTags(ticks)

	// Abandoning before commit leaves nothing behind.
	if err := ctx.Err(); err != nil {
		return err
	}

	o.enter(r, StateCommitting)
	if err := o.commit(ctx, r); err != nil {
		return &CommitError{Err: err}
	}

	o.enter(r, StateDone)
	return nil
}

// enter records a state transition and the time spent in the previous state.
func (o *Orchestrator) enter(r *run, next State) {
	now := time.Now()
	if !r.entered.IsZero() {
		o.deps.Recorder.ObserveStage(string(r.result.Source), r.result.State.String(), now.Sub(r.entered).Seconds())
	}
	r.result.State = next
	r.entered = now
	r.logger.Debug("Sync state", "state", next.String())
}

// normalize runs the source normalizer, fills defaults and drops rows
// without a route name.
func (o *Orchestrator) normalize(r *run, raw RawBatch) ([]*provider.Tick, error) {
	if raw == nil || raw.Len() == 0 {
		return nil, ErrEmptySourceData
	}
	normalized, err := r.adapter.Normalizer.Normalize(raw, r.result.UserID)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	ticks := make([]*provider.Tick, 0, len(normalized))
	for _, t := range normalized {
		if t == nil || strings.TrimSpace(t.RouteName) == "" {
			continue
		}
		if t.UserID == "" {
			t.UserID = r.result.UserID
		}
		if t.SourceType == "" {
			t.SourceType = r.result.Source
		}
		ticks = append(ticks, t)
	}
	if dropped := len(normalized) - len(ticks); dropped > 0 {
		r.logger.Warn("Dropped unusable rows", "count", dropped)
	}
	if len(ticks) == 0 {
		return nil, ErrEmptySourceData
	}
	if err := provider.RequireFields(ticks, provider.FieldDate); err != nil {
		return nil, err
	}
	return ticks, nil
}

func (o *Orchestrator) commit(ctx context.Context, r *run) error {
	res := r.result
	for _, t := range res.Ticks {
		if t.Send == nil {
			t.SetSend(false)
		}
	}

	return o.deps.Store.WithinTx(ctx, func(tx Tx) error {
		ids, skipped, err := tx.SaveTicks(ctx, res.UserID, res.Ticks)
		if err != nil {
			return fmt.Errorf("save ticks: %w", err)
		}
		if len(ids) != len(res.Ticks) {
			return fmt.Errorf("save ticks: got %d ids for %d ticks", len(ids), len(res.Ticks))
		}

		for i := range res.Pyramid {
			res.Pyramid[i].TickID = ids[res.Pyramid[i].TickIndex]
		}
		if err := tx.SavePyramid(ctx, res.UserID, res.Pyramid); err != nil {
			return fmt.Errorf("save pyramid: %w", err)
		}
		if err := tx.SaveTags(ctx, res.Tags, ids); err != nil {
			return fmt.Errorf("save tags: %w", err)
		}
		if err := tx.UpdateSyncTimestamp(ctx, res.UserID, res.Source, r.creds.ProfileURL); err != nil {
			return fmt.Errorf("update sync timestamp: %w", err)
		}

		res.Saved = len(res.Ticks) - skipped
		res.Skipped = skipped
		return nil
	})
}
