package pipeline

import (
	"context"

	"github.com/albapepper/cruxlog/internal/provider"
)

// Credentials identify the climber at a source. Mountain Project only needs
// a profile URL; 8a.nu needs a login.
type Credentials struct {
	ProfileURL string
	Username   string
	Password   string
}

// RawBatch is whatever a source gateway returns. Only the matching
// normalizer knows its concrete type.
type RawBatch interface {
	Len() int
}

// Fetcher retrieves a raw batch from a source. Timeouts and retries are its
// own business.
type Fetcher interface {
	Fetch(ctx context.Context, creds Credentials) (RawBatch, error)
}

// Normalizer maps a raw batch onto canonical ticks. It must populate at
// least route name, raw grade and tick date.
type Normalizer interface {
	Normalize(raw RawBatch, userID string) ([]*provider.Tick, error)
}

// Adapter pairs a source gateway with its normalizer.
type Adapter struct {
	Fetcher    Fetcher
	Normalizer Normalizer
}

// Store is the persistence gateway. Every call for one sync runs inside a
// single transaction; if fn returns an error nothing is persisted.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the persistence surface available inside a transaction.
type Tx interface {
	// SaveTicks inserts ticks, silently skipping any that duplicate an
	// existing (route name, tick date) for the user. The returned IDs are
	// aligned with ticks; a skipped tick maps to the existing row's ID.
	SaveTicks(ctx context.Context, userID string, ticks []*provider.Tick) (ids []int64, skipped int, err error)

	// SavePyramid replaces the user's pyramid.
	SavePyramid(ctx context.Context, userID string, entries []provider.PyramidEntry) error

	// SaveTags creates missing tags and links them to the ticks at the given
	// positions of ids.
	SaveTags(ctx context.Context, tags []provider.Tag, ids []int64) error

	UpdateSyncTimestamp(ctx context.Context, userID string, source provider.SourceType, profileURL string) error
}

// Recorder receives pipeline telemetry.
type Recorder interface {
	ObserveStage(source, stage string, seconds float64)
	ObserveSync(source, status string, ticks, skipped int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, string, float64) {}
func (nopRecorder) ObserveSync(string, string, int, int) {}
