package pipeline

import (
	"errors"
	"fmt"

	"github.com/albapepper/cruxlog/internal/provider"
)

var (
	// ErrUnsupportedSourceType is returned before any I/O when no adapter is
	// registered for the requested source.
	ErrUnsupportedSourceType = errors.New("unsupported source type")

	// ErrEmptySourceData is returned when normalization yields no usable
	// rows. A sync with nothing to persist is a failure.
	ErrEmptySourceData = errors.New("empty source data")
)

// SourceFetchError wraps a network or auth failure from a source gateway.
// The gateway error is available unchanged through Unwrap.
type SourceFetchError struct {
	Source provider.SourceType
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// CommitError wraps a persistence failure. The whole batch was rolled back.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Failure is the single terminal error of a failed sync. It records the
// state the sync was in when it failed.
type Failure struct {
	SyncID string
	State  State
	Err    error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("sync %s failed while %s: %v", e.SyncID, e.State, e.Err)
}

func (e *Failure) Unwrap() error { return e.Err }
