// Package classify tags climbing ticks along independent taxonomies:
// discipline, send/attempt, length, season and crux characteristics.
//
// Every function takes the whole batch for one sync and returns a slice of
// the same length and order. Several rules compare a record against its
// siblings, so records are never classified one at a time. Malformed input
// never fails a batch; it degrades to an unresolved sentinel.
package classify

import (
	"github.com/albapepper/cruxlog/internal/provider"
)

// Default length bins in feet.
const (
	DefaultShortMax  = 60
	DefaultMediumMax = 85
	DefaultLongMax   = 130
)

// Config holds the heuristic thresholds. Changing them changes
// classification output for existing logbooks.
type Config struct {
	ShortMax  int // lengths below this are short
	MediumMax int // below this medium
	LongMax   int // below this long, otherwise multipitch
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ShortMax:  DefaultShortMax,
		MediumMax: DefaultMediumMax,
		LongMax:   DefaultLongMax,
	}
}

// Classifier applies the batch classification rules.
type Classifier struct {
	cfg Config
}

// New creates a Classifier. Zero thresholds fall back to the defaults.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.ShortMax <= 0 {
		cfg.ShortMax = def.ShortMax
	}
	if cfg.MediumMax <= 0 {
		cfg.MediumMax = def.MediumMax
	}
	if cfg.LongMax <= 0 {
		cfg.LongMax = def.LongMax
	}
	return &Classifier{cfg: cfg}
}

// Config returns the thresholds in effect.
func (c *Classifier) Config() Config { return c.cfg }

// Classify runs every classifier over the batch and writes the results onto
// the ticks. Discipline inference reads binned codes, so the batch must have
// been through the discipline-free grade pass first.
//
// Explicit send flags set by a normalizer are kept. See Sends for how a
// batch with flags on only some ticks is resolved.
func (c *Classifier) Classify(ticks []*provider.Tick) error {
	if err := provider.RequireFields(ticks, provider.FieldBinnedCode); err != nil {
		return err
	}

	disciplines := c.Disciplines(ticks)
	for i, t := range ticks {
		t.Discipline = disciplines[i]
		t.Mark(provider.FieldDiscipline)
	}

	sends := c.Sends(ticks)
	lengths := c.Lengths(ticks)
	seasons := Seasons(ticks)
	for i, t := range ticks {
		t.SetSend(sends[i])
		t.LengthCategory = lengths[i]
		t.SeasonCategory = seasons[i]
		t.CruxAngle = PredictCruxAngle(t.Notes)
		t.CruxEnergy = PredictCruxEnergy(t.Notes)
		t.Mark(provider.FieldLengthCategory, provider.FieldSeason, provider.FieldCrux)
	}
	return nil
}
