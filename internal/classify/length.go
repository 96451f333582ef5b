package classify

import (
	"regexp"
	"strconv"

	"github.com/albapepper/cruxlog/internal/provider"
)

var (
	pitchMarkerRe = regexp.MustCompile(`(?i)\bp\d+\b`)
	simulRe       = regexp.MustCompile(`(?i)\bsimul`)
	linkedRe      = regexp.MustCompile(`(?i)\blinked\s+pitches\b`)
	nPitchRe      = regexp.MustCompile(`(?i)\b(\d+)[\s-]?pitch`)
)

// Lengths buckets every tick by pitch count and length. Multipitch evidence
// always wins over the numeric length.
func (c *Classifier) Lengths(ticks []*provider.Tick) []provider.LengthCategory {
	out := make([]provider.LengthCategory, len(ticks))
	for i, t := range ticks {
		out[i] = c.length(t)
	}
	return out
}

func (c *Classifier) length(t *provider.Tick) provider.LengthCategory {
	if IsMultipitch(t) {
		return provider.LengthMultipitch
	}
	switch {
	case t.Length <= 0:
		return provider.LengthUnknown
	case t.Length < c.cfg.ShortMax:
		return provider.LengthShort
	case t.Length < c.cfg.MediumMax:
		return provider.LengthMedium
	case t.Length < c.cfg.LongMax:
		return provider.LengthLong
	}
	return provider.LengthMultipitch
}

// IsMultipitch reports whether a tick is a multipitch climb by pitch count
// or notes.
func IsMultipitch(t *provider.Tick) bool {
	return t.Pitches > 1 || multipitchNotes(t.Notes)
}

func multipitchNotes(notes string) bool {
	if notes == "" {
		return false
	}
	if pitchMarkerRe.MatchString(notes) || simulRe.MatchString(notes) || linkedRe.MatchString(notes) {
		return true
	}
	for _, m := range nPitchRe.FindAllStringSubmatch(notes, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 2 {
			return true
		}
	}
	return false
}
