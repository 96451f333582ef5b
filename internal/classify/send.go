package classify

import (
	"strings"

	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/provider"
)

var (
	boulderSendStyleRe = words("send", "sent", "flash", "flashed", "onsight", "topped", "redpoint")
	boulderSendNotesRe = words("sent", "send", "topped", "topped out", "flash", "flashed", "finally")
	boulderAttemptRe   = words("attempt", "attempts", "attempted", "working", "project", "projecting", "tried", "no send")
	ropedSendStyleRe   = words("onsight", "flash", "redpoint", "pinkpoint", "send", "sent", "clean")
	ropedLeadRe        = words("lead", "led")
	ropedNegativeRe    = words("fell", "hung", "fell/hung", "attempt", "attempted", "working", "project", "projecting")
)

// Sends returns the send flag for every tick. When any tick in the batch
// carries an explicit flag from the source, the flags are trusted for the
// whole batch and unflagged ticks are attempts. Otherwise the keyword rules
// run per discipline, which must be populated first.
func (c *Classifier) Sends(ticks []*provider.Tick) []bool {
	out := make([]bool, len(ticks))
	if hasSendFlags(ticks) {
		for i, t := range ticks {
			out[i] = t.IsSend()
		}
		return out
	}
	for i, t := range ticks {
		if t.Discipline.IsBoulder() || (t.Discipline == provider.DisciplineUnset && grade.IsBoulderCode(t.BinnedCode)) {
			out[i] = boulderSend(t)
		} else {
			out[i] = ropedSend(t)
		}
	}
	return out
}

func hasSendFlags(ticks []*provider.Tick) bool {
	for _, t := range ticks {
		if t.Send != nil {
			return true
		}
	}
	return false
}

// boulderSend: attempt keywords anywhere win over any send keyword.
func boulderSend(t *provider.Tick) bool {
	if boulderAttemptRe.MatchString(t.LeadStyle) || boulderAttemptRe.MatchString(t.Notes) {
		return false
	}
	if boulderSendStyleRe.MatchString(t.LeadStyle) {
		return true
	}
	return strings.TrimSpace(t.LeadStyle) == "" && boulderSendNotesRe.MatchString(t.Notes)
}

func ropedSend(t *provider.Tick) bool {
	if ropedNegativeRe.MatchString(t.LeadStyle) {
		return false
	}
	if ropedSendStyleRe.MatchString(t.LeadStyle) {
		return true
	}
	return ropedLeadRe.MatchString(t.LeadStyle) && !ropedNegativeRe.MatchString(t.Notes)
}
