// Package pyramid builds the performance pyramid: per discipline, the
// climber's hardest sends and the effort it took to get them.
package pyramid

import (
	"regexp"
	"sort"
	"time"

	"github.com/albapepper/cruxlog/internal/classify"
	"github.com/albapepper/cruxlog/internal/provider"
)

// DefaultTopGrades is how many distinct sent grades per discipline make it
// into the pyramid.
const DefaultTopGrades = 4

var firstGoRe = regexp.MustCompile(`(?i)\b(?:onsight|flash)\b`)

// Builder selects pyramid entries from an enriched batch.
type Builder struct {
	topGrades int
}

// New creates a Builder keeping topGrades distinct grades per discipline.
// Values below 1 use DefaultTopGrades.
func New(topGrades int) *Builder {
	if topGrades < 1 {
		topGrades = DefaultTopGrades
	}
	return &Builder{topGrades: topGrades}
}

// Build returns the pyramid entries for one user's batch. An empty batch or a
// batch without sends yields no entries. A batch that skipped the date,
// discipline, send or grade columns fails with *provider.MissingFieldError.
//
// Entries are ordered by discipline, then grade descending, then send date.
func (b *Builder) Build(userID string, ticks []*provider.Tick) ([]provider.PyramidEntry, error) {
	if len(ticks) == 0 {
		return []provider.PyramidEntry{}, nil
	}
	if err := provider.RequireFields(ticks,
		provider.FieldDate,
		provider.FieldDiscipline,
		provider.FieldSend,
		provider.FieldBinnedCode,
	); err != nil {
		return nil, err
	}

	byRoute := make(map[string][]int)
	for i, t := range ticks {
		byRoute[t.RouteKey()] = append(byRoute[t.RouteKey()], i)
	}

	entries := []provider.PyramidEntry{}
	for _, d := range provider.Disciplines {
		sends := sendsFor(ticks, d)
		if len(sends) == 0 {
			continue
		}
		top := topCodes(ticks, sends, b.topGrades)

		var picked []int
		for _, i := range sends {
			if top[ticks[i].BinnedCode] {
				picked = append(picked, i)
			}
		}
		sort.SliceStable(picked, func(x, y int) bool {
			a, c := ticks[picked[x]], ticks[picked[y]]
			if a.BinnedCode != c.BinnedCode {
				return a.BinnedCode > c.BinnedCode
			}
			return a.Day().Before(c.Day())
		})

		for _, i := range picked {
			entries = append(entries, entryFor(userID, ticks, i, byRoute[ticks[i].RouteKey()]))
		}
	}
	return entries, nil
}

func sendsFor(ticks []*provider.Tick, d provider.Discipline) []int {
	var out []int
	for i, t := range ticks {
		if t.Discipline == d && t.IsSend() && t.BinnedCode != 0 {
			out = append(out, i)
		}
	}
	return out
}

// topCodes returns the n highest distinct codes among the sends.
func topCodes(ticks []*provider.Tick, sends []int, n int) map[int]bool {
	seen := make(map[int]bool)
	var codes []int
	for _, i := range sends {
		c := ticks[i].BinnedCode
		if !seen[c] {
			seen[c] = true
			codes = append(codes, c)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(codes)))
	if len(codes) > n {
		codes = codes[:n]
	}
	top := make(map[int]bool, len(codes))
	for _, c := range codes {
		top[c] = true
	}
	return top
}

func entryFor(userID string, ticks []*provider.Tick, sendIdx int, route []int) provider.PyramidEntry {
	send := ticks[sendIdx]
	day := send.Day()

	var attempts []*provider.Tick
	for _, i := range route {
		if !ticks[i].Day().After(day) {
			attempts = append(attempts, ticks[i])
		}
	}

	numSends := 0
	days := make(map[time.Time]struct{})
	pitches := 0
	for _, a := range attempts {
		if a.IsSend() && a.BinnedCode == send.BinnedCode {
			numSends++
		}
		days[a.Day()] = struct{}{}
		if a.Pitches > 0 {
			pitches += a.Pitches
		} else {
			pitches++
		}
	}

	var numAttempts int
	switch {
	case firstGoRe.MatchString(send.LeadStyle):
		numAttempts = 1
	case !classify.IsMultipitch(send):
		numAttempts = pitches
	default:
		numAttempts = len(attempts)
	}
	if numAttempts < numSends {
		numAttempts = numSends
	}

	return provider.PyramidEntry{
		UserID:       userID,
		TickIndex:    sendIdx,
		RouteName:    send.RouteName,
		Location:     send.Location,
		Discipline:   send.Discipline,
		SendDate:     day,
		BinnedCode:   send.BinnedCode,
		BinnedGrade:  send.BinnedGrade,
		NumAttempts:  numAttempts,
		DaysAttempts: len(days),
		NumSends:     numSends,
		CruxAngle:    classify.PredictCruxAngle(send.Notes),
		CruxEnergy:   classify.PredictCruxEnergy(send.Notes),
	}
}
