package pipeline

import (
	"sort"

	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/provider"
)

// binGrades is the discipline-free pass: every tick gets a code so the
// classifier can use the boulder and route ranges as a signal.
func binGrades(engine *grade.Engine, ticks []*provider.Tick) {
	grades := make([]string, len(ticks))
	for i, t := range ticks {
		grades[i] = t.RouteGrade
	}
	codes := engine.Codes(grades, provider.DisciplineUnset)
	for i, t := range ticks {
		t.BinnedCode = codes[i]
		t.Mark(provider.FieldBinnedCode)
	}
}

// rebinGrades re-resolves codes once disciplines are known, so a lowercase
// Font grade on a boulder lands in the boulder range, and fills the
// canonical display grade.
func rebinGrades(engine *grade.Engine, ticks []*provider.Tick) {
	groups := make(map[provider.Discipline][]int)
	for i, t := range ticks {
		groups[t.Discipline] = append(groups[t.Discipline], i)
	}
	for d, idx := range groups {
		grades := make([]string, len(idx))
		for j, i := range idx {
			grades[j] = ticks[i].RouteGrade
		}
		codes := engine.Codes(grades, d)
		for j, i := range idx {
			// A discipline hint only ever adds information.
			if codes[j] != grade.InvalidCode {
				ticks[i].BinnedCode = codes[j]
			}
		}
	}
	for _, t := range ticks {
		g, err := engine.Grade(t.BinnedCode)
		if err != nil {
			g = grade.InvalidGradeStr
		}
		t.BinnedGrade = g
	}
}

// runningMax walks the batch in ascending date order and writes each tick's
// snapshot of the per-discipline max sent codes, including its own send,
// along with its difficulty category relative to the max before it.
//
// Only sends advance a column, and only with a code from the column's own
// family. Route aggregates every roped discipline.
func runningMax(ticks []*provider.Tick) {
	order := make([]int, len(ticks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ticks[order[a]].Day().Before(ticks[order[b]].Day())
	})

	var cur provider.MaxSnapshot
	for _, i := range order {
		t := ticks[i]
		t.DifficultyCategory = difficulty(t, cur)

		if t.IsSend() {
			advance(&cur, t.Discipline, t.BinnedCode)
		}
		t.CurMax = cur
		t.Mark(provider.FieldRunningMax)
	}
}

func advance(cur *provider.MaxSnapshot, d provider.Discipline, code int) {
	prior, ok := cur.For(d)
	if !ok || code <= prior || !sameFamily(d, code) {
		return
	}
	cur.Set(d, code)
	if !d.IsBoulder() && code > cur.Route {
		cur.Route = code
	}
}

func sameFamily(d provider.Discipline, code int) bool {
	if d.IsBoulder() {
		return grade.IsBoulderCode(code)
	}
	return grade.IsRouteCode(code)
}

// difficulty grades a tick against the max of its discipline before it.
func difficulty(t *provider.Tick, prior provider.MaxSnapshot) string {
	best, ok := prior.For(t.Discipline)
	if !ok || t.BinnedCode == grade.InvalidCode || !sameFamily(t.Discipline, t.BinnedCode) {
		return provider.DifficultyOther
	}
	if best == 0 {
		return provider.DifficultyProject
	}
	switch below := best - t.BinnedCode; {
	case below <= 0:
		return provider.DifficultyProject
	case below == 1:
		return provider.DifficultyTier2
	case below == 2:
		return provider.DifficultyTier3
	case below == 3:
		return provider.DifficultyTier4
	}
	return provider.DifficultyBaseVolume
}
