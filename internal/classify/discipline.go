package classify

import (
	"regexp"
	"strings"

	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/provider"
)

var (
	topRopeStyleRe = words("tr", "top rope", "toprope", "top-rope", "follow", "followed", "second", "seconded")
	leadStyleRe    = words("lead", "led", "onsight", "flash", "redpoint", "pinkpoint", "fell", "hung", "fell/hung")
	gearNotesRe    = words("gear", "cam", "cams", "nut", "nuts", "placed", "placements", "rack", "trad")
	boltNotesRe    = words("bolt", "bolts", "bolted", "clipped", "clips", "quickdraws", "draws", "sport")
	vGradeRe       = regexp.MustCompile(`(?i)^\s*v(\d|b|-?easy)`)
	routeTypeSplit = regexp.MustCompile(`[^a-z]+`)
)

// notesRules infers a discipline from free text when the source gave no
// route type. Order matters.
var notesRules = []rule[provider.Discipline]{
	{provider.DisciplineTopRope, words("top rope", "toprope", "top-rope", "toproped", "top roped")},
	{provider.DisciplineBoulder, words("boulder", "bouldering", "crashpad", "crash pad", "pads", "highball", "problem")},
	{provider.DisciplineMixed, words("mixed", "drytool", "dry tool", "drytooling")},
	{provider.DisciplineWinterIce, words("ice", "wi2", "wi3", "wi4", "wi5", "wi6", "screws")},
	{provider.DisciplineAid, words("aid", "aided", "aiders", "etriers", "jumar", "jugged")},
	{provider.DisciplineTrad, gearNotesRe},
	{provider.DisciplineSport, boltNotesRe},
}

type routeTypes struct {
	sport, trad, tr, boulder bool
	ice, mixed, aid, alpine  bool
	snow                     bool
	count                    int
}

func parseRouteType(s string) routeTypes {
	var rt routeTypes
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "top rope", "tr")
	s = strings.ReplaceAll(s, "toprope", "tr")
	for _, tok := range routeTypeSplit.Split(s, -1) {
		var flag *bool
		switch tok {
		case "sport":
			flag = &rt.sport
		case "trad":
			flag = &rt.trad
		case "tr":
			flag = &rt.tr
		case "boulder":
			flag = &rt.boulder
		case "ice":
			flag = &rt.ice
		case "mixed":
			flag = &rt.mixed
		case "aid":
			flag = &rt.aid
		case "alpine":
			flag = &rt.alpine
		case "snow":
			flag = &rt.snow
		}
		if flag != nil && !*flag {
			*flag = true
			rt.count++
		}
	}
	return rt
}

// Disciplines resolves the discipline of every tick. Records that no rule
// resolves are left as DisciplineUnset.
//
// Rules, highest priority first:
//  1. a top-rope or follow keyword in the lead style
//  2. a boulder-range binned code
//  3. a single unambiguous route-type token
//  4. mixed, ice, snow, aid and alpine tokens
//  5. sport or trad combined with TR, settled by a lead keyword
//  6. trad combined with sport, settled by gear or bolt keywords in notes
//  7. with no route type, a V-scale grade or keywords in notes
//  8. the discipline of a resolved sibling on the same route
func (c *Classifier) Disciplines(ticks []*provider.Tick) []provider.Discipline {
	out := make([]provider.Discipline, len(ticks))
	for i, t := range ticks {
		out[i] = discipline(t)
	}

	// Siblings: one resolved tick on a route settles the others.
	known := make(map[string]provider.Discipline)
	for i, t := range ticks {
		if out[i] != provider.DisciplineUnset {
			if _, ok := known[t.RouteKey()]; !ok {
				known[t.RouteKey()] = out[i]
			}
		}
	}
	for i, t := range ticks {
		if out[i] == provider.DisciplineUnset {
			out[i] = known[t.RouteKey()]
		}
	}
	return out
}

func discipline(t *provider.Tick) provider.Discipline {
	if topRopeStyleRe.MatchString(t.LeadStyle) {
		return provider.DisciplineTopRope
	}
	if grade.IsBoulderCode(t.BinnedCode) {
		return provider.DisciplineBoulder
	}

	rt := parseRouteType(t.RouteType)
	if rt.count == 0 {
		if vGradeRe.MatchString(t.RouteGrade) {
			return provider.DisciplineBoulder
		}
		d, _ := firstMatch(notesRules, t.Notes)
		return d
	}

	if rt.count == 1 {
		switch {
		case rt.sport:
			return provider.DisciplineSport
		case rt.trad:
			return provider.DisciplineTrad
		case rt.tr:
			return provider.DisciplineTopRope
		case rt.boulder:
			return provider.DisciplineBoulder
		}
	}

	switch {
	case rt.mixed:
		return provider.DisciplineMixed
	case rt.ice, rt.snow:
		return provider.DisciplineWinterIce
	case rt.aid:
		return provider.DisciplineAid
	case rt.alpine:
		return provider.DisciplineTrad
	}

	if rt.trad && rt.sport {
		switch {
		case gearNotesRe.MatchString(t.Notes):
			return provider.DisciplineTrad
		case boltNotesRe.MatchString(t.Notes):
			return provider.DisciplineSport
		}
		return provider.DisciplineUnset
	}

	if rt.tr && (rt.sport || rt.trad) {
		if !leadStyleRe.MatchString(t.LeadStyle) {
			return provider.DisciplineTopRope
		}
		if rt.sport {
			return provider.DisciplineSport
		}
		return provider.DisciplineTrad
	}

	if rt.boulder {
		return provider.DisciplineBoulder
	}
	return provider.DisciplineUnset
}
