package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/albapepper/cruxlog/internal/provider"
)

var hashtagRe = regexp.MustCompile(`#([A-Za-z][A-Za-z0-9_-]*)`)

// canonicalTags maps normalized raw labels onto the tag names we store.
// Labels not listed here are dropped.
var canonicalTags = map[string]string{
	"classic":      "classic",
	"crimp":        "crimpy",
	"crimps":       "crimpy",
	"crimpy":       "crimpy",
	"pocket":       "pockets",
	"pockets":      "pockets",
	"pockety":      "pockets",
	"sloper":       "slopers",
	"slopers":      "slopers",
	"slopey":       "slopers",
	"jug":          "jugs",
	"jugs":         "jugs",
	"juggy":        "jugs",
	"tufa":         "tufa",
	"tufas":        "tufa",
	"crack":        "crack",
	"cracks":       "crack",
	"offwidth":     "offwidth",
	"ow":           "offwidth",
	"chimney":      "chimney",
	"roof":         "roof",
	"slab":         "slab",
	"overhang":     "overhang",
	"overhanging":  "overhang",
	"steep":        "overhang",
	"dyno":         "dyno",
	"highball":     "highball",
	"traverse":     "traverse",
	"sit_start":    "sit_start",
	"sitstart":     "sit_start",
	"sds":          "sit_start",
	"reachy":       "reachy",
	"morpho":       "reachy",
	"endurance":    "endurance",
	"technical":    "technical",
	"powerful":     "powerful",
	"athletic":     "powerful",
	"cruxy":        "cruxy",
	"sandbag":      "sandbag",
	"sandbagged":   "sandbag",
	"hard":         "sandbag",
	"soft":         "soft",
	"runout":       "runout",
	"danger":       "runout",
	"loose":        "loose",
	"first_ascent": "first_ascent",
	"fa":           "first_ascent",
	"second_go":    "second_go",
}

func normalizeTag(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "#")
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

// extractTags standardizes source tags and note hashtags into deduplicated
// tags, each with the ascending batch positions it applies to.
func extractTags(ticks []*provider.Tick) []provider.Tag {
	index := make(map[string][]int)
	for i, t := range ticks {
		labels := append([]string(nil), t.RawTags...)
		for _, m := range hashtagRe.FindAllStringSubmatch(t.Notes, -1) {
			labels = append(labels, m[1])
		}

		seen := make(map[string]bool, len(labels))
		for _, l := range labels {
			name, ok := canonicalTags[normalizeTag(l)]
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			index[name] = append(index[name], i)
		}
	}

	tags := make([]provider.Tag, 0, len(index))
	for name, idx := range index {
		tags = append(tags, provider.Tag{Name: name, TickIndices: idx})
	}
	sort.Slice(tags, func(a, b int) bool { return tags[a].Name < tags[b].Name })
	return tags
}
