package classify

import (
	"regexp"
	"strings"
)

// words compiles a case-insensitive matcher for any of the given words or
// phrases, anchored on word boundaries.
func words(ws ...string) *regexp.Regexp {
	quoted := make([]string, len(ws))
	for i, w := range ws {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// rule pairs a tag with the pattern that selects it.
type rule[T any] struct {
	tag T
	re  *regexp.Regexp
}

// firstMatch evaluates rules top to bottom and returns the first tag whose
// pattern matches text.
func firstMatch[T any](rules []rule[T], text string) (T, bool) {
	var zero T
	if strings.TrimSpace(text) == "" {
		return zero, false
	}
	for _, r := range rules {
		if r.re.MatchString(text) {
			return r.tag, true
		}
	}
	return zero, false
}
