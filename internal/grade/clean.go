package grade

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/albapepper/cruxlog/internal/provider"
)

var (
	fontPrefixRe  = regexp.MustCompile(`(?i)^(?:font|fb|f)[\s:\-]*([3-9][abc]?\+?)(?:[\s/]|$)`)
	upperFontRe   = regexp.MustCompile(`^[3-9][ABC]\+?$`)
	frenchShapeRe = regexp.MustCompile(`^[3-9][abc]?\+?$`)
	fontPlusRe    = regexp.MustCompile(`^[3-5]\+$`)
	letterSignRe  = regexp.MustCompile(`([abcd])[+-]$`)
	ydsRe         = regexp.MustCompile(`^5\.(\d{1,2})([abcd]|[+-])?$`)
	vRe           = regexp.MustCompile(`^v(\d{1,2}|b)$`)
	vRangeRe      = regexp.MustCompile(`^v(\d{1,2})-(\d{1,2})$`)
	modifierRe    = regexp.MustCompile(`(?i)(pg-?13|pg|[ac][0-5]|r|x)$`)
)

// clean reduces a raw grade string to a lookup token, or "" when the string
// is not a recognizable grade.
func clean(raw string, d provider.Discipline) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// "Font 7A", "fb 6c+", "f7a"
	if m := fontPrefixRe.FindStringSubmatch(s); m != nil {
		return "f" + strings.ToLower(m[1])
	}

	// Qualifiers ("R", "PG13", "A0") normally follow the grade after a space.
	tok := strings.Fields(s)[0]
	if i := strings.IndexByte(tok, '/'); i > 0 {
		tok = tok[:i]
	}

	// Font grades are written with an uppercase letter by convention.
	if upperFontRe.MatchString(tok) {
		return "f" + strings.ToLower(tok)
	}

	tok = strings.ToLower(tok)
	switch {
	case tok == "v-easy" || tok == "veasy" || tok == "vb":
		return "vb"

	case strings.HasPrefix(tok, "v"):
		if m := vRangeRe.FindStringSubmatch(tok); m != nil {
			tok = "v" + m[1]
		}
		tok = strings.TrimRight(tok, "+-")
		if vRe.MatchString(tok) {
			return tok
		}
		return ""

	case strings.HasPrefix(tok, "5."):
		return cleanYDS(tok)

	case frenchShapeRe.MatchString(tok):
		// French has no letterless "N+" grades, so without a hint they are Font.
		if d.IsBoulder() || (d == provider.DisciplineUnset && fontPlusRe.MatchString(tok)) {
			return "f" + tok
		}
		return tok
	}
	return ""
}

// cleanYDS strips glued qualifiers from a YDS token and validates it.
func cleanYDS(tok string) string {
	for {
		stripped := modifierRe.ReplaceAllString(tok, "")
		if stripped == tok {
			break
		}
		tok = stripped
	}
	// "5.11d+" reads as the lettered grade.
	tok = letterSignRe.ReplaceAllString(tok, "$1")

	m := ydsRe.FindStringSubmatch(tok)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > 15 {
		return ""
	}
	// Below 5.10 letters and +/- carry no ordinal meaning.
	if n < 10 {
		return "5." + strconv.Itoa(n)
	}
	return "5." + strconv.Itoa(n) + m[2]
}
