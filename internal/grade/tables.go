package grade

import (
	"sort"
	"strings"
)

// System is a grading system.
type System string

const (
	SystemYDS    System = "yds"
	SystemFrench System = "french"
	SystemVScale System = "v_scale"
	SystemFont   System = "font"
)

// Family groups grading systems whose codes are comparable.
type Family int

const (
	FamilyNone Family = iota
	FamilyRoute
	FamilyBoulder
)

// Family returns the grade family a system belongs to.
func (s System) Family() Family {
	switch s {
	case SystemYDS, SystemFrench:
		return FamilyRoute
	case SystemVScale, SystemFont:
		return FamilyBoulder
	}
	return FamilyNone
}

// ParseSystem maps a user-supplied name onto a System.
func ParseSystem(s string) (System, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yds", "us":
		return SystemYDS, true
	case "french", "fr", "sport_french":
		return SystemFrench, true
	case "v", "v_scale", "vscale", "hueco":
		return SystemVScale, true
	case "font", "fontainebleau", "fb":
		return SystemFont, true
	}
	return "", false
}

// Code ranges. Every boulder code is strictly greater than every route code
// so one comparison tells the families apart.
const (
	InvalidCode     = 0
	MinRouteCode    = 1
	MaxRouteCode    = 28
	MinBoulderCode  = 101
	MaxBoulderCode  = 118
	InvalidGradeStr = "Invalid Grade"
)

// IsRouteCode reports whether code is in the route range.
func IsRouteCode(code int) bool { return code >= MinRouteCode && code <= MaxRouteCode }

// IsBoulderCode reports whether code is in the boulder range.
func IsBoulderCode(code int) bool { return code >= MinBoulderCode && code <= MaxBoulderCode }

// FamilyOf returns the family of a code, FamilyNone for 0 or out-of-range.
func FamilyOf(code int) Family {
	switch {
	case IsRouteCode(code):
		return FamilyRoute
	case IsBoulderCode(code):
		return FamilyBoulder
	}
	return FamilyNone
}

// codeTable maps each ordinal code to its equivalent cleaned grade tokens.
// The first token is the canonical display form. Font tokens carry an "f"
// prefix so they never collide with French route tokens.
var codeTable = map[int][]string{
	1:  {"5.4", "5.0", "5.1", "5.2", "5.3", "3", "4a"},
	2:  {"5.5", "4b"},
	3:  {"5.6", "4c"},
	4:  {"5.7", "5a"},
	5:  {"5.8", "5b"},
	6:  {"5.9", "5c"},
	7:  {"5.10a", "5.10-", "6a"},
	8:  {"5.10b", "5.10", "6a+"},
	9:  {"5.10c", "5.10+", "6b"},
	10: {"5.10d", "6b+"},
	11: {"5.11a", "5.11-", "6c"},
	12: {"5.11b", "5.11"},
	13: {"5.11c", "5.11+", "6c+"},
	14: {"5.11d", "7a"},
	15: {"5.12a", "5.12-", "7a+"},
	16: {"5.12b", "5.12", "7b"},
	17: {"5.12c", "5.12+", "7b+"},
	18: {"5.12d", "7c"},
	19: {"5.13a", "5.13-", "7c+"},
	20: {"5.13b", "5.13", "8a"},
	21: {"5.13c", "5.13+", "8a+"},
	22: {"5.13d", "8b"},
	23: {"5.14a", "5.14-", "8b+"},
	24: {"5.14b", "5.14", "8c"},
	25: {"5.14c", "5.14+", "8c+"},
	26: {"5.14d", "9a"},
	27: {"5.15a", "5.15-", "9a+"},
	28: {"5.15b", "5.15", "5.15c", "5.15+", "5.15d", "9b", "9b+", "9c"},

	101: {"V0", "vb", "v0", "f3", "f4", "f4+"},
	102: {"V1", "v1", "f5"},
	103: {"V2", "v2", "f5+"},
	104: {"V3", "v3", "f6a", "f6a+"},
	105: {"V4", "v4", "f6b", "f6b+"},
	106: {"V5", "v5", "f6c", "f6c+"},
	107: {"V6", "v6", "f7a"},
	108: {"V7", "v7", "f7a+"},
	109: {"V8", "v8", "f7b", "f7b+"},
	110: {"V9", "v9", "f7c"},
	111: {"V10", "v10", "f7c+"},
	112: {"V11", "v11", "f8a"},
	113: {"V12", "v12", "f8a+"},
	114: {"V13", "v13", "f8b"},
	115: {"V14", "v14", "f8b+"},
	116: {"V15", "v15", "f8c"},
	117: {"V16", "v16", "f8c+"},
	118: {"V17", "v17", "f9a"},
}

// Route conversion: French <-> YDS.
var frenchToYDS = map[string]string{
	"3":   "5.3",
	"4a":  "5.4",
	"4b":  "5.5",
	"4c":  "5.6",
	"5a":  "5.7",
	"5b":  "5.8",
	"5c":  "5.9",
	"6a":  "5.10a",
	"6a+": "5.10b",
	"6b":  "5.10c",
	"6b+": "5.10d",
	"6c":  "5.11a",
	"6c+": "5.11c",
	"7a":  "5.11d",
	"7a+": "5.12a",
	"7b":  "5.12b",
	"7b+": "5.12c",
	"7c":  "5.12d",
	"7c+": "5.13a",
	"8a":  "5.13b",
	"8a+": "5.13c",
	"8b":  "5.13d",
	"8b+": "5.14a",
	"8c":  "5.14b",
	"8c+": "5.14c",
	"9a":  "5.14d",
	"9a+": "5.15a",
	"9b":  "5.15b",
	"9b+": "5.15c",
	"9c":  "5.15d",
}

var ydsToFrench = map[string]string{
	"5.3":   "3",
	"5.4":   "4a",
	"5.5":   "4b",
	"5.6":   "4c",
	"5.7":   "5a",
	"5.8":   "5b",
	"5.9":   "5c",
	"5.10a": "6a",
	"5.10b": "6a+",
	"5.10c": "6b",
	"5.10d": "6b+",
	"5.11a": "6c",
	"5.11b": "6c",
	"5.11c": "6c+",
	"5.11d": "7a",
	"5.12a": "7a+",
	"5.12b": "7b",
	"5.12c": "7b+",
	"5.12d": "7c",
	"5.13a": "7c+",
	"5.13b": "8a",
	"5.13c": "8a+",
	"5.13d": "8b",
	"5.14a": "8b+",
	"5.14b": "8c",
	"5.14c": "8c+",
	"5.14d": "9a",
	"5.15a": "9a+",
	"5.15b": "9b",
	"5.15c": "9b+",
	"5.15d": "9c",
}

// Boulder conversion: Font <-> V-scale.
var fontToV = map[string]string{
	"4":   "V0",
	"4+":  "V0",
	"5":   "V1",
	"5+":  "V2",
	"6A":  "V3",
	"6A+": "V3",
	"6B":  "V4",
	"6B+": "V4",
	"6C":  "V5",
	"6C+": "V5",
	"7A":  "V6",
	"7A+": "V7",
	"7B":  "V8",
	"7B+": "V8",
	"7C":  "V9",
	"7C+": "V10",
	"8A":  "V11",
	"8A+": "V12",
	"8B":  "V13",
	"8B+": "V14",
	"8C":  "V15",
	"8C+": "V16",
	"9A":  "V17",
}

var vToFont = map[string]string{
	"V0":  "4",
	"V1":  "5",
	"V2":  "5+",
	"V3":  "6A",
	"V4":  "6B",
	"V5":  "6C",
	"V6":  "7A",
	"V7":  "7A+",
	"V8":  "7B",
	"V9":  "7C",
	"V10": "7C+",
	"V11": "8A",
	"V12": "8A+",
	"V13": "8B",
	"V14": "8B+",
	"V15": "8C",
	"V16": "8C+",
	"V17": "9A",
}

// Table is the process-wide grade reference data. It is built once and
// never mutated, so it is safe to share between goroutines.
type Table struct {
	display      map[int]string
	lookup       map[string]int
	routeOrder   []string
	boulderOrder []string
}

// NewTable builds the reference table. When a token appears under several
// codes the lowest code wins.
func NewTable() *Table {
	t := &Table{
		display: make(map[int]string, len(codeTable)),
		lookup:  make(map[string]int),
	}

	codes := make([]int, 0, len(codeTable))
	for code := range codeTable {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for _, code := range codes {
		tokens := codeTable[code]
		t.display[code] = tokens[0]
		for _, tok := range tokens {
			key := strings.ToLower(tok)
			if _, exists := t.lookup[key]; !exists {
				t.lookup[key] = code
			}
		}
		if IsBoulderCode(code) {
			t.boulderOrder = append(t.boulderOrder, tokens[0])
		} else {
			t.routeOrder = append(t.routeOrder, tokens[0])
		}
	}
	return t
}

// lookupToken returns the code for a cleaned token.
func (t *Table) lookupToken(tok string) int {
	if tok == "" {
		return InvalidCode
	}
	return t.lookup[tok]
}
