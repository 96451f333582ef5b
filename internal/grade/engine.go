// Package grade converts climbing grades between grading systems and a
// unified ordinal code space.
//
// Route grades (YDS, French) map to codes 1-28; boulder grades (V-scale,
// Font) map to codes 101-118. Code 0 means the grade was not recognized.
// Parsing never fails: malformed input degrades to code 0.
package grade

import (
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/albapepper/cruxlog/internal/provider"
)

// Default engine configuration.
const (
	DefaultCacheSize = 1024
	DefaultChunkSize = 100
)

// ErrInvalidGradeCode is returned when a display string is requested for a
// code that was never registered.
var ErrInvalidGradeCode = errors.New("invalid grade code")

type cacheKey struct {
	grade      string
	discipline provider.Discipline
}

// Engine resolves grades against a shared Table with a bounded LRU memo.
// It is safe for concurrent use.
type Engine struct {
	table     *Table
	cache     *lru.Cache[cacheKey, int]
	chunkSize int
	observe   func(hit bool)
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	cacheSize int
	chunkSize int
	observe   func(hit bool)
}

// WithCacheSize bounds the number of memoized (grade, discipline) pairs.
func WithCacheSize(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithChunkSize sets the batch size used by Codes.
func WithChunkSize(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithCacheObserver registers a callback invoked on every memo lookup.
func WithCacheObserver(fn func(hit bool)) Option {
	return func(o *engineOptions) { o.observe = fn }
}

// NewEngine creates an engine over table. A nil table builds a fresh one.
func NewEngine(table *Table, opts ...Option) (*Engine, error) {
	o := engineOptions{
		cacheSize: DefaultCacheSize,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if table == nil {
		table = NewTable()
	}

	cache, err := lru.New[cacheKey, int](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create grade cache: %w", err)
	}

	return &Engine{
		table:     table,
		cache:     cache,
		chunkSize: o.chunkSize,
		observe:   o.observe,
	}, nil
}

// Code returns the ordinal code for a raw grade string, or 0 when the grade
// is not recognized. The discipline only disambiguates Font from French.
func (e *Engine) Code(raw string, d provider.Discipline) int {
	key := cacheKey{grade: raw, discipline: d}
	if code, ok := e.cache.Get(key); ok {
		e.record(true)
		return code
	}
	e.record(false)

	code := e.table.lookupToken(clean(raw, d))
	e.cache.Add(key, code)
	return code
}

// Codes resolves a batch of grades. The result always has the same length and
// order as the input; unrecognized grades yield 0.
func (e *Engine) Codes(grades []string, d provider.Discipline) []int {
	out := make([]int, len(grades))
	for start := 0; start < len(grades); start += e.chunkSize {
		end := min(start+e.chunkSize, len(grades))
		for i := start; i < end; i++ {
			out[i] = e.Code(grades[i], d)
		}
	}
	return out
}

// Grade returns the canonical display string for a code. Code 0 maps to
// "Invalid Grade"; any other unregistered code is an error.
func (e *Engine) Grade(code int) (string, error) {
	if code == InvalidCode {
		return InvalidGradeStr, nil
	}
	if g, ok := e.table.display[code]; ok {
		return g, nil
	}
	return "", fmt.Errorf("%w: %d", ErrInvalidGradeCode, code)
}

// Convert translates a grade literally between two systems of the same
// family. It reports false when the grade has no known equivalent or when the
// systems belong to different families.
func (e *Engine) Convert(raw string, from, to System) (string, bool) {
	if from.Family() == FamilyNone || from.Family() != to.Family() {
		return "", false
	}

	g := normalizeLiteral(raw, from)
	if g == "" {
		return "", false
	}

	if from == to {
		if _, ok := literalTable(from)[g]; ok {
			return g, true
		}
		return "", false
	}

	var table map[string]string
	switch {
	case from == SystemFrench && to == SystemYDS:
		table = frenchToYDS
	case from == SystemYDS && to == SystemFrench:
		table = ydsToFrench
	case from == SystemFont && to == SystemVScale:
		table = fontToV
	case from == SystemVScale && to == SystemFont:
		table = vToFont
	}
	out, ok := table[g]
	return out, ok
}

// SortedGrades returns the canonical ascending difficulty ordering for a
// discipline's grade family.
func (e *Engine) SortedGrades(d provider.Discipline) []string {
	src := e.table.routeOrder
	if d.IsBoulder() {
		src = e.table.boulderOrder
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// SortedCodes returns the registered codes of a discipline's family in
// ascending order.
func (e *Engine) SortedCodes(d provider.Discipline) []int {
	lo, hi := MinRouteCode, MaxRouteCode
	if d.IsBoulder() {
		lo, hi = MinBoulderCode, MaxBoulderCode
	}
	out := make([]int, 0, hi-lo+1)
	for c := lo; c <= hi; c++ {
		if _, ok := e.table.display[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// CacheLen reports the number of memoized entries.
func (e *Engine) CacheLen() int { return e.cache.Len() }

func (e *Engine) record(hit bool) {
	if e.observe != nil {
		e.observe(hit)
	}
}

// normalizeLiteral puts a grade into the key form of the literal tables.
func normalizeLiteral(raw string, s System) string {
	g := strings.TrimSpace(raw)
	if s == SystemFont {
		lower := strings.ToLower(g)
		for _, prefix := range []string{"font", "fb", "f"} {
			if strings.HasPrefix(lower, prefix) {
				lower = strings.TrimSpace(lower[len(prefix):])
				break
			}
		}
		g = lower
	}
	if g == "" {
		return ""
	}
	g = strings.Fields(g)[0]
	if i := strings.IndexByte(g, '/'); i > 0 {
		g = g[:i]
	}
	switch s {
	case SystemYDS, SystemFrench:
		return strings.ToLower(g)
	case SystemVScale:
		return strings.ToUpper(strings.TrimRight(g, "+-"))
	case SystemFont:
		return strings.ToUpper(g)
	}
	return ""
}

func literalTable(s System) map[string]string {
	switch s {
	case SystemYDS:
		return ydsToFrench
	case SystemFrench:
		return frenchToYDS
	case SystemVScale:
		return vToFont
	case SystemFont:
		return fontToV
	}
	return nil
}
