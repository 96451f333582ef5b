package grade

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/cruxlog/internal/provider"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(nil, opts...)
	require.NoError(t, err)
	return e
}

func TestCodeRecognizesSystems(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		grade      string
		discipline provider.Discipline
		want       int
	}{
		{"5.9", provider.DisciplineUnset, 6},
		{"5.9+", provider.DisciplineUnset, 6},
		{"5.10a", provider.DisciplineSport, 7},
		{"5.10b/c", provider.DisciplineSport, 8},
		{"5.10b/c PG13", provider.DisciplineTrad, 8},
		{"5.11d R", provider.DisciplineTrad, 14},
		{"5.12a X", provider.DisciplineTrad, 15},
		{"5.9 A0", provider.DisciplineAid, 6},
		{"5.10aR", provider.DisciplineTrad, 7},
		{"5.11", provider.DisciplineSport, 12},
		{"5.11+", provider.DisciplineSport, 13},
		{"7a", provider.DisciplineUnset, 14},
		{"7a", provider.DisciplineSport, 14},
		{"6c+", provider.DisciplineSport, 13},
		{"V5", provider.DisciplineUnset, 106},
		{"v3-4", provider.DisciplineBoulder, 104},
		{"V0-", provider.DisciplineBoulder, 101},
		{"V-easy", provider.DisciplineBoulder, 101},
		{"V4 PG13", provider.DisciplineBoulder, 105},
		{"7a", provider.DisciplineBoulder, 107},
		{"7A", provider.DisciplineUnset, 107},
		{"6B+/6C", provider.DisciplineUnset, 105},
		{"Font 7A+", provider.DisciplineUnset, 108},
		{"f8a", provider.DisciplineUnset, 112},
		{"5+", provider.DisciplineUnset, 103},
		{"4+", provider.DisciplineUnset, 101},
		{"5+", provider.DisciplineSport, 0},
		{"5.11d+", provider.DisciplineUnset, 14},
		{"5.10a- R", provider.DisciplineTrad, 7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.grade, tt.discipline), func(t *testing.T) {
			assert.Equal(t, tt.want, e.Code(tt.grade, tt.discipline))
		})
	}
}

func TestCodeDegradesToZero(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	for _, g := range []string{"", "   ", "5.99x", "5.16a", "WI4", "M6", "easy 5th", "V", "V99", "banana", "12"} {
		assert.Equal(t, 0, e.Code(g, provider.DisciplineUnset), "grade %q", g)
	}
}

func TestRecognizedGradesRoundTrip(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	for code, tokens := range codeTable {
		for _, tok := range tokens {
			c := e.Code(tok, provider.DisciplineUnset)
			if c == 0 {
				continue
			}
			g, err := e.Grade(c)
			require.NoError(t, err)
			assert.NotEqual(t, InvalidGradeStr, g, "token %q under code %d", tok, code)
		}
	}
}

func TestFamilySeparation(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	routes := e.SortedCodes(provider.DisciplineSport)
	boulders := e.SortedCodes(provider.DisciplineBoulder)
	require.NotEmpty(t, routes)
	require.NotEmpty(t, boulders)

	for _, b := range boulders {
		for _, r := range routes {
			assert.Greater(t, b, r)
		}
	}
	assert.Equal(t, MaxRouteCode, routes[len(routes)-1])
	assert.Equal(t, MinBoulderCode, boulders[0])
}

func TestCodesPreservesLengthAndOrder(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithChunkSize(3))

	in := []string{"5.10a", "garbage", "V5", "", "7a", "5.99x", "5.12d"}
	out := e.Codes(in, provider.DisciplineUnset)

	require.Len(t, out, len(in))
	assert.Equal(t, []int{7, 0, 106, 0, 14, 0, 18}, out)
	assert.Empty(t, e.Codes(nil, provider.DisciplineUnset))
}

func TestGrade(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	g, err := e.Grade(0)
	require.NoError(t, err)
	assert.Equal(t, "Invalid Grade", g)

	g, err = e.Grade(14)
	require.NoError(t, err)
	assert.Equal(t, "5.11d", g)

	g, err = e.Grade(107)
	require.NoError(t, err)
	assert.Equal(t, "V6", g)

	_, err = e.Grade(50)
	assert.ErrorIs(t, err, ErrInvalidGradeCode)
	_, err = e.Grade(-3)
	assert.ErrorIs(t, err, ErrInvalidGradeCode)
}

func TestConvert(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		grade    string
		from, to System
		want     string
		ok       bool
	}{
		{"7a", SystemFrench, SystemYDS, "5.11d", true},
		{"5.11d", SystemYDS, SystemFrench, "7a", true},
		{"5.10b/c", SystemYDS, SystemFrench, "6a+", true},
		{"7A", SystemFont, SystemVScale, "V6", true},
		{"f7a+", SystemFont, SystemVScale, "V7", true},
		{"V10", SystemVScale, SystemFont, "7C+", true},
		{"7a", SystemFrench, SystemFrench, "7a", true},
		{"7a", SystemFrench, SystemVScale, "", false},
		{"V6", SystemVScale, SystemYDS, "", false},
		{"12z", SystemFrench, SystemYDS, "", false},
		{"", SystemYDS, SystemFrench, "", false},
		{"7a", System("ewbank"), SystemYDS, "", false},
	}

	for _, tt := range tests {
		got, ok := e.Convert(tt.grade, tt.from, tt.to)
		assert.Equal(t, tt.ok, ok, "%s %s->%s", tt.grade, tt.from, tt.to)
		assert.Equal(t, tt.want, got, "%s %s->%s", tt.grade, tt.from, tt.to)
	}
}

func TestSortedGrades(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	routes := e.SortedGrades(provider.DisciplineTrad)
	require.Len(t, routes, MaxRouteCode)
	assert.Equal(t, "5.4", routes[0])
	assert.Equal(t, "5.11d", routes[13])

	boulders := e.SortedGrades(provider.DisciplineBoulder)
	assert.Equal(t, "V0", boulders[0])
	assert.Equal(t, "V17", boulders[len(boulders)-1])

	// Callers get a copy.
	routes[0] = "mutated"
	assert.Equal(t, "5.4", e.SortedGrades(provider.DisciplineSport)[0])
}

func TestCacheIsBoundedAndObserved(t *testing.T) {
	t.Parallel()

	var hits, misses int
	var mu sync.Mutex
	e := newTestEngine(t, WithCacheSize(4), WithCacheObserver(func(hit bool) {
		mu.Lock()
		defer mu.Unlock()
		if hit {
			hits++
		} else {
			misses++
		}
	}))

	for i := 0; i < 20; i++ {
		e.Code(fmt.Sprintf("free text %d", i), provider.DisciplineUnset)
	}
	assert.LessOrEqual(t, e.CacheLen(), 4)

	e.Code("5.10a", provider.DisciplineSport)
	e.Code("5.10a", provider.DisciplineSport)
	e.Code("5.10a", provider.DisciplineBoulder)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 22, misses)
}

func TestConcurrentLookups(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithCacheSize(8))

	grades := []string{"5.10a", "V5", "7a", "5.12c", "6B+", "junk", "5.9", "V0", "8a", "5.13b", "f7c"}
	want := e.Codes(grades, provider.DisciplineUnset)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got := e.Codes(grades, provider.DisciplineUnset)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}
