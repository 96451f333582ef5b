package pyramid

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/cruxlog/internal/provider"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func tick(name string, d provider.Discipline, code int, when time.Time, send bool, style string) *provider.Tick {
	t := &provider.Tick{
		RouteName:   name,
		LocationRaw: "Red River Gorge > Muir Valley",
		Location:    "Muir Valley",
		Discipline:  d,
		BinnedCode:  code,
		TickDate:    when,
		LeadStyle:   style,
		Pitches:     1,
	}
	t.SetSend(send)
	t.Mark(provider.FieldDate, provider.FieldDiscipline, provider.FieldBinnedCode)
	return t
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	entries, err := New(0).Build("u1", nil)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	entries, err = New(0).Build("u1", []*provider.Tick{
		tick("Attempt Only", provider.DisciplineSport, 15, day(time.May, 1), false, "Fell/Hung"),
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildMissingBinnedCode(t *testing.T) {
	t.Parallel()

	tk := &provider.Tick{RouteName: "No Code", TickDate: day(time.May, 1)}
	tk.SetSend(true)
	tk.Mark(provider.FieldDate, provider.FieldDiscipline)

	_, err := New(0).Build("u1", []*provider.Tick{tk})
	var missing *provider.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, provider.FieldBinnedCode, missing.Field)
}

func TestBuildTopGradesAndEffort(t *testing.T) {
	t.Parallel()

	sport := provider.DisciplineSport
	ticks := []*provider.Tick{
		tick("Pure Imagination", sport, 20, day(time.March, 1), false, "Fell/Hung"),
		tick("Pure Imagination", sport, 20, day(time.March, 1), false, "Fell/Hung"),
		tick("Pure Imagination", sport, 20, day(time.March, 8), false, "Fell/Hung"),
		tick("Pure Imagination", sport, 20, day(time.March, 15), true, "Redpoint"),
		tick("Pure Imagination", sport, 20, day(time.April, 1), false, "Fell/Hung"),
		tick("Flashy", sport, 18, day(time.April, 2), true, "Flash"),
		tick("Mid One", sport, 17, day(time.April, 3), true, "Redpoint"),
		tick("Mid Two", sport, 16, day(time.April, 4), true, "Redpoint"),
		tick("Too Easy", sport, 12, day(time.April, 5), true, "Onsight"),
		tick("Problem", provider.DisciplineBoulder, 106, day(time.April, 6), true, "Send"),
	}
	ticks[3].Notes = "steep and powerful"

	entries, err := New(4).Build("u1", ticks)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	top := entries[0]
	assert.Equal(t, "u1", top.UserID)
	assert.Equal(t, 3, top.TickIndex)
	assert.Equal(t, 20, top.BinnedCode)
	assert.Equal(t, 4, top.NumAttempts)
	assert.Equal(t, 3, top.DaysAttempts)
	assert.Equal(t, 1, top.NumSends)
	assert.Equal(t, day(time.March, 15), top.SendDate)
	assert.Equal(t, provider.CruxAngleOverhang, top.CruxAngle)
	assert.Equal(t, provider.CruxEnergyPower, top.CruxEnergy)

	flash := entries[1]
	assert.Equal(t, "Flashy", flash.RouteName)
	assert.Equal(t, 1, flash.NumAttempts)

	var codes []int
	for _, e := range entries {
		codes = append(codes, e.BinnedCode)
		assert.GreaterOrEqual(t, e.NumAttempts, e.NumSends)
		assert.True(t, ticks[e.TickIndex].IsSend())
	}
	assert.Equal(t, []int{20, 18, 17, 16, 106}, codes)
}

func TestBuildMultipitchCountsAttempts(t *testing.T) {
	t.Parallel()

	trad := provider.DisciplineTrad
	a := tick("Epinephrine", trad, 6, day(time.June, 1), false, "Fell/Hung")
	b := tick("Epinephrine", trad, 6, day(time.June, 2), true, "Redpoint")
	a.Pitches, b.Pitches = 13, 13

	entries, err := New(4).Build("u1", []*provider.Tick{a, b})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].NumAttempts)
	assert.Equal(t, 2, entries[0].DaysAttempts)
}

func TestBuildAttemptsClampedToSends(t *testing.T) {
	t.Parallel()

	sport := provider.DisciplineSport
	ticks := []*provider.Tick{
		tick("Lap Route", sport, 10, day(time.May, 1), true, "Onsight"),
		tick("Lap Route", sport, 10, day(time.May, 2), true, "Onsight"),
	}
	entries, err := New(4).Build("u1", ticks)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	second := entries[1]
	assert.Equal(t, 2, second.NumSends)
	assert.Equal(t, 2, second.NumAttempts)
}
