// Package provider defines the canonical data types that every logbook source
// normalizes into. These structs are the contract between source adapters,
// the classification/grading pipeline and the persistence gateway.
//
// Adding a new source means implementing a gateway and a normalizer that
// return these types. The pipeline and the storage schema never change.
package provider

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Enumerations
// --------------------------------------------------------------------------

// SourceType tags which third-party logbook a record came from.
type SourceType string

const (
	SourceMountainProject SourceType = "mountain_project"
	SourceEightA          SourceType = "eight_a"
)

// Discipline is the climbing style of a route. The zero value means the
// discipline could not be resolved.
type Discipline string

const (
	DisciplineUnset     Discipline = ""
	DisciplineSport     Discipline = "sport"
	DisciplineTrad      Discipline = "trad"
	DisciplineBoulder   Discipline = "boulder"
	DisciplineTopRope   Discipline = "tr"
	DisciplineMixed     Discipline = "mixed"
	DisciplineWinterIce Discipline = "winter_ice"
	DisciplineAid       Discipline = "aid"
)

// Disciplines lists every resolvable discipline in a stable order.
var Disciplines = []Discipline{
	DisciplineSport,
	DisciplineTrad,
	DisciplineBoulder,
	DisciplineTopRope,
	DisciplineMixed,
	DisciplineWinterIce,
	DisciplineAid,
}

// ParseDiscipline maps a user-supplied name onto a Discipline.
func ParseDiscipline(s string) (Discipline, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sport":
		return DisciplineSport, true
	case "trad":
		return DisciplineTrad, true
	case "boulder":
		return DisciplineBoulder, true
	case "tr", "top_rope", "toprope", "top-rope":
		return DisciplineTopRope, true
	case "mixed":
		return DisciplineMixed, true
	case "winter_ice", "ice", "winter-ice":
		return DisciplineWinterIce, true
	case "aid":
		return DisciplineAid, true
	}
	return DisciplineUnset, false
}

// IsBoulder reports whether the discipline grades on the boulder scale.
func (d Discipline) IsBoulder() bool { return d == DisciplineBoulder }

// LengthCategory buckets a route by length or pitch count.
type LengthCategory string

const (
	LengthShort      LengthCategory = "short"
	LengthMedium     LengthCategory = "medium"
	LengthLong       LengthCategory = "long"
	LengthMultipitch LengthCategory = "multipitch"
	LengthUnknown    LengthCategory = "unknown"
)

// SeasonUnknown is the season label for records without a usable date.
const SeasonUnknown = "unknown"

// CruxAngle describes the wall angle of a route's hardest section.
type CruxAngle string

const (
	CruxAngleNone     CruxAngle = ""
	CruxAngleSlab     CruxAngle = "Slab"
	CruxAngleVertical CruxAngle = "Vertical"
	CruxAngleOverhang CruxAngle = "Overhang"
	CruxAngleRoof     CruxAngle = "Roof"
)

// CruxEnergy describes the energy system a crux demands.
type CruxEnergy string

const (
	CruxEnergyNone           CruxEnergy = ""
	CruxEnergyPower          CruxEnergy = "Power"
	CruxEnergyPowerEndurance CruxEnergy = "Power Endurance"
	CruxEnergyEndurance      CruxEnergy = "Endurance"
	CruxEnergyTechnique      CruxEnergy = "Technique"
)

// Difficulty categories relative to the running max grade of a discipline.
const (
	DifficultyProject    = "Project"
	DifficultyTier2      = "Tier 2"
	DifficultyTier3      = "Tier 3"
	DifficultyTier4      = "Tier 4"
	DifficultyBaseVolume = "Base Volume"
	DifficultyOther      = "Other"
)

// --------------------------------------------------------------------------
// Column presence
// --------------------------------------------------------------------------

// Field identifies an enrichment column of a tick batch. Stages mark the
// columns they populate so later stages can reject batches that skipped one.
type Field uint16

const (
	FieldDate Field = 1 << iota
	FieldBinnedCode
	FieldDiscipline
	FieldSend
	FieldLengthCategory
	FieldSeason
	FieldRunningMax
	FieldCrux
)

var fieldNames = map[Field]string{
	FieldDate:           "tick_date",
	FieldBinnedCode:     "binned_code",
	FieldDiscipline:     "discipline",
	FieldSend:           "send_bool",
	FieldLengthCategory: "length_category",
	FieldSeason:         "season_category",
	FieldRunningMax:     "cur_max",
	FieldCrux:           "crux",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", uint16(f))
}

// MissingFieldError reports that a batch reached a stage without a column
// that stage requires.
type MissingFieldError struct {
	Field Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field.String())
}

// RequireFields returns a *MissingFieldError for the first required column
// that any tick in the batch lacks.
func RequireFields(ticks []*Tick, fields ...Field) error {
	for _, f := range fields {
		for _, t := range ticks {
			if !t.Has(f) {
				return &MissingFieldError{Field: f}
			}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Tick
// --------------------------------------------------------------------------

// MaxSnapshot holds the running max sent grade code for each tracked column
// at the time of a tick. Route aggregates every roped discipline.
type MaxSnapshot struct {
	Sport     int `json:"cur_max_sport"`
	Trad      int `json:"cur_max_trad"`
	TopRope   int `json:"cur_max_tr"`
	Boulder   int `json:"cur_max_boulder"`
	Mixed     int `json:"cur_max_mixed"`
	WinterIce int `json:"cur_max_winter_ice"`
	Aid       int `json:"cur_max_aid"`
	Route     int `json:"cur_max_route"`
}

// For returns the snapshot column for a discipline, and false when the
// discipline has no column.
func (m MaxSnapshot) For(d Discipline) (int, bool) {
	switch d {
	case DisciplineSport:
		return m.Sport, true
	case DisciplineTrad:
		return m.Trad, true
	case DisciplineTopRope:
		return m.TopRope, true
	case DisciplineBoulder:
		return m.Boulder, true
	case DisciplineMixed:
		return m.Mixed, true
	case DisciplineWinterIce:
		return m.WinterIce, true
	case DisciplineAid:
		return m.Aid, true
	}
	return 0, false
}

// Set updates the column for a discipline. Unknown disciplines are ignored.
func (m *MaxSnapshot) Set(d Discipline, code int) {
	switch d {
	case DisciplineSport:
		m.Sport = code
	case DisciplineTrad:
		m.Trad = code
	case DisciplineTopRope:
		m.TopRope = code
	case DisciplineBoulder:
		m.Boulder = code
	case DisciplineMixed:
		m.Mixed = code
	case DisciplineWinterIce:
		m.WinterIce = code
	case DisciplineAid:
		m.Aid = code
	}
}

// Tick is one logged climbing attempt or send in canonical form.
type Tick struct {
	UserID       string     `json:"user_id"`
	SourceType   SourceType `json:"source_type"`
	RouteName    string     `json:"route_name"`
	RouteGrade   string     `json:"route_grade"`
	TickDate     time.Time  `json:"tick_date"`
	Length       int        `json:"length,omitempty"` // feet
	Pitches      int        `json:"pitches,omitempty"`
	Location     string     `json:"location,omitempty"`
	LocationRaw  string     `json:"location_raw,omitempty"`
	RouteType    string     `json:"route_type,omitempty"`
	LeadStyle    string     `json:"lead_style,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	RouteURL     string     `json:"route_url,omitempty"`
	RouteQuality float64    `json:"route_quality,omitempty"` // 0-1
	UserQuality  float64    `json:"user_quality,omitempty"`  // 0-1
	RawTags      []string   `json:"-"`

	// Explicit send flag from the source; nil until classified.
	Send *bool `json:"send_bool"`

	Discipline         Discipline     `json:"discipline,omitempty"`
	LengthCategory     LengthCategory `json:"length_category,omitempty"`
	SeasonCategory     string         `json:"season_category,omitempty"`
	BinnedGrade        string         `json:"binned_grade,omitempty"`
	BinnedCode         int            `json:"binned_code"`
	CurMax             MaxSnapshot    `json:"cur_max"`
	DifficultyCategory string         `json:"difficulty_category,omitempty"`
	CruxAngle          CruxAngle      `json:"crux_angle,omitempty"`
	CruxEnergy         CruxEnergy     `json:"crux_energy,omitempty"`

	fields Field
}

// Mark records that the given columns have been populated.
func (t *Tick) Mark(fields ...Field) {
	for _, f := range fields {
		t.fields |= f
	}
}

// Has reports whether a column has been populated.
func (t *Tick) Has(f Field) bool { return t.fields&f == f }

// IsSend returns the send flag, treating an unset flag as not sent.
func (t *Tick) IsSend() bool { return t.Send != nil && *t.Send }

// SetSend records the send flag.
func (t *Tick) SetSend(v bool) {
	t.Send = &v
	t.Mark(FieldSend)
}

// RouteKey identifies a route across ticks: route name plus raw location.
func (t *Tick) RouteKey() string {
	return strings.ToLower(strings.TrimSpace(t.RouteName)) + "|" + strings.ToLower(strings.TrimSpace(t.LocationRaw))
}

// Day truncates the tick date to calendar-date granularity.
func (t *Tick) Day() time.Time {
	y, m, d := t.TickDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --------------------------------------------------------------------------
// Derived entities
// --------------------------------------------------------------------------

// PyramidEntry is one notable send selected for a discipline's pyramid.
// TickIndex points into the batch handed to the persistence gateway.
type PyramidEntry struct {
	UserID       string     `json:"user_id"`
	TickIndex    int        `json:"tick_index"`
	TickID       int64      `json:"tick_id,omitempty"`
	RouteName    string     `json:"route_name"`
	Location     string     `json:"location,omitempty"`
	Discipline   Discipline `json:"discipline"`
	SendDate     time.Time  `json:"send_date"`
	BinnedCode   int        `json:"binned_code"`
	BinnedGrade  string     `json:"binned_grade"`
	NumAttempts  int        `json:"num_attempts"`
	DaysAttempts int        `json:"days_attempts"`
	NumSends     int        `json:"num_sends"`
	CruxAngle    CruxAngle  `json:"crux_angle,omitempty"`
	CruxEnergy   CruxEnergy `json:"crux_energy,omitempty"`
}

// Tag is a deduplicated label with the batch positions it applies to.
type Tag struct {
	Name        string `json:"name"`
	TickIndices []int  `json:"tick_indices"`
}
