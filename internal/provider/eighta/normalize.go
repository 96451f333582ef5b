package eighta

import (
	"fmt"
	"strings"

	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

// 8a.nu rates ascents from 0 to 5 stars.
const ratingScale = 5.0

// Ascent is one entry of the 8a.nu ascents endpoint. Only the fields the
// normalizer reads are decoded.
type Ascent struct {
	Date          string  `json:"date"`
	Difficulty    string  `json:"difficulty"`
	Comment       string  `json:"comment"`
	ZlaggableName string  `json:"zlaggableName"`
	CragName      string  `json:"cragName"`
	SectorName    string  `json:"sectorName"`
	CountryName   string  `json:"countryName"`
	Type          string  `json:"type"`
	Category      int     `json:"category"`
	Rating        float64 `json:"rating"`
	Traditional   bool    `json:"traditional"`

	FirstAscent bool `json:"firstAscent"`
	SecondGo    bool `json:"secondGo"`
	Soft        bool `json:"soft"`
	Hard        bool `json:"hard"`
	LooseRock   bool `json:"looseRock"`
	IsOverhang  bool `json:"isOverhang"`
	IsSlab      bool `json:"isSlab"`
	IsRoof      bool `json:"isRoof"`
	IsAthletic  bool `json:"isAthletic"`
	IsEndurance bool `json:"isEndurance"`
	IsCrimpy    bool `json:"isCrimpy"`
	IsCruxy     bool `json:"isCruxy"`
	IsSloper    bool `json:"isSloper"`
	IsTechnical bool `json:"isTechnical"`
}

// Ascents is the raw batch returned by the gateway.
type Ascents struct {
	UserSlug string
	Items    []Ascent
}

// Len implements pipeline.RawBatch.
func (a *Ascents) Len() int { return len(a.Items) }

// styles maps 8a.nu ascent types onto lead-style text and an explicit send
// flag. Unknown types carry no flag; once a batch has flags they count as
// attempts.
var styles = map[string]struct {
	lead string
	send bool
}{
	"os": {"Onsight", true},
	"f":  {"Flash", true},
	"rp": {"Redpoint", true},
	"tr": {"TR", true},
	"go": {"Redpoint", true},
}

// Normalizer maps ascents onto canonical ticks.
type Normalizer struct{}

// Normalize implements pipeline.Normalizer.
func (Normalizer) Normalize(raw pipeline.RawBatch, userID string) ([]*provider.Tick, error) {
	batch, ok := raw.(*Ascents)
	if !ok {
		return nil, fmt.Errorf("8a.nu: unexpected raw batch %T", raw)
	}

	ticks := make([]*provider.Tick, 0, len(batch.Items))
	for _, a := range batch.Items {
		ticks = append(ticks, normalizeAscent(a, userID))
	}
	return ticks, nil
}

func normalizeAscent(a Ascent, userID string) *provider.Tick {
	t := &provider.Tick{
		UserID:       userID,
		SourceType:   provider.SourceEightA,
		RouteName:    strings.TrimSpace(a.ZlaggableName),
		RouteGrade:   a.Difficulty,
		Location:     joinNonEmpty(", ", a.SectorName, a.CragName),
		LocationRaw:  joinNonEmpty(" > ", a.CountryName, a.CragName, a.SectorName),
		Notes:        a.Comment,
		RouteQuality: provider.NormalizeQuality(a.Rating, ratingScale),
		RawTags:      rawTags(a),
	}
	if d, ok := provider.ParseDate(a.Date); ok {
		t.TickDate = d
	}
	t.Mark(provider.FieldDate)

	switch {
	case a.Category == CategoryBoulder:
		t.RouteType = "Boulder"
		// Font grades are written uppercase.
		t.RouteGrade = strings.ToUpper(a.Difficulty)
	case a.Traditional:
		t.RouteType = "Trad"
	default:
		t.RouteType = "Sport"
	}

	if s, ok := styles[strings.ToLower(a.Type)]; ok {
		t.LeadStyle = s.lead
		t.SetSend(s.send)
	}
	return t
}

func rawTags(a Ascent) []string {
	flags := []struct {
		set bool
		tag string
	}{
		{a.FirstAscent, "first_ascent"},
		{a.SecondGo, "second_go"},
		{a.Soft, "soft"},
		{a.Hard, "hard"},
		{a.LooseRock, "loose"},
		{a.IsOverhang, "overhang"},
		{a.IsSlab, "slab"},
		{a.IsRoof, "roof"},
		{a.IsAthletic, "athletic"},
		{a.IsEndurance, "endurance"},
		{a.IsCrimpy, "crimpy"},
		{a.IsCruxy, "cruxy"},
		{a.IsSloper, "sloper"},
		{a.IsTechnical, "technical"},
	}
	var out []string
	for _, f := range flags {
		if f.set {
			out = append(out, f.tag)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Adapter returns the pipeline adapter for 8a.nu.
func Adapter(g *Gateway) pipeline.Adapter {
	return pipeline.Adapter{Fetcher: g, Normalizer: Normalizer{}}
}
