package mountainproject

import (
	"fmt"
	"strings"

	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

// Mountain Project rates routes from 0 to 4 stars; -1 means no rating.
const starScale = 4.0

// Normalizer maps tick export rows onto canonical ticks.
type Normalizer struct{}

// Normalize implements pipeline.Normalizer.
func (Normalizer) Normalize(raw pipeline.RawBatch, userID string) ([]*provider.Tick, error) {
	export, ok := raw.(*Export)
	if !ok {
		return nil, fmt.Errorf("mountain project: unexpected raw batch %T", raw)
	}

	ticks := make([]*provider.Tick, 0, len(export.Rows))
	for _, r := range export.Rows {
		ticks = append(ticks, normalizeRow(r, userID))
	}
	return ticks, nil
}

func normalizeRow(r Row, userID string) *provider.Tick {
	t := &provider.Tick{
		UserID:      userID,
		SourceType:  provider.SourceMountainProject,
		RouteName:   r.Route,
		RouteGrade:  r.Rating,
		Length:      provider.ExtractInt(r.Length, 0),
		Pitches:     provider.ExtractInt(r.Pitches, 0),
		Location:    displayLocation(r.Location),
		LocationRaw: r.Location,
		RouteType:   r.RouteType,
		LeadStyle:   leadStyle(r.Style, r.LeadStyle),
		Notes:       r.Notes,
		RouteURL:    r.URL,
	}
	if d, ok := provider.ParseDate(r.Date); ok {
		t.TickDate = d
	}
	t.Mark(provider.FieldDate)

	if stars, ok := provider.ExtractNumber(r.AvgStars); ok {
		t.RouteQuality = provider.NormalizeQuality(stars, starScale)
	}
	if stars, ok := provider.ExtractNumber(r.YourStars); ok {
		t.UserQuality = provider.NormalizeQuality(stars, starScale)
	}
	return t
}

// leadStyle folds the two style columns into one: the lead style when the
// climb was led, otherwise the style itself ("TR", "Follow", "Send").
func leadStyle(style, lead string) string {
	if lead != "" {
		return lead
	}
	return style
}

// displayLocation turns "Colorado > Boulder > Eldorado Canyon SP > Redgarden
// Wall" into "Redgarden Wall, Colorado".
func displayLocation(raw string) string {
	var parts []string
	for _, p := range strings.Split(raw, ">") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[len(parts)-1] + ", " + parts[0]
}

// Adapter returns the pipeline adapter for Mountain Project.
func Adapter(c *Client) pipeline.Adapter {
	return pipeline.Adapter{Fetcher: c, Normalizer: Normalizer{}}
}
