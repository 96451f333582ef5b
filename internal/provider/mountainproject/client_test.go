package mountainproject

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

const sampleExport = `Date,Route,Rating,Notes,URL,Pitches,Location,"Avg Stars","Your Stars",Style,"Lead Style","Route Type","Your Rating",Length,"Rating Code"
2024-05-04,"The Bastille Crack",5.7,"Simul'd with Sam",https://www.mountainproject.com/route/105748496/the-bastille-crack,4,"Colorado > Boulder > Eldorado Canyon SP > The Bastille",3.6,4,Lead,Onsight,Trad,,350,2000
2024-05-05,"Chicken Chokers",5.10b/c,"hung twice",https://www.mountainproject.com/route/1/chicken-chokers,1,"Colorado > Boulder > Flatirons",2.1,-1,Lead,Fell/Hung,"Sport, TR",,"80 ft",3400
2024-05-06,"Bubba Lou",V5,,https://www.mountainproject.com/route/2/bubba-lou,1,"Colorado > RMNP > Emerald Lake",-1,,Send,,Boulder,,,20050
`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient("", 6000, 5*time.Second, nil)
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestExportURL(t *testing.T) {
	c := NewClient("https://mp.example", 60, 0, nil)

	u, err := c.ExportURL("https://www.mountainproject.com/user/200123456/alex-honnold")
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example/user/200123456/alex-honnold/tick-export", u)

	u, err = c.ExportURL("https://www.mountainproject.com/user/200123456/alex-honnold/ticks/")
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example/user/200123456/alex-honnold/tick-export", u)

	for _, bad := range []string{"", "https://www.mountainproject.com/route/1/x", "https://www.mountainproject.com/user/1"} {
		_, err := c.ExportURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestFetchParsesExport(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet,
		"https://www.mountainproject.com/user/200123456/alex/tick-export",
		httpmock.NewStringResponder(http.StatusOK, sampleExport))

	raw, err := c.Fetch(context.Background(), pipeline.Credentials{ProfileURL: "https://www.mountainproject.com/user/200123456/alex"})
	require.NoError(t, err)
	require.Equal(t, 3, raw.Len())
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	export := raw.(*Export)
	assert.Equal(t, "The Bastille Crack", export.Rows[0].Route)
	assert.Equal(t, "Onsight", export.Rows[0].LeadStyle)
	assert.Equal(t, "80 ft", export.Rows[1].Length)
}

func TestFetchSurfacesHTTPErrors(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet,
		`=~^https://www\.mountainproject\.com/user/.*/tick-export`,
		httpmock.NewStringResponder(http.StatusForbidden, "private profile"))

	_, err := c.Fetch(context.Background(), pipeline.Credentials{ProfileURL: "https://www.mountainproject.com/user/1/private"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "private profile")
}

func TestParseExportRequiresColumns(t *testing.T) {
	_, err := ParseExport(strings.NewReader("Date,Route\n2024-01-01,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating")

	export, err := ParseExport(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, export.Len())
}

func TestNormalize(t *testing.T) {
	export, err := ParseExport(strings.NewReader(sampleExport))
	require.NoError(t, err)

	ticks, err := Normalizer{}.Normalize(export, "u1")
	require.NoError(t, err)
	require.Len(t, ticks, 3)

	trad := ticks[0]
	assert.Equal(t, "u1", trad.UserID)
	assert.Equal(t, provider.SourceMountainProject, trad.SourceType)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), trad.TickDate)
	assert.Equal(t, 350, trad.Length)
	assert.Equal(t, 4, trad.Pitches)
	assert.Equal(t, "The Bastille, Colorado", trad.Location)
	assert.Equal(t, "Colorado > Boulder > Eldorado Canyon SP > The Bastille", trad.LocationRaw)
	assert.Equal(t, "Onsight", trad.LeadStyle)
	assert.InDelta(t, 0.9, trad.RouteQuality, 1e-9)
	assert.InDelta(t, 1.0, trad.UserQuality, 1e-9)
	assert.True(t, trad.Has(provider.FieldDate))
	assert.Nil(t, trad.Send)

	sport := ticks[1]
	assert.Equal(t, 80, sport.Length)
	assert.Equal(t, "Fell/Hung", sport.LeadStyle)
	assert.Zero(t, sport.UserQuality)

	boulder := ticks[2]
	assert.Equal(t, "Send", boulder.LeadStyle)
	assert.Zero(t, boulder.RouteQuality)
	assert.Zero(t, boulder.Length)

	_, err = Normalizer{}.Normalize(fakeBatch{}, "u1")
	assert.Error(t, err)
}

type fakeBatch struct{}

func (fakeBatch) Len() int { return 0 }
