package mountainproject

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one line of the tick export. Numeric cells stay as strings; the
// normalizer decides how to read them.
type Row struct {
	Date       string
	Route      string
	Rating     string
	Notes      string
	URL        string
	Pitches    string
	Location   string
	AvgStars   string
	YourStars  string
	Style      string
	LeadStyle  string
	RouteType  string
	YourRating string
	Length     string
}

// Export is the raw batch returned by the gateway.
type Export struct {
	ProfileURL string
	Rows       []Row
}

// Len implements pipeline.RawBatch.
func (e *Export) Len() int { return len(e.Rows) }

// columns maps export header names onto Row fields.
var columns = map[string]func(r *Row) *string{
	"date":        func(r *Row) *string { return &r.Date },
	"route":       func(r *Row) *string { return &r.Route },
	"rating":      func(r *Row) *string { return &r.Rating },
	"notes":       func(r *Row) *string { return &r.Notes },
	"url":         func(r *Row) *string { return &r.URL },
	"pitches":     func(r *Row) *string { return &r.Pitches },
	"location":    func(r *Row) *string { return &r.Location },
	"avg stars":   func(r *Row) *string { return &r.AvgStars },
	"your stars":  func(r *Row) *string { return &r.YourStars },
	"style":       func(r *Row) *string { return &r.Style },
	"lead style":  func(r *Row) *string { return &r.LeadStyle },
	"route type":  func(r *Row) *string { return &r.RouteType },
	"your rating": func(r *Row) *string { return &r.YourRating },
	"length":      func(r *Row) *string { return &r.Length },
}

// ParseExport reads a tick export CSV. Unknown columns are ignored; the
// Date, Route and Rating columns are required.
func ParseExport(r io.Reader) (*Export, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Export{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}

	index := make(map[int]func(r *Row) *string, len(header))
	found := make(map[string]bool, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if field, ok := columns[key]; ok {
			index[i] = field
			found[key] = true
		}
	}
	for _, required := range []string{"date", "route", "rating"} {
		if !found[required] {
			return nil, fmt.Errorf("tick export missing %q column", required)
		}
	}

	export := &Export{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export line %d: %w", line, err)
		}

		var row Row
		for i, cell := range rec {
			if field, ok := index[i]; ok {
				*field(&row) = strings.TrimSpace(cell)
			}
		}
		export.Rows = append(export.Rows, row)
	}
	return export, nil
}
