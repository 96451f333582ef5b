package provider

import (
	"strconv"
	"strings"
	"time"
)

// ExtractNumber normalizes a numeric field from various source formats.
//
// 8a.nu returns JSON numbers, numeric strings or null for the same field
// depending on the endpoint. Mountain Project CSV cells are strings that may
// be empty or carry a unit suffix ("120 ft").
//
// Returns the scalar float64 value, and ok=false if not extractable.
func ExtractNumber(val interface{}) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimSuffix(s, "ft")
		s = strings.TrimSuffix(s, "'")
		s = strings.TrimSpace(s)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return 0, false
	case map[string]interface{}:
		for _, key := range []string{"value", "total", "count"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ExtractNumber(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// ExtractInt is ExtractNumber truncated to an int, with fallback when the
// value is absent or malformed.
func ExtractInt(val interface{}, fallback int) int {
	if f, ok := ExtractNumber(val); ok {
		return int(f)
	}
	return fallback
}

// NormalizeQuality scales a source rating onto [0, 1]. Negative ratings are
// the sources' "no rating" marker and map to 0.
func NormalizeQuality(rating, scaleMax float64) float64 {
	if rating <= 0 || scaleMax <= 0 {
		return 0
	}
	if rating >= scaleMax {
		return 1
	}
	return rating / scaleMax
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate parses a source date at calendar-date granularity. Unparseable
// input yields the zero time and false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
