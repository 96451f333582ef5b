package classify

import (
	"fmt"
	"time"

	"github.com/albapepper/cruxlog/internal/provider"
)

// Seasons labels every tick with its climbing season. Winter spans the year
// boundary: December 2024 and February 2025 are both "Winter, 2024-2025".
// Ticks without a date are "unknown".
func Seasons(ticks []*provider.Tick) []string {
	out := make([]string, len(ticks))
	for i, t := range ticks {
		out[i] = Season(t.TickDate)
	}
	return out
}

// Season returns the season label for a single date.
func Season(d time.Time) string {
	if d.IsZero() {
		return provider.SeasonUnknown
	}
	y := d.Year()
	switch d.Month() {
	case time.March, time.April, time.May:
		return fmt.Sprintf("Spring, %d", y)
	case time.June, time.July, time.August:
		return fmt.Sprintf("Summer, %d", y)
	case time.September, time.October, time.November:
		return fmt.Sprintf("Fall, %d", y)
	case time.December:
		return fmt.Sprintf("Winter, %d-%d", y, y+1)
	default:
		return fmt.Sprintf("Winter, %d-%d", y-1, y)
	}
}
