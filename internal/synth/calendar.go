package synth

import (
	"strconv"
	"strings"
	"time"
)

// semesterEnds maps a term name to the month and day its grades are recorded
var semesterEnds = map[string]struct {
	month time.Month
	day   int
}{
	"winter": {time.January, 31},
	"spring": {time.May, 15},
	"summer": {time.August, 15},
	"fall":   {time.December, 15},
}

var monthLayouts = []string{"2006-01", "January 2006", "Jan 2006"}

// Calendar maps period labels to recorded-at timestamps.
// Semester labels ("Fall 2024") resolve to the term's grade date, month labels
// ("2025-03", "March 2025") to the last day of the month. Anything else falls back to Now.
type Calendar struct {
	Now func() time.Time
}

// RecordedAt returns the timestamp for label
func (c Calendar) RecordedAt(label string) time.Time {
	if t, ok := ParsePeriod(label); ok {
		return t
	}
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// ParsePeriod resolves a semester or month label to its fixed calendar date
func ParsePeriod(label string) (time.Time, bool) {
	label = strings.TrimSpace(label)

	if fields := strings.Fields(label); len(fields) == 2 {
		if end, ok := semesterEnds[strings.ToLower(fields[0])]; ok {
			if year, err := strconv.Atoi(fields[1]); err == nil && year > 0 {
				return time.Date(year, end.month, end.day, 0, 0, 0, 0, time.UTC), true
			}
		}
	}

	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			// day 0 of the following month is the last day of this one
			return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}
