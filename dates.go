package formz

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used for release and revision dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar day. It accepts YYYY-MM-DD and RFC3339
// timestamps; a timestamp is reduced to the calendar day in its own offset.
// The result is midnight UTC of that day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return calendarDay(t), true
	}
	return time.Time{}, false
}

// calendarDay drops the time of day, keeping the date as seen in t's location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddOneYear returns the revision date derived from a release date: the
// year field incremented, month and day unchanged. Feb 29 has no special
// case and rolls forward the same way time.Date normalizes it (to Mar 1).
// An empty or unparsable release yields "".
func AddOneYear(release string) string {
	day, ok := ParseDate(release)
	if !ok {
		return ""
	}
	return time.Date(day.Year()+1, day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// OneYearAfter is the cross-field rule between release and revision dates.
// It reports KindOneYearAfter when the revision is not the calendar day
// AddOneYear(release). Missing or unparsable values are not a mismatch;
// required and date rules report those on the fields themselves.
func OneYearAfter(release, revision string) ErrorBag {
	if strings.TrimSpace(release) == "" || strings.TrimSpace(revision) == "" {
		return nil
	}
	expected, ok := ParseDate(AddOneYear(release))
	if !ok {
		return nil
	}
	actual, ok := ParseDate(revision)
	if !ok {
		return nil
	}
	if !actual.Equal(expected) {
		return ErrorBag{KindOneYearAfter: true}
	}
	return nil
}
