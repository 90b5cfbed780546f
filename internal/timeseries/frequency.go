package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Frequency selects the calendar bucket sales are aggregated into. It fixes
// period truncation, the step between consecutive periods, and the label
// format used at the API boundary.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// ParseFrequency validates a frequency selector from a request.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("invalid frequency %q (expected daily, weekly or monthly)", s)
	}
}

// Truncate normalizes a timestamp to the start of its period in UTC.
// Weeks start on Monday, matching date_trunc('week') in PostgreSQL.
func (f Frequency) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch f {
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Weekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the period immediately following t at this frequency.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// LabelKey is the JSON field name used for period labels at this frequency.
func (f Frequency) LabelKey() string {
	switch f {
	case Daily:
		return "date"
	case Weekly:
		return "week"
	default:
		return "month"
	}
}

// FormatLabel renders a period as its external string label:
// daily 2006-01-02, weekly 2006-W02 (Sunday-based week number) and
// monthly Jan-2006.
func (f Frequency) FormatLabel(t time.Time) string {
	switch f {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		return fmt.Sprintf("%d-W%02d", t.Year(), sundayWeek(t))
	default:
		return t.Format("Jan-2006")
	}
}

// DateTruncField is the PostgreSQL date_trunc unit for this frequency.
func (f Frequency) DateTruncField() string {
	switch f {
	case Daily:
		return "day"
	case Weekly:
		return "week"
	default:
		return "month"
	}
}

// sundayWeek computes the week-of-year with Sunday as the first day of the
// week; days before the first Sunday of the year fall into week 0.
func sundayWeek(t time.Time) int {
	yday := t.YearDay() - 1
	wday := int(t.Weekday())
	return (yday + 7 - wday) / 7
}
