// Package dates holds the week-bucketing helpers for the Mon-Sat operating week.
// The Monday "week start" in YYYY-MM-DD form is the key attendance and payments
// are bucketed under.
package dates

import "time"

const DayFormat = "2006-01-02"

// WeekStart returns the Monday beginning the week containing t, at day
// granularity. Sundays belong to the week that started the previous Monday.
func WeekStart(t time.Time) time.Time {
	t = StartOfDay(t)
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return t.AddDate(0, 0, -offset)
}

// WeekEnd returns the Saturday ending the operating week containing t.
// The canteen does not operate on Sundays.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 5)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDay renders a date as the YYYY-MM-DD string stored on records.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// WeekStartString returns the week-start key for the given day string.
func WeekStartString(day string) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return FormatDay(WeekStart(t)), nil
}

// InWeek reports whether the day string falls inside the operating week that
// begins at weekStart (Monday through Saturday inclusive).
func InWeek(day, weekStart string) bool {
	d, err := ParseDay(day)
	if err != nil {
		return false
	}
	ws, err := ParseDay(weekStart)
	if err != nil {
		return false
	}
	return !d.Before(ws) && !d.After(ws.AddDate(0, 0, 5))
}

// IsCurrentWeek reports whether t falls in the operating week containing now.
func IsCurrentWeek(t, now time.Time) bool {
	return WeekStart(t).Equal(WeekStart(now))
}

// WeekRangeLabel renders a human-readable range for a week start,
// e.g. "Jan 6 - Jan 11, 2025".
func WeekRangeLabel(weekStart time.Time) string {
	start := WeekStart(weekStart)
	end := WeekEnd(weekStart)
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}

// WeeksBack returns the week-start dates of the n operating weeks ending with
// the week containing now, oldest first.
func WeeksBack(now time.Time, n int) []time.Time {
	weeks := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		weeks = append(weeks, WeekStart(now).AddDate(0, 0, -7*i))
	}
	return weeks
}
