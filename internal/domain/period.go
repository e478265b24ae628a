package domain

import "time"

// Period is an inclusive calendar-month window used to scope stored-record
// lookups. It is derived from "now" at run time and never persisted.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthOf returns the calendar-month period containing t. Boundaries are
// inclusive: the first instant of the month and the last nanosecond before
// the next one, in t's location.
func MonthOf(t time.Time) Period {
	year, month, _ := t.Date()
	start := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Period{Start: start, End: end}
}

// Contains reports whether instant t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Label renders the period as "MM/YYYY" for report headings.
func (p Period) Label() string {
	return p.Start.Format("01/2006")
}
