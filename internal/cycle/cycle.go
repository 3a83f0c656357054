// Package cycle implements the 7-day target cycle arithmetic shared by
// every analytics component. All functions are pure: they take instants
// and return new instants, never mutating shared state.
package cycle

import "time"

// Length is the fixed duration of one target cycle.
const Length = 7 * 24 * time.Hour

// Cycle describes one 7-day accounting window anchored to a team's
// creation instant. End is inclusive: the last millisecond of day 7.
type Cycle struct {
	Index int
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the cycle window,
// boundaries included.
func (c Cycle) Contains(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

// NormalizeAnchor returns 00:00:00.000 UTC of the instant's calendar
// day. Cycle boundaries are always derived from the normalized anchor,
// not the raw creation timestamp.
func NormalizeAnchor(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve returns the cycle containing at, for a team anchored at
// anchor. Instants before the normalized anchor clamp to index 0
// rather than going negative.
func Resolve(anchor, at time.Time) Cycle {
	a := NormalizeAnchor(anchor)
	idx := 0
	if at.After(a) {
		idx = int(at.Sub(a) / Length)
	}
	start := a.Add(time.Duration(idx) * Length)
	return Cycle{
		Index: idx,
		Start: start,
		End:   start.Add(Length - time.Millisecond),
	}
}

// NextWindow returns the window immediately following one that ends
// at end, with no gap or overlap.
func NextWindow(end time.Time) (start, newEnd time.Time) {
	start = end.Add(time.Millisecond)
	return start, start.Add(Length - time.Millisecond)
}

// AddDays steps t by n*24h. Timeline grids walk in fixed 24-hour
// increments, not calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * 24 * time.Hour)
}

// MonthStart returns 00:00:00.000 UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last millisecond of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0).Add(-time.Millisecond)
}

// AddMonths steps the first-of-month of t by n calendar months.
func AddMonths(t time.Time, n int) time.Time {
	return MonthStart(t).AddDate(0, n, 0)
}
