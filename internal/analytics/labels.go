package analytics

import (
	"fmt"
	"time"
)

// Label formatting for timeline points. Pure presentation: one short
// label for chart axes, one full label for tooltips.

// hourLabel labels a 24H grid point by its distance from now.
// Offset 0 is the newest point.
func hourLabel(hoursAgo int) string {
	if hoursAgo == 0 {
		return "Now"
	}
	return fmt.Sprintf("%dh", hoursAgo)
}

func hourFullLabel(t time.Time) string {
	return t.UTC().Format("Jan 2, 15:04")
}

// dayLabel is the weekday short name for 1W points.
func dayLabel(t time.Time) string {
	return t.UTC().Format("Mon")
}

func dayFullLabel(t time.Time) string {
	return t.UTC().Format("Monday, Jan 2")
}

// bucketLabel labels a 1M bucket by its last day.
func bucketLabel(t time.Time) string {
	return t.UTC().Format("Jan 2")
}

func bucketFullLabel(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}

// monthLabel is the month short name for 1Y points.
func monthLabel(t time.Time) string {
	return t.UTC().Format("Jan")
}

func monthFullLabel(t time.Time) string {
	return t.UTC().Format("January 2006")
}
