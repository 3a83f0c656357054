// Package timeutil holds shared timestamp formatting helpers.
// Instants are exchanged over the API as RFC 3339 UTC strings with
// millisecond precision, matching the storage resolution.
package timeutil

import "time"

const layoutMillis = "2006-01-02T15:04:05.999Z07:00"

// Format renders t as an RFC 3339 UTC string with millisecond
// precision, or "" for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layoutMillis)
}

// Parse parses an RFC 3339 timestamp, accepting fractional seconds.
func Parse(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
