package timeutil

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"zero time returns empty", time.Time{}, ""},
		{"converts to UTC", time.Date(2024, 6, 15, 7, 30, 0, 0, time.FixedZone("EST", -5*60*60)), "2024-06-15T12:30:00Z"},
		{"truncates sub-millisecond", time.Date(2024, 6, 15, 12, 30, 45, 123456789, time.UTC), "2024-06-15T12:30:45.123Z"},
		{"whole second", time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC), "2024-06-15T12:30:45Z"},
		{"cycle end keeps milliseconds", time.Date(2024, 1, 7, 23, 59, 59, 999000000, time.UTC), "2024-01-07T23:59:59.999Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	in := "2024-01-07T23:59:59.999Z"
	got, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if Format(got) != in {
		t.Errorf("round trip = %q, want %q", Format(got), in)
	}
}
