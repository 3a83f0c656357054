package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRange(t *testing.T) {
	for _, s := range []string{"24H", "1W", "1M", "1Y"} {
		if _, err := ParseRange(s); err != nil {
			t.Errorf("ParseRange(%q) = %v", s, err)
		}
	}
	for _, s := range []string{"", "7D", "24h", "1y", "2W"} {
		_, err := ParseRange(s)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("ParseRange(%q) = %v, want ErrInvalidRange", s, err)
		}
	}
}

func TestTimelineGridSizes(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()
	createTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)
	now := ts(t, "2024-01-05T12:00:00Z")

	tests := []struct {
		r    Range
		want int
	}{
		{Range24H, 25},
		{Range1W, 7},
		{Range1M, 7},
		{Range1Y, 12},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			s, err := e.Timeline(ctx, "t1", "", tt.r, now)
			if err != nil {
				t.Fatalf("Timeline: %v", err)
			}
			if len(s.Points) != tt.want {
				t.Errorf("got %d points, want %d", len(s.Points), tt.want)
			}
		})
	}
}

func TestTimeline24HLabels(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()
	createTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)

	s, err := e.Timeline(ctx, "t1", "", Range24H, ts(t, "2024-01-05T12:00:00Z"))
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}

	if got := s.Points[0].Label; got != "24h" {
		t.Errorf("oldest label = %q, want \"24h\"", got)
	}
	if got := s.Points[23].Label; got != "1h" {
		t.Errorf("points[23] label = %q, want \"1h\"", got)
	}
	if got := s.Points[24].Label; got != "Now" {
		t.Errorf("newest label = %q, want \"Now\"", got)
	}
	if got := s.Points[24].Timestamp; got != "2024-01-05T12:00:00Z" {
		t.Errorf("newest timestamp = %q", got)
	}
	// Chronological order.
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Timestamp <= s.Points[i-1].Timestamp {
			t.Fatalf("points not chronological at %d", i)
		}
	}
}

func TestTimeline1WLabels(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()
	createTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)

	// 2024-01-05 is a Friday.
	s, err := e.Timeline(ctx, "t1", "", Range1W, ts(t, "2024-01-05T12:00:00Z"))
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}

	wantLabels := []string{"Sat", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri"}
	var got []string
	for _, p := range s.Points {
		got = append(got, p.Label)
	}
	if diff := cmp.Diff(wantLabels, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeline1WValues(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()
	createTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)
	logPoints(t, d, "t1", "u1", 40, ts(t, "2024-01-03T00:00:00Z"))

	s, err := e.Timeline(ctx, "t1", "", Range1W, ts(t, "2024-01-05T12:00:00Z"))
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}

	// Days before the anchor sample outside any cycle: zero. Days
	// on/after Jan 3 see the 40 points.
	wantValues := []int{0, 0, 0, 0, 40, 40, 40}
	var got []int
	for _, p := range s.Points {
		got = append(got, p.Value)
	}
	if diff := cmp.Diff(wantValues, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDominantCycle(t *testing.T) {
	tests := []struct {
		name string
		idxs []int
		want int
	}{
		{"all same", []int{2, 2, 2, 2}, 2},
		{"majority wins", []int{1, 2, 2, 2}, 2},
		{"older majority wins", []int{1, 1, 1, 2}, 1},
		{"tie goes to most recent", []int{1, 1, 2, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantCycle(tt.idxs); got != tt.want {
				t.Errorf("dominantCycle(%v) = %d, want %d", tt.idxs, got, tt.want)
			}
		})
	}
}

func TestTimeline1MExcludesNonDominantDays(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()

	// Anchor far enough back that the 28-day window spans several
	// cycles. Team created 2024-01-01; sample at 2024-01-28 12:00.
	createTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)
	// Archive cycles 0-2 so historical days resolve against entries.
	if _, err := e.EnsureCurrentCycle(ctx, "t1", ts(t, "2024-01-28T12:00:00Z")); err != nil {
		t.Fatalf("EnsureCurrentCycle: %v", err)
	}
	// Points late in cycle 3 (Jan 22 onward).
	logPoints(t, d, "t1", "u1", 60, ts(t, "2024-01-26T00:00:00Z"))

	s, err := e.Timeline(ctx, "t1", "", Range1M, ts(t, "2024-01-28T12:00:00Z"))
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(s.Points) != 7 {
		t.Fatalf("got %d points, want 7", len(s.Points))
	}

	// The final bucket samples Jan 25 12:00 .. Jan 28 12:00, all
	// in cycle 3: percentages 0, 60, 60, 60 average to 45.
	last := s.Points[6]
	if last.Value != 45 {
		t.Errorf("last bucket value = %d, want 45", last.Value)
	}
}

func TestTimeline1YAveragesArchivedCycles(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()

	createTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)
	logPoints(t, d, "t1", "u1", 40, ts(t, "2024-01-03T00:00:00Z"))
	logPoints(t, d, "t1", "u1", 80, ts(t, "2024-01-10T00:00:00Z"))

	// Roll into cycle 2 (starting Jan 15): cycles 0 (40%) and 1
	// (80%) both end in January.
	now := ts(t, "2024-01-20T00:00:00Z")
	if _, err := e.EnsureCurrentCycle(ctx, "t1", now); err != nil {
		t.Fatalf("EnsureCurrentCycle: %v", err)
	}

	s, err := e.Timeline(ctx, "t1", "", Range1Y, now)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(s.Points) != 12 {
		t.Fatalf("got %d points, want 12", len(s.Points))
	}

	jan := s.Points[11]
	if jan.Label != "Jan" {
		t.Errorf("label = %q, want \"Jan\"", jan.Label)
	}
	// Cycles 0 and 1 archived at 40 and 80, plus the live cycle at
	// 0% so far: (40+80+0)/3 = 40.
	if jan.CycleCount == nil || *jan.CycleCount != 3 {
		t.Errorf("CycleCount = %v, want 3", jan.CycleCount)
	}
	if jan.Value != 40 {
		t.Errorf("value = %d, want 40", jan.Value)
	}

	// Months before the team existed: zero value, zero cycles.
	dec := s.Points[10]
	if dec.Value != 0 || dec.CycleCount == nil || *dec.CycleCount != 0 {
		t.Errorf("empty month = %+v, want 0/0", dec)
	}
}

func TestTimelineInvalidRange(t *testing.T) {
	e, d := newTestEngine(t)
	createTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)

	_, err := e.Timeline(context.Background(), "t1", "", Range("7D"),
		ts(t, "2024-01-05T00:00:00Z"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Timeline = %v, want ErrInvalidRange", err)
	}
}
