package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// openTestDB opens a fresh database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "teampulse.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return v
}

// insertTeam creates a team anchored at created with a 7-day live
// window starting there.
func insertTeam(
	t *testing.T, d *DB, id string, created time.Time, target float64,
) Team {
	t.Helper()
	team := Team{
		ID:          id,
		Name:        "team " + id,
		CreatedAt:   created,
		CycleStart:  created,
		CycleEnd:    created.Add(7*24*time.Hour - time.Millisecond),
		TargetValue: target,
	}
	if err := d.CreateTeam(context.Background(), team); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return team
}

func insertActivity(
	t *testing.T, d *DB, teamID, userID string, points float64, at time.Time,
) {
	t.Helper()
	err := d.InsertActivity(context.Background(), Activity{
		TeamID: teamID, UserID: userID, Points: points, At: at,
	})
	if err != nil {
		t.Fatalf("InsertActivity: %v", err)
	}
}

func appendSnapshot(
	t *testing.T, d *DB, teamID, userID string, at time.Time, value float64,
) {
	t.Helper()
	err := d.AppendSnapshot(context.Background(), Snapshot{
		TeamID: teamID, UserID: userID, At: at, Value: value,
	})
	if err != nil {
		t.Fatalf("AppendSnapshot: %v", err)
	}
}

func TestGetTeamRoundTrip(t *testing.T) {
	d := openTestDB(t)
	created := ts(t, "2024-01-01T00:00:00Z")
	insertTeam(t, d, "t1", created, 100)

	got, err := d.GetTeam(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if want := ts(t, "2024-01-07T23:59:59.999Z"); !got.CycleEnd.Equal(want) {
		t.Errorf("CycleEnd = %v, want %v", got.CycleEnd, want)
	}
	if got.TargetValue != 100 {
		t.Errorf("TargetValue = %v, want 100", got.TargetValue)
	}
	if got.CycleEndStr != "2024-01-07T23:59:59.999Z" {
		t.Errorf("CycleEndStr = %q", got.CycleEndStr)
	}
}

func TestGetTeamNotFound(t *testing.T) {
	d := openTestDB(t)
	if _, err := d.GetTeam(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("GetTeam = %v, want ErrNotFound", err)
	}
}

func TestUpdateTargetValue(t *testing.T) {
	d := openTestDB(t)
	insertTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)

	if err := d.UpdateTargetValue(context.Background(), "t1", 150); err != nil {
		t.Fatalf("UpdateTargetValue: %v", err)
	}
	got, err := d.GetTeam(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if got.TargetValue != 150 {
		t.Errorf("TargetValue = %v, want 150", got.TargetValue)
	}

	if err := d.UpdateTargetValue(context.Background(), "nope", 1); err != ErrNotFound {
		t.Errorf("UpdateTargetValue = %v, want ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	d := openTestDB(t)
	insertTeam(t, d, "t1", ts(t, "2024-01-01T00:00:00Z"), 100)
	insertActivity(t, d, "t1", "u1", 10, ts(t, "2024-01-02T00:00:00Z"))
	appendSnapshot(t, d, "t1", "", ts(t, "2024-01-01T00:00:00Z"), 100)

	s, err := d.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if s.TeamCount != 1 || s.ActivityCount != 1 || s.SnapshotCount != 1 || s.CycleCount != 0 {
		t.Errorf("GetStats = %+v", s)
	}
}
