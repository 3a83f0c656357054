package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

// Snapshot is one entry in the append-only target change log.
// UserID "" means the team-wide target scope.
type Snapshot struct {
	TeamID string
	UserID string
	At     time.Time
	Value  float64
}

// AppendSnapshot records a target change. Snapshots are never updated
// or deleted; historical targets are reconstructed by reading the
// latest snapshot at or before an instant.
func (db *DB) AppendSnapshot(ctx context.Context, s Snapshot) error {
	if s.Value < 0 || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("snapshot value must be a finite non-negative number, got %v", s.Value)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.ExecContext(ctx, `
		INSERT INTO target_snapshots (team_id, user_id, ts_ms, value)
		VALUES (?, ?, ?, ?)`,
		s.TeamID, s.UserID, toMillis(s.At), s.Value,
	)
	if err != nil {
		return fmt.Errorf("appending snapshot for team %s: %w", s.TeamID, err)
	}
	return nil
}

// LatestSnapshotBefore returns the value of the snapshot with the
// greatest timestamp <= at for the given scope. The second return is
// false when the scope has no snapshot that early; callers treat that
// as an effective target of zero. The descending scope index keeps
// this a single-row lookup regardless of log size.
func (db *DB) LatestSnapshotBefore(
	ctx context.Context, teamID, userID string, at time.Time,
) (float64, bool, error) {
	var value float64
	err := db.reader.QueryRowContext(ctx, `
		SELECT value FROM target_snapshots
		WHERE team_id = ? AND user_id = ? AND ts_ms <= ?
		ORDER BY ts_ms DESC
		LIMIT 1`,
		teamID, userID, toMillis(at),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf(
			"querying snapshot for team %s: %w", teamID, err)
	}
	return value, true, nil
}

// HasMemberData reports whether a user has left any trace (activity
// or personal snapshot) in a team. There is no membership table in
// this subsystem; member-scoped endpoints use this to 404 on ids
// that never resolved.
func (db *DB) HasMemberData(
	ctx context.Context, teamID, userID string,
) (bool, error) {
	var n int
	err := db.reader.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM activities
				WHERE team_id = ? AND user_id = ? LIMIT 1) +
			(SELECT COUNT(*) FROM target_snapshots
				WHERE team_id = ? AND user_id = ? LIMIT 1)`,
		teamID, userID, teamID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf(
			"checking member %s of team %s: %w", userID, teamID, err)
	}
	return n > 0, nil
}
