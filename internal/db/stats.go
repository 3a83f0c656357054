package db

import (
	"context"
	"fmt"
)

// Stats holds database-wide record counts.
type Stats struct {
	TeamCount     int `json:"team_count"`
	ActivityCount int `json:"activity_count"`
	SnapshotCount int `json:"snapshot_count"`
	CycleCount    int `json:"cycle_count"`
}

// GetStats returns record counts across all tables.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM teams),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM target_snapshots),
			(SELECT COUNT(*) FROM cycle_history)`

	var s Stats
	err := db.reader.QueryRowContext(ctx, query).Scan(
		&s.TeamCount,
		&s.ActivityCount,
		&s.SnapshotCount,
		&s.CycleCount,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("fetching stats: %w", err)
	}
	return s, nil
}
