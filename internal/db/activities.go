package db

import (
	"context"
	"fmt"
	"time"
)

// Activity is one point-valued activity record. Points are fixed at
// creation; the analytics engine only ever reads these rows.
type Activity struct {
	TeamID string
	UserID string
	Points float64
	At     time.Time
}

// InsertActivity appends an activity record.
func (db *DB) InsertActivity(ctx context.Context, a Activity) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.ExecContext(ctx, `
		INSERT INTO activities (team_id, user_id, points, ts_ms)
		VALUES (?, ?, ?, ?)`,
		a.TeamID, a.UserID, a.Points, toMillis(a.At),
	)
	if err != nil {
		return fmt.Errorf("inserting activity for team %s: %w", a.TeamID, err)
	}
	return nil
}

// SumPoints sums activity points for a team within [from, to],
// inclusive both ends. userID "" sums the whole team; otherwise only
// that member's records. Each record counts against exactly one team,
// so there is no fan-out to de-duplicate here.
func (db *DB) SumPoints(
	ctx context.Context, teamID, userID string, from, to time.Time,
) (float64, error) {
	query := `
		SELECT COALESCE(SUM(points), 0) FROM activities
		WHERE team_id = ? AND ts_ms >= ? AND ts_ms <= ?`
	args := []any{teamID, toMillis(from), toMillis(to)}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	var total float64
	err := db.reader.QueryRowContext(ctx, query, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing points for team %s: %w", teamID, err)
	}
	return total, nil
}

// MemberTotal is one member's point total within a window.
type MemberTotal struct {
	UserID string  `json:"user_id"`
	Points float64 `json:"points"`
}

// MemberTotals returns per-member point sums for a team within
// [from, to], highest first.
func (db *DB) MemberTotals(
	ctx context.Context, teamID string, from, to time.Time,
) ([]MemberTotal, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT user_id, COALESCE(SUM(points), 0) AS points
		FROM activities
		WHERE team_id = ? AND ts_ms >= ? AND ts_ms <= ?
		GROUP BY user_id
		ORDER BY points DESC, user_id`,
		teamID, toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"querying member totals for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var totals []MemberTotal
	for rows.Next() {
		var mt MemberTotal
		if err := rows.Scan(&mt.UserID, &mt.Points); err != nil {
			return nil, fmt.Errorf(
				"scanning member total for team %s: %w", teamID, err)
		}
		totals = append(totals, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(
			"iterating member totals for team %s: %w", teamID, err)
	}
	return totals, nil
}
