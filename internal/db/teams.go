package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teampulse/teampulse/internal/timeutil"
)

// Team is the live cycle state for one team: the immutable creation
// anchor, the currently active cycle window, and the current
// cumulative target. The window is advanced only by the archiver;
// target changes touch TargetValue and append a snapshot, never the
// window.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"-"`
	CycleStart  time.Time `json:"-"`
	CycleEnd    time.Time `json:"-"`
	TargetValue float64   `json:"target_value"`

	// JSON views of the instants above.
	CreatedAtStr  string `json:"created_at"`
	CycleStartStr string `json:"cycle_start"`
	CycleEndStr   string `json:"cycle_end"`
}

// fillStrings populates the formatted timestamp fields.
func (t *Team) fillStrings() {
	t.CreatedAtStr = timeutil.Format(t.CreatedAt)
	t.CycleStartStr = timeutil.Format(t.CycleStart)
	t.CycleEndStr = timeutil.Format(t.CycleEnd)
}

// HistoryEntry is one archived cycle. Immutable once written.
type HistoryEntry struct {
	TeamID        string    `json:"team_id"`
	Start         time.Time `json:"-"`
	End           time.Time `json:"-"`
	TargetValue   float64   `json:"target_value"`
	CompletionPct int       `json:"completion_pct"`

	// JSON views of the instants above.
	StartStr string `json:"start"`
	EndStr   string `json:"end"`
}

// fillStrings populates the formatted timestamp fields.
func (e *HistoryEntry) fillStrings() {
	e.StartStr = timeutil.Format(e.Start)
	e.EndStr = timeutil.Format(e.End)
}

// CreateTeam inserts a new team with its initial live cycle window.
func (db *DB) CreateTeam(ctx context.Context, t Team) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.ExecContext(ctx, `
		INSERT INTO teams
			(id, name, created_ms, cycle_start_ms, cycle_end_ms, target_value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, toMillis(t.CreatedAt),
		toMillis(t.CycleStart), toMillis(t.CycleEnd), t.TargetValue,
	)
	if err != nil {
		return fmt.Errorf("inserting team %s: %w", t.ID, err)
	}
	return nil
}

// GetTeam returns the live record for a team, or ErrNotFound.
func (db *DB) GetTeam(ctx context.Context, id string) (Team, error) {
	var (
		t                         Team
		createdMS, startMS, endMS int64
	)
	err := db.reader.QueryRowContext(ctx, `
		SELECT id, name, created_ms, cycle_start_ms, cycle_end_ms, target_value
		FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &createdMS, &startMS, &endMS, &t.TargetValue)
	if errors.Is(err, sql.ErrNoRows) {
		return Team{}, ErrNotFound
	}
	if err != nil {
		return Team{}, fmt.Errorf("fetching team %s: %w", id, err)
	}
	t.CreatedAt = fromMillis(createdMS)
	t.CycleStart = fromMillis(startMS)
	t.CycleEnd = fromMillis(endMS)
	t.fillStrings()
	return t, nil
}

// UpdateTargetValue sets the live target value. The cycle window is
// deliberately untouched; callers append a snapshot alongside.
func (db *DB) UpdateTargetValue(
	ctx context.Context, id string, value float64,
) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.writer.ExecContext(ctx,
		`UPDATE teams SET target_value = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("updating target for team %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating target for team %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceCycle archives one elapsed cycle and moves the live window
// forward, as a single transaction. The history insert is idempotent
// on (team_id, start_ms): a concurrent rollover that lost the race
// inserts nothing and the window update is a harmless re-write of the
// same values.
func (db *DB) AdvanceCycle(
	ctx context.Context, entry HistoryEntry, newStart, newEnd time.Time,
) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rollover: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycle_history
			(team_id, start_ms, end_ms, target_value, completion_pct)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (team_id, start_ms) DO NOTHING`,
		entry.TeamID, toMillis(entry.Start), toMillis(entry.End),
		entry.TargetValue, entry.CompletionPct,
	)
	if err != nil {
		return fmt.Errorf("archiving cycle for team %s: %w", entry.TeamID, err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE teams SET cycle_start_ms = ?, cycle_end_ms = ?
		WHERE id = ?`,
		toMillis(newStart), toMillis(newEnd), entry.TeamID,
	)
	if err != nil {
		return fmt.Errorf("advancing cycle for team %s: %w", entry.TeamID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advancing cycle for team %s: %w", entry.TeamID, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rollover for team %s: %w", entry.TeamID, err)
	}
	return nil
}

// HistoryEntryAt returns the archived cycle containing at, if any.
func (db *DB) HistoryEntryAt(
	ctx context.Context, teamID string, at time.Time,
) (HistoryEntry, bool, error) {
	ms := toMillis(at)
	var (
		e              HistoryEntry
		startMS, endMS int64
	)
	err := db.reader.QueryRowContext(ctx, `
		SELECT team_id, start_ms, end_ms, target_value, completion_pct
		FROM cycle_history
		WHERE team_id = ? AND start_ms <= ? AND end_ms >= ?`,
		teamID, ms, ms,
	).Scan(&e.TeamID, &startMS, &endMS, &e.TargetValue, &e.CompletionPct)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, false, nil
	}
	if err != nil {
		return HistoryEntry{}, false, fmt.Errorf(
			"querying history for team %s: %w", teamID, err)
	}
	e.Start = fromMillis(startMS)
	e.End = fromMillis(endMS)
	e.fillStrings()
	return e, true, nil
}

// HistoryEndedBetween returns archived cycles whose end falls within
// [from, to], oldest first. Used by the yearly timeline.
func (db *DB) HistoryEndedBetween(
	ctx context.Context, teamID string, from, to time.Time,
) ([]HistoryEntry, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT team_id, start_ms, end_ms, target_value, completion_pct
		FROM cycle_history
		WHERE team_id = ? AND end_ms >= ? AND end_ms <= ?
		ORDER BY start_ms`,
		teamID, toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, fmt.Errorf("querying history for team %s: %w", teamID, err)
	}
	defer rows.Close()
	return scanHistory(rows, teamID)
}

// ListHistory returns all archived cycles for a team, oldest first.
func (db *DB) ListHistory(
	ctx context.Context, teamID string,
) ([]HistoryEntry, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT team_id, start_ms, end_ms, target_value, completion_pct
		FROM cycle_history
		WHERE team_id = ?
		ORDER BY start_ms`, teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history for team %s: %w", teamID, err)
	}
	defer rows.Close()
	return scanHistory(rows, teamID)
}

func scanHistory(rows *sql.Rows, teamID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for rows.Next() {
		var (
			e              HistoryEntry
			startMS, endMS int64
		)
		if err := rows.Scan(
			&e.TeamID, &startMS, &endMS, &e.TargetValue, &e.CompletionPct,
		); err != nil {
			return nil, fmt.Errorf(
				"scanning history for team %s: %w", teamID, err)
		}
		e.Start = fromMillis(startMS)
		e.End = fromMillis(endMS)
		e.fillStrings()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(
			"iterating history for team %s: %w", teamID, err)
	}
	return entries, nil
}
