package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/teampulse/teampulse/internal/cycle"
	"github.com/teampulse/teampulse/internal/db"
)

// EnsureCurrentCycle rolls the team's live window forward until it
// contains now, archiving each elapsed cycle with its final
// percentage. Rollover is driven lazily by reads, not a background
// timer: whichever request first observes now past the stored end
// performs the transition. The history insert is idempotent on the
// cycle start, so a concurrent rollover is absorbed as a no-op.
//
// The archive and the window advance commit together; if the advance
// fails the whole operation fails and no history entry is left
// behind. The returned record is re-read after each advance.
func (e *Engine) EnsureCurrentCycle(
	ctx context.Context, teamID string, now time.Time,
) (db.Team, error) {
	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return db.Team{}, err
	}

	// A team left untouched for weeks may owe several rollovers.
	for now.After(team.CycleEnd) {
		final, err := e.PercentageAt(ctx, teamID, "", team.CycleEnd)
		if err != nil {
			return db.Team{}, fmt.Errorf(
				"computing final percentage for team %s: %w", teamID, err)
		}

		entry := db.HistoryEntry{
			TeamID:        teamID,
			Start:         team.CycleStart,
			End:           team.CycleEnd,
			TargetValue:   team.TargetValue,
			CompletionPct: final.Percentage,
		}
		newStart, newEnd := cycle.NextWindow(team.CycleEnd)

		if err := e.store.AdvanceCycle(ctx, entry, newStart, newEnd); err != nil {
			return db.Team{}, fmt.Errorf(
				"rolling over cycle for team %s: %w", teamID, err)
		}

		team, err = e.store.GetTeam(ctx, teamID)
		if err != nil {
			return db.Team{}, err
		}
	}
	return team, nil
}
