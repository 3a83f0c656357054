package analytics

import (
	"context"
	"math"
	"time"

	"github.com/teampulse/teampulse/internal/cycle"
	"github.com/teampulse/teampulse/internal/db"
	"github.com/teampulse/teampulse/internal/timeutil"
)

// Overview is the current-cycle progress summary for a team or one
// member.
type Overview struct {
	TeamID               string  `json:"team_id"`
	UserID               string  `json:"user_id,omitempty"`
	CycleStart           string  `json:"cycle_start"`
	CycleEnd             string  `json:"cycle_end"`
	Target               float64 `json:"target"`
	Total                float64 `json:"total"`
	PercentOfTarget      int     `json:"percent_of_target"`
	PercentOfTimeElapsed int     `json:"percent_of_time_elapsed"`
}

// Overview rolls over any elapsed cycles first, then reports the
// team's progress in the (possibly fresh) live cycle.
func (e *Engine) Overview(
	ctx context.Context, teamID string, now time.Time,
) (Overview, error) {
	team, err := e.EnsureCurrentCycle(ctx, teamID, now)
	if err != nil {
		return Overview{}, err
	}

	total, err := e.store.SumPoints(ctx, teamID, "", team.CycleStart, now)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		TeamID:               teamID,
		CycleStart:           timeutil.Format(team.CycleStart),
		CycleEnd:             timeutil.Format(team.CycleEnd),
		Target:               team.TargetValue,
		Total:                total,
		PercentOfTarget:      roundPct(total, team.TargetValue),
		PercentOfTimeElapsed: timeElapsedPct(team.CycleStart, now),
	}, nil
}

// UserOverview is the member-scoped variant: personal target from the
// snapshot log, personal points only. Unknown members are reported as
// not found.
func (e *Engine) UserOverview(
	ctx context.Context, teamID, userID string, now time.Time,
) (Overview, error) {
	team, err := e.EnsureCurrentCycle(ctx, teamID, now)
	if err != nil {
		return Overview{}, err
	}

	known, err := e.store.HasMemberData(ctx, teamID, userID)
	if err != nil {
		return Overview{}, err
	}
	if !known {
		return Overview{}, db.ErrNotFound
	}

	target, _, err := e.store.LatestSnapshotBefore(ctx, teamID, userID, now)
	if err != nil {
		return Overview{}, err
	}
	total, err := e.store.SumPoints(ctx, teamID, userID, team.CycleStart, now)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		TeamID:               teamID,
		UserID:               userID,
		CycleStart:           timeutil.Format(team.CycleStart),
		CycleEnd:             timeutil.Format(team.CycleEnd),
		Target:               target,
		Total:                total,
		PercentOfTarget:      roundPct(total, target),
		PercentOfTimeElapsed: timeElapsedPct(team.CycleStart, now),
	}, nil
}

// MemberProgress lists per-member point totals for the current live
// cycle. This is a plain read: it does not trigger archiving, so the
// totals always refer to the stored window.
func (e *Engine) MemberProgress(
	ctx context.Context, teamID string, now time.Time,
) ([]db.MemberTotal, error) {
	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	totals, err := e.store.MemberTotals(ctx, teamID, team.CycleStart, now)
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = []db.MemberTotal{}
	}
	return totals, nil
}

// timeElapsedPct is how far through the 7-day window now is, clamped
// to [0, 100].
func timeElapsedPct(start, now time.Time) int {
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	pct := int(math.Round(float64(elapsed) / float64(cycle.Length) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
