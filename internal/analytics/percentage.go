package analytics

import (
	"context"
	"time"

	"github.com/teampulse/teampulse/internal/cycle"
	"github.com/teampulse/teampulse/internal/timeutil"
)

// CycleInfo identifies the cycle a percentage was computed against.
type CycleInfo struct {
	Index    int     `json:"index"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Target   float64 `json:"target"`
	Archived bool    `json:"archived"`
}

// Percentage is the result of a point-in-time progress query.
// Cycle is nil when the instant falls outside every known cycle for
// the team.
type Percentage struct {
	Percentage int        `json:"percentage"`
	Cycle      *CycleInfo `json:"cycle,omitempty"`
}

// PercentageAt computes percent-of-target completed at the given
// instant, for the whole team (userID "") or one member. It is a
// read-only query: it never triggers archiving, so it can be called
// with unlimited concurrency.
//
// An archived history entry containing the instant wins, and its
// persisted target is authoritative for the team scope. Otherwise the
// live window applies and the target is reconstructed from the
// snapshot log. Member percentages always reconstruct the personal
// target from snapshots (history entries only record the team
// target).
func (e *Engine) PercentageAt(
	ctx context.Context, teamID, userID string, at time.Time,
) (Percentage, error) {
	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return Percentage{}, err
	}

	var (
		winStart, winEnd time.Time
		target           float64
		archived         bool
	)

	entry, ok, err := e.store.HistoryEntryAt(ctx, teamID, at)
	switch {
	case err != nil:
		return Percentage{}, err
	case ok:
		winStart, winEnd = entry.Start, entry.End
		target = entry.TargetValue
		archived = true
	case !at.Before(team.CycleStart) && !at.After(team.CycleEnd):
		winStart, winEnd = team.CycleStart, team.CycleEnd
		target, _, err = e.store.LatestSnapshotBefore(ctx, teamID, "", at)
		if err != nil {
			return Percentage{}, err
		}
	default:
		// Outside every known cycle: defined zero, no cycle info.
		return Percentage{}, nil
	}

	if userID != "" {
		target, _, err = e.store.LatestSnapshotBefore(ctx, teamID, userID, at)
		if err != nil {
			return Percentage{}, err
		}
	}

	points, err := e.store.SumPoints(ctx, teamID, userID, winStart, at)
	if err != nil {
		return Percentage{}, err
	}

	return Percentage{
		Percentage: roundPct(points, target),
		Cycle: &CycleInfo{
			Index:    cycle.Resolve(team.CreatedAt, at).Index,
			Start:    timeutil.Format(winStart),
			End:      timeutil.Format(winEnd),
			Target:   target,
			Archived: archived,
		},
	}, nil
}
