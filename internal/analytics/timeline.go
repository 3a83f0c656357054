package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/teampulse/teampulse/internal/cycle"
	"github.com/teampulse/teampulse/internal/db"
	"github.com/teampulse/teampulse/internal/timeutil"
)

// Range is a named timeline window.
type Range string

const (
	Range24H Range = "24H"
	Range1W  Range = "1W"
	Range1M  Range = "1M"
	Range1Y  Range = "1Y"
)

// ParseRange validates a range parameter before any computation.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case Range24H, Range1W, Range1M, Range1Y:
		return Range(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
}

// Point is one sampled timeline value.
type Point struct {
	Timestamp string `json:"timestamp"`
	Label     string `json:"label"`
	FullLabel string `json:"full_label"`
	Value     int    `json:"value"`

	// CycleCount is set only for 1Y points: how many cycles the
	// month's average covers (0 for an empty month).
	CycleCount *int `json:"cycle_count,omitempty"`
}

// Series is a labeled timeline, oldest point first.
type Series struct {
	TeamID string  `json:"team_id"`
	UserID string  `json:"user_id,omitempty"`
	Range  Range   `json:"range"`
	Points []Point `json:"points"`
}

// Timeline samples completion percentage over the named range, ending
// at now. Grids are generated walking backward from now and emitted
// chronologically. 24H and 1W are independent point-in-time queries;
// 1M and 1Y aggregate across cycles and deliberately do not share
// that code path.
func (e *Engine) Timeline(
	ctx context.Context, teamID, userID string, r Range, now time.Time,
) (Series, error) {
	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return Series{}, err
	}

	var points []Point
	switch r {
	case Range24H:
		points, err = e.sampleHours(ctx, teamID, userID, now)
	case Range1W:
		points, err = e.sampleDays(ctx, teamID, userID, now)
	case Range1M:
		points, err = e.sampleBuckets(ctx, team, userID, now)
	case Range1Y:
		points, err = e.sampleMonths(ctx, team, userID, now)
	default:
		return Series{}, fmt.Errorf("%w: %q", ErrInvalidRange, r)
	}
	if err != nil {
		return Series{}, err
	}

	return Series{TeamID: teamID, UserID: userID, Range: r, Points: points}, nil
}

// sampleHours produces the 24H grid: 25 hourly points, newest = now.
func (e *Engine) sampleHours(
	ctx context.Context, teamID, userID string, now time.Time,
) ([]Point, error) {
	points := make([]Point, 0, 25)
	for i := 24; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * time.Hour)
		p, err := e.PercentageAt(ctx, teamID, userID, at)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{
			Timestamp: timeutil.Format(at),
			Label:     hourLabel(i),
			FullLabel: hourFullLabel(at),
			Value:     p.Percentage,
		})
	}
	return points, nil
}

// sampleDays produces the 1W grid: 7 points stepping back 24h from
// now, weekday labels.
func (e *Engine) sampleDays(
	ctx context.Context, teamID, userID string, now time.Time,
) ([]Point, error) {
	points := make([]Point, 0, 7)
	for i := 6; i >= 0; i-- {
		at := cycle.AddDays(now, -i)
		p, err := e.PercentageAt(ctx, teamID, userID, at)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{
			Timestamp: timeutil.Format(at),
			Label:     dayLabel(at),
			FullLabel: dayFullLabel(at),
			Value:     p.Percentage,
		})
	}
	return points, nil
}

// sampleBuckets produces the 1M grid: 7 buckets of 4 days each,
// covering the 28 days ending at now. Each bucket averages the
// percentages of the days belonging to its dominant cycle (the cycle
// index appearing most often among the 4 days; ties go to the most
// recent cycle). Days in a non-dominant cycle are excluded from the
// average. This by-vote attribution is the contract, not a bug to
// improve on.
func (e *Engine) sampleBuckets(
	ctx context.Context, team db.Team, userID string, now time.Time,
) ([]Point, error) {
	const bucketDays = 4

	days := make([]time.Time, 28)
	for i := range days {
		days[i] = cycle.AddDays(now, -(len(days) - 1 - i))
	}

	points := make([]Point, 0, 7)
	for b := 0; b < 7; b++ {
		bucket := days[b*bucketDays : (b+1)*bucketDays]

		idxs := make([]int, bucketDays)
		pcts := make([]int, bucketDays)
		for j, day := range bucket {
			idxs[j] = cycle.Resolve(team.CreatedAt, day).Index
			p, err := e.PercentageAt(ctx, team.ID, userID, day)
			if err != nil {
				return nil, err
			}
			pcts[j] = p.Percentage
		}

		dominant := dominantCycle(idxs)
		sum, n := 0, 0
		for j := range bucket {
			if idxs[j] == dominant {
				sum += pcts[j]
				n++
			}
		}
		avg := 0
		if n > 0 {
			avg = int(math.Round(float64(sum) / float64(n)))
		}

		last := bucket[bucketDays-1]
		points = append(points, Point{
			Timestamp: timeutil.Format(last),
			Label:     bucketLabel(last),
			FullLabel: bucketFullLabel(last),
			Value:     avg,
		})
	}
	return points, nil
}

// dominantCycle returns the cycle index appearing most often; ties
// break in favor of the most recent (largest) index.
func dominantCycle(idxs []int) int {
	counts := make(map[int]int, len(idxs))
	for _, idx := range idxs {
		counts[idx]++
	}
	best, bestCount := idxs[0], 0
	for idx, n := range counts {
		if n > bestCount || (n == bestCount && idx > best) {
			best, bestCount = idx, n
		}
	}
	return best
}

// sampleMonths produces the 1Y grid: 12 calendar months ending at
// now's month. A month's value is the average final percentage of
// the cycles that ended within it; for the current month the live
// cycle's percentage-so-far joins the average, unless a history
// entry with the same start already covers it.
//
// Team series use each entry's persisted completion percentage (it
// was fixed at archive time). Member series have no persisted
// per-user value, so the percentage is reconstructed at each cycle's
// end from the snapshot log.
func (e *Engine) sampleMonths(
	ctx context.Context, team db.Team, userID string, now time.Time,
) ([]Point, error) {
	points := make([]Point, 0, 12)
	for m := 11; m >= 0; m-- {
		monthStart := cycle.AddMonths(now, -m)
		monthEnd := cycle.MonthEnd(monthStart)

		entries, err := e.store.HistoryEndedBetween(
			ctx, team.ID, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}

		var sum float64
		count := 0
		for _, en := range entries {
			if userID == "" {
				sum += float64(en.CompletionPct)
			} else {
				p, err := e.PercentageAt(ctx, team.ID, userID, en.End)
				if err != nil {
					return nil, err
				}
				sum += float64(p.Percentage)
			}
			count++
		}

		if m == 0 && !team.CycleStart.After(monthEnd) &&
			!containsStart(entries, team.CycleStart) {
			p, err := e.PercentageAt(ctx, team.ID, userID, now)
			if err != nil {
				return nil, err
			}
			sum += float64(p.Percentage)
			count++
		}

		value := 0
		if count > 0 {
			value = int(math.Round(sum / float64(count)))
		}
		n := count
		points = append(points, Point{
			Timestamp:  timeutil.Format(monthStart),
			Label:      monthLabel(monthStart),
			FullLabel:  monthFullLabel(monthStart),
			Value:      value,
			CycleCount: &n,
		})
	}
	return points, nil
}

// containsStart reports whether any entry starts at the given
// instant. Guards the live cycle against double-counting when a
// concurrent request archived it mid-query.
func containsStart(entries []db.HistoryEntry, start time.Time) bool {
	for _, en := range entries {
		if en.Start.Equal(start) {
			return true
		}
	}
	return false
}
