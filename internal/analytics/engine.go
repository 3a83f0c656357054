// Package analytics computes cycle-based target progress: percent of
// a team's (or member's) point target completed at an instant, lazy
// archiving of elapsed cycles, and multi-resolution timelines. All
// operations are request-scoped reads over the store except the
// archiver's rollover write.
package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/teampulse/teampulse/internal/db"
)

// ErrInvalidRange is returned for a timeline range outside the four
// supported values.
var ErrInvalidRange = errors.New("invalid timeline range")

// Store is the persistence surface the engine consumes. *db.DB
// satisfies it.
type Store interface {
	GetTeam(ctx context.Context, id string) (db.Team, error)
	AdvanceCycle(ctx context.Context, entry db.HistoryEntry, newStart, newEnd time.Time) error
	HistoryEntryAt(ctx context.Context, teamID string, at time.Time) (db.HistoryEntry, bool, error)
	HistoryEndedBetween(ctx context.Context, teamID string, from, to time.Time) ([]db.HistoryEntry, error)
	LatestSnapshotBefore(ctx context.Context, teamID, userID string, at time.Time) (float64, bool, error)
	SumPoints(ctx context.Context, teamID, userID string, from, to time.Time) (float64, error)
	MemberTotals(ctx context.Context, teamID string, from, to time.Time) ([]db.MemberTotal, error)
	HasMemberData(ctx context.Context, teamID, userID string) (bool, error)
}

// Engine is the analytics core. It is stateless; every method takes
// the query instant explicitly so results are deterministic.
type Engine struct {
	store Store
}

// New creates an Engine over the given store.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// roundPct converts a points/target ratio to a whole percentage
// clamped to [0, 100]. A target of zero or less is a defined zero
// result, never a division.
func roundPct(points, target float64) int {
	if target <= 0 {
		return 0
	}
	pct := int(math.Round(points / target * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
