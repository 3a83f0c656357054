// Command testfixture writes a demo database: a few teams with
// several weeks of activity, archived cycles, and mid-stream target
// changes. Useful for exercising the API by hand.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/teampulse/teampulse/internal/analytics"
	"github.com/teampulse/teampulse/internal/cycle"
	"github.com/teampulse/teampulse/internal/db"
)

type teamSpec struct {
	id      string
	name    string
	target  float64
	members []string
	weeks   int
	// dailyMax caps the random per-member daily points.
	dailyMax float64
}

var specs = []teamSpec{
	{"alpha", "Team Alpha", 100, []string{"ana", "ben", "cleo"}, 6, 8},
	{"beta", "Team Beta", 250, []string{"dev", "eva"}, 4, 30},
	{"gamma", "Team Gamma", 40, []string{"finn", "gia", "hugo", "iris"}, 2, 3},
}

func main() {
	out := flag.String("out", "", "output database path")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: testfixture -out <path>")
		os.Exit(1)
	}

	if err := os.Remove(*out); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Fatalf("removing existing db: %v", err)
	}

	database, err := db.Open(*out)
	if err != nil {
		log.Fatalf("opening db: %v", err)
	}
	defer database.Close()

	now := time.Now().UTC()
	rng := rand.New(rand.NewSource(42))

	for _, spec := range specs {
		if err := seedTeam(database, spec, now, rng); err != nil {
			log.Fatalf("seeding team %s: %v", spec.id, err)
		}
		fmt.Printf("  %s: %d members, %d weeks of activity\n",
			spec.id, len(spec.members), spec.weeks)
	}

	// Roll elapsed cycles so the fixture starts with history in
	// place instead of archiving on the first overview request.
	engine := analytics.New(database)
	for _, spec := range specs {
		if _, err := engine.EnsureCurrentCycle(
			context.Background(), spec.id, now,
		); err != nil {
			log.Fatalf("archiving team %s: %v", spec.id, err)
		}
	}

	fmt.Printf("Fixture DB written to %s\n", *out)
}

func seedTeam(
	database *db.DB, spec teamSpec, now time.Time, rng *rand.Rand,
) error {
	ctx := context.Background()
	created := now.AddDate(0, 0, -7*spec.weeks)
	c := cycle.Resolve(created, created)

	err := database.CreateTeam(ctx, db.Team{
		ID:          spec.id,
		Name:        spec.name,
		CreatedAt:   created,
		CycleStart:  c.Start,
		CycleEnd:    c.End,
		TargetValue: spec.target,
	})
	if err != nil {
		return err
	}
	err = database.AppendSnapshot(ctx, db.Snapshot{
		TeamID: spec.id, At: created, Value: spec.target,
	})
	if err != nil {
		return err
	}

	// Bump the team target once, half way through the seeded span.
	bumpAt := created.AddDate(0, 0, 7*spec.weeks/2)
	err = database.AppendSnapshot(ctx, db.Snapshot{
		TeamID: spec.id, At: bumpAt, Value: spec.target * 1.2,
	})
	if err != nil {
		return err
	}
	if err := database.UpdateTargetValue(ctx, spec.id, spec.target*1.2); err != nil {
		return err
	}

	for day := 0; day < 7*spec.weeks; day++ {
		at := created.AddDate(0, 0, day).Add(10 * time.Hour)
		if at.After(now) {
			break
		}
		for _, member := range spec.members {
			points := rng.Float64() * spec.dailyMax
			if points < 0.5 {
				continue // quiet day
			}
			err := database.InsertActivity(ctx, db.Activity{
				TeamID: spec.id,
				UserID: member,
				Points: points,
				At:     at,
			})
			if err != nil {
				return err
			}
		}
	}

	// Personal targets for the first member of each team.
	return database.AppendSnapshot(ctx, db.Snapshot{
		TeamID: spec.id,
		UserID: spec.members[0],
		At:     created,
		Value:  spec.target / float64(len(spec.members)),
	})
}
