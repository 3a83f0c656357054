// Package importer ingests activity records from JSONL export files.
// Each line is one record:
//
//	{"team":"t1","user":"u1","points":12.5,"timestamp":"2024-01-03T08:00:00Z"}
//
// Malformed lines are counted and skipped rather than aborting the
// file; activity exports from the mobile app routinely contain
// partial trailing lines.
package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/teampulse/teampulse/internal/db"
	"github.com/teampulse/teampulse/internal/timeutil"
)

const (
	initialScanBufSize = 64 * 1024   // 64KB
	maxLineSize        = 1024 * 1024 // 1MB
)

// Store is the write surface the importer needs. *db.DB satisfies it.
type Store interface {
	InsertActivity(ctx context.Context, a db.Activity) error
}

// Result summarizes one import run.
type Result struct {
	Imported int
	Skipped  int
}

// ImportFile ingests a single JSONL activity export.
func ImportFile(ctx context.Context, store Store, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := importReader(ctx, store, f)
	if err != nil {
		return res, fmt.Errorf("importing %s: %w", path, err)
	}
	return res, nil
}

// ImportFiles ingests several exports, continuing past per-file
// failures. The first error is returned after all files are tried.
func ImportFiles(
	ctx context.Context, store Store, paths []string,
) (Result, error) {
	var total Result
	var firstErr error
	for _, path := range paths {
		res, err := ImportFile(ctx, store, path)
		total.Imported += res.Imported
		total.Skipped += res.Skipped
		if err != nil {
			log.Printf("import: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return total, firstErr
}

func importReader(
	ctx context.Context, store Store, r io.Reader,
) (Result, error) {
	var res Result

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialScanBufSize), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		a, ok := parseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		if err := store.InsertActivity(ctx, a); err != nil {
			return res, err
		}
		res.Imported++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading lines: %w", err)
	}
	return res, nil
}

// parseLine extracts one activity record. Lines missing a team, user,
// parseable timestamp, or finite non-negative points are rejected.
func parseLine(line string) (db.Activity, bool) {
	if !gjson.Valid(line) {
		return db.Activity{}, false
	}

	teamID := gjson.Get(line, "team").Str
	userID := gjson.Get(line, "user").Str
	if teamID == "" || userID == "" {
		return db.Activity{}, false
	}

	pts := gjson.Get(line, "points")
	if !pts.Exists() {
		return db.Activity{}, false
	}
	points := pts.Float()
	if points < 0 || math.IsNaN(points) || math.IsInf(points, 0) {
		return db.Activity{}, false
	}

	at, err := timeutil.Parse(gjson.Get(line, "timestamp").Str)
	if err != nil {
		return db.Activity{}, false
	}

	return db.Activity{
		TeamID: teamID,
		UserID: userID,
		Points: points,
		At:     at.UTC(),
	}, true
}
