package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teampulse/teampulse/internal/db"
)

// memStore collects inserted activities.
type memStore struct {
	activities []db.Activity
	failAfter  int // fail on insert N (0 = never)
}

func (m *memStore) InsertActivity(_ context.Context, a db.Activity) error {
	if m.failAfter > 0 && len(m.activities)+1 >= m.failAfter {
		return os.ErrClosed
	}
	m.activities = append(m.activities, a)
	return nil
}

func writeExport(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.jsonl")
	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	require.NoError(t, err)
	return path
}

func TestImportFile(t *testing.T) {
	path := writeExport(t,
		`{"team":"t1","user":"u1","points":12.5,"timestamp":"2024-01-03T08:00:00Z"}`,
		`{"team":"t1","user":"u2","points":3,"timestamp":"2024-01-03T09:30:00Z"}`,
	)

	store := &memStore{}
	res, err := ImportFile(context.Background(), store, path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Skipped)

	require.Len(t, store.activities, 2)
	a := store.activities[0]
	assert.Equal(t, "t1", a.TeamID)
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, 12.5, a.Points)
	assert.Equal(t, "2024-01-03T08:00:00Z", a.At.Format("2006-01-02T15:04:05Z"))
}

func TestImportFileSkipsMalformedLines(t *testing.T) {
	// One bad line of each kind between two good records: invalid
	// JSON, missing team, missing user, missing points, negative
	// points, bad timestamp. The blank line is ignored, not counted.
	path := writeExport(t,
		`{"team":"t1","user":"u1","points":5,"timestamp":"2024-01-03T08:00:00Z"}`,
		`not json at all`,
		`{"user":"u1","points":5,"timestamp":"2024-01-03T08:00:00Z"}`,
		`{"team":"t1","points":5,"timestamp":"2024-01-03T08:00:00Z"}`,
		`{"team":"t1","user":"u1","timestamp":"2024-01-03T08:00:00Z"}`,
		`{"team":"t1","user":"u1","points":-2,"timestamp":"2024-01-03T08:00:00Z"}`,
		`{"team":"t1","user":"u1","points":5,"timestamp":"yesterday"}`,
		``,
		`{"team":"t1","user":"u2","points":7,"timestamp":"2024-01-04T08:00:00Z"}`,
	)

	store := &memStore{}
	res, err := ImportFile(context.Background(), store, path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 6, res.Skipped)
}

func TestImportFileMissing(t *testing.T) {
	store := &memStore{}
	_, err := ImportFile(context.Background(), store,
		filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
}

func TestImportFileStoreFailureAborts(t *testing.T) {
	path := writeExport(t,
		`{"team":"t1","user":"u1","points":1,"timestamp":"2024-01-03T08:00:00Z"}`,
		`{"team":"t1","user":"u1","points":2,"timestamp":"2024-01-03T09:00:00Z"}`,
	)

	store := &memStore{failAfter: 1}
	_, err := ImportFile(context.Background(), store, path)
	require.Error(t, err)
}

func TestImportFilesContinuesPastFailures(t *testing.T) {
	good := writeExport(t,
		`{"team":"t1","user":"u1","points":1,"timestamp":"2024-01-03T08:00:00Z"}`,
	)
	missing := filepath.Join(t.TempDir(), "gone.jsonl")

	store := &memStore{}
	res, err := ImportFiles(context.Background(), store, []string{missing, good})
	require.Error(t, err)
	assert.Equal(t, 1, res.Imported)
}

func TestParseLineTimezoneNormalized(t *testing.T) {
	a, ok := parseLine(
		`{"team":"t1","user":"u1","points":1,"timestamp":"2024-01-03T10:00:00+02:00"}`)
	require.True(t, ok)
	assert.Equal(t, "2024-01-03T08:00:00Z", a.At.Format("2006-01-02T15:04:05Z"))
}
