package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "routinely.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE routines (id TEXT PRIMARY KEY, date TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO routines (id, date) VALUES ('r1', '2026-03-09'), ('r2', '2026-03-10')`)
	require.NoError(t, err)
	return dbPath
}

func countRoutines(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM routines").Scan(&n))
	return n
}

// tickingClock advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Second)
		return now
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t)
	taken := time.Date(2026, 3, 10, 21, 30, 15, 0, time.UTC)
	mgr := NewManager(dbPath, WithClock(func() time.Time { return taken }))

	info, err := mgr.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(dbPath), DirName, "routinely-20260310-213015.db"), info.Path)
	assert.True(t, info.Taken.Equal(taken))
	assert.Positive(t, info.SizeBytes)
	assert.Equal(t, 2, countRoutines(t, info.Path))

	second, err := mgr.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "routinely-20260310-213015-1.db", filepath.Base(second.Path))

	all, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.Path, all[0].Path)
}

func TestCreate_MissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "nope.db"))
	_, err := mgr.Create(context.Background())
	assert.ErrorContains(t, err, "database does not exist")
}

func TestList(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(tickingClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))))

	empty, err := mgr.List()
	require.NoError(t, err)
	assert.Empty(t, empty)

	for range 3 {
		_, err := mgr.Create(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(mgr.Dir(), "notes.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(mgr.Dir(), "routinely-garbage.db"), []byte("x"), 0600))

	all, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "routinely-20260310-080002.db", filepath.Base(all[0].Path))
	assert.Equal(t, "routinely-20260310-080000.db", filepath.Base(all[2].Path))
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath,
		WithKeep(2),
		WithClock(tickingClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))),
	)

	for range 4 {
		_, err := mgr.Create(context.Background())
		require.NoError(t, err)
	}

	all, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "routinely-20260310-080003.db", filepath.Base(all[0].Path))
	assert.Equal(t, "routinely-20260310-080002.db", filepath.Base(all[1].Path))
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		wantSeq int
		wantOK  bool
	}{
		{"routinely-20260310-080000.db", 0, true},
		{"routinely-20260310-080000-12.db", 12, true},
		{"routinely-20260310-080000-x.db", 0, false},
		{"routinely-20260310-080000-0.db", 0, false},
		{"routinely-20260310.db", 0, false},
		{"daily-20260310-080000.db", 0, false},
		{"routinely-20260310-080000.sql", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, seq, ok := parseName(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSeq, seq)
		})
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(tickingClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))))

	snap, err := mgr.Create(context.Background())
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM routines`)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Equal(t, 0, countRoutines(t, dbPath))

	safety, err := mgr.Restore(context.Background(), snap.Path)
	require.NoError(t, err)
	require.NotNil(t, safety)
	assert.Equal(t, 0, countRoutines(t, safety.Path))
	assert.Equal(t, 2, countRoutines(t, dbPath))
}

func TestRestore_RejectsInvalidFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	_, err := mgr.Restore(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorContains(t, err, "does not exist")

	junk := filepath.Join(t.TempDir(), "junk.db")
	require.NoError(t, os.WriteFile(junk, []byte(strings.Repeat("not a sqlite database ", 64)), 0600))
	_, err = mgr.Restore(context.Background(), junk)
	assert.ErrorContains(t, err, "corrupted or invalid")
	assert.Equal(t, 2, countRoutines(t, dbPath))
}
