package migration

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/routinely/migrations"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func migrationFS(files map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, body := range files {
		out[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return out
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count))
	return count == 1
}

func TestCurrentVersion(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(openTestDB(t), migrationFS(map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}))

	version, err := runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, runner.SetVersion(ctx, 5))
	version, err = runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, version)
}

func TestMigrationsSortedByVersion(t *testing.T) {
	runner := NewRunner(openTestDB(t), migrationFS(map[string]string{
		"003_another.sql": "CREATE TABLE test2 (id INTEGER);",
		"001_init.sql":    "CREATE TABLE test1 (id INTEGER);",
		"002_update.sql":  "ALTER TABLE test1 ADD COLUMN name TEXT;",
		"README.md":       "ignored",
	}))

	got, err := runner.Migrations()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"init", "update", "another"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Version, got[1].Version, got[2].Version})

	latest, err := runner.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, latest)
}

func TestMigrationsRejectBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{"missing separator", map[string]string{"001init.sql": "SELECT 1;"}, "invalid migration filename"},
		{"version zero", map[string]string{"000_init.sql": "SELECT 1;"}, "version must be at least 1"},
		{"non numeric", map[string]string{"abc_init.sql": "SELECT 1;"}, "invalid version number"},
		{"duplicate", map[string]string{"001_a.sql": "SELECT 1;", "001_b.sql": "SELECT 1;"}, "duplicate migration version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(openTestDB(t), migrationFS(tt.files)).Migrations()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyIncremental(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	files := migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
	})
	runner := NewRunner(db, files)

	var lines []string
	count, err := runner.Apply(ctx, func(s string) { lines = append(lines, s) })
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotEmpty(t, lines)
	assert.True(t, tableExists(t, db, "users"))

	files["002_posts.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER);")}
	count, err = runner.Apply(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, tableExists(t, db, "posts"))

	count, err = runner.Apply(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	version, err := runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": `
			CREATE TABLE users (id INTEGER PRIMARY KEY);
			THIS IS INVALID SQL;
		`,
	}))

	_, err := runner.Apply(ctx, nil)
	require.Error(t, err)

	version, err := runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
	assert.False(t, tableExists(t, db, "users"))
}

func TestNewerDatabaseIsRejected(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(openTestDB(t), migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	}))
	require.NoError(t, runner.SetVersion(ctx, 10))

	assert.Error(t, runner.Validate(ctx))
	_, err := runner.Apply(ctx, nil)
	assert.Error(t, err)
}

func TestEmbeddedSQLiteMigrationsApply(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sub, err := fs.Sub(migrations.FS, "sqlite")
	require.NoError(t, err)

	runner := NewRunner(db, sub)
	_, err = runner.Apply(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Validate(ctx))

	for _, table := range []string{"settings", "profiles", "habits", "evening_reviews", "routines", "routine_segments"} {
		assert.True(t, tableExists(t, db, table), table)
	}
}
