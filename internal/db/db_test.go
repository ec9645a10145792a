package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_FreshInstallMarksMigrationsApplied(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "resolvd.db"))
	require.NoError(t, err)
	defer database.Close()

	version, err := CurrentVersion(database)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)

	for _, table := range []string{"sessions", "cases", "case_comments", "case_timeline"} {
		var n int
		require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n))
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestRunMigrations_UpgradesFromV1(t *testing.T) {
	database, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	defer database.Close()

	_, err = database.Exec(schemaVersionSQL)
	require.NoError(t, err)
	require.NoError(t, applyMigration(database, migrations[0]))

	require.NoError(t, InitSchema(database))

	version, err := CurrentVersion(database)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)

	_, err = database.Exec("SELECT assignee, resolved_at FROM cases")
	assert.NoError(t, err)

	// Running again is a no-op.
	require.NoError(t, RunMigrations(database))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "resolvd.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	version, err := CurrentVersion(second)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)
}
