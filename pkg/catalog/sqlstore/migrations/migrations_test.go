package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUp(t *testing.T) {
	db := openDB(t)

	require.Error(t, CheckDBMigrationStatus(db), "fresh database needs migration")

	require.NoError(t, MigrateUp(db))
	require.NoError(t, CheckDBMigrationStatus(db))

	// Idempotent.
	require.NoError(t, MigrateUp(db))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'model_version_files'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCheckStatus(t *testing.T) {
	db := openDB(t)

	st, err := CheckStatus(db)
	require.NoError(t, err)
	assert.Equal(t, uint(0), st.Current)
	assert.False(t, st.UpToDate())

	latest, err := LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, st.Latest, latest)

	require.NoError(t, MigrateUp(db))
	st, err = CheckStatus(db)
	require.NoError(t, err)
	assert.True(t, st.UpToDate())
}
