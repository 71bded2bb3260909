package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/catalog"
	cattest "github.com/modelibr/assetdav/pkg/catalog/testing"
)

func newTestCatalog(t *testing.T) *SQLCatalog {
	t.Helper()
	store, err := NewSQLCatalog(context.Background(), SQLiteCatalogConfig{
		Path:        filepath.Join(t.TempDir(), "catalog.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	return store
}

func TestSQLCatalog(t *testing.T) {
	suite := &cattest.StoreTestSuite{
		NewStore: func(t *testing.T) catalog.Store {
			return newTestCatalog(t)
		},
	}
	suite.Run(t)
}

func TestRefusesUnmigratedDatabase(t *testing.T) {
	_, err := NewSQLCatalog(context.Background(), SQLiteCatalogConfig{
		Path: filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate")
}

func TestRequiresPath(t *testing.T) {
	_, err := NewSQLCatalog(context.Background(), SQLiteCatalogConfig{})
	require.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	store, err := NewSQLCatalog(ctx, SQLiteCatalogConfig{Path: path, AutoMigrate: true})
	require.NoError(t, err)
	require.NoError(t, store.CreateProject(ctx, &catalog.Project{Name: "Acme"}))
	require.NoError(t, store.Close())

	store, err = NewSQLCatalog(ctx, SQLiteCatalogConfig{Path: path})
	require.NoError(t, err)
	defer store.Close()

	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close()

	projects, err := sess.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Acme", projects[0].Name)
}

func TestSessionClosed(t *testing.T) {
	store := newTestCatalog(t)
	defer store.Close()

	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, err = sess.ListPacks(context.Background())
	assert.ErrorIs(t, err, errSessionClosed)
}
