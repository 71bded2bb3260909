package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/catalog"
	cattest "github.com/modelibr/assetdav/pkg/catalog/testing"
)

func TestMemoryCatalog(t *testing.T) {
	suite := &cattest.StoreTestSuite{
		NewStore: func(t *testing.T) catalog.Store {
			return NewMemoryCatalog(MemoryCatalogConfig{})
		},
	}
	suite.Run(t)
}

func TestSessionClosed(t *testing.T) {
	store := NewMemoryCatalog(MemoryCatalogConfig{})
	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, err = sess.ListProjects(context.Background())
	assert.ErrorIs(t, err, errSessionClosed)
}

func TestGraphIsDetached(t *testing.T) {
	store := NewMemoryCatalog(MemoryCatalogConfig{})
	cattest.BuildFixture(t, store)
	ctx := context.Background()

	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close()

	p, err := sess.ProjectGraph(ctx, "Acme")
	require.NoError(t, err)
	p.Models[0].Name = "Mutated"

	again, err := sess.ProjectGraph(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Crate", again.Models[0].Name)
}
