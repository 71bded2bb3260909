package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/blob"
	blobtest "github.com/modelibr/assetdav/pkg/blob/testing"
)

func TestFSBlobStore(t *testing.T) {
	suite := &blobtest.StoreTestSuite{
		NewStore: func(t *testing.T) blob.WritableStore {
			store, err := NewFSBlobStore(context.Background(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestTwoLevelLayout(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSBlobStore(context.Background(), root)
	require.NoError(t, err)

	hash, err := store.Put(context.Background(), []byte("layout"))
	require.NoError(t, err)

	want := filepath.Join(root, hash[0:2], hash[2:4], hash)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "layout", string(data))
}

func TestReadsExternallyPlacedBlob(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSBlobStore(context.Background(), root)
	require.NoError(t, err)

	// A blob written by another process with an upper-case catalog hash.
	hash := blob.Hash([]byte("external"))
	dir := filepath.Join(root, hash[0:2], hash[2:4])
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash), []byte("external"), 0644))

	size, err := store.Size(context.Background(), strings.ToUpper(hash))
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}
