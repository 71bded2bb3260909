// Package testing provides a contract test suite for blob.WritableStore
// implementations.
package testing

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/blob"
)

// StoreTestSuite tests the interface contract, not implementation details,
// so it can run against memory, filesystem and S3 backends alike.
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) blob.WritableStore
}

func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("PutAndOpen", suite.testPutAndOpen)
	t.Run("Seek", suite.testSeek)
	t.Run("NotFound", suite.testNotFound)
	t.Run("Idempotent", suite.testIdempotent)
	t.Run("HashCase", suite.testHashCase)
	t.Run("InvalidHash", suite.testInvalidHash)
}

func (suite *StoreTestSuite) testPutAndOpen(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()
	data := []byte("crate model bytes")

	hash, err := store.Put(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, blob.Hash(data), hash)

	r, err := store.Open(ctx, hash)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	size, err := store.Size(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	ok, err := store.Exists(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func (suite *StoreTestSuite) testSeek(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	hash, err := store.Put(ctx, []byte("0123456789"))
	require.NoError(t, err)

	r, err := store.Open(ctx, hash)
	require.NoError(t, err)
	defer r.Close()

	pos, err := r.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	buf := make([]byte, 3)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "456", string(buf))

	pos, err = r.Seek(-2, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "89", string(rest))

	pos, err = r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(all))
}

func (suite *StoreTestSuite) testNotFound(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()
	missing := blob.Hash([]byte("never stored"))

	_, err := store.Open(ctx, missing)
	assert.ErrorIs(t, err, blob.ErrBlobNotFound)

	_, err = store.Size(ctx, missing)
	assert.ErrorIs(t, err, blob.ErrBlobNotFound)

	ok, err := store.Exists(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *StoreTestSuite) testIdempotent(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	h1, err := store.Put(ctx, []byte("same"))
	require.NoError(t, err)
	h2, err := store.Put(ctx, []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func (suite *StoreTestSuite) testHashCase(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	hash, err := store.Put(ctx, []byte("case"))
	require.NoError(t, err)

	r, err := store.Open(ctx, strings.ToUpper(hash))
	require.NoError(t, err)
	r.Close()
}

func (suite *StoreTestSuite) testInvalidHash(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Open(context.Background(), "../x")
	assert.ErrorIs(t, err, blob.ErrInvalidHash)
}
