package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoundTrip(t *testing.T, c Cache) {
	t.Helper()

	_, ok := c.Get("abcd:R")
	assert.False(t, ok)

	c.Put("abcd:R", Entry{MimeType: "image/png", Data: []byte{1, 2, 0, 3}})
	got, ok := c.Get("abcd:R")
	require.True(t, ok)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Equal(t, []byte{1, 2, 0, 3}, got.Data)

	_, ok = c.Get("abcd:G")
	assert.False(t, ok)
}

func TestNoneCache(t *testing.T) {
	c := NewNoneCache()
	c.Put("k", Entry{Data: []byte("x")})
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(0)
	require.NoError(t, err)
	defer c.Close()
	testRoundTrip(t, c)
}

func TestMemoryCacheEvicts(t *testing.T) {
	c, err := NewMemoryCache(2)
	require.NoError(t, err)

	for i := range 3 {
		c.Put(fmt.Sprintf("k%d", i), Entry{Data: []byte{byte(i)}})
	}
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok)
}

func TestBadgerCache(t *testing.T) {
	c, err := NewBadgerCache(context.Background(), BadgerCacheConfig{InMemory: true})
	require.NoError(t, err)
	defer c.Close()
	testRoundTrip(t, c)
}

func TestBadgerCachePersists(t *testing.T) {
	dir := t.TempDir()

	c, err := NewBadgerCache(context.Background(), BadgerCacheConfig{DBPath: dir})
	require.NoError(t, err)
	c.Put("beef:A", Entry{MimeType: "image/png", Data: []byte("alpha")})
	require.NoError(t, c.Close())

	c, err = NewBadgerCache(context.Background(), BadgerCacheConfig{DBPath: dir})
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Get("beef:A")
	require.True(t, ok)
	assert.Equal(t, "alpha", string(got.Data))
}

func TestBadgerCacheRequiresPath(t *testing.T) {
	_, err := NewBadgerCache(context.Background(), BadgerCacheConfig{})
	assert.Error(t, err)
}

func TestDecodeCorruptEntry(t *testing.T) {
	_, err := decodeEntry([]byte("no separator"))
	assert.Error(t, err)
}
