package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/modelibr/assetdav/pkg/blob/memory"
	"github.com/modelibr/assetdav/pkg/catalog/memory"
	"github.com/modelibr/assetdav/pkg/vfs"
)

func TestDemo(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryCatalog(memory.MemoryCatalogConfig{})
	blobs := blobmemory.NewMemoryBlobStore()

	res, err := Demo(ctx, store, blobs)
	require.NoError(t, err)
	assert.Len(t, res.Model.Versions, 2)
	assert.Len(t, res.Set.Textures, 4)
	assert.Len(t, res.Sprites, 2)
	assert.Len(t, res.Sounds, 1)

	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close()

	graph, err := sess.ProjectGraph(ctx, ProjectName)
	require.NoError(t, err)
	require.Len(t, graph.Models, 1)
	for _, v := range graph.Models[0].Versions {
		for _, f := range v.Files {
			ok, err := blobs.Exists(ctx, f.Sha256Hash)
			require.NoError(t, err)
			assert.True(t, ok, "blob for %s", f.OriginalFileName)
		}
	}

	r, err := vfs.NewResolver(vfs.ResolverConfig{Catalog: store, Blobs: blobs})
	require.NoError(t, err)

	node, err := r.ResolvePath(ctx, "/Packs/Starter/Models/Cube/newest/cube.mtl")
	require.NoError(t, err)
	assert.NotNil(t, node)

	node, err = r.ResolvePath(ctx, "/Sprites/Characters/hero.png")
	require.NoError(t, err)
	assert.NotNil(t, node)

	node, err = r.ResolvePath(ctx, "/Sounds/Effects/jump.wav")
	require.NoError(t, err)
	assert.NotNil(t, node)

	_, err = Demo(ctx, store, blobs)
	assert.ErrorIs(t, err, ErrAlreadySeeded)
}

func TestSilentWAVHeader(t *testing.T) {
	wav := silentWAV(8000, 0.5)
	assert.Equal(t, "RIFF", string(wav[:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Len(t, wav, 44+8000)
}
