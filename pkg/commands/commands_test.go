package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/blob"
	blobmemory "github.com/modelibr/assetdav/pkg/blob/memory"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/catalog/memory"
)

type fixture struct {
	store   *memory.MemoryCatalog
	blobs   *blobmemory.MemoryBlobStore
	service *Service
	project *catalog.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewMemoryCatalog(memory.MemoryCatalogConfig{})
	blobs := blobmemory.NewMemoryBlobStore()
	p := &catalog.Project{Name: "Acme"}
	require.NoError(t, store.CreateProject(context.Background(), p))
	return &fixture{store: store, blobs: blobs, service: NewService(store, blobs), project: p}
}

func (f *fixture) graph(t *testing.T) *catalog.Project {
	t.Helper()
	sess, err := f.store.Session(context.Background())
	require.NoError(t, err)
	defer sess.Close()
	p, err := sess.ProjectGraph(context.Background(), "Acme")
	require.NoError(t, err)
	return p
}

func TestCreateSprite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sprite, err := f.service.CreateSprite(ctx, CreateSpriteCommand{
		ProjectID: f.project.ID,
		File:      IncomingFile{Name: "icon.png", MimeType: "image/png", Data: []byte("png-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "icon", sprite.Name)
	assert.Nil(t, sprite.CategoryID)

	ok, err := f.blobs.Exists(ctx, blob.Hash([]byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, ok)

	p := f.graph(t)
	require.Len(t, p.Sprites, 1)
	assert.Equal(t, "icon.png", p.Sprites[0].File.OriginalFileName)
	assert.Equal(t, int64(9), p.Sprites[0].File.SizeBytes)
}

func TestCreateSoundReusesFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := IncomingFile{Name: "boom.wav", MimeType: "audio/wav", Data: []byte("RIFF")}

	first, err := f.service.CreateSound(ctx, CreateSoundCommand{ProjectID: f.project.ID, File: in})
	require.NoError(t, err)
	second, err := f.service.CreateSound(ctx, CreateSoundCommand{ProjectID: f.project.ID, File: in})
	require.NoError(t, err)

	assert.Equal(t, first.FileID, second.FileID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSameContentDifferentNameGetsNewFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.service.CreateSprite(ctx, CreateSpriteCommand{
		ProjectID: f.project.ID,
		File:      IncomingFile{Name: "a.png", MimeType: "image/png", Data: []byte("same")},
	})
	require.NoError(t, err)
	b, err := f.service.CreateSprite(ctx, CreateSpriteCommand{
		ProjectID: f.project.ID,
		File:      IncomingFile{Name: "b.png", MimeType: "image/png", Data: []byte("same")},
	})
	require.NoError(t, err)

	assert.NotEqual(t, a.FileID, b.FileID)
	assert.Equal(t, "b.png", b.File.OriginalFileName)
}

func TestCreateIntoPackAndCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pack := &catalog.Pack{Name: "Starter"}
	require.NoError(t, f.store.CreatePack(ctx, pack))
	cat := &catalog.SoundCategory{Name: "Fx"}
	require.NoError(t, f.store.CreateSoundCategory(ctx, cat))

	_, err := f.service.CreateSound(ctx, CreateSoundCommand{
		ProjectID:  f.project.ID,
		File:       IncomingFile{Name: "zap.wav", MimeType: "audio/wav", Data: []byte("zap")},
		CategoryID: &cat.ID,
		PackID:     &pack.ID,
		BatchID:    "batch-1",
	})
	require.NoError(t, err)

	sess, err := f.store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close()

	got, err := sess.PackGraph(ctx, "Starter")
	require.NoError(t, err)
	require.Len(t, got.Sounds, 1)

	inCat, err := sess.SoundsInCategory(ctx, &cat.ID)
	require.NoError(t, err)
	assert.Len(t, inCat, 1)
}

func TestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateSprite(ctx, CreateSpriteCommand{
		ProjectID: f.project.ID,
		File:      IncomingFile{Name: "empty.png", MimeType: "image/png"},
	})
	assert.Error(t, err)

	_, err = f.service.CreateSound(ctx, CreateSoundCommand{
		File: IncomingFile{Name: "x.wav", MimeType: "audio/wav", Data: []byte("x")},
	})
	assert.Error(t, err)

	assert.Empty(t, f.graph(t).Sprites)
}

func TestUnknownProjectFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateSprite(context.Background(), CreateSpriteCommand{
		ProjectID: 999,
		File:      IncomingFile{Name: "x.png", MimeType: "image/png", Data: []byte("x")},
	})
	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "icon", baseName("icon.png"))
	assert.Equal(t, "icon", baseName(`C:\tmp\icon.png`))
	assert.Equal(t, "noext", baseName("noext"))
}
