// Package testing provides a contract test suite and a shared fixture for
// catalog.Store implementations.
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/catalog"
)

// StoreTestSuite runs the catalog contract against a backend.
//
// Usage:
//
//	func TestMyCatalog(t *testing.T) {
//	    suite := &cattest.StoreTestSuite{
//	        NewStore: func(t *testing.T) catalog.Store { return mystore.New() },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) catalog.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Projects", suite.testProjects)
	t.Run("ProjectGraph", suite.testProjectGraph)
	t.Run("PackGraph", suite.testPackGraph)
	t.Run("Categories", suite.testCategories)
	t.Run("SoftDelete", suite.testSoftDelete)
	t.Run("Files", suite.testFiles)
	t.Run("WriterValidation", suite.testWriterValidation)
}

func (suite *StoreTestSuite) open(t *testing.T) (catalog.Store, *Fixture, catalog.Session) {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })

	fx := BuildFixture(t, store)

	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	return store, fx, sess
}

func (suite *StoreTestSuite) testProjects(t *testing.T) {
	_, _, sess := suite.open(t)
	ctx := context.Background()

	projects, err := sess.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Acme", projects[0].Name)
	assert.Equal(t, "Empty", projects[1].Name)
	assert.Empty(t, projects[0].Models, "listing must not load the graph")
	assert.False(t, projects[0].CreatedAt.IsZero())

	_, err = sess.ProjectGraph(ctx, "acme")
	assert.True(t, catalog.IsNotFound(err), "project names are case-sensitive")
}

func (suite *StoreTestSuite) testProjectGraph(t *testing.T) {
	_, fx, sess := suite.open(t)
	ctx := context.Background()

	p, err := sess.ProjectGraph(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, fx.Acme.ID, p.ID)

	require.Len(t, p.Models, 2, "deleted Barrel is filtered")
	assert.Equal(t, "Crate", p.Models[0].Name)
	assert.Equal(t, "Lamp", p.Models[1].Name)

	crate := p.Models[0]
	require.Len(t, crate.Versions, 2, "deleted v3 is filtered")
	assert.Equal(t, 1, crate.Versions[0].VersionNumber)
	assert.Equal(t, 2, crate.Versions[1].VersionNumber)
	require.Len(t, crate.Versions[1].Files, 2)
	names := []string{crate.Versions[1].Files[0].OriginalFileName, crate.Versions[1].Files[1].OriginalFileName}
	assert.ElementsMatch(t, []string{"crate.fbx", "crate.mtl"}, names)

	require.Len(t, p.TextureSets, 1)
	set := p.TextureSets[0]
	assert.Equal(t, "CrateMaterial", set.Name)
	require.Len(t, set.Textures, 4)
	for _, tex := range set.Textures {
		require.NotNil(t, tex.File, "texture %s has its file", tex.TextureType)
	}
	assert.Equal(t, catalog.TextureRoughness, set.Textures[1].TextureType)
	assert.Equal(t, catalog.ChannelR, set.Textures[1].SourceChannel)

	require.Len(t, p.Sprites, 2)
	assert.Equal(t, "icon_sword.png", p.Sprites[0].File.OriginalFileName)
	require.Len(t, p.Sounds, 2)
	assert.Equal(t, "boom.wav", p.Sounds[0].File.OriginalFileName)

	empty, err := sess.ProjectGraph(ctx, "Empty")
	require.NoError(t, err)
	assert.Empty(t, empty.Models)
	assert.Empty(t, empty.Sprites)

	_, err = sess.ProjectGraph(ctx, "Nope")
	assert.True(t, catalog.IsNotFound(err))
}

func (suite *StoreTestSuite) testPackGraph(t *testing.T) {
	_, _, sess := suite.open(t)
	ctx := context.Background()

	packs, err := sess.ListPacks(ctx)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, "Starter", packs[0].Name)

	p, err := sess.PackGraph(ctx, "Starter")
	require.NoError(t, err)
	require.Len(t, p.Models, 1, "deleted pack member is filtered")
	assert.Equal(t, "Crate", p.Models[0].Name)
	require.Len(t, p.Models[0].Versions, 2)
	require.Len(t, p.TextureSets, 1)
	require.Len(t, p.Sprites, 1)
	assert.Equal(t, "icon_sword", p.Sprites[0].Name)
	require.Len(t, p.Sounds, 1)
	require.NotNil(t, p.Sounds[0].File)

	_, err = sess.PackGraph(ctx, "starter")
	assert.True(t, catalog.IsNotFound(err))
}

func (suite *StoreTestSuite) testCategories(t *testing.T) {
	_, fx, sess := suite.open(t)
	ctx := context.Background()

	cats, err := sess.ListSpriteCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 4)
	assert.Equal(t, "Weapons", cats[0].Name)

	weapons, err := sess.SpritesInCategory(ctx, &fx.Weapons.ID)
	require.NoError(t, err)
	require.Len(t, weapons, 1, "deleted ghost is filtered")
	assert.Equal(t, fx.Sword.ID, weapons[0].ID)
	require.NotNil(t, weapons[0].File)

	unassigned, err := sess.SpritesInCategory(ctx, nil)
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, fx.Potion.ID, unassigned[0].ID)

	ui, err := sess.SpritesInCategory(ctx, &fx.UI.ID)
	require.NoError(t, err)
	assert.Empty(t, ui)

	soundCats, err := sess.ListSoundCategories(ctx)
	require.NoError(t, err)
	require.Len(t, soundCats, 1)

	blasts, err := sess.SoundsInCategory(ctx, &fx.Blasts.ID)
	require.NoError(t, err)
	require.Len(t, blasts, 1)
	assert.Equal(t, "boom.wav", blasts[0].File.OriginalFileName)

	loose, err := sess.SoundsInCategory(ctx, nil)
	require.NoError(t, err)
	require.Len(t, loose, 1)
	assert.Equal(t, fx.Step.ID, loose[0].ID)
}

func (suite *StoreTestSuite) testSoftDelete(t *testing.T) {
	store, fx, _ := suite.open(t)
	ctx := context.Background()

	require.NoError(t, store.SoftDelete(ctx, catalog.KindSound, fx.Boom.ID))
	require.NoError(t, store.SoftDelete(ctx, catalog.KindModelVersion, fx.CrateV2.ID))

	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close()

	p, err := sess.ProjectGraph(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, p.Sounds, 1)
	assert.Equal(t, fx.Step.ID, p.Sounds[0].ID, "siblings are unaffected")
	require.Len(t, p.Models[0].Versions, 1)
	assert.Equal(t, 1, p.Models[0].Versions[0].VersionNumber)

	pack, err := sess.PackGraph(ctx, "Starter")
	require.NoError(t, err)
	assert.Empty(t, pack.Sounds)

	err = store.SoftDelete(ctx, catalog.KindSprite, 999999)
	assert.True(t, catalog.IsNotFound(err))
}

func (suite *StoreTestSuite) testFiles(t *testing.T) {
	store, fx, sess := suite.open(t)
	ctx := context.Background()

	want := fx.Files["icon_sword.png"]
	f, err := sess.GetFile(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Sha256Hash, f.Sha256Hash)
	assert.Equal(t, want.SizeBytes, f.SizeBytes)
	assert.Equal(t, "image/png", f.MimeType)

	_, err = sess.GetFile(ctx, 999999)
	assert.True(t, catalog.IsNotFound(err))

	byHash, err := store.FindFileByHash(ctx, want.Sha256Hash)
	require.NoError(t, err)
	assert.Equal(t, want.ID, byHash.ID)

	_, err = store.FindFileByHash(ctx, HashOf([]byte("missing")))
	assert.True(t, catalog.IsNotFound(err))
}

func (suite *StoreTestSuite) testWriterValidation(t *testing.T) {
	store, fx, _ := suite.open(t)
	ctx := context.Background()

	err := store.CreateProject(ctx, &catalog.Project{Name: "Acme"})
	assert.True(t, catalog.HasCode(err, catalog.ErrAlreadyExists))

	err = store.CreateModelVersion(ctx, &catalog.ModelVersion{ModelID: fx.Lamp.ID, VersionNumber: 0})
	assert.True(t, catalog.HasCode(err, catalog.ErrInvalidArgument))

	err = store.CreateModelVersion(ctx, &catalog.ModelVersion{ModelID: fx.Lamp.ID, VersionNumber: 1})
	assert.True(t, catalog.HasCode(err, catalog.ErrAlreadyExists))

	err = store.AddToPack(ctx, fx.Pack.ID, catalog.KindModelVersion, fx.CrateV1.ID)
	assert.True(t, catalog.HasCode(err, catalog.ErrInvalidArgument))

	err = store.CreateSprite(ctx, &catalog.Sprite{ProjectID: 999999, FileID: fx.Files["icon_sword.png"].ID})
	assert.True(t, catalog.IsNotFound(err))

	// Adding the same member twice is a no-op.
	require.NoError(t, store.AddToPack(ctx, fx.Pack.ID, catalog.KindSprite, fx.Sword.ID))
	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close()
	pack, err := sess.PackGraph(ctx, "Starter")
	require.NoError(t, err)
	assert.Len(t, pack.Sprites, 1)
}
