package testing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/catalog"
)

// Fixture is a small but complete catalog shared by backend and filesystem
// tests. Blobs maps each file hash to its content so callers can populate a
// blob store.
type Fixture struct {
	Acme  *catalog.Project
	Empty *catalog.Project
	Pack  *catalog.Pack

	Crate  *catalog.Model
	Barrel *catalog.Model
	Lamp   *catalog.Model

	CrateV1 *catalog.ModelVersion
	CrateV2 *catalog.ModelVersion
	CrateV3 *catalog.ModelVersion

	Material *catalog.TextureSet
	OldSet   *catalog.TextureSet

	Sword   *catalog.Sprite
	Potion  *catalog.Sprite
	Ghost   *catalog.Sprite
	Boom    *catalog.Sound
	Step    *catalog.Sound
	Weapons *catalog.SpriteCategory
	UI      *catalog.SpriteCategory
	Blasts  *catalog.SoundCategory

	Files map[string]*catalog.File
	Blobs map[string][]byte
}

// HashOf returns the lower-case hex sha256 of data.
func HashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ORMImage returns a 2x2 PNG with distinct values in every channel, used as
// the packed occlusion/roughness/metallic source texture.
func ORMImage() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 200})
	img.SetNRGBA(0, 1, color.NRGBA{R: 70, G: 80, B: 90, A: 150})
	img.SetNRGBA(1, 1, color.NRGBA{R: 100, G: 110, B: 120, A: 100})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// BuildFixture populates store with the fixture graph:
//
//	Acme
//	  Models: Crate (v1, v2, v3 deleted), Barrel (deleted), Lamp (v1)
//	  TextureSets: CrateMaterial (Albedo RGB, Roughness R, Metallic B, SplitChannel), OldSet (deleted)
//	  Sprites: icon_sword.png [Weapons], icon_potion.png [none], ghost.png [Weapons, deleted]
//	  Sounds: boom.wav [Explosions], step.wav [none]
//	Empty
//	Pack Starter: Crate, Barrel, CrateMaterial, icon_sword.png, boom.wav
//
// Sprite categories also include UI (empty) and two categories named Dup.
func BuildFixture(t *testing.T, store catalog.Store) *Fixture {
	t.Helper()
	ctx := context.Background()

	fx := &Fixture{
		Files: make(map[string]*catalog.File),
		Blobs: make(map[string][]byte),
	}

	file := func(name, mime string, data []byte) *catalog.File {
		hash := HashOf(data)
		if existing, ok := fx.Files[name]; ok && existing.Sha256Hash == hash {
			return existing
		}
		f := &catalog.File{
			OriginalFileName: name,
			Sha256Hash:       hash,
			SizeBytes:        int64(len(data)),
			MimeType:         mime,
		}
		require.NoError(t, store.CreateFile(ctx, f))
		fx.Files[name] = f
		fx.Blobs[hash] = data
		return f
	}

	fx.Acme = &catalog.Project{Name: "Acme"}
	require.NoError(t, store.CreateProject(ctx, fx.Acme))
	fx.Empty = &catalog.Project{Name: "Empty"}
	require.NoError(t, store.CreateProject(ctx, fx.Empty))

	// Models
	fx.Crate = &catalog.Model{ProjectID: fx.Acme.ID, Name: "Crate"}
	require.NoError(t, store.CreateModel(ctx, fx.Crate))
	fx.Barrel = &catalog.Model{ProjectID: fx.Acme.ID, Name: "Barrel"}
	require.NoError(t, store.CreateModel(ctx, fx.Barrel))
	fx.Lamp = &catalog.Model{ProjectID: fx.Acme.ID, Name: "Lamp"}
	require.NoError(t, store.CreateModel(ctx, fx.Lamp))

	crateV1 := file("crate.fbx", "application/octet-stream", []byte("crate-v1"))
	fx.CrateV1 = &catalog.ModelVersion{ModelID: fx.Crate.ID, VersionNumber: 1, Files: []*catalog.File{crateV1}}
	require.NoError(t, store.CreateModelVersion(ctx, fx.CrateV1))

	// Created out of order so backends must sort by version number.
	crateV3 := &catalog.File{OriginalFileName: "crate.fbx", Sha256Hash: HashOf([]byte("crate-v3")), SizeBytes: 8, MimeType: "application/octet-stream"}
	require.NoError(t, store.CreateFile(ctx, crateV3))
	fx.Blobs[crateV3.Sha256Hash] = []byte("crate-v3")
	fx.CrateV3 = &catalog.ModelVersion{ModelID: fx.Crate.ID, VersionNumber: 3, Files: []*catalog.File{crateV3}}
	require.NoError(t, store.CreateModelVersion(ctx, fx.CrateV3))

	crateV2 := &catalog.File{OriginalFileName: "crate.fbx", Sha256Hash: HashOf([]byte("crate-v2")), SizeBytes: 8, MimeType: "application/octet-stream"}
	require.NoError(t, store.CreateFile(ctx, crateV2))
	fx.Blobs[crateV2.Sha256Hash] = []byte("crate-v2")
	mtl := file("crate.mtl", "text/plain", []byte("newmtl crate"))
	fx.CrateV2 = &catalog.ModelVersion{ModelID: fx.Crate.ID, VersionNumber: 2, Files: []*catalog.File{crateV2, mtl}}
	require.NoError(t, store.CreateModelVersion(ctx, fx.CrateV2))
	require.NoError(t, store.SoftDelete(ctx, catalog.KindModelVersion, fx.CrateV3.ID))

	barrel := file("barrel.fbx", "application/octet-stream", []byte("barrel"))
	require.NoError(t, store.CreateModelVersion(ctx, &catalog.ModelVersion{ModelID: fx.Barrel.ID, VersionNumber: 1, Files: []*catalog.File{barrel}}))
	require.NoError(t, store.SoftDelete(ctx, catalog.KindModel, fx.Barrel.ID))

	lamp := file("lamp.obj", "text/plain", []byte("o lamp"))
	require.NoError(t, store.CreateModelVersion(ctx, &catalog.ModelVersion{ModelID: fx.Lamp.ID, VersionNumber: 1, Files: []*catalog.File{lamp}}))

	// Texture sets
	albedo := file("crate_albedo.png", "image/png", []byte("albedo-bytes"))
	orm := file("crate_orm.png", "image/png", ORMImage())
	fx.Material = &catalog.TextureSet{
		ProjectID: fx.Acme.ID,
		Name:      "CrateMaterial",
		Textures: []*catalog.Texture{
			{TextureType: catalog.TextureAlbedo, SourceChannel: catalog.ChannelRGB, FileID: albedo.ID},
			{TextureType: catalog.TextureRoughness, SourceChannel: catalog.ChannelR, FileID: orm.ID},
			{TextureType: catalog.TextureMetallic, SourceChannel: catalog.ChannelB, FileID: orm.ID},
			{TextureType: catalog.TextureSplitChannel, SourceChannel: catalog.ChannelSplitChannel, FileID: orm.ID},
		},
	}
	require.NoError(t, store.CreateTextureSet(ctx, fx.Material))

	old := file("old_albedo.png", "image/png", []byte("old-albedo"))
	fx.OldSet = &catalog.TextureSet{
		ProjectID: fx.Acme.ID,
		Name:      "OldSet",
		Textures:  []*catalog.Texture{{TextureType: catalog.TextureAlbedo, SourceChannel: catalog.ChannelRGB, FileID: old.ID}},
	}
	require.NoError(t, store.CreateTextureSet(ctx, fx.OldSet))
	require.NoError(t, store.SoftDelete(ctx, catalog.KindTextureSet, fx.OldSet.ID))

	// Categories
	fx.Weapons = &catalog.SpriteCategory{Name: "Weapons"}
	require.NoError(t, store.CreateSpriteCategory(ctx, fx.Weapons))
	fx.UI = &catalog.SpriteCategory{Name: "UI"}
	require.NoError(t, store.CreateSpriteCategory(ctx, fx.UI))
	require.NoError(t, store.CreateSpriteCategory(ctx, &catalog.SpriteCategory{Name: "Dup"}))
	require.NoError(t, store.CreateSpriteCategory(ctx, &catalog.SpriteCategory{Name: "Dup"}))
	fx.Blasts = &catalog.SoundCategory{Name: "Explosions"}
	require.NoError(t, store.CreateSoundCategory(ctx, fx.Blasts))

	// Sprites
	sword := file("icon_sword.png", "image/png", []byte("sword-png"))
	fx.Sword = &catalog.Sprite{ProjectID: fx.Acme.ID, Name: "icon_sword", FileID: sword.ID, CategoryID: &fx.Weapons.ID}
	require.NoError(t, store.CreateSprite(ctx, fx.Sword))
	potion := file("icon_potion.png", "image/png", []byte("potion-png"))
	fx.Potion = &catalog.Sprite{ProjectID: fx.Acme.ID, Name: "icon_potion", FileID: potion.ID}
	require.NoError(t, store.CreateSprite(ctx, fx.Potion))
	ghost := file("ghost.png", "image/png", []byte("ghost-png"))
	fx.Ghost = &catalog.Sprite{ProjectID: fx.Acme.ID, Name: "ghost", FileID: ghost.ID, CategoryID: &fx.Weapons.ID}
	require.NoError(t, store.CreateSprite(ctx, fx.Ghost))
	require.NoError(t, store.SoftDelete(ctx, catalog.KindSprite, fx.Ghost.ID))

	// Sounds
	boom := file("boom.wav", "audio/wav", []byte("RIFF-boom"))
	fx.Boom = &catalog.Sound{ProjectID: fx.Acme.ID, Name: "boom", FileID: boom.ID, CategoryID: &fx.Blasts.ID, Duration: 1.5}
	require.NoError(t, store.CreateSound(ctx, fx.Boom))
	step := file("step.wav", "audio/wav", []byte("RIFF-step"))
	fx.Step = &catalog.Sound{ProjectID: fx.Acme.ID, Name: "step", FileID: step.ID}
	require.NoError(t, store.CreateSound(ctx, fx.Step))

	// Pack
	fx.Pack = &catalog.Pack{Name: "Starter"}
	require.NoError(t, store.CreatePack(ctx, fx.Pack))
	require.NoError(t, store.AddToPack(ctx, fx.Pack.ID, catalog.KindModel, fx.Crate.ID))
	require.NoError(t, store.AddToPack(ctx, fx.Pack.ID, catalog.KindModel, fx.Barrel.ID))
	require.NoError(t, store.AddToPack(ctx, fx.Pack.ID, catalog.KindTextureSet, fx.Material.ID))
	require.NoError(t, store.AddToPack(ctx, fx.Pack.ID, catalog.KindSprite, fx.Sword.ID))
	require.NoError(t, store.AddToPack(ctx, fx.Pack.ID, catalog.KindSound, fx.Boom.ID))

	return fx
}
