// Package seed populates a catalog with a small demo project so a fresh
// server has something to browse.
package seed

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/blob"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/commands"
)

// ProjectName is the name of the seeded project.
const ProjectName = "Demo"

// PackName is the name of the seeded pack.
const PackName = "Starter"

// ErrAlreadySeeded is returned when the demo project already exists.
var ErrAlreadySeeded = fmt.Errorf("catalog already contains project %q", ProjectName)

// Result lists what Demo created.
type Result struct {
	Project *catalog.Project
	Pack    *catalog.Pack
	Model   *catalog.Model
	Set     *catalog.TextureSet
	Sprites []*catalog.Sprite
	Sounds  []*catalog.Sound
}

// Demo creates the demo project, a pack sharing part of it, sprite and sound
// categories and one asset of each kind. Every blob it references is
// written to blobs.
func Demo(ctx context.Context, store catalog.Store, blobs blob.WritableStore) (*Result, error) {
	if exists, err := projectExists(ctx, store); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadySeeded
	}

	svc := commands.NewService(store, blobs)
	res := &Result{}

	res.Project = &catalog.Project{Name: ProjectName}
	if err := store.CreateProject(ctx, res.Project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	res.Pack = &catalog.Pack{Name: PackName}
	if err := store.CreatePack(ctx, res.Pack); err != nil {
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}

	characters := &catalog.SpriteCategory{Name: "Characters"}
	if err := store.CreateSpriteCategory(ctx, characters); err != nil {
		return nil, fmt.Errorf("failed to create sprite category: %w", err)
	}
	effects := &catalog.SoundCategory{Name: "Effects"}
	if err := store.CreateSoundCategory(ctx, effects); err != nil {
		return nil, fmt.Errorf("failed to create sound category: %w", err)
	}

	// Model with two versions; the newest adds a material library.
	res.Model = &catalog.Model{ProjectID: res.Project.ID, Name: "Cube"}
	if err := store.CreateModel(ctx, res.Model); err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	for n, files := range [][]commands.IncomingFile{
		{{Name: "cube.obj", MimeType: "model/obj", Data: []byte(cubeOBJ)}},
		{
			{Name: "cube.obj", MimeType: "model/obj", Data: []byte(cubeOBJ + "usemtl cube\n")},
			{Name: "cube.mtl", MimeType: "model/mtl", Data: []byte("newmtl cube\nKd 0.8 0.8 0.8\n")},
		},
	} {
		v := &catalog.ModelVersion{ModelID: res.Model.ID, VersionNumber: n + 1}
		for _, in := range files {
			f, err := svc.StoreFile(ctx, in)
			if err != nil {
				return nil, err
			}
			v.Files = append(v.Files, f)
		}
		if err := store.CreateModelVersion(ctx, v); err != nil {
			return nil, fmt.Errorf("failed to create model version %d: %w", v.VersionNumber, err)
		}
		res.Model.Versions = append(res.Model.Versions, v)
	}

	// Texture set whose packed ORM map feeds three derived channel files.
	albedo, err := svc.StoreFile(ctx, commands.IncomingFile{
		Name: "cube_albedo.png", MimeType: "image/png", Data: solidPNG(color.NRGBA{R: 200, G: 120, B: 40, A: 255}),
	})
	if err != nil {
		return nil, err
	}
	orm, err := svc.StoreFile(ctx, commands.IncomingFile{
		Name: "cube_orm.png", MimeType: "image/png", Data: solidPNG(color.NRGBA{R: 255, G: 180, B: 0, A: 255}),
	})
	if err != nil {
		return nil, err
	}
	res.Set = &catalog.TextureSet{
		ProjectID: res.Project.ID,
		Name:      "CubeMaterial",
		Textures: []*catalog.Texture{
			{TextureType: catalog.TextureAlbedo, SourceChannel: catalog.ChannelRGB, FileID: albedo.ID},
			{TextureType: catalog.TextureAO, SourceChannel: catalog.ChannelR, FileID: orm.ID},
			{TextureType: catalog.TextureRoughness, SourceChannel: catalog.ChannelG, FileID: orm.ID},
			{TextureType: catalog.TextureMetallic, SourceChannel: catalog.ChannelB, FileID: orm.ID},
		},
	}
	if err := store.CreateTextureSet(ctx, res.Set); err != nil {
		return nil, fmt.Errorf("failed to create texture set: %w", err)
	}

	hero, err := svc.CreateSprite(ctx, commands.CreateSpriteCommand{
		ProjectID:  res.Project.ID,
		File:       commands.IncomingFile{Name: "hero.png", MimeType: "image/png", Data: solidPNG(color.NRGBA{G: 200, A: 255})},
		CategoryID: &characters.ID,
		PackID:     &res.Pack.ID,
	})
	if err != nil {
		return nil, err
	}
	coin, err := svc.CreateSprite(ctx, commands.CreateSpriteCommand{
		ProjectID: res.Project.ID,
		File:      commands.IncomingFile{Name: "coin.png", MimeType: "image/png", Data: solidPNG(color.NRGBA{R: 255, G: 215, A: 255})},
	})
	if err != nil {
		return nil, err
	}
	res.Sprites = []*catalog.Sprite{hero, coin}

	jump, err := svc.CreateSound(ctx, commands.CreateSoundCommand{
		ProjectID:  res.Project.ID,
		File:       commands.IncomingFile{Name: "jump.wav", MimeType: "audio/wav", Data: silentWAV(22050, 0.25)},
		CategoryID: &effects.ID,
		PackID:     &res.Pack.ID,
		Duration:   0.25,
	})
	if err != nil {
		return nil, err
	}
	res.Sounds = []*catalog.Sound{jump}

	if err := store.AddToPack(ctx, res.Pack.ID, catalog.KindModel, res.Model.ID); err != nil {
		return nil, fmt.Errorf("failed to add model to pack: %w", err)
	}

	logger.Info("Seeded project %q and pack %q", ProjectName, PackName)
	return res, nil
}

func projectExists(ctx context.Context, store catalog.Store) (bool, error) {
	sess, err := store.Session(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to open catalog session: %w", err)
	}
	defer sess.Close()

	projects, err := sess.ListProjects(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list projects: %w", err)
	}
	for _, p := range projects {
		if p.Name == ProjectName {
			return true, nil
		}
	}
	return false, nil
}

const cubeOBJ = `o cube
v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
v -1 -1 1
v 1 -1 1
v 1 1 1
v -1 1 1
f 1 2 3 4
f 5 8 7 6
f 1 5 6 2
f 2 6 7 3
f 3 7 8 4
f 5 1 4 8
`

func solidPNG(c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	// Encoding an in-memory NRGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// silentWAV returns a mono 16-bit PCM WAV of the given length.
func silentWAV(sampleRate int, seconds float64) []byte {
	samples := int(float64(sampleRate) * seconds)
	dataLen := samples * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}
