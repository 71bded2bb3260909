// Package catalog defines the asset catalog: the relational graph of projects,
// packs, models, texture sets, sprites, sounds and the files they reference.
//
// The catalog is the only source of truth for what the virtual filesystem
// shows. Implementations live in sub-packages (memory, sqlstore) and share the
// contract test suite in catalog/testing.
package catalog

import (
	"path"
	"strings"
	"time"
)

// Project is the top-level owner of assets. Name is unique across projects
// and is used verbatim as a path segment.
type Project struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Owned graph, populated only by Session.ProjectGraph.
	Models      []*Model
	TextureSets []*TextureSet
	Sprites     []*Sprite
	Sounds      []*Sound
}

// Pack is a curated bundle. Its members are owned by projects and may appear
// in any number of packs.
type Pack struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Member graph, populated only by Session.PackGraph.
	Models      []*Model
	TextureSets []*TextureSet
	Sprites     []*Sprite
	Sounds      []*Sound
}

type Model struct {
	ID        int64
	ProjectID int64
	Name      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Versions []*ModelVersion
}

// ModelVersion is one numbered revision of a model. VersionNumber is positive
// and unique within its model.
type ModelVersion struct {
	ID            int64
	ModelID       int64
	VersionNumber int
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Files []*File
}

// File is an uploaded blob reference. The physical location of the bytes is a
// pure function of Sha256Hash.
type File struct {
	ID               int64
	OriginalFileName string
	Sha256Hash       string
	SizeBytes        int64
	MimeType         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ext returns the extension of the original file name, as written, without
// the leading dot, or "" when the name has none.
func (f *File) Ext() string {
	return strings.TrimPrefix(path.Ext(f.OriginalFileName), ".")
}

// BaseName returns the original file name without its extension.
func (f *File) BaseName() string {
	return strings.TrimSuffix(f.OriginalFileName, path.Ext(f.OriginalFileName))
}

type TextureSet struct {
	ID        int64
	ProjectID int64
	Name      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Textures []*Texture
}

// Texture binds a file to a texture set under a semantic type. SourceChannel
// says which channel of the file carries the data.
type Texture struct {
	ID            int64
	TextureSetID  int64
	TextureType   TextureType
	SourceChannel SourceChannel
	FileID        int64
	File          *File
}

type Sprite struct {
	ID         int64
	ProjectID  int64
	Name       string
	CategoryID *int64
	FileID     int64
	File       *File
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Sound struct {
	ID         int64
	ProjectID  int64
	Name       string
	CategoryID *int64
	FileID     int64
	File       *File
	Duration   float64
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type SpriteCategory struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SoundCategory struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntityKind identifies the soft-deletable entity types.
type EntityKind int

const (
	KindModel EntityKind = iota
	KindModelVersion
	KindTextureSet
	KindSprite
	KindSound
)

func (k EntityKind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindModelVersion:
		return "model version"
	case KindTextureSet:
		return "texture set"
	case KindSprite:
		return "sprite"
	case KindSound:
		return "sound"
	default:
		return "unknown"
	}
}
