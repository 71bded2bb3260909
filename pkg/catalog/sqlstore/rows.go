package sqlstore

import (
	"time"

	"github.com/modelibr/assetdav/pkg/catalog"
)

// GORM row types. The schema itself is owned by the embedded migrations;
// these structs only describe how rows map onto it.

type projectRow struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	Models      []modelRow      `gorm:"foreignKey:ProjectID"`
	TextureSets []textureSetRow `gorm:"foreignKey:ProjectID"`
	Sprites     []spriteRow     `gorm:"foreignKey:ProjectID"`
	Sounds      []soundRow      `gorm:"foreignKey:ProjectID"`
}

func (projectRow) TableName() string { return "projects" }

type packRow struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	Models      []modelRow      `gorm:"many2many:pack_models;joinForeignKey:PackID;joinReferences:ModelID"`
	TextureSets []textureSetRow `gorm:"many2many:pack_texture_sets;joinForeignKey:PackID;joinReferences:TextureSetID"`
	Sprites     []spriteRow     `gorm:"many2many:pack_sprites;joinForeignKey:PackID;joinReferences:SpriteID"`
	Sounds      []soundRow      `gorm:"many2many:pack_sounds;joinForeignKey:PackID;joinReferences:SoundID"`
}

func (packRow) TableName() string { return "packs" }

type fileRow struct {
	ID               int64 `gorm:"primaryKey"`
	OriginalFileName string
	Sha256Hash       string `gorm:"column:sha256_hash"`
	SizeBytes        int64
	MimeType         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (fileRow) TableName() string { return "files" }

type modelRow struct {
	ID        int64 `gorm:"primaryKey"`
	ProjectID int64
	Name      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Versions []modelVersionRow `gorm:"foreignKey:ModelID"`
}

func (modelRow) TableName() string { return "models" }

type modelVersionRow struct {
	ID            int64 `gorm:"primaryKey"`
	ModelID       int64
	VersionNumber int
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Files []fileRow `gorm:"many2many:model_version_files;joinForeignKey:ModelVersionID;joinReferences:FileID"`
}

func (modelVersionRow) TableName() string { return "model_versions" }

type textureSetRow struct {
	ID        int64 `gorm:"primaryKey"`
	ProjectID int64
	Name      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Textures []textureRow `gorm:"foreignKey:TextureSetID"`
}

func (textureSetRow) TableName() string { return "texture_sets" }

type textureRow struct {
	ID            int64 `gorm:"primaryKey"`
	TextureSetID  int64
	TextureType   int
	SourceChannel int
	FileID        int64
	File          fileRow `gorm:"foreignKey:FileID"`
}

func (textureRow) TableName() string { return "textures" }

type spriteRow struct {
	ID         int64 `gorm:"primaryKey"`
	ProjectID  int64
	Name       string
	CategoryID *int64
	FileID     int64
	File       fileRow `gorm:"foreignKey:FileID"`
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (spriteRow) TableName() string { return "sprites" }

type soundRow struct {
	ID         int64 `gorm:"primaryKey"`
	ProjectID  int64
	Name       string
	CategoryID *int64
	FileID     int64
	File       fileRow `gorm:"foreignKey:FileID"`
	Duration   float64
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (soundRow) TableName() string { return "sounds" }

type spriteCategoryRow struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (spriteCategoryRow) TableName() string { return "sprite_categories" }

type soundCategoryRow struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (soundCategoryRow) TableName() string { return "sound_categories" }

// Conversions to catalog types.

func (r *fileRow) toCatalog() *catalog.File {
	if r == nil || r.ID == 0 {
		return nil
	}
	return &catalog.File{
		ID:               r.ID,
		OriginalFileName: r.OriginalFileName,
		Sha256Hash:       r.Sha256Hash,
		SizeBytes:        r.SizeBytes,
		MimeType:         r.MimeType,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (r *modelRow) toCatalog() *catalog.Model {
	m := &catalog.Model{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Name:      r.Name,
		IsDeleted: r.IsDeleted,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for i := range r.Versions {
		v := &r.Versions[i]
		mv := &catalog.ModelVersion{
			ID:            v.ID,
			ModelID:       v.ModelID,
			VersionNumber: v.VersionNumber,
			IsDeleted:     v.IsDeleted,
			CreatedAt:     v.CreatedAt,
			UpdatedAt:     v.UpdatedAt,
		}
		for j := range v.Files {
			mv.Files = append(mv.Files, v.Files[j].toCatalog())
		}
		m.Versions = append(m.Versions, mv)
	}
	return m
}

func (r *textureSetRow) toCatalog() *catalog.TextureSet {
	ts := &catalog.TextureSet{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Name:      r.Name,
		IsDeleted: r.IsDeleted,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for i := range r.Textures {
		t := &r.Textures[i]
		ts.Textures = append(ts.Textures, &catalog.Texture{
			ID:            t.ID,
			TextureSetID:  t.TextureSetID,
			TextureType:   catalog.TextureType(t.TextureType),
			SourceChannel: catalog.SourceChannel(t.SourceChannel),
			FileID:        t.FileID,
			File:          t.File.toCatalog(),
		})
	}
	return ts
}

func (r *spriteRow) toCatalog() *catalog.Sprite {
	return &catalog.Sprite{
		ID:         r.ID,
		ProjectID:  r.ProjectID,
		Name:       r.Name,
		CategoryID: r.CategoryID,
		FileID:     r.FileID,
		File:       r.File.toCatalog(),
		IsDeleted:  r.IsDeleted,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *soundRow) toCatalog() *catalog.Sound {
	return &catalog.Sound{
		ID:         r.ID,
		ProjectID:  r.ProjectID,
		Name:       r.Name,
		CategoryID: r.CategoryID,
		FileID:     r.FileID,
		File:       r.File.toCatalog(),
		Duration:   r.Duration,
		IsDeleted:  r.IsDeleted,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type assetRows struct {
	models      []modelRow
	textureSets []textureSetRow
	sprites     []spriteRow
	sounds      []soundRow
}

func (a assetRows) fill(models *[]*catalog.Model, sets *[]*catalog.TextureSet, sprites *[]*catalog.Sprite, sounds *[]*catalog.Sound) {
	for i := range a.models {
		*models = append(*models, a.models[i].toCatalog())
	}
	for i := range a.textureSets {
		*sets = append(*sets, a.textureSets[i].toCatalog())
	}
	for i := range a.sprites {
		*sprites = append(*sprites, a.sprites[i].toCatalog())
	}
	for i := range a.sounds {
		*sounds = append(*sounds, a.sounds[i].toCatalog())
	}
}
