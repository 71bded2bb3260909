package vfs

import (
	"time"

	"github.com/modelibr/assetdav/pkg/catalog"
)

// assetGroup is the canonical per-request asset graph behind a project or a
// pack folder. Both trees are projections onto this one shape, so every
// folder below them is shared.
type assetGroup struct {
	name     string
	created  time.Time
	modified time.Time

	// projectID is set for project-scoped groups only and enables uploads.
	projectID int64

	models      []*catalog.Model
	textureSets []*catalog.TextureSet
	sprites     []*catalog.Sprite
	sounds      []*catalog.Sound
}

func projectView(p *catalog.Project) *assetGroup {
	return &assetGroup{
		name:        p.Name,
		created:     p.CreatedAt,
		modified:    p.UpdatedAt,
		projectID:   p.ID,
		models:      liveModels(p.Models),
		textureSets: liveTextureSets(p.TextureSets),
		sprites:     liveSprites(p.Sprites),
		sounds:      liveSounds(p.Sounds),
	}
}

func packView(p *catalog.Pack) *assetGroup {
	return &assetGroup{
		name:        p.Name,
		created:     p.CreatedAt,
		modified:    p.UpdatedAt,
		models:      liveModels(p.Models),
		textureSets: liveTextureSets(p.TextureSets),
		sprites:     liveSprites(p.Sprites),
		sounds:      liveSounds(p.Sounds),
	}
}

// Stores already drop soft-deleted rows; the filters below keep the views
// correct for any Session implementation.

func liveModels(in []*catalog.Model) []*catalog.Model {
	out := make([]*catalog.Model, 0, len(in))
	for _, m := range in {
		if m != nil && !m.IsDeleted {
			out = append(out, m)
		}
	}
	return out
}

func liveVersions(m *catalog.Model) []*catalog.ModelVersion {
	out := make([]*catalog.ModelVersion, 0, len(m.Versions))
	for _, v := range m.Versions {
		if v != nil && !v.IsDeleted && v.VersionNumber > 0 {
			out = append(out, v)
		}
	}
	return out
}

func liveTextureSets(in []*catalog.TextureSet) []*catalog.TextureSet {
	out := make([]*catalog.TextureSet, 0, len(in))
	for _, ts := range in {
		if ts != nil && !ts.IsDeleted {
			out = append(out, ts)
		}
	}
	return out
}

func liveSprites(in []*catalog.Sprite) []*catalog.Sprite {
	out := make([]*catalog.Sprite, 0, len(in))
	for _, s := range in {
		if s != nil && !s.IsDeleted && s.File != nil {
			out = append(out, s)
		}
	}
	return out
}

func liveSounds(in []*catalog.Sound) []*catalog.Sound {
	out := make([]*catalog.Sound, 0, len(in))
	for _, s := range in {
		if s != nil && !s.IsDeleted && s.File != nil {
			out = append(out, s)
		}
	}
	return out
}

// newestVersion returns the live version with the highest number.
func newestVersion(m *catalog.Model) *catalog.ModelVersion {
	var newest *catalog.ModelVersion
	for _, v := range liveVersions(m) {
		if newest == nil || v.VersionNumber > newest.VersionNumber {
			newest = v
		}
	}
	return newest
}
