package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelibr/assetdav/pkg/catalog"
)

func (s *MemoryCatalog) CreateProject(ctx context.Context, p *catalog.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("project name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.projects {
		if existing.Name == p.Name {
			return &catalog.StoreError{Code: catalog.ErrAlreadyExists, Message: "project already exists", Entity: p.Name}
		}
	}

	p.ID, p.CreatedAt = s.allocate()
	p.UpdatedAt = p.CreatedAt
	row := *p
	row.Models, row.TextureSets, row.Sprites, row.Sounds = nil, nil, nil, nil
	s.projects[p.ID] = &row
	return nil
}

func (s *MemoryCatalog) CreatePack(ctx context.Context, p *catalog.Pack) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("pack name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID, p.CreatedAt = s.allocate()
	p.UpdatedAt = p.CreatedAt
	row := &packRow{pack: *p}
	row.pack.Models, row.pack.TextureSets, row.pack.Sprites, row.pack.Sounds = nil, nil, nil, nil
	s.packs[p.ID] = row
	return nil
}

func (s *MemoryCatalog) CreateFile(ctx context.Context, f *catalog.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Sha256Hash == "" {
		return invalid("file hash is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID, f.CreatedAt = s.allocate()
	f.UpdatedAt = f.CreatedAt
	row := *f
	s.files[f.ID] = &row
	return nil
}

func (s *MemoryCatalog) FindFileByHash(ctx context.Context, hash string) (*catalog.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range sortedKeys(s.files) {
		if strings.EqualFold(s.files[id].Sha256Hash, hash) {
			f := *s.files[id]
			return &f, nil
		}
	}
	return nil, catalog.NotFound("file " + hash)
}

func (s *MemoryCatalog) CreateModel(ctx context.Context, m *catalog.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[m.ProjectID]; !ok {
		return catalog.NotFound(fmt.Sprintf("project %d", m.ProjectID))
	}

	m.ID, m.CreatedAt = s.allocate()
	m.UpdatedAt = m.CreatedAt
	row := *m
	row.Versions = nil
	s.models[m.ID] = &row
	return nil
}

func (s *MemoryCatalog) CreateModelVersion(ctx context.Context, v *catalog.ModelVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.VersionNumber <= 0 {
		return invalid("version number must be positive, got %d", v.VersionNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[v.ModelID]; !ok {
		return catalog.NotFound(fmt.Sprintf("model %d", v.ModelID))
	}
	for _, existing := range s.versions {
		if existing.version.ModelID == v.ModelID && existing.version.VersionNumber == v.VersionNumber {
			return &catalog.StoreError{
				Code:    catalog.ErrAlreadyExists,
				Message: "version already exists",
				Entity:  fmt.Sprintf("model %d v%d", v.ModelID, v.VersionNumber),
			}
		}
	}

	fileIDs := make([]int64, 0, len(v.Files))
	for _, f := range v.Files {
		if _, ok := s.files[f.ID]; !ok {
			return catalog.NotFound(fmt.Sprintf("file %d", f.ID))
		}
		fileIDs = append(fileIDs, f.ID)
	}

	v.ID, v.CreatedAt = s.allocate()
	v.UpdatedAt = v.CreatedAt
	row := &versionRow{version: *v, files: fileIDs}
	row.version.Files = nil
	s.versions[v.ID] = row
	return nil
}

func (s *MemoryCatalog) CreateTextureSet(ctx context.Context, ts *catalog.TextureSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[ts.ProjectID]; !ok {
		return catalog.NotFound(fmt.Sprintf("project %d", ts.ProjectID))
	}
	for _, tex := range ts.Textures {
		if _, ok := s.files[tex.FileID]; !ok {
			return catalog.NotFound(fmt.Sprintf("file %d", tex.FileID))
		}
		if !tex.TextureType.Valid() {
			return invalid("unknown texture type %d", int(tex.TextureType))
		}
	}

	ts.ID, ts.CreatedAt = s.allocate()
	ts.UpdatedAt = ts.CreatedAt
	row := &textureSetRow{set: *ts}
	row.set.Textures = nil
	for _, tex := range ts.Textures {
		tex.ID, _ = s.allocate()
		tex.TextureSetID = ts.ID
		t := *tex
		t.File = nil
		row.textures = append(row.textures, t)
	}
	s.textureSets[ts.ID] = row
	return nil
}

func (s *MemoryCatalog) CreateSprite(ctx context.Context, sp *catalog.Sprite) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwned(sp.ProjectID, sp.FileID); err != nil {
		return err
	}
	if sp.CategoryID != nil {
		if _, ok := s.spriteCats[*sp.CategoryID]; !ok {
			return catalog.NotFound(fmt.Sprintf("sprite category %d", *sp.CategoryID))
		}
	}

	sp.ID, sp.CreatedAt = s.allocate()
	sp.UpdatedAt = sp.CreatedAt
	row := *sp
	row.File = nil
	s.sprites[sp.ID] = &row
	return nil
}

func (s *MemoryCatalog) CreateSound(ctx context.Context, so *catalog.Sound) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwned(so.ProjectID, so.FileID); err != nil {
		return err
	}
	if so.CategoryID != nil {
		if _, ok := s.soundCats[*so.CategoryID]; !ok {
			return catalog.NotFound(fmt.Sprintf("sound category %d", *so.CategoryID))
		}
	}

	so.ID, so.CreatedAt = s.allocate()
	so.UpdatedAt = so.CreatedAt
	row := *so
	row.File = nil
	s.sounds[so.ID] = &row
	return nil
}

// checkOwned verifies the project and file referenced by a new row. Caller holds mu.
func (s *MemoryCatalog) checkOwned(projectID, fileID int64) error {
	if _, ok := s.projects[projectID]; !ok {
		return catalog.NotFound(fmt.Sprintf("project %d", projectID))
	}
	if _, ok := s.files[fileID]; !ok {
		return catalog.NotFound(fmt.Sprintf("file %d", fileID))
	}
	return nil
}

func (s *MemoryCatalog) CreateSpriteCategory(ctx context.Context, c *catalog.SpriteCategory) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID, c.CreatedAt = s.allocate()
	c.UpdatedAt = c.CreatedAt
	row := *c
	s.spriteCats[c.ID] = &row
	return nil
}

func (s *MemoryCatalog) CreateSoundCategory(ctx context.Context, c *catalog.SoundCategory) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID, c.CreatedAt = s.allocate()
	c.UpdatedAt = c.CreatedAt
	row := *c
	s.soundCats[c.ID] = &row
	return nil
}

func (s *MemoryCatalog) AddToPack(ctx context.Context, packID int64, kind catalog.EntityKind, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pack, ok := s.packs[packID]
	if !ok {
		return catalog.NotFound(fmt.Sprintf("pack %d", packID))
	}

	var exists bool
	var members *[]int64
	switch kind {
	case catalog.KindModel:
		_, exists = s.models[id]
		members = &pack.models
	case catalog.KindTextureSet:
		_, exists = s.textureSets[id]
		members = &pack.textureSets
	case catalog.KindSprite:
		_, exists = s.sprites[id]
		members = &pack.sprites
	case catalog.KindSound:
		_, exists = s.sounds[id]
		members = &pack.sounds
	default:
		return invalid("%s cannot be a pack member", kind)
	}
	if !exists {
		return catalog.NotFound(fmt.Sprintf("%s %d", kind, id))
	}

	for _, m := range *members {
		if m == id {
			return nil
		}
	}
	*members = append(*members, id)
	return nil
}

func (s *MemoryCatalog) SoftDelete(ctx context.Context, kind catalog.EntityKind, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	switch kind {
	case catalog.KindModel:
		if m, ok := s.models[id]; ok {
			m.IsDeleted, m.UpdatedAt = true, now
			return nil
		}
	case catalog.KindModelVersion:
		if v, ok := s.versions[id]; ok {
			v.version.IsDeleted, v.version.UpdatedAt = true, now
			return nil
		}
	case catalog.KindTextureSet:
		if ts, ok := s.textureSets[id]; ok {
			ts.set.IsDeleted, ts.set.UpdatedAt = true, now
			return nil
		}
	case catalog.KindSprite:
		if sp, ok := s.sprites[id]; ok {
			sp.IsDeleted, sp.UpdatedAt = true, now
			return nil
		}
	case catalog.KindSound:
		if so, ok := s.sounds[id]; ok {
			so.IsDeleted, so.UpdatedAt = true, now
			return nil
		}
	default:
		return invalid("%s cannot be soft-deleted", kind)
	}
	return catalog.NotFound(fmt.Sprintf("%s %d", kind, id))
}
