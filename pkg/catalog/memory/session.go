package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/modelibr/assetdav/pkg/catalog"
)

var errSessionClosed = errors.New("catalog session closed")

type session struct {
	store  *MemoryCatalog
	closed bool
}

func (ss *session) begin(ctx context.Context) error {
	if ss.closed {
		return errSessionClosed
	}
	return ctx.Err()
}

func (ss *session) Close() error {
	ss.closed = true
	return nil
}

func (ss *session) ListProjects(ctx context.Context) ([]*catalog.Project, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.Project, 0, len(s.projects))
	for _, id := range sortedKeys(s.projects) {
		p := *s.projects[id]
		out = append(out, &p)
	}
	return out, nil
}

func (ss *session) ProjectGraph(ctx context.Context, name string) (*catalog.Project, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range sortedKeys(s.projects) {
		if s.projects[id].Name != name {
			continue
		}
		p := *s.projects[id]

		for _, mid := range sortedKeys(s.models) {
			if m := s.models[mid]; m.ProjectID == id && !m.IsDeleted {
				p.Models = append(p.Models, s.modelGraph(mid))
			}
		}
		for _, tid := range sortedKeys(s.textureSets) {
			if ts := s.textureSets[tid]; ts.set.ProjectID == id && !ts.set.IsDeleted {
				p.TextureSets = append(p.TextureSets, s.textureSetGraph(tid))
			}
		}
		for _, sid := range sortedKeys(s.sprites) {
			if sp := s.sprites[sid]; sp.ProjectID == id && !sp.IsDeleted {
				p.Sprites = append(p.Sprites, s.spriteCopy(sid))
			}
		}
		for _, sid := range sortedKeys(s.sounds) {
			if so := s.sounds[sid]; so.ProjectID == id && !so.IsDeleted {
				p.Sounds = append(p.Sounds, s.soundCopy(sid))
			}
		}
		return &p, nil
	}
	return nil, catalog.NotFound("project " + name)
}

func (ss *session) ListPacks(ctx context.Context) ([]*catalog.Pack, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.Pack, 0, len(s.packs))
	for _, id := range sortedKeys(s.packs) {
		p := s.packs[id].pack
		out = append(out, &p)
	}
	return out, nil
}

func (ss *session) PackGraph(ctx context.Context, name string) (*catalog.Pack, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range sortedKeys(s.packs) {
		row := s.packs[id]
		if row.pack.Name != name {
			continue
		}
		p := row.pack

		for _, mid := range sortedIDs(row.models) {
			if m, ok := s.models[mid]; ok && !m.IsDeleted {
				p.Models = append(p.Models, s.modelGraph(mid))
			}
		}
		for _, tid := range sortedIDs(row.textureSets) {
			if ts, ok := s.textureSets[tid]; ok && !ts.set.IsDeleted {
				p.TextureSets = append(p.TextureSets, s.textureSetGraph(tid))
			}
		}
		for _, sid := range sortedIDs(row.sprites) {
			if sp, ok := s.sprites[sid]; ok && !sp.IsDeleted {
				p.Sprites = append(p.Sprites, s.spriteCopy(sid))
			}
		}
		for _, sid := range sortedIDs(row.sounds) {
			if so, ok := s.sounds[sid]; ok && !so.IsDeleted {
				p.Sounds = append(p.Sounds, s.soundCopy(sid))
			}
		}
		return &p, nil
	}
	return nil, catalog.NotFound("pack " + name)
}

func (ss *session) ListSpriteCategories(ctx context.Context) ([]*catalog.SpriteCategory, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.SpriteCategory, 0, len(s.spriteCats))
	for _, id := range sortedKeys(s.spriteCats) {
		c := *s.spriteCats[id]
		out = append(out, &c)
	}
	return out, nil
}

func (ss *session) SpritesInCategory(ctx context.Context, categoryID *int64) ([]*catalog.Sprite, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*catalog.Sprite
	for _, id := range sortedKeys(s.sprites) {
		sp := s.sprites[id]
		if !sp.IsDeleted && sameCategory(sp.CategoryID, categoryID) {
			out = append(out, s.spriteCopy(id))
		}
	}
	return out, nil
}

func (ss *session) ListSoundCategories(ctx context.Context) ([]*catalog.SoundCategory, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.SoundCategory, 0, len(s.soundCats))
	for _, id := range sortedKeys(s.soundCats) {
		c := *s.soundCats[id]
		out = append(out, &c)
	}
	return out, nil
}

func (ss *session) SoundsInCategory(ctx context.Context, categoryID *int64) ([]*catalog.Sound, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*catalog.Sound
	for _, id := range sortedKeys(s.sounds) {
		so := s.sounds[id]
		if !so.IsDeleted && sameCategory(so.CategoryID, categoryID) {
			out = append(out, s.soundCopy(id))
		}
	}
	return out, nil
}

func (ss *session) GetFile(ctx context.Context, id int64) (*catalog.File, error) {
	if err := ss.begin(ctx); err != nil {
		return nil, err
	}

	s := ss.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, catalog.NotFound(fmt.Sprintf("file %d", id))
	}
	cp := *f
	return &cp, nil
}

// The helpers below copy rows into detached graphs. Callers hold mu.

func (s *MemoryCatalog) fileCopy(id int64) *catalog.File {
	f, ok := s.files[id]
	if !ok {
		return nil
	}
	cp := *f
	return &cp
}

func (s *MemoryCatalog) modelGraph(id int64) *catalog.Model {
	m := *s.models[id]
	m.Versions = nil

	for _, vid := range sortedKeys(s.versions) {
		row := s.versions[vid]
		if row.version.ModelID != id || row.version.IsDeleted {
			continue
		}
		v := row.version
		for _, fid := range row.files {
			if f := s.fileCopy(fid); f != nil {
				v.Files = append(v.Files, f)
			}
		}
		m.Versions = append(m.Versions, &v)
	}

	slices.SortStableFunc(m.Versions, func(a, b *catalog.ModelVersion) int {
		return a.VersionNumber - b.VersionNumber
	})
	return &m
}

func (s *MemoryCatalog) textureSetGraph(id int64) *catalog.TextureSet {
	row := s.textureSets[id]
	ts := row.set
	ts.Textures = make([]*catalog.Texture, 0, len(row.textures))
	for _, tex := range row.textures {
		t := tex
		t.File = s.fileCopy(tex.FileID)
		ts.Textures = append(ts.Textures, &t)
	}
	return &ts
}

func (s *MemoryCatalog) spriteCopy(id int64) *catalog.Sprite {
	sp := *s.sprites[id]
	sp.File = s.fileCopy(sp.FileID)
	return &sp
}

func (s *MemoryCatalog) soundCopy(id int64) *catalog.Sound {
	so := *s.sounds[id]
	so.File = s.fileCopy(so.FileID)
	return &so
}

func sameCategory(have, want *int64) bool {
	if want == nil {
		return have == nil
	}
	return have != nil && *have == *want
}

func sortedIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
