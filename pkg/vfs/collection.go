package vfs

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/selection"
)

// Node is a resolved path: a *Collection or an *Item.
type Node interface {
	Name() string
	IsCollection() bool
	Properties(ctx context.Context) (Properties, error)

	Delete(ctx context.Context) Result
	CopyTo(ctx context.Context, dst string) Result
	MoveTo(ctx context.Context, dst string) Result
}

var (
	_ Node = (*Collection)(nil)
	_ Node = (*Item)(nil)
)

// Collection is one virtual folder. Which fields are populated depends on
// Kind; see CollectionKind.
type Collection struct {
	kind     CollectionKind
	name     string
	created  time.Time
	modified time.Time

	r *Resolver

	group      *assetGroup
	model      *catalog.Model
	version    *catalog.ModelVersion
	textureSet *catalog.TextureSet

	projects   []*catalog.Project
	packs      []*catalog.Pack
	categories []string
	sprites    []*catalog.Sprite
	sounds     []*catalog.Sound

	selected *selectedFile
	upload   *uploadTarget
}

type selectedFile struct {
	sel  selection.Selection
	file *catalog.File
}

func (c *Collection) Kind() CollectionKind { return c.kind }
func (c *Collection) Name() string         { return c.name }
func (c *Collection) IsCollection() bool   { return true }

// Writable reports whether CreateChild can succeed.
func (c *Collection) Writable() bool { return c.upload != nil }

func (c *Collection) Properties(context.Context) (Properties, error) {
	return Properties{
		Name:         c.name,
		DisplayName:  c.name,
		Created:      c.created,
		Modified:     c.modified,
		IsCollection: true,
	}, nil
}

func (c *Collection) Delete(context.Context) Result         { return ResultForbidden }
func (c *Collection) CopyTo(context.Context, string) Result { return ResultForbidden }
func (c *Collection) MoveTo(context.Context, string) Result { return ResultForbidden }

// ============================================================================
// Construction
// ============================================================================

func (r *Resolver) folder(kind CollectionKind, name string, created, modified time.Time) *Collection {
	if created.IsZero() {
		created = r.started
	}
	if modified.IsZero() {
		modified = created
	}
	return &Collection{kind: kind, name: name, created: created, modified: modified, r: r}
}

func (r *Resolver) synthetic(kind CollectionKind, name string) *Collection {
	return r.folder(kind, name, r.started, r.started)
}

func (r *Resolver) groupFolder(kind CollectionKind, name string, g *assetGroup) *Collection {
	c := r.folder(kind, name, g.created, g.modified)
	c.group = g
	return c
}

func (r *Resolver) modelFolder(m *catalog.Model) *Collection {
	c := r.folder(KindModel, m.Name, m.CreatedAt, m.UpdatedAt)
	c.model = m
	return c
}

func (r *Resolver) versionFolder(name string, m *catalog.Model, v *catalog.ModelVersion) *Collection {
	c := r.folder(KindVersion, name, v.CreatedAt, v.UpdatedAt)
	c.model = m
	c.version = v
	return c
}

func (r *Resolver) textureSetFolder(kind CollectionKind, name string, ts *catalog.TextureSet) *Collection {
	c := r.folder(kind, name, ts.CreatedAt, ts.UpdatedAt)
	c.textureSet = ts
	return c
}

func versionName(v *catalog.ModelVersion) string {
	return "v" + strconv.Itoa(v.VersionNumber)
}

// parseVersion accepts v<N> (case-insensitive) with N a canonical positive
// integer.
func parseVersion(name string) (int, bool) {
	if len(name) < 2 || (name[0] != 'v' && name[0] != 'V') {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n <= 0 || strconv.Itoa(n) != name[1:] {
		return 0, false
	}
	return n, true
}

// textureTypeName is the TextureTypes file name of t, or "" when the
// texture is not exposed there.
func textureTypeName(t *catalog.Texture) string {
	if t.File == nil || !t.TextureType.Valid() || t.TextureType == catalog.TextureSplitChannel {
		return ""
	}
	name := t.TextureType.String()
	if ext := t.File.Ext(); ext != "" {
		name += "." + ext
	}
	return name
}

// ============================================================================
// Enumeration
// ============================================================================

// Enumerate lists the children. Names are unique within the result; when
// two children share a name the first in relationship order wins.
func (c *Collection) Enumerate() []Node {
	var out []Node
	seen := make(map[string]bool)
	add := func(n Node) {
		if seen[n.Name()] {
			return
		}
		seen[n.Name()] = true
		out = append(out, n)
	}

	r := c.r
	switch c.kind {
	case KindRoot:
		for _, name := range []string{NameProjects, NameSounds, NameSprites, NamePacks, NameSelection} {
			add(r.synthetic(KindPlaceholder, name))
		}

	case KindProjects:
		for _, p := range c.projects {
			add(r.folder(KindPlaceholder, p.Name, p.CreatedAt, p.UpdatedAt))
		}

	case KindPacks:
		for _, p := range c.packs {
			add(r.folder(KindPlaceholder, p.Name, p.CreatedAt, p.UpdatedAt))
		}

	case KindGroup:
		for _, name := range []string{NameModels, NameTextureSets, NameSprites, NameSounds} {
			add(c.Child(name))
		}

	case KindModels:
		for _, m := range c.group.models {
			add(r.modelFolder(m))
		}

	case KindModel:
		for _, v := range liveVersions(c.model) {
			add(r.versionFolder(versionName(v), c.model, v))
		}
		if v := newestVersion(c.model); v != nil {
			add(r.versionFolder(NameNewest, c.model, v))
		}

	case KindVersion:
		for _, f := range c.version.Files {
			if f != nil {
				add(r.storedItem(f.OriginalFileName, f))
			}
		}

	case KindTextureSets:
		for _, ts := range c.group.textureSets {
			add(r.textureSetFolder(KindTextureSet, ts.Name, ts))
		}

	case KindTextureSet:
		add(r.textureSetFolder(KindTextureTypes, NameTextureTypes, c.textureSet))
		add(r.textureSetFolder(KindTextureFiles, NameFiles, c.textureSet))

	case KindTextureTypes:
		for _, t := range c.textureSet.Textures {
			if item := c.textureTypeItem(t); item != nil {
				add(item)
			}
		}

	case KindTextureFiles:
		files := make(map[int64]bool)
		for _, t := range c.textureSet.Textures {
			if t.File == nil || files[t.File.ID] {
				continue
			}
			files[t.File.ID] = true
			add(r.storedItem(t.File.OriginalFileName, t.File))
		}

	case KindSprites:
		for _, s := range c.group.sprites {
			add(r.storedItem(s.File.OriginalFileName, s.File))
		}

	case KindSounds:
		for _, s := range c.group.sounds {
			add(r.storedItem(s.File.OriginalFileName, s.File))
		}

	case KindSpriteCategories, KindSoundCategories:
		for _, name := range c.categories {
			add(r.synthetic(KindPlaceholder, name))
		}

	case KindSpriteCategory:
		for _, s := range liveSprites(c.sprites) {
			add(r.storedItem(s.File.OriginalFileName, s.File))
		}

	case KindSoundCategory:
		for _, s := range liveSounds(c.sounds) {
			add(r.storedItem(s.File.OriginalFileName, s.File))
		}

	case KindSelection:
		if c.selected != nil {
			add(r.selectionItem(c.selected.sel, c.selected.file))
		}
	}
	return out
}

func (c *Collection) textureTypeItem(t *catalog.Texture) *Item {
	name := textureTypeName(t)
	if name == "" {
		return nil
	}
	if t.SourceChannel.IsSingle() {
		return c.r.derivedItem(name, t.File, t.SourceChannel)
	}
	return c.r.storedItem(name, t.File)
}

// ============================================================================
// Lookup
// ============================================================================

// Child resolves one child by name from the data already loaded into the
// collection, or returns nil. Collections listing catalog rows that are
// loaded per request (projects, packs, categories) return name-only
// placeholders; the resolver descends through those itself.
func (c *Collection) Child(name string) Node {
	r := c.r
	switch c.kind {
	case KindGroup:
		switch {
		case strings.EqualFold(name, NameModels):
			return r.groupFolder(KindModels, NameModels, c.group)
		case strings.EqualFold(name, NameTextureSets):
			return r.groupFolder(KindTextureSets, NameTextureSets, c.group)
		case strings.EqualFold(name, NameSprites):
			f := r.groupFolder(KindSprites, NameSprites, c.group)
			f.upload = c.group.uploadTarget(uploadSprite)
			return f
		case strings.EqualFold(name, NameSounds):
			f := r.groupFolder(KindSounds, NameSounds, c.group)
			f.upload = c.group.uploadTarget(uploadSound)
			return f
		}
		return nil

	case KindModels:
		for _, m := range c.group.models {
			if m.Name == name {
				return r.modelFolder(m)
			}
		}
		return nil

	case KindModel:
		if strings.EqualFold(name, NameNewest) {
			if v := newestVersion(c.model); v != nil {
				return r.versionFolder(NameNewest, c.model, v)
			}
			return nil
		}
		n, ok := parseVersion(name)
		if !ok {
			return nil
		}
		for _, v := range liveVersions(c.model) {
			if v.VersionNumber == n {
				return r.versionFolder(versionName(v), c.model, v)
			}
		}
		return nil

	case KindTextureSets:
		for _, ts := range c.group.textureSets {
			if ts.Name == name {
				return r.textureSetFolder(KindTextureSet, ts.Name, ts)
			}
		}
		return nil

	case KindTextureSet:
		switch {
		case strings.EqualFold(name, NameTextureTypes):
			return r.textureSetFolder(KindTextureTypes, NameTextureTypes, c.textureSet)
		case strings.EqualFold(name, NameFiles):
			return r.textureSetFolder(KindTextureFiles, NameFiles, c.textureSet)
		}
		return nil

	case KindTextureTypes:
		return c.lookupTextureType(name)

	case KindSelection:
		if c.selected != nil && strings.EqualFold(name, c.selected.sel.Name()) {
			return r.selectionItem(c.selected.sel, c.selected.file)
		}
		return nil
	}

	// Every remaining kind is a plain listing; lookup is by name.
	for _, n := range c.Enumerate() {
		if n.Name() == name {
			return n
		}
	}
	return nil
}

// lookupTextureType parses {Type}.{ext} back into a texture type and
// matches it against the set.
func (c *Collection) lookupTextureType(name string) Node {
	ext := path.Ext(name)
	tt, ok := catalog.ParseTextureType(strings.TrimSuffix(name, ext))
	if !ok || tt == catalog.TextureSplitChannel {
		return nil
	}
	ext = strings.TrimPrefix(ext, ".")

	for _, t := range c.textureSet.Textures {
		if t.TextureType != tt || t.File == nil || !strings.EqualFold(t.File.Ext(), ext) {
			continue
		}
		if item := c.textureTypeItem(t); item != nil {
			return item
		}
	}
	return nil
}

func (c *Collection) String() string {
	return fmt.Sprintf("%s(%s)", c.kind, c.name)
}
