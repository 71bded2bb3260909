// Package memory provides an in-process catalog backed by maps.
//
// It is used by tests and by the "memory" catalog type for demos. Reads copy
// entities out of the store so sessions never share mutable state with
// writers.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/modelibr/assetdav/pkg/catalog"
)

type packRow struct {
	pack        catalog.Pack
	models      []int64
	textureSets []int64
	sprites     []int64
	sounds      []int64
}

type versionRow struct {
	version catalog.ModelVersion
	files   []int64
}

type textureSetRow struct {
	set      catalog.TextureSet
	textures []catalog.Texture
}

// MemoryCatalogConfig configures the memory catalog.
type MemoryCatalogConfig struct {
	// Clock overrides time.Now for deterministic timestamps in tests.
	Clock func() time.Time `mapstructure:"-"`
}

// MemoryCatalog is a thread-safe, non-persistent catalog.Store.
type MemoryCatalog struct {
	mu     sync.RWMutex
	nextID int64
	clock  func() time.Time

	projects    map[int64]*catalog.Project
	packs       map[int64]*packRow
	files       map[int64]*catalog.File
	models      map[int64]*catalog.Model
	versions    map[int64]*versionRow
	textureSets map[int64]*textureSetRow
	sprites     map[int64]*catalog.Sprite
	sounds      map[int64]*catalog.Sound
	spriteCats  map[int64]*catalog.SpriteCategory
	soundCats   map[int64]*catalog.SoundCategory
}

var _ catalog.Store = (*MemoryCatalog)(nil)

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog(cfg MemoryCatalogConfig) *MemoryCatalog {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCatalog{
		clock:       clock,
		projects:    make(map[int64]*catalog.Project),
		packs:       make(map[int64]*packRow),
		files:       make(map[int64]*catalog.File),
		models:      make(map[int64]*catalog.Model),
		versions:    make(map[int64]*versionRow),
		textureSets: make(map[int64]*textureSetRow),
		sprites:     make(map[int64]*catalog.Sprite),
		sounds:      make(map[int64]*catalog.Sound),
		spriteCats:  make(map[int64]*catalog.SpriteCategory),
		soundCats:   make(map[int64]*catalog.SoundCategory),
	}
}

func (s *MemoryCatalog) Close() error {
	return nil
}

// Session opens a read session. Each call takes the read lock only for the
// duration of that call.
func (s *MemoryCatalog) Session(ctx context.Context) (catalog.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{store: s}, nil
}

// allocate returns the next ID and the current timestamp. Caller holds mu.
func (s *MemoryCatalog) allocate() (int64, time.Time) {
	s.nextID++
	return s.nextID, s.clock().UTC()
}

func sortedKeys[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

func invalid(format string, args ...any) error {
	return &catalog.StoreError{Code: catalog.ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
