package catalog

import "context"

// Store is the catalog backend.
//
// Reads go through request-scoped Sessions. Writes go through the Writer
// methods and are only used by creation commands, seeding and tests; the
// virtual filesystem itself never mutates the catalog.
type Store interface {
	Writer

	// Session opens a read session bound to one protocol request. The caller
	// must Close it before the request completes. Sessions are not safe for
	// concurrent use.
	Session(ctx context.Context) (Session, error)

	// Close releases backend resources.
	Close() error
}

// Session is a short-lived read view of the catalog.
//
// Graph loaders return soft-deleted entities already filtered out, with
// model versions ordered by ascending VersionNumber. Missing entities are
// reported as ErrNotFound.
type Session interface {
	// ListProjects returns every project without its owned graph, ordered by ID.
	ListProjects(ctx context.Context) ([]*Project, error)

	// ProjectGraph loads one project by exact name with its full owned graph:
	// models with versions and files, texture sets with textures and files,
	// sprites and sounds with files.
	ProjectGraph(ctx context.Context, name string) (*Project, error)

	// ListPacks returns every pack without members, ordered by ID.
	ListPacks(ctx context.Context) ([]*Pack, error)

	// PackGraph loads the first pack (by ID) with the exact name, including
	// its member graph shaped like ProjectGraph.
	PackGraph(ctx context.Context, name string) (*Pack, error)

	ListSpriteCategories(ctx context.Context) ([]*SpriteCategory, error)

	// SpritesInCategory returns non-deleted sprites with their files. A nil
	// categoryID selects sprites without a category.
	SpritesInCategory(ctx context.Context, categoryID *int64) ([]*Sprite, error)

	ListSoundCategories(ctx context.Context) ([]*SoundCategory, error)

	// SoundsInCategory mirrors SpritesInCategory for sounds.
	SoundsInCategory(ctx context.Context, categoryID *int64) ([]*Sound, error)

	// GetFile returns a file by ID.
	GetFile(ctx context.Context, id int64) (*File, error)

	Close() error
}

// Writer creates catalog rows. IDs and timestamps are assigned by the store
// and written back into the passed entity.
type Writer interface {
	CreateProject(ctx context.Context, p *Project) error
	CreatePack(ctx context.Context, p *Pack) error

	// CreateFile inserts a file row. FindFileByHash lets callers reuse an
	// existing row for identical content.
	CreateFile(ctx context.Context, f *File) error
	FindFileByHash(ctx context.Context, hash string) (*File, error)

	CreateModel(ctx context.Context, m *Model) error

	// CreateModelVersion inserts a version and links the files in v.Files,
	// which must already exist.
	CreateModelVersion(ctx context.Context, v *ModelVersion) error

	// CreateTextureSet inserts a set together with its textures. Texture
	// files must already exist.
	CreateTextureSet(ctx context.Context, ts *TextureSet) error

	CreateSprite(ctx context.Context, s *Sprite) error
	CreateSound(ctx context.Context, s *Sound) error

	CreateSpriteCategory(ctx context.Context, c *SpriteCategory) error
	CreateSoundCategory(ctx context.Context, c *SoundCategory) error

	// AddToPack links an existing entity of the given kind to a pack.
	// KindModelVersion is not a valid pack member.
	AddToPack(ctx context.Context, packID int64, kind EntityKind, id int64) error

	// SoftDelete flags an entity as deleted. It stays in storage but
	// disappears from every read.
	SoftDelete(ctx context.Context, kind EntityKind, id int64) error
}
