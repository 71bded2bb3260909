package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/modelibr/assetdav/pkg/catalog"
)

var errSessionClosed = errors.New("catalog session closed")

type session struct {
	db     *gorm.DB
	closed bool
}

func (ss *session) Close() error {
	ss.closed = true
	return nil
}

func (ss *session) query(ctx context.Context) (*gorm.DB, error) {
	if ss.closed {
		return nil, errSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ss.db.WithContext(ctx), nil
}

func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false).Order("id")
}

func versionsAscending(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false).Order("version_number")
}

func byID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// preloadAssets attaches the owned asset graph. Each Preload becomes its own
// query.
func preloadAssets(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Models", notDeleted).
		Preload("Models.Versions", versionsAscending).
		Preload("Models.Versions.Files", byID).
		Preload("TextureSets", notDeleted).
		Preload("TextureSets.Textures", byID).
		Preload("TextureSets.Textures.File").
		Preload("Sprites", notDeleted).
		Preload("Sprites.File").
		Preload("Sounds", notDeleted).
		Preload("Sounds.File")
}

func (ss *session) ListProjects(ctx context.Context) ([]*catalog.Project, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var rows []projectRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, ioError("list projects", err)
	}

	out := make([]*catalog.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, &catalog.Project{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (ss *session) ProjectGraph(ctx context.Context, name string) (*catalog.Project, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var row projectRow
	err = preloadAssets(q).Where("name = ?", name).Order("id").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.NotFound("project " + name)
	}
	if err != nil {
		return nil, ioError("load project", err)
	}

	p := &catalog.Project{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	assetRows{row.Models, row.TextureSets, row.Sprites, row.Sounds}.fill(&p.Models, &p.TextureSets, &p.Sprites, &p.Sounds)
	return p, nil
}

func (ss *session) ListPacks(ctx context.Context) ([]*catalog.Pack, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var rows []packRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, ioError("list packs", err)
	}

	out := make([]*catalog.Pack, 0, len(rows))
	for _, r := range rows {
		out = append(out, &catalog.Pack{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (ss *session) PackGraph(ctx context.Context, name string) (*catalog.Pack, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var row packRow
	err = preloadAssets(q).Where("name = ?", name).Order("id").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.NotFound("pack " + name)
	}
	if err != nil {
		return nil, ioError("load pack", err)
	}

	p := &catalog.Pack{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	assetRows{row.Models, row.TextureSets, row.Sprites, row.Sounds}.fill(&p.Models, &p.TextureSets, &p.Sprites, &p.Sounds)
	return p, nil
}

func (ss *session) ListSpriteCategories(ctx context.Context) ([]*catalog.SpriteCategory, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var rows []spriteCategoryRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, ioError("list sprite categories", err)
	}

	out := make([]*catalog.SpriteCategory, 0, len(rows))
	for _, r := range rows {
		out = append(out, &catalog.SpriteCategory{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (ss *session) SpritesInCategory(ctx context.Context, categoryID *int64) ([]*catalog.Sprite, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var rows []spriteRow
	if err := inCategory(q.Preload("File"), categoryID).Find(&rows).Error; err != nil {
		return nil, ioError("list sprites", err)
	}

	out := make([]*catalog.Sprite, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toCatalog())
	}
	return out, nil
}

func (ss *session) ListSoundCategories(ctx context.Context) ([]*catalog.SoundCategory, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var rows []soundCategoryRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, ioError("list sound categories", err)
	}

	out := make([]*catalog.SoundCategory, 0, len(rows))
	for _, r := range rows {
		out = append(out, &catalog.SoundCategory{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (ss *session) SoundsInCategory(ctx context.Context, categoryID *int64) ([]*catalog.Sound, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var rows []soundRow
	if err := inCategory(q.Preload("File"), categoryID).Find(&rows).Error; err != nil {
		return nil, ioError("list sounds", err)
	}

	out := make([]*catalog.Sound, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toCatalog())
	}
	return out, nil
}

func inCategory(q *gorm.DB, categoryID *int64) *gorm.DB {
	q = q.Where("is_deleted = ?", false)
	if categoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *categoryID)
	}
	return q.Order("id")
}

func (ss *session) GetFile(ctx context.Context, id int64) (*catalog.File, error) {
	q, err := ss.query(ctx)
	if err != nil {
		return nil, err
	}

	var row fileRow
	err = q.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.NotFound(fmt.Sprintf("file %d", id))
	}
	if err != nil {
		return nil, ioError("load file", err)
	}
	return row.toCatalog(), nil
}
