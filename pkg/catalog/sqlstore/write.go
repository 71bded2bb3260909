package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelibr/assetdav/pkg/catalog"
)

func (s *SQLCatalog) exists(tx *gorm.DB, model any, id int64) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLCatalog) CreateProject(ctx context.Context, p *catalog.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("project name is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&projectRow{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
			return ioError("create project", err)
		}
		if count > 0 {
			return &catalog.StoreError{Code: catalog.ErrAlreadyExists, Message: "project already exists", Entity: p.Name}
		}

		row := projectRow{Name: p.Name}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return ioError("create project", err)
		}
		p.ID, p.CreatedAt, p.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
		return nil
	})
}

func (s *SQLCatalog) CreatePack(ctx context.Context, p *catalog.Pack) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("pack name is required")
	}

	row := packRow{Name: p.Name}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return ioError("create pack", err)
	}
	p.ID, p.CreatedAt, p.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (s *SQLCatalog) CreateFile(ctx context.Context, f *catalog.File) error {
	if f.Sha256Hash == "" {
		return invalid("file hash is required")
	}

	row := fileRow{
		OriginalFileName: f.OriginalFileName,
		Sha256Hash:       strings.ToLower(f.Sha256Hash),
		SizeBytes:        f.SizeBytes,
		MimeType:         f.MimeType,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return ioError("create file", err)
	}
	f.ID, f.CreatedAt, f.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (s *SQLCatalog) FindFileByHash(ctx context.Context, hash string) (*catalog.File, error) {
	var row fileRow
	err := s.db.WithContext(ctx).Where("sha256_hash = ?", strings.ToLower(hash)).Order("id").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.NotFound("file " + hash)
	}
	if err != nil {
		return nil, ioError("find file", err)
	}
	return row.toCatalog(), nil
}

func (s *SQLCatalog) CreateModel(ctx context.Context, m *catalog.Model) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.exists(tx, &projectRow{}, m.ProjectID)
		if err != nil {
			return ioError("create model", err)
		}
		if !ok {
			return catalog.NotFound(fmt.Sprintf("project %d", m.ProjectID))
		}

		row := modelRow{ProjectID: m.ProjectID, Name: m.Name, IsDeleted: m.IsDeleted}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return ioError("create model", err)
		}
		m.ID, m.CreatedAt, m.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
		return nil
	})
}

func (s *SQLCatalog) CreateModelVersion(ctx context.Context, v *catalog.ModelVersion) error {
	if v.VersionNumber <= 0 {
		return invalid("version number must be positive, got %d", v.VersionNumber)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.exists(tx, &modelRow{}, v.ModelID)
		if err != nil {
			return ioError("create version", err)
		}
		if !ok {
			return catalog.NotFound(fmt.Sprintf("model %d", v.ModelID))
		}

		var dup int64
		if err := tx.Model(&modelVersionRow{}).
			Where("model_id = ? AND version_number = ?", v.ModelID, v.VersionNumber).
			Count(&dup).Error; err != nil {
			return ioError("create version", err)
		}
		if dup > 0 {
			return &catalog.StoreError{
				Code:    catalog.ErrAlreadyExists,
				Message: "version already exists",
				Entity:  fmt.Sprintf("model %d v%d", v.ModelID, v.VersionNumber),
			}
		}

		row := modelVersionRow{ModelID: v.ModelID, VersionNumber: v.VersionNumber, IsDeleted: v.IsDeleted}
		for _, f := range v.Files {
			ok, err := s.exists(tx, &fileRow{}, f.ID)
			if err != nil {
				return ioError("create version", err)
			}
			if !ok {
				return catalog.NotFound(fmt.Sprintf("file %d", f.ID))
			}
			row.Files = append(row.Files, fileRow{ID: f.ID})
		}

		// Files already exist; only the join rows are inserted.
		if err := tx.Omit("Files.*").Create(&row).Error; err != nil {
			return ioError("create version", err)
		}
		v.ID, v.CreatedAt, v.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
		return nil
	})
}

func (s *SQLCatalog) CreateTextureSet(ctx context.Context, ts *catalog.TextureSet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.exists(tx, &projectRow{}, ts.ProjectID)
		if err != nil {
			return ioError("create texture set", err)
		}
		if !ok {
			return catalog.NotFound(fmt.Sprintf("project %d", ts.ProjectID))
		}

		for _, tex := range ts.Textures {
			if !tex.TextureType.Valid() {
				return invalid("unknown texture type %d", int(tex.TextureType))
			}
			ok, err := s.exists(tx, &fileRow{}, tex.FileID)
			if err != nil {
				return ioError("create texture set", err)
			}
			if !ok {
				return catalog.NotFound(fmt.Sprintf("file %d", tex.FileID))
			}
		}

		row := textureSetRow{ProjectID: ts.ProjectID, Name: ts.Name, IsDeleted: ts.IsDeleted}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return ioError("create texture set", err)
		}
		ts.ID, ts.CreatedAt, ts.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt

		for _, tex := range ts.Textures {
			texRow := textureRow{
				TextureSetID:  row.ID,
				TextureType:   int(tex.TextureType),
				SourceChannel: int(tex.SourceChannel),
				FileID:        tex.FileID,
			}
			if err := tx.Omit(clause.Associations).Create(&texRow).Error; err != nil {
				return ioError("create texture", err)
			}
			tex.ID, tex.TextureSetID = texRow.ID, row.ID
		}
		return nil
	})
}

func (s *SQLCatalog) CreateSprite(ctx context.Context, sp *catalog.Sprite) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkOwned(tx, sp.ProjectID, sp.FileID); err != nil {
			return err
		}
		if sp.CategoryID != nil {
			ok, err := s.exists(tx, &spriteCategoryRow{}, *sp.CategoryID)
			if err != nil {
				return ioError("create sprite", err)
			}
			if !ok {
				return catalog.NotFound(fmt.Sprintf("sprite category %d", *sp.CategoryID))
			}
		}

		row := spriteRow{
			ProjectID:  sp.ProjectID,
			Name:       sp.Name,
			CategoryID: sp.CategoryID,
			FileID:     sp.FileID,
			IsDeleted:  sp.IsDeleted,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return ioError("create sprite", err)
		}
		sp.ID, sp.CreatedAt, sp.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
		return nil
	})
}

func (s *SQLCatalog) CreateSound(ctx context.Context, so *catalog.Sound) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkOwned(tx, so.ProjectID, so.FileID); err != nil {
			return err
		}
		if so.CategoryID != nil {
			ok, err := s.exists(tx, &soundCategoryRow{}, *so.CategoryID)
			if err != nil {
				return ioError("create sound", err)
			}
			if !ok {
				return catalog.NotFound(fmt.Sprintf("sound category %d", *so.CategoryID))
			}
		}

		row := soundRow{
			ProjectID:  so.ProjectID,
			Name:       so.Name,
			CategoryID: so.CategoryID,
			FileID:     so.FileID,
			Duration:   so.Duration,
			IsDeleted:  so.IsDeleted,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return ioError("create sound", err)
		}
		so.ID, so.CreatedAt, so.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
		return nil
	})
}

func (s *SQLCatalog) checkOwned(tx *gorm.DB, projectID, fileID int64) error {
	ok, err := s.exists(tx, &projectRow{}, projectID)
	if err != nil {
		return ioError("check project", err)
	}
	if !ok {
		return catalog.NotFound(fmt.Sprintf("project %d", projectID))
	}

	ok, err = s.exists(tx, &fileRow{}, fileID)
	if err != nil {
		return ioError("check file", err)
	}
	if !ok {
		return catalog.NotFound(fmt.Sprintf("file %d", fileID))
	}
	return nil
}

func (s *SQLCatalog) CreateSpriteCategory(ctx context.Context, c *catalog.SpriteCategory) error {
	row := spriteCategoryRow{Name: c.Name}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return ioError("create sprite category", err)
	}
	c.ID, c.CreatedAt, c.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (s *SQLCatalog) CreateSoundCategory(ctx context.Context, c *catalog.SoundCategory) error {
	row := soundCategoryRow{Name: c.Name}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return ioError("create sound category", err)
	}
	c.ID, c.CreatedAt, c.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

type packJoin struct {
	table  string
	column string
	member any
}

var packJoins = map[catalog.EntityKind]packJoin{
	catalog.KindModel:      {"pack_models", "model_id", &modelRow{}},
	catalog.KindTextureSet: {"pack_texture_sets", "texture_set_id", &textureSetRow{}},
	catalog.KindSprite:     {"pack_sprites", "sprite_id", &spriteRow{}},
	catalog.KindSound:      {"pack_sounds", "sound_id", &soundRow{}},
}

func (s *SQLCatalog) AddToPack(ctx context.Context, packID int64, kind catalog.EntityKind, id int64) error {
	join, ok := packJoins[kind]
	if !ok {
		return invalid("%s cannot be a pack member", kind)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.exists(tx, &packRow{}, packID)
		if err != nil {
			return ioError("add to pack", err)
		}
		if !ok {
			return catalog.NotFound(fmt.Sprintf("pack %d", packID))
		}

		ok, err = s.exists(tx, join.member, id)
		if err != nil {
			return ioError("add to pack", err)
		}
		if !ok {
			return catalog.NotFound(fmt.Sprintf("%s %d", kind, id))
		}

		sql := fmt.Sprintf("INSERT OR IGNORE INTO %s (pack_id, %s) VALUES (?, ?)", join.table, join.column)
		if err := tx.Exec(sql, packID, id).Error; err != nil {
			return ioError("add to pack", err)
		}
		return nil
	})
}

var softDeletable = map[catalog.EntityKind]any{
	catalog.KindModel:        &modelRow{},
	catalog.KindModelVersion: &modelVersionRow{},
	catalog.KindTextureSet:   &textureSetRow{},
	catalog.KindSprite:       &spriteRow{},
	catalog.KindSound:        &soundRow{},
}

func (s *SQLCatalog) SoftDelete(ctx context.Context, kind catalog.EntityKind, id int64) error {
	model, ok := softDeletable[kind]
	if !ok {
		return invalid("%s cannot be soft-deleted", kind)
	}

	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return ioError("soft delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return catalog.NotFound(fmt.Sprintf("%s %d", kind, id))
	}
	return nil
}
