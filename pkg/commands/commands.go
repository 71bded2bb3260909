// Package commands creates catalog entities from uploaded bytes.
package commands

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/blob"
	"github.com/modelibr/assetdav/pkg/catalog"
)

// IncomingFile is an uploaded file before it is stored.
type IncomingFile struct {
	Name     string `validate:"required"`
	MimeType string `validate:"required"`
	Data     []byte `validate:"required,min=1"`
}

// CreateSpriteCommand creates a sprite in ProjectID from File. CategoryID
// and PackID are optional; BatchID only tags log lines of a multi-file
// upload.
type CreateSpriteCommand struct {
	ProjectID  int64 `validate:"required,gt=0"`
	File       IncomingFile
	CategoryID *int64
	BatchID    string
	PackID     *int64
}

// CreateSoundCommand creates a sound in ProjectID from File.
type CreateSoundCommand struct {
	ProjectID  int64 `validate:"required,gt=0"`
	File       IncomingFile
	CategoryID *int64
	BatchID    string
	PackID     *int64
	Duration   float64 `validate:"gte=0"`
}

// Service executes creation commands against a catalog writer and a blob
// store.
type Service struct {
	catalog  catalog.Writer
	blobs    blob.WritableStore
	validate *validator.Validate
}

// NewService wires the collaborators.
func NewService(w catalog.Writer, blobs blob.WritableStore) *Service {
	return &Service{
		catalog:  w,
		blobs:    blobs,
		validate: validator.New(),
	}
}

// CreateSprite stores the file and inserts a sprite named after its base
// name.
func (s *Service) CreateSprite(ctx context.Context, cmd CreateSpriteCommand) (*catalog.Sprite, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid sprite command: %w", err)
	}

	f, err := s.StoreFile(ctx, cmd.File)
	if err != nil {
		return nil, err
	}

	sprite := &catalog.Sprite{
		ProjectID:  cmd.ProjectID,
		Name:       baseName(cmd.File.Name),
		CategoryID: cmd.CategoryID,
		FileID:     f.ID,
	}
	if err := s.catalog.CreateSprite(ctx, sprite); err != nil {
		return nil, fmt.Errorf("failed to create sprite: %w", err)
	}
	if cmd.PackID != nil {
		if err := s.catalog.AddToPack(ctx, *cmd.PackID, catalog.KindSprite, sprite.ID); err != nil {
			return nil, fmt.Errorf("failed to add sprite to pack: %w", err)
		}
	}
	sprite.File = f

	logger.Info("Created sprite %q (id=%d, project=%d, file=%d, batch=%s)",
		sprite.Name, sprite.ID, cmd.ProjectID, f.ID, cmd.BatchID)
	return sprite, nil
}

// CreateSound stores the file and inserts a sound named after its base name.
func (s *Service) CreateSound(ctx context.Context, cmd CreateSoundCommand) (*catalog.Sound, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid sound command: %w", err)
	}

	f, err := s.StoreFile(ctx, cmd.File)
	if err != nil {
		return nil, err
	}

	sound := &catalog.Sound{
		ProjectID:  cmd.ProjectID,
		Name:       baseName(cmd.File.Name),
		CategoryID: cmd.CategoryID,
		FileID:     f.ID,
		Duration:   cmd.Duration,
	}
	if err := s.catalog.CreateSound(ctx, sound); err != nil {
		return nil, fmt.Errorf("failed to create sound: %w", err)
	}
	if cmd.PackID != nil {
		if err := s.catalog.AddToPack(ctx, *cmd.PackID, catalog.KindSound, sound.ID); err != nil {
			return nil, fmt.Errorf("failed to add sound to pack: %w", err)
		}
	}
	sound.File = f

	logger.Info("Created sound %q (id=%d, project=%d, file=%d, batch=%s)",
		sound.Name, sound.ID, cmd.ProjectID, f.ID, cmd.BatchID)
	return sound, nil
}

// StoreFile writes the blob and returns the file row for its hash, reusing
// an existing row with the same content and name.
func (s *Service) StoreFile(ctx context.Context, in IncomingFile) (*catalog.File, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid file: %w", err)
	}
	hash, err := s.blobs.Put(ctx, in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	existing, err := s.catalog.FindFileByHash(ctx, hash)
	switch {
	case err == nil && existing.OriginalFileName == in.Name:
		logger.Debug("Reusing file %d for %s (hash=%s)", existing.ID, in.Name, hash)
		return existing, nil
	case err != nil && !catalog.IsNotFound(err):
		return nil, fmt.Errorf("failed to look up file: %w", err)
	}

	f := &catalog.File{
		OriginalFileName: in.Name,
		Sha256Hash:       hash,
		SizeBytes:        int64(len(in.Data)),
		MimeType:         in.MimeType,
	}
	if err := s.catalog.CreateFile(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return f, nil
}

func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(name, path.Ext(name))
}
