package vfs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/commands"
)

// Commands creates assets from uploaded files. *commands.Service implements
// it.
type Commands interface {
	CreateSprite(ctx context.Context, cmd commands.CreateSpriteCommand) (*catalog.Sprite, error)
	CreateSound(ctx context.Context, cmd commands.CreateSoundCommand) (*catalog.Sound, error)
}

type uploadKind int

const (
	uploadSprite uploadKind = iota
	uploadSound
)

func (k uploadKind) String() string {
	if k == uploadSound {
		return "sound"
	}
	return "sprite"
}

// uploadTarget scopes new children of a writable collection.
type uploadTarget struct {
	kind      uploadKind
	projectID int64
}

// uploadTarget returns nil for pack-scoped groups, which are read-only.
func (g *assetGroup) uploadTarget(kind uploadKind) *uploadTarget {
	if g.projectID == 0 {
		return nil
	}
	return &uploadTarget{kind: kind, projectID: g.projectID}
}

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"bmp":  "image/bmp",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"m4a":  "audio/mp4",
}

// MimeTypeFor maps a file name's extension to a MIME type, defaulting to
// application/octet-stream.
func MimeTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if m, ok := mimeTypes[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// UploadKind names the asset kind created by CreateChild ("sprite" or
// "sound"), or "" for read-only collections.
func (c *Collection) UploadKind() string {
	if c.upload == nil {
		return ""
	}
	return c.upload.kind.String()
}

// CreateChild stores body as a new sprite or sound named name. Only
// project-scoped Sprites and Sounds folders accept it; every other
// collection answers ResultForbidden. The body is read in full; its size is
// bounded by the transport.
func (c *Collection) CreateChild(ctx context.Context, name string, body io.Reader) Result {
	if c.upload == nil || c.r.commands == nil {
		return ResultForbidden
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ResultBadRequest
	}
	if c.Child(name) != nil {
		// Existing items are read-only.
		return ResultForbidden
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ResultTooLarge
		}
		logger.Warn("Upload of %s aborted: %v", name, err)
		return ResultBadRequest
	}
	if len(data) == 0 {
		return ResultBadRequest
	}

	file := commands.IncomingFile{Name: name, MimeType: MimeTypeFor(name), Data: data}

	switch c.upload.kind {
	case uploadSound:
		_, err = c.r.commands.CreateSound(ctx, commands.CreateSoundCommand{
			ProjectID: c.upload.projectID,
			File:      file,
		})
	default:
		_, err = c.r.commands.CreateSprite(ctx, commands.CreateSpriteCommand{
			ProjectID: c.upload.projectID,
			File:      file,
		})
	}
	if err != nil {
		logger.Error("Failed to create %s %s in project %d: %v", c.upload.kind, name, c.upload.projectID, err)
		return ResultInternalError
	}
	return ResultCreated
}
