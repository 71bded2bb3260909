package vfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/blob"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/selection"
	"github.com/modelibr/assetdav/pkg/texture"
)

type itemKind int

const (
	// itemStored streams the blob verbatim.
	itemStored itemKind = iota

	// itemDerived streams a single-channel extraction of the blob.
	itemDerived

	// itemSelection streams the current audio selection.
	itemSelection
)

// Item is one virtual file.
type Item struct {
	kind    itemKind
	name    string
	file    *catalog.File
	channel catalog.SourceChannel
	sel     selection.Selection

	r *Resolver
}

func (r *Resolver) storedItem(name string, f *catalog.File) *Item {
	return &Item{kind: itemStored, name: name, file: f, r: r}
}

func (r *Resolver) derivedItem(name string, f *catalog.File, ch catalog.SourceChannel) *Item {
	return &Item{kind: itemDerived, name: name, file: f, channel: ch, r: r}
}

func (r *Resolver) selectionItem(sel selection.Selection, f *catalog.File) *Item {
	return &Item{kind: itemSelection, name: sel.Name(), file: f, sel: sel, r: r}
}

func (i *Item) Name() string       { return i.name }
func (i *Item) IsCollection() bool { return false }

// File returns the catalog file backing the item.
func (i *Item) File() *catalog.File { return i.file }

// Derived reports whether the item's bytes are computed from the stored file.
func (i *Item) Derived() bool { return i.kind == itemDerived }

// Properties computes the item's attributes. Sizes always match what Open
// streams, so derived items are extracted (or fetched from the derived cache)
// and stored items are measured in the blob store.
func (i *Item) Properties(ctx context.Context) (Properties, error) {
	p := Properties{
		Name:        i.name,
		DisplayName: i.name,
		Size:        i.file.SizeBytes,
		ContentType: i.file.MimeType,
		Created:     i.file.CreatedAt,
		Modified:    i.file.UpdatedAt,
	}
	if p.ContentType == "" {
		p.ContentType = MimeTypeFor(i.file.OriginalFileName)
	}

	hash := normalizedHash(i.file.Sha256Hash)
	switch i.kind {
	case itemStored:
		p.ETag = quoteETag(hash)
		size, err := i.storedSize(ctx)
		if err != nil {
			return Properties{}, err
		}
		p.Size = size

	case itemDerived:
		p.ETag = quoteETag(hash + "-" + i.channel.String())
		d, err := i.r.deriver.Derive(ctx, i.file.Sha256Hash, i.channel)
		switch {
		case err == nil:
			p.Size = int64(len(d.Data))
			p.ContentType = d.MimeType
		case blobMissing(err):
			p.Size = 0
			p.ContentType = texture.OutputMIME(p.ContentType)
		case errors.Is(err, texture.ErrUnsupportedFormat):
			// Served as stored; see Open.
			size, err := i.storedSize(ctx)
			if err != nil {
				return Properties{}, err
			}
			p.Size = size
		default:
			if ctx.Err() != nil {
				return Properties{}, ctx.Err()
			}
			return Properties{}, fmt.Errorf("failed to derive %s channel of %s: %w", i.channel, i.file.OriginalFileName, err)
		}

	case itemSelection:
		p.ContentType = "audio/wav"
		p.ETag = quoteETag(hash + "-" +
			strconv.FormatFloat(i.sel.Start, 'f', -1, 64) + "-" +
			strconv.FormatFloat(i.sel.End, 'f', -1, 64))
		c, err := i.Open(ctx)
		if err != nil {
			return Properties{}, err
		}
		p.Size = c.Size
		c.Close()
	}
	return p, nil
}

// Content is an open item stream.
type Content struct {
	io.ReadSeeker
	Size     int64
	MimeType string

	closer io.Closer
}

func (c *Content) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func emptyContent(mime string) *Content {
	return &Content{ReadSeeker: bytes.NewReader(nil), MimeType: mime}
}

// Open returns the item's byte stream. A missing blob yields an empty
// stream and a derived item whose source is not a decodable image streams
// the source unchanged; other failures are returned.
func (i *Item) Open(ctx context.Context) (*Content, error) {
	mime := i.file.MimeType
	if mime == "" {
		mime = MimeTypeFor(i.file.OriginalFileName)
	}

	switch i.kind {
	case itemDerived:
		d, err := i.r.deriver.Derive(ctx, i.file.Sha256Hash, i.channel)
		switch {
		case err == nil:
			return &Content{ReadSeeker: bytes.NewReader(d.Data), Size: int64(len(d.Data)), MimeType: d.MimeType}, nil
		case blobMissing(err):
			logger.Warn("Blob missing for %s (hash=%s)", i.file.OriginalFileName, i.file.Sha256Hash)
			return emptyContent(texture.OutputMIME(mime)), nil
		case errors.Is(err, texture.ErrUnsupportedFormat):
			logger.Debug("Serving %s unmodified: %v", i.file.OriginalFileName, err)
			return i.openStored(ctx, mime)
		default:
			return nil, err
		}

	case itemSelection:
		c, err := i.openStored(ctx, "audio/wav")
		if err != nil {
			return nil, err
		}
		trimmed, size, err := i.r.trimmer.Trim(ctx, c.ReadSeeker, c.Size, i.sel)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to trim selection: %w", err)
		}
		if size < 0 {
			if size, err = trimmed.Seek(0, io.SeekEnd); err == nil {
				_, err = trimmed.Seek(0, io.SeekStart)
			}
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to size selection: %w", err)
			}
		}
		return &Content{ReadSeeker: trimmed, Size: size, MimeType: "audio/wav", closer: c}, nil

	default:
		return i.openStored(ctx, mime)
	}
}

func (i *Item) openStored(ctx context.Context, mime string) (*Content, error) {
	rd, err := i.r.blobs.Open(ctx, i.file.Sha256Hash)
	if blobMissing(err) {
		logger.Warn("Blob missing for %s (hash=%s)", i.file.OriginalFileName, i.file.Sha256Hash)
		return emptyContent(mime), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	size, err := rd.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = rd.Seek(0, io.SeekStart)
	}
	if err != nil {
		rd.Close()
		return nil, fmt.Errorf("failed to size blob: %w", err)
	}
	return &Content{ReadSeeker: rd, Size: size, MimeType: mime, closer: rd}, nil
}

// storedSize is the length openStored will serve: zero for a missing blob.
func (i *Item) storedSize(ctx context.Context) (int64, error) {
	size, err := i.r.blobs.Size(ctx, i.file.Sha256Hash)
	if blobMissing(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat blob: %w", err)
	}
	return size, nil
}

func blobMissing(err error) bool {
	return errors.Is(err, blob.ErrBlobNotFound) || errors.Is(err, blob.ErrInvalidHash)
}

// Items are read-only.

func (i *Item) Delete(context.Context) Result         { return ResultForbidden }
func (i *Item) CopyTo(context.Context, string) Result { return ResultForbidden }
func (i *Item) MoveTo(context.Context, string) Result { return ResultForbidden }

func normalizedHash(h string) string {
	if n, err := blob.Normalize(h); err == nil {
		return n
	}
	return h
}
