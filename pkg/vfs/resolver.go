// Package vfs projects the asset catalog onto a virtual directory tree.
//
// Every request is resolved from scratch: the Resolver opens one catalog
// session, loads what the requested depth needs, builds the Collection or
// Item for the path and closes the session before returning. Nothing is kept
// between requests apart from the audio selection slot.
//
//	/Projects/{Project}/{Models|TextureSets|Sprites|Sounds}/...
//	/Packs/{Pack}/{Models|TextureSets|Sprites|Sounds}/...
//	/Sounds/{Category|Unassigned}/{File}
//	/Sprites/{Category|Unassigned}/{File}
//	/Selection/{Base}Selection.wav
package vfs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/blob"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/selection"
	"github.com/modelibr/assetdav/pkg/texture"
)

// ResolverConfig wires the resolver's collaborators.
type ResolverConfig struct {
	Catalog catalog.Store
	Blobs   blob.Store

	// Deriver extracts texture channels. Defaults to an uncached deriver
	// over Blobs.
	Deriver *texture.Deriver

	// Selection is the shared selection slot. Defaults to an empty slot.
	Selection *selection.Slot

	// Trimmer cuts the selection file. Defaults to PassthroughTrimmer.
	Trimmer selection.Trimmer

	// Commands handles uploads. When nil every collection is read-only.
	Commands Commands

	// Prefix is a leading path segment stripped before resolution, e.g.
	// "dav" for clients mounting http://host/dav/.
	Prefix string

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Resolver maps paths to virtual nodes.
type Resolver struct {
	catalog  catalog.Store
	blobs    blob.Store
	deriver  *texture.Deriver
	slot     *selection.Slot
	trimmer  selection.Trimmer
	commands Commands
	prefix   string

	// started stamps synthetic folders.
	started time.Time
}

// NewResolver validates cfg and applies defaults.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("vfs: catalog is required")
	}
	if cfg.Blobs == nil {
		return nil, errors.New("vfs: blob store is required")
	}
	if cfg.Deriver == nil {
		cfg.Deriver = texture.NewDeriver(cfg.Blobs, nil, nil)
	}
	if cfg.Selection == nil {
		cfg.Selection = selection.NewSlot()
	}
	if cfg.Trimmer == nil {
		cfg.Trimmer = selection.PassthroughTrimmer{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Resolver{
		catalog:  cfg.Catalog,
		blobs:    cfg.Blobs,
		deriver:  cfg.Deriver,
		slot:     cfg.Selection,
		trimmer:  cfg.Trimmer,
		commands: cfg.Commands,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		started:  cfg.Clock().UTC(),
	}, nil
}

// Selection returns the slot the Selection folder reads from.
func (r *Resolver) Selection() *selection.Slot {
	return r.slot
}

// Resolve decodes a request URI (path plus optional query) and resolves it.
// A malformed URI resolves to nil.
func (r *Resolver) Resolve(ctx context.Context, uri string) (Node, error) {
	u, err := url.Parse(uri)
	if err != nil {
		logger.Debug("Rejecting malformed URI %q: %v", uri, err)
		return nil, nil
	}
	return r.ResolvePath(ctx, u.Path)
}

// ResolvePath resolves an already-decoded slash-separated path. It returns
// (nil, nil) when nothing exists at the path; errors are reserved for
// catalog or storage failures.
func (r *Resolver) ResolvePath(ctx context.Context, name string) (Node, error) {
	segs, ok := r.segments(name)
	if !ok {
		return nil, nil
	}
	if len(segs) == 0 {
		return r.synthetic(KindRoot, ""), nil
	}

	sess, err := r.catalog.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog session: %w", err)
	}
	defer sess.Close()

	var node Node
	switch strings.ToLower(segs[0]) {
	case "projects":
		node, err = r.resolveProjects(ctx, sess, segs[1:])
	case "packs":
		node, err = r.resolvePacks(ctx, sess, segs[1:])
	case "sounds":
		node, err = r.resolveSoundCategories(ctx, sess, segs[1:])
	case "sprites":
		node, err = r.resolveSpriteCategories(ctx, sess, segs[1:])
	case "selection":
		node, err = r.resolveSelection(ctx, sess, segs[1:])
	default:
		return nil, nil
	}

	if err != nil {
		if catalog.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	if node == nil {
		logger.Debug("Path not found: %s", name)
	}
	return node, nil
}

// segments splits name into path segments, drops the transport prefix and
// rejects parent references.
func (r *Resolver) segments(name string) ([]string, bool) {
	var segs []string
	for _, s := range strings.Split(name, "/") {
		switch s {
		case "", ".":
			continue
		case "..":
			return nil, false
		}
		segs = append(segs, s)
	}
	if r.prefix != "" && len(segs) > 0 && strings.EqualFold(segs[0], r.prefix) {
		segs = segs[1:]
	}
	return segs, true
}

// descend walks segs below start using only data already loaded.
func descend(start *Collection, segs []string) Node {
	var node Node = start
	for _, s := range segs {
		c, ok := node.(*Collection)
		if !ok {
			return nil
		}
		if node = c.Child(s); node == nil {
			return nil
		}
	}
	return node
}

func (r *Resolver) resolveProjects(ctx context.Context, sess catalog.Session, segs []string) (Node, error) {
	if len(segs) == 0 {
		projects, err := sess.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		c := r.synthetic(KindProjects, NameProjects)
		c.projects = projects
		return c, nil
	}

	p, err := sess.ProjectGraph(ctx, segs[0])
	if err != nil {
		return nil, err
	}
	return descend(r.groupFolder(KindGroup, p.Name, projectView(p)), segs[1:]), nil
}

func (r *Resolver) resolvePacks(ctx context.Context, sess catalog.Session, segs []string) (Node, error) {
	if len(segs) == 0 {
		packs, err := sess.ListPacks(ctx)
		if err != nil {
			return nil, err
		}
		c := r.synthetic(KindPacks, NamePacks)
		c.packs = packs
		return c, nil
	}

	p, err := sess.PackGraph(ctx, segs[0])
	if err != nil {
		return nil, err
	}
	return descend(r.groupFolder(KindGroup, p.Name, packView(p)), segs[1:]), nil
}

func (r *Resolver) resolveSelection(ctx context.Context, sess catalog.Session, segs []string) (Node, error) {
	if len(segs) > 1 {
		return nil, nil
	}

	c := r.synthetic(KindSelection, NameSelection)
	if sel, ok := r.slot.Get(); ok {
		f, err := sess.GetFile(ctx, sel.FileID)
		switch {
		case err == nil:
			sel.FileName = f.OriginalFileName
			c.selected = &selectedFile{sel: sel, file: f}
		case !catalog.IsNotFound(err):
			return nil, err
		default:
			logger.Debug("Selected file %d no longer exists", sel.FileID)
		}
	}

	if len(segs) == 0 {
		return c, nil
	}
	return c.Child(segs[0]), nil
}
