package vfs

import (
	"context"
	"strings"
	"time"

	"github.com/modelibr/assetdav/pkg/catalog"
)

type categoryRef struct {
	id       int64
	name     string
	created  time.Time
	modified time.Time
}

// addressable keeps categories whose name is unique and does not collide
// with the Unassigned bucket, and returns the listing names with
// Unassigned last.
func addressable(refs []categoryRef) ([]string, map[string]categoryRef) {
	count := make(map[string]int, len(refs))
	for _, c := range refs {
		count[c.name]++
	}

	var names []string
	byName := make(map[string]categoryRef, len(refs))
	for _, c := range refs {
		if count[c.name] > 1 || c.name == "" || strings.EqualFold(c.name, NameUnassigned) {
			continue
		}
		names = append(names, c.name)
		byName[c.name] = c
	}
	return append(names, NameUnassigned), byName
}

// pickCategory maps a path segment to a category id. A nil id with ok
// selects the Unassigned bucket.
func (r *Resolver) pickCategory(refs []categoryRef, seg string) (ref categoryRef, id *int64, ok bool) {
	if strings.EqualFold(seg, NameUnassigned) {
		return categoryRef{name: NameUnassigned, created: r.started, modified: r.started}, nil, true
	}
	_, byName := addressable(refs)
	ref, ok = byName[seg]
	if !ok {
		return categoryRef{}, nil, false
	}
	return ref, &ref.id, true
}

func (r *Resolver) resolveSpriteCategories(ctx context.Context, sess catalog.Session, segs []string) (Node, error) {
	cats, err := sess.ListSpriteCategories(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]categoryRef, len(cats))
	for i, c := range cats {
		refs[i] = categoryRef{id: c.ID, name: c.Name, created: c.CreatedAt, modified: c.UpdatedAt}
	}

	if len(segs) == 0 {
		c := r.synthetic(KindSpriteCategories, NameSprites)
		c.categories, _ = addressable(refs)
		return c, nil
	}

	ref, id, ok := r.pickCategory(refs, segs[0])
	if !ok {
		return nil, nil
	}
	sprites, err := sess.SpritesInCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	c := r.folder(KindSpriteCategory, ref.name, ref.created, ref.modified)
	c.sprites = sprites
	return descend(c, segs[1:]), nil
}

func (r *Resolver) resolveSoundCategories(ctx context.Context, sess catalog.Session, segs []string) (Node, error) {
	cats, err := sess.ListSoundCategories(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]categoryRef, len(cats))
	for i, c := range cats {
		refs[i] = categoryRef{id: c.ID, name: c.Name, created: c.CreatedAt, modified: c.UpdatedAt}
	}

	if len(segs) == 0 {
		c := r.synthetic(KindSoundCategories, NameSounds)
		c.categories, _ = addressable(refs)
		return c, nil
	}

	ref, id, ok := r.pickCategory(refs, segs[0])
	if !ok {
		return nil, nil
	}
	sounds, err := sess.SoundsInCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	c := r.folder(KindSoundCategory, ref.name, ref.created, ref.modified)
	c.sounds = sounds
	return descend(c, segs[1:]), nil
}
