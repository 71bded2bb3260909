package texture

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/blob"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/metrics"
	"github.com/modelibr/assetdav/pkg/texture/cache"
)

// Derived is one computed file.
type Derived struct {
	MimeType string
	Data     []byte
}

// Deriver loads source textures from a blob store and extracts channels,
// consulting a cache keyed by (hash, channel).
type Deriver struct {
	blobs   blob.Store
	cache   cache.Cache
	metrics metrics.DerivedMetrics
}

// NewDeriver builds a Deriver. A nil cache disables caching and nil metrics
// fall back to the no-op implementation.
func NewDeriver(blobs blob.Store, c cache.Cache, m metrics.DerivedMetrics) *Deriver {
	if c == nil {
		c = cache.NewNoneCache()
	}
	if m == nil {
		m = metrics.NewNoopDerivedMetrics()
	}
	return &Deriver{blobs: blobs, cache: c, metrics: m}
}

// CacheKey identifies the derived output of hash for channel.
func CacheKey(hash string, channel catalog.SourceChannel) string {
	if h, err := blob.Normalize(hash); err == nil {
		hash = h
	}
	return hash + ":" + channel.String()
}

// Derive returns the extracted channel of the blob identified by hash. A
// missing blob is reported as blob.ErrBlobNotFound.
func (d *Deriver) Derive(ctx context.Context, hash string, channel catalog.SourceChannel) (Derived, error) {
	if !channel.IsSingle() {
		return Derived{}, fmt.Errorf("%w: %s", ErrUnsupportedChannel, channel)
	}

	key := CacheKey(hash, channel)
	if e, ok := d.cache.Get(key); ok {
		d.metrics.RecordCacheHit()
		return Derived{MimeType: e.MimeType, Data: e.Data}, nil
	}
	d.metrics.RecordCacheMiss()

	r, err := d.blobs.Open(ctx, hash)
	if err != nil {
		return Derived{}, err
	}
	defer r.Close()

	src, err := io.ReadAll(r)
	if err != nil {
		return Derived{}, fmt.Errorf("failed to read texture %s: %w", hash, err)
	}

	start := time.Now()
	out, mime, err := Extract(src, channel)
	d.metrics.ObserveDerive(channel.String(), time.Since(start), int64(len(out)), err)
	if err != nil {
		return Derived{}, fmt.Errorf("texture %s: %w", hash, err)
	}

	logger.Debug("Derived %s channel of %s: %d -> %d bytes", channel, hash, len(src), len(out))
	d.cache.Put(key, cache.Entry{MimeType: mime, Data: out})
	return Derived{MimeType: mime, Data: out}, nil
}
