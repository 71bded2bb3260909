// Package cache stores derived texture bytes. Entries are a pure function of
// their key, so every backend may drop entries at will and never needs
// invalidation.
package cache

// Entry is one cached derived file.
type Entry struct {
	MimeType string
	Data     []byte
}

// Cache is safe for concurrent use.
type Cache interface {
	// Get returns the entry for key, if present.
	Get(key string) (Entry, bool)

	// Put stores e under key, replacing any previous entry.
	Put(key string, e Entry)

	// Close releases backend resources.
	Close() error
}

// NoneCache never retains anything.
type NoneCache struct{}

func NewNoneCache() *NoneCache { return &NoneCache{} }

func (*NoneCache) Get(string) (Entry, bool) { return Entry{}, false }
func (*NoneCache) Put(string, Entry)        {}
func (*NoneCache) Close() error             { return nil }
