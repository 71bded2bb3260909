package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries bounds the memory cache when no size is configured.
const DefaultMaxEntries = 256

// MemoryCache is an in-process LRU of derived textures.
type MemoryCache struct {
	lru *lru.Cache[string, Entry]
}

// NewMemoryCache creates an LRU holding at most maxEntries items.
func NewMemoryCache(maxEntries int) (*MemoryCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &MemoryCache{lru: c}, nil
}

func (c *MemoryCache) Get(key string) (Entry, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Put(key string, e Entry) {
	c.lru.Add(key, e)
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
