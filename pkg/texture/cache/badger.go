package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/modelibr/assetdav/internal/logger"
)

// keyPrefix namespaces derived entries inside the database.
const keyPrefix = "d:"

// BadgerCacheConfig configures the persistent derived cache.
type BadgerCacheConfig struct {
	// DBPath is the directory holding the Badger database.
	DBPath string `mapstructure:"db_path"`

	// TTL expires entries after the given duration. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl"`

	// InMemory runs Badger without touching disk (tests).
	InMemory bool `mapstructure:"in_memory"`
}

// BadgerCache persists derived textures across restarts.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerCache opens (or creates) the database at cfg.DBPath.
func NewBadgerCache(ctx context.Context, cfg BadgerCacheConfig) (*BadgerCache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger cache: db_path is required")
	}

	opts := badger.DefaultOptions(cfg.DBPath)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Info("Derived cache opened: badger path=%s", cfg.DBPath)
	return &BadgerCache{db: db, ttl: cfg.TTL}, nil
}

// Values are stored as mime, NUL, data.
func encodeEntry(e Entry) []byte {
	buf := make([]byte, 0, len(e.MimeType)+1+len(e.Data))
	buf = append(buf, e.MimeType...)
	buf = append(buf, 0)
	return append(buf, e.Data...)
}

func decodeEntry(val []byte) (Entry, error) {
	i := bytes.IndexByte(val, 0)
	if i < 0 {
		return Entry{}, errors.New("corrupt derived cache entry")
	}
	data := make([]byte, len(val)-i-1)
	copy(data, val[i+1:])
	return Entry{MimeType: string(val[:i]), Data: data}, nil
}

func (c *BadgerCache) Get(key string) (Entry, bool) {
	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			e, err := decodeEntry(val)
			entry = e
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logger.Warn("Derived cache read failed for %s: %v", key, err)
		}
		return Entry{}, false
	}
	return entry, true
}

func (c *BadgerCache) Put(key string, e Entry) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), encodeEntry(e))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		logger.Warn("Derived cache write failed for %s: %v", key, err)
	}
}

func (c *BadgerCache) Close() error {
	return c.db.Close()
}
