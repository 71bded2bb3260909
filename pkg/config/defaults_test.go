package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/modelibr/assetdav/pkg/adapter/webdav"
	"github.com/modelibr/assetdav/pkg/texture/cache"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	isolate(t)
	var cfg Config
	ApplyDefaults(&cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, true, cfg.Catalog.SQLite["auto_migrate"])
	assert.Contains(t, cfg.Catalog.SQLite["path"], "catalog.db")
	assert.Equal(t, cache.DefaultMaxEntries, cfg.DerivedCache.Memory["max_entries"])
	assert.NotNil(t, cfg.Blobs.S3)

	dav := cfg.Adapters.WebDAV
	assert.True(t, dav.Enabled)
	assert.Equal(t, 8080, dav.Port)
	assert.Equal(t, 5*time.Minute, dav.ReadTimeout)
	assert.Equal(t, 2*time.Minute, dav.IdleTimeout)
	assert.Equal(t, int64(256<<20), dav.MaxRequestBodyBytes)
	assert.Equal(t, webdav.DefaultIgnorePatterns, dav.IgnorePatterns)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	isolate(t)
	cfg := Config{
		Logging: LoggingConfig{Level: "warn", Format: "json", Output: "stderr"},
		Server:  ServerConfig{ShutdownTimeout: time.Second},
		Blobs: BlobsConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": "/srv/blobs"},
		},
		DerivedCache: DerivedCacheConfig{Type: "none"},
		Adapters: AdaptersConfig{
			WebDAV: webdav.WebDAVConfig{Port: 8081, Enabled: false, IgnorePatterns: []string{}},
		},
	}
	ApplyDefaults(&cfg)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/srv/blobs", cfg.Blobs.Filesystem["path"])
	assert.Equal(t, "none", cfg.DerivedCache.Type)
	assert.False(t, cfg.Adapters.WebDAV.Enabled, "explicit port keeps explicit enabled flag")
	assert.Empty(t, cfg.Adapters.WebDAV.IgnorePatterns, "an empty list disables ignoring")
}
