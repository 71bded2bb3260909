package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the default config location at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Catalog.Type)
	assert.Equal(t, "filesystem", cfg.Blobs.Type)
	assert.Equal(t, filepath.Join(dir, "assetdav", "data", "blobs"), cfg.Blobs.Filesystem["path"])
	assert.Equal(t, "memory", cfg.DerivedCache.Type)
	assert.True(t, cfg.Adapters.WebDAV.Enabled)
	assert.Equal(t, 8080, cfg.Adapters.WebDAV.Port)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
logging:
  level: debug
  format: json
server:
  shutdown_timeout: 10s
metrics:
  enabled: true
  port: 9100
catalog:
  type: sqlite
  sqlite:
    path: /var/lib/assetdav/catalog.db
    busy_timeout: 2s
blobs:
  type: s3
  s3:
    region: eu-west-1
    bucket: assets
derived_cache:
  type: badger
  badger:
    db_path: /var/lib/assetdav/derived
adapters:
  webdav:
    port: 8443
    enabled: true
    prefix: /dav/
    read_timeout: 1m
    rate_limit:
      requests_per_second: 50
      burst: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 9100, cfg.Metrics.Port)
	assert.Equal(t, "sqlite", cfg.Catalog.Type)
	assert.Equal(t, "/var/lib/assetdav/catalog.db", cfg.Catalog.SQLite["path"])
	assert.Equal(t, "assets", cfg.Blobs.S3["bucket"])
	assert.Equal(t, "badger", cfg.DerivedCache.Type)

	dav := cfg.Adapters.WebDAV
	assert.Equal(t, 8443, dav.Port)
	assert.Equal(t, "dav", dav.Prefix)
	assert.Equal(t, time.Minute, dav.ReadTimeout)
	assert.Equal(t, 5*time.Minute, dav.WriteTimeout)
	assert.Equal(t, uint(50), dav.RateLimit.RequestsPerSecond)
	assert.Equal(t, uint(100), dav.RateLimit.Burst)
	assert.NotEmpty(t, dav.IgnorePatterns)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
logging:
  level: INFO
adapters:
  webdav:
    port: 8080
    enabled: true
`)
	t.Setenv("ASSETDAV_LOGGING_LEVEL", "WARN")
	t.Setenv("ASSETDAV_ADAPTERS_WEBDAV_PORT", "9999")
	t.Setenv("ASSETDAV_CATALOG_TYPE", "sqlite")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, 9999, cfg.Adapters.WebDAV.Port)
	assert.Equal(t, "sqlite", cfg.Catalog.Type)
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	_, err := Load(writeConfig(t, "logging: [unclosed"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "catalog:\n  type: postgres\n"))
	assert.ErrorContains(t, err, "validation failed")

	_, err = Load(writeConfig(t, "adapters:\n  webdav:\n    port: 8080\n    enabled: false\n"))
	assert.ErrorContains(t, err, "at least one adapter")
}

func TestConfigPaths(t *testing.T) {
	dir := isolate(t)

	assert.Equal(t, filepath.Join(dir, "assetdav"), GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "assetdav", "config.yaml"), GetDefaultConfigPath())
	assert.False(t, ConfigExists())

	require.NoError(t, os.MkdirAll(GetConfigDir(), 0755))
	require.NoError(t, os.WriteFile(GetDefaultConfigPath(), []byte("logging:\n  level: INFO\n"), 0644))
	assert.True(t, ConfigExists())
}
