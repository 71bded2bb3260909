package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/modelibr/assetdav/pkg/adapter/webdav"
	"github.com/modelibr/assetdav/pkg/texture/cache"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are handled by the factories and stores
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyMetricsDefaults(&cfg.Metrics)
	applyCatalogDefaults(&cfg.Catalog)
	applyBlobsDefaults(&cfg.Blobs)
	applyDerivedCacheDefaults(&cfg.DerivedCache)
	applyAdaptersDefaults(&cfg.Adapters)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyCatalogDefaults picks the in-memory catalog and prepares a sqlite
// path so switching type only needs one edit.
func applyCatalogDefaults(cfg *CatalogConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.SQLite == nil {
		cfg.SQLite = make(map[string]any)
	}
	if _, ok := cfg.SQLite["path"]; !ok {
		cfg.SQLite["path"] = filepath.Join(defaultDataDir(), "catalog.db")
	}
	if _, ok := cfg.SQLite["auto_migrate"]; !ok {
		cfg.SQLite["auto_migrate"] = true
	}
}

func applyBlobsDefaults(cfg *BlobsConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = filepath.Join(defaultDataDir(), "blobs")
	}
}

func applyDerivedCacheDefaults(cfg *DerivedCacheConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Memory["max_entries"]; !ok {
		cfg.Memory["max_entries"] = cache.DefaultMaxEntries
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(defaultDataDir(), "derived")
	}
}

// applyAdaptersDefaults sets adapter defaults.
//
// An adapter section without a port is treated as "not configured", which
// enables WebDAV by default. An explicit port keeps the explicit Enabled
// value.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	if cfg.WebDAV.Port == 0 {
		cfg.WebDAV.Enabled = true
	}
	cfg.WebDAV.ApplyDefaults()
}

// defaultDataDir is where local stores live unless configured otherwise.
func defaultDataDir() string {
	return filepath.Join(getConfigDir(), "data")
}

// GetDefaultConfig returns a Config with all defaults applied. It is used to
// render the sample file written by InitConfig.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Adapters: AdaptersConfig{
			WebDAV: webdav.WebDAVConfig{Enabled: true},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
