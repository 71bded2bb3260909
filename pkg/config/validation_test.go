package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	isolate(t)
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "TRACE" },
			wantErr: "Config.Logging.Level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "Config.Logging.Format",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "ShutdownTimeout",
		},
		{
			name:    "unknown catalog",
			mutate:  func(c *Config) { c.Catalog.Type = "postgres" },
			wantErr: "Config.Catalog.Type",
		},
		{
			name:    "unknown blob store",
			mutate:  func(c *Config) { c.Blobs.Type = "ftp" },
			wantErr: "Config.Blobs.Type",
		},
		{
			name:    "unknown derived cache",
			mutate:  func(c *Config) { c.DerivedCache.Type = "redis" },
			wantErr: "Config.DerivedCache.Type",
		},
		{
			name:    "no adapters",
			mutate:  func(c *Config) { c.Adapters.WebDAV.Enabled = false },
			wantErr: "at least one adapter",
		},
		{
			name:    "nested prefix",
			mutate:  func(c *Config) { c.Adapters.WebDAV.Prefix = "a/b" },
			wantErr: "adapters.webdav",
		},
		{
			name:    "bad ignore pattern",
			mutate:  func(c *Config) { c.Adapters.WebDAV.IgnorePatterns = []string{"[unclosed"} },
			wantErr: "ignore pattern",
		},
		{
			name: "metrics port clash",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = c.Adapters.WebDAV.Port
			},
			wantErr: "metrics.port",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Catalog.Type = "sqlite"
				c.Catalog.SQLite = map[string]any{}
			},
			wantErr: "catalog.sqlite.path",
		},
		{
			name: "filesystem blobs without path",
			mutate: func(c *Config) {
				c.Blobs.Filesystem = map[string]any{"path": ""}
			},
			wantErr: "blobs.filesystem.path",
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Blobs.Type = "s3"
				c.Blobs.S3 = map[string]any{"region": "us-east-1"}
			},
			wantErr: "blobs.s3.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAcceptsLowercaseLevel(t *testing.T) {
	cfg := validConfig(t)
	cfg.Logging.Level = "debug"
	assert.NoError(t, Validate(cfg))
}
