package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInitConfig(t *testing.T) {
	isolate(t)

	path, err := InitConfig(false)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfigPath(), path)
	assert.True(t, ConfigExists())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(content, &doc))
	for _, section := range []string{"logging", "server", "metrics", "catalog", "blobs", "derived_cache", "adapters"} {
		assert.Contains(t, doc, section)
	}
	assert.Contains(t, string(content), "# assetdav Configuration File")

	// The generated file loads back into the defaults it was rendered from.
	cfg, err := Load(path)
	require.NoError(t, err)
	want := GetDefaultConfig()
	assert.Equal(t, want.Logging, cfg.Logging)
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.Metrics, cfg.Metrics)
	assert.Equal(t, want.Adapters, cfg.Adapters)
	assert.Equal(t, want.Catalog.SQLite["path"], cfg.Catalog.SQLite["path"])
	assert.Equal(t, want.Blobs.Filesystem["path"], cfg.Blobs.Filesystem["path"])
	assert.Equal(t, want.DerivedCache.Type, cfg.DerivedCache.Type)
}

func TestInitConfigRefusesOverwrite(t *testing.T) {
	isolate(t)

	path, err := InitConfig(false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("# edited\n"), 0644))

	_, err = InitConfig(false)
	assert.ErrorContains(t, err, "already exists")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# edited\n", string(content))

	_, err = InitConfig(true)
	require.NoError(t, err)
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "adapters:")
}
