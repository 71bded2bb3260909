package config

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/metrics"
)

func TestCreateAdapters(t *testing.T) {
	cfg := validConfig(t)
	cfg.Adapters.WebDAV.Port = 8181

	adapters, err := CreateAdapters(cfg, nil)
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	assert.Equal(t, "WebDAV", adapters[0].Protocol())
	assert.Equal(t, 8181, adapters[0].Port())

	cfg.Adapters.WebDAV.Enabled = false
	_, err = CreateAdapters(cfg, nil)
	assert.Error(t, err)
}

func TestInitializeMetricsDisabled(t *testing.T) {
	cfg := validConfig(t)

	res := InitializeMetrics(cfg, nil)
	assert.Nil(t, res.Server)
	assert.NotNil(t, res.WebDAVMetrics)
	assert.NotNil(t, res.DerivedMetrics)
}

func TestInitializeMetricsEnabled(t *testing.T) {
	cfg := validConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9191

	ping := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	res := InitializeMetrics(cfg, map[string]http.Handler{"/ping": ping})
	require.NotNil(t, res.Server)
	assert.Equal(t, 9191, res.Server.Port())
	assert.True(t, metrics.IsEnabled())
	assert.NotNil(t, res.WebDAVMetrics)
}
