package config

import (
	"fmt"

	"github.com/modelibr/assetdav/pkg/adapter"
	"github.com/modelibr/assetdav/pkg/adapter/webdav"
	"github.com/modelibr/assetdav/pkg/metrics"
)

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// Parameters:
//   - cfg: The complete assetdav configuration
//   - davMetrics: Optional WebDAV metrics collector (nil = no metrics)
//
// Returns:
//   - []adapter.Adapter: Enabled adapters ready to be added to the server
//   - error: Any error during adapter creation
func CreateAdapters(cfg *Config, davMetrics metrics.WebDAVMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.Adapters.WebDAV.Enabled {
		adapters = append(adapters, webdav.New(cfg.Adapters.WebDAV, davMetrics))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return adapters, nil
}
