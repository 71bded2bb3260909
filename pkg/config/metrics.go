package config

import (
	"net/http"

	"github.com/modelibr/assetdav/pkg/metrics"
	promMetrics "github.com/modelibr/assetdav/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the admin HTTP server (nil if disabled)
	Server *metrics.Server

	// WebDAVMetrics is the collector for the WebDAV adapter (never nil, noop if disabled)
	WebDAVMetrics metrics.WebDAVMetrics

	// DerivedMetrics is the collector for derived texture generation (never nil)
	DerivedMetrics metrics.DerivedMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the admin HTTP server, mounting routes next to /metrics
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations
//
// Parameters:
//   - cfg: The complete assetdav configuration
//   - routes: Extra admin handlers keyed by ServeMux pattern (e.g. "/selection")
func InitializeMetrics(cfg *Config, routes map[string]http.Handler) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			WebDAVMetrics:  metrics.NewNoopWebDAVMetrics(),
			DerivedMetrics: metrics.NewNoopDerivedMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port:   cfg.Metrics.Port,
		Routes: routes,
	})

	return &MetricsResult{
		Server:         server,
		WebDAVMetrics:  promMetrics.NewWebDAVMetrics(),
		DerivedMetrics: promMetrics.NewDerivedMetrics(),
	}
}
