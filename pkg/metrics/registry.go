// Package metrics holds the collector interfaces the WebDAV adapter and the
// texture deriver report to, their no-op variants, and the admin HTTP server.
//
// Collection is off until Init is called. Until then the constructors in
// pkg/metrics/prometheus hand out no-op collectors and /metrics answers 503.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every assetdav metric name.
const Namespace = "assetdav"

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the process registry on first use and returns it.
// The registry starts with the Go runtime and process collectors so the
// admin endpoint is useful before any request has been served.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}),
		)
	}
	return registry
}

// GetRegistry returns the registry, or nil while collection is off.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

func IsEnabled() bool {
	return GetRegistry() != nil
}
