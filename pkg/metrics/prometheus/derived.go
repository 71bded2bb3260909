package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/modelibr/assetdav/pkg/metrics"
)

const subsystemDerived = "derived"

type derivedMetrics struct {
	cacheLookups   *prometheus.CounterVec
	deriveTotal    *prometheus.CounterVec
	deriveDuration *prometheus.HistogramVec
	deriveBytes    prometheus.Counter
}

// NewDerivedMetrics creates a Prometheus-backed metrics.DerivedMetrics.
//
// Returns a no-op implementation if metrics are not enabled.
func NewDerivedMetrics() metrics.DerivedMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopDerivedMetrics()
	}

	reg := metrics.GetRegistry()

	return &derivedMetrics{
		cacheLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemDerived,
				Name:      "cache_lookups_total",
				Help:      "Derived texture cache lookups by result",
			},
			[]string{"result"}, // hit or miss
		),
		deriveTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemDerived,
				Name:      "extractions_total",
				Help:      "Single-channel texture extractions by channel and status",
			},
			[]string{"channel", "status"},
		),
		deriveDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemDerived,
				Name:      "extraction_duration_milliseconds",
				Help:      "Duration of single-channel texture extractions in milliseconds",
				Buckets:   []float64{
					1,    // 1ms
					10,   // 10ms
					100,  // 100ms
					1000, // 1s
					5000, // 5s
				},
			},
			[]string{"channel"},
		),
		deriveBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemDerived,
				Name:      "bytes_total",
				Help:      "Total bytes produced by texture extraction",
			},
		),
	}
}

func (m *derivedMetrics) RecordCacheHit() {
	m.cacheLookups.WithLabelValues("hit").Inc()
}

func (m *derivedMetrics) RecordCacheMiss() {
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *derivedMetrics) ObserveDerive(channel string, duration time.Duration, bytes int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.deriveTotal.WithLabelValues(channel, status).Inc()
	m.deriveDuration.WithLabelValues(channel).Observe(duration.Seconds() * 1000)
	if err == nil {
		m.deriveBytes.Add(float64(bytes))
	}
}
