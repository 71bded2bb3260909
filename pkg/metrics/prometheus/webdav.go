package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/modelibr/assetdav/pkg/metrics"
)

const subsystemWebdav = "webdav"

// webdavMetrics is the Prometheus implementation of metrics.WebDAVMetrics.
type webdavMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	bytesTransferred *prometheus.CounterVec
	uploadsTotal     *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

// NewWebDAVMetrics creates a new Prometheus-backed WebDAVMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewWebDAVMetrics() metrics.WebDAVMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopWebDAVMetrics()
	}

	reg := metrics.GetRegistry()

	return &webdavMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemWebdav,
				Name:      "requests_total",
				Help:      "Total number of WebDAV requests by method and status code",
			},
			[]string{"method", "code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemWebdav,
				Name:      "request_duration_milliseconds",
				Help:      "Duration of WebDAV requests in milliseconds",
				Buckets:   []float64{
					1,     // 1ms
					10,    // 10ms
					100,   // 100ms
					1000,  // 1s
					10000, // 10s
				},
			},
			[]string{"method"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemWebdav,
				Name:      "requests_in_flight",
				Help:      "Current number of WebDAV requests being processed",
			},
			[]string{"method"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemWebdav,
				Name:      "bytes_transferred_total",
				Help:      "Total bytes transferred via WebDAV",
			},
			[]string{"direction"}, // read or write
		),
		uploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemWebdav,
				Name:      "uploads_total",
				Help:      "Uploads into writable collections by asset kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		rateLimited: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystemWebdav,
				Name:      "rate_limited_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
	}
}

func (m *webdavMetrics) RecordRequest(method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds() * 1000)
}

func (m *webdavMetrics) RecordRequestStart(method string) {
	m.requestsInFlight.WithLabelValues(method).Inc()
}

func (m *webdavMetrics) RecordRequestEnd(method string) {
	m.requestsInFlight.WithLabelValues(method).Dec()
}

func (m *webdavMetrics) RecordBytesTransferred(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}

func (m *webdavMetrics) RecordUpload(kind string, outcome string) {
	m.uploadsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *webdavMetrics) RecordRateLimited() {
	m.rateLimited.Inc()
}
