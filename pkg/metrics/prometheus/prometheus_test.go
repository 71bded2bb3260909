package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/metrics"
)

// Constructors register with the process-wide registry, so each runs once.
func TestCollectors(t *testing.T) {
	metrics.InitRegistry()
	require.True(t, metrics.IsEnabled())

	w := NewWebDAVMetrics()
	w.RecordRequestStart("GET")
	w.RecordRequest("GET", 200, 5*time.Millisecond)
	w.RecordRequestEnd("GET")
	w.RecordBytesTransferred("read", 42)
	w.RecordUpload("sprite", "created")
	w.RecordRateLimited()

	wm := w.(*webdavMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(wm.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(wm.requestsInFlight.WithLabelValues("GET")))
	assert.Equal(t, 42.0, testutil.ToFloat64(wm.bytesTransferred.WithLabelValues("read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(wm.uploadsTotal.WithLabelValues("sprite", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(wm.rateLimited))

	d := NewDerivedMetrics()
	d.RecordCacheHit()
	d.RecordCacheMiss()
	d.RecordCacheMiss()
	d.ObserveDerive("R", time.Millisecond, 100, nil)
	d.ObserveDerive("G", time.Millisecond, 100, errors.New("decode"))

	dm := d.(*derivedMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(dm.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(dm.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(dm.deriveTotal.WithLabelValues("G", "error")))
	assert.Equal(t, 100.0, testutil.ToFloat64(dm.deriveBytes))
}
