package metrics

import "time"

// DerivedMetrics observes single-channel texture derivation and its cache.
type DerivedMetrics interface {
	// RecordCacheHit counts a derived texture served from the cache.
	RecordCacheHit()

	// RecordCacheMiss counts a derived texture that had to be computed.
	RecordCacheMiss()

	// ObserveDerive records one extraction, its output size and outcome.
	ObserveDerive(channel string, duration time.Duration, bytes int64, err error)
}

// NewNoopDerivedMetrics returns a DerivedMetrics that discards everything.
func NewNoopDerivedMetrics() DerivedMetrics {
	return noopDerivedMetrics{}
}

type noopDerivedMetrics struct{}

func (noopDerivedMetrics) RecordCacheHit()                                                            {}
func (noopDerivedMetrics) RecordCacheMiss()                                                           {}
func (noopDerivedMetrics) ObserveDerive(channel string, duration time.Duration, bytes int64, err error) {}
