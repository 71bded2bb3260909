package metrics

import "time"

// WebDAVMetrics provides observability for WebDAV adapter operations.
//
// This interface is optional: when the adapter is built without metrics a
// no-op implementation is used with zero overhead.
//
//	adapter := webdav.New(config, prometheus.NewWebDAVMetrics())
//	adapter := webdav.New(config, nil) // no-op
type WebDAVMetrics interface {
	// RecordRequest records a completed request with its method, the HTTP
	// status written and the time taken.
	RecordRequest(method string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight gauge for method.
	RecordRequestStart(method string)

	// RecordRequestEnd decrements the in-flight gauge for method.
	RecordRequestEnd(method string)

	// RecordBytesTransferred records bytes sent ("read") or received
	// ("write").
	RecordBytesTransferred(direction string, bytes int64)

	// RecordUpload records the outcome of a PUT into a writable collection.
	//
	// Parameters:
	//   - kind: "sprite" or "sound"
	//   - outcome: "created", "bad_request", "forbidden" or "error"
	RecordUpload(kind string, outcome string)

	// RecordRateLimited counts requests rejected by the rate limiter.
	RecordRateLimited()
}

// NewNoopWebDAVMetrics returns a WebDAVMetrics that discards everything.
func NewNoopWebDAVMetrics() WebDAVMetrics {
	return noopWebDAVMetrics{}
}

type noopWebDAVMetrics struct{}

func (noopWebDAVMetrics) RecordRequest(method string, status int, duration time.Duration) {}
func (noopWebDAVMetrics) RecordRequestStart(method string)                                {}
func (noopWebDAVMetrics) RecordRequestEnd(method string)                                  {}
func (noopWebDAVMetrics) RecordBytesTransferred(direction string, bytes int64)            {}
func (noopWebDAVMetrics) RecordUpload(kind string, outcome string)                        {}
func (noopWebDAVMetrics) RecordRateLimited()                                              {}
