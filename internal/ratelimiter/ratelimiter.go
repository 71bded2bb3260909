package ratelimiter

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimiter throttles inbound protocol requests with a token bucket.
//
// A zero requests-per-second value disables limiting entirely. Each request
// consumes one token; burst controls how many requests may be served back to
// back when the bucket is full.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained requests with
// the given burst. When burst is smaller than one it is raised to one so that
// a configured limiter never rejects every request.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Unlimited reports whether the limiter lets every request through.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

// Middleware rejects requests with 503 Service Unavailable once the bucket is
// empty. A Retry-After of one second is advertised so WebDAV clients back off.
//
// onReject, when non-nil, is called for every rejected request.
func (r *RateLimiter) Middleware(next http.Handler, onReject func(*http.Request)) http.Handler {
	if r == nil || r.Unlimited() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.Allow() {
			if onReject != nil {
				onReject(req)
			}
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, req)
	})
}
