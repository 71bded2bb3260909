package webdav

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/internal/ratelimiter"
	"github.com/modelibr/assetdav/pkg/metrics"
	"github.com/modelibr/assetdav/pkg/vfs"
)

// WebDAVAdapter implements the adapter.Adapter interface for WebDAV.
//
// The adapter is a thin protocol layer over vfs.Resolver: every request is
// resolved from scratch, PROPFIND goes through golang.org/x/net/webdav over
// a read-only FileSystem bridge, and the remaining methods are answered
// directly so their status codes stay exact.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. http.Server.Shutdown stops accepting and drains in-flight requests
//  3. After ShutdownTimeout remaining connections are closed
//
// Thread safety:
// All methods are safe for concurrent use. Shutdown runs exactly once.
type WebDAVAdapter struct {
	config WebDAVConfig

	resolver *vfs.Resolver
	fs       *davFS
	locks    vfs.DenyLockSystem
	ignore   *ignoreMatcher
	limiter  *ratelimiter.RateLimiter

	// metrics is never nil; New substitutes a no-op implementation.
	metrics metrics.WebDAVMetrics

	// mu guards server, which Stop may read while Serve is starting.
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	port     atomic.Int32

	shutdownOnce sync.Once
	shutdownErr  error

	// done is closed when shutdown has finished draining.
	done chan struct{}

	inFlight atomic.Int32
}

// New creates a new WebDAVAdapter with the specified configuration.
//
// The adapter is created in a stopped state. Call SetResolver() to inject the
// shared tree, then Serve() to start accepting requests.
//
// Parameters:
//   - config: Server configuration (port, timeouts, limits)
//   - davMetrics: Optional metrics collector (nil for no metrics)
//
// Panics if config validation fails.
func New(config WebDAVConfig, davMetrics metrics.WebDAVMetrics) *WebDAVAdapter {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid WebDAV config: %v", err))
	}

	if davMetrics == nil {
		davMetrics = metrics.NewNoopWebDAVMetrics()
	}

	var limiter *ratelimiter.RateLimiter
	if config.RateLimit.RequestsPerSecond > 0 {
		limiter = ratelimiter.New(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst)
		logger.Debug("WebDAV rate limit: %d req/s (burst %d)",
			config.RateLimit.RequestsPerSecond, config.RateLimit.Burst)
	}

	ignore := newIgnoreMatcher(config.IgnorePatterns)
	return &WebDAVAdapter{
		config:  config,
		ignore:  ignore,
		limiter: limiter,
		metrics: davMetrics,
		fs:      &davFS{ignore: ignore},
		done:    make(chan struct{}),
	}
}

// SetResolver injects the shared resolver.
//
// Called exactly once before Serve() or Handler().
func (s *WebDAVAdapter) SetResolver(resolver *vfs.Resolver) {
	s.resolver = resolver
	s.fs.resolver = resolver
	logger.Debug("WebDAV resolver configured")
}

// Serve starts the WebDAV server and blocks until the context is cancelled
// or the listener fails.
//
// Returns nil on graceful shutdown, or an error if the listener cannot be
// created or shutdown exceeded ShutdownTimeout.
func (s *WebDAVAdapter) Serve(ctx context.Context) error {
	if s.resolver == nil {
		return errors.New("WebDAV adapter has no resolver")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create WebDAV listener on port %d: %w", s.config.Port, err)
	}
	return s.serve(ctx, listener)
}

func (s *WebDAVAdapter) serve(ctx context.Context, listener net.Listener) error {
	s.listener = listener
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port.Store(int32(addr.Port))
	}

	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		_ = listener.Close()
		return nil
	default:
	}
	s.server = server
	s.mu.Unlock()

	logger.Info("WebDAV server listening on port %d", s.Port())
	if s.config.Prefix != "" {
		logger.Info("WebDAV mount point: http://<host>:%d/%s/", s.Port(), s.config.Prefix)
	}
	logger.Debug("WebDAV config: read_timeout=%v write_timeout=%v idle_timeout=%v max_body=%d",
		s.config.ReadTimeout, s.config.WriteTimeout, s.config.IdleTimeout, s.config.MaxRequestBodyBytes)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("WebDAV shutdown signal received: %v", ctx.Err())
			_ = s.Stop(context.Background())
		case <-s.done:
		}
	}()

	err := server.Serve(listener)
	if !errors.Is(err, http.ErrServerClosed) {
		// Release the ctx watcher and mark the adapter stopped.
		_ = s.Stop(context.Background())
		return fmt.Errorf("WebDAV server failed: %w", err)
	}

	<-s.done
	return s.shutdownErr
}

// Stop initiates graceful shutdown. It is idempotent; every call returns the
// outcome of the first shutdown.
func (s *WebDAVAdapter) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		server := s.server
		if server == nil {
			close(s.done)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		defer close(s.done)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		logger.Info("WebDAV graceful shutdown: waiting for %d in-flight request(s) (timeout: %v)",
			s.inFlight.Load(), s.config.ShutdownTimeout)

		if err := server.Shutdown(shutdownCtx); err != nil {
			remaining := s.inFlight.Load()
			logger.Warn("WebDAV shutdown timeout exceeded: %d request(s) still active - forcing closure", remaining)
			_ = server.Close()
			s.shutdownErr = fmt.Errorf("WebDAV shutdown timeout: %d requests aborted: %w", remaining, err)
			return
		}
		logger.Info("WebDAV graceful shutdown complete")
	})

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.shutdownErr
}

func (s *WebDAVAdapter) Protocol() string { return "WebDAV" }

func (s *WebDAVAdapter) Port() int {
	if p := s.port.Load(); p != 0 {
		return int(p)
	}
	return s.config.Port
}

// InFlight returns the number of requests currently being served.
func (s *WebDAVAdapter) InFlight() int32 {
	return s.inFlight.Load()
}
