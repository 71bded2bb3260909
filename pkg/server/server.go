package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/adapter"
	"github.com/modelibr/assetdav/pkg/vfs"
)

// DefaultStopTimeout bounds how long stopAllAdapters waits for all
// adapters together.
const DefaultStopTimeout = 30 * time.Second

// AssetServer manages the lifecycle of protocol adapters sharing one
// virtual asset tree.
//
// Every adapter receives the same *vfs.Resolver, so all protocols see the
// same catalog, blob store and selection slot. If one adapter fails the
// others are stopped.
//
// Usage:
//
//	srv := server.New(resolver)
//	srv.AddAdapter(webdav.New(cfg, davMetrics))
//	err := srv.Serve(ctx)
type AssetServer struct {
	resolver *vfs.Resolver
	adapters []adapter.Adapter

	// StopTimeout overrides DefaultStopTimeout when non-zero.
	StopTimeout time.Duration

	mu     sync.RWMutex
	served bool
}

// New creates an AssetServer over resolver.
//
// Panics if resolver is nil.
func New(resolver *vfs.Resolver) *AssetServer {
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	return &AssetServer{
		resolver: resolver,
		adapters: make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers a and injects the shared resolver.
//
// Returns an error when another adapter already serves the same protocol or
// port. Panics if called after Serve().
func (s *AssetServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	protocol := a.Protocol()
	port := a.Port()
	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		if existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}

	a.SetResolver(s.resolver)
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", protocol, port)
	return nil
}

// ErrAlreadyServed is returned by a second call to Serve.
var ErrAlreadyServed = errors.New("server: Serve already called")

// Serve starts all adapters and blocks until ctx is cancelled or one of them
// fails. It returns ctx.Err() after a requested shutdown, or the failing
// adapter's error.
func (s *AssetServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return ErrAlreadyServed
	}
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	logger.Info("Starting assetdav with %d adapter(s)", len(adapters))

	// Buffered so a failing adapter never blocks after shutdown started.
	errChan := make(chan adapterError, len(adapters))
	var wg sync.WaitGroup

	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			if err := a.Serve(ctx); err != nil {
				if !errors.Is(err, context.Canceled) && ctx.Err() == nil {
					logger.Error("%s adapter failed: %v", protocol, err)
					errChan <- adapterError{protocol: protocol, err: err}
				} else {
					logger.Debug("%s adapter stopped gracefully", protocol)
				}
				return
			}
			if ctx.Err() == nil {
				// Returning early without an error still ends service.
				errChan <- adapterError{protocol: protocol, err: errors.New("stopped unexpectedly")}
				return
			}
			logger.Info("%s adapter stopped", protocol)
		}(adp)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters",
			adapterErr.protocol, adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("assetdav stopped")
	return shutdownErr
}

type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters stops adapters in reverse registration order.
func (s *AssetServer) stopAllAdapters(adapters []adapter.Adapter) {
	timeout := s.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		protocol := adp.Protocol()

		logger.Debug("Stopping %s adapter (port %d)", protocol, adp.Port())
		if err := adp.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
		}
	}
}

// Adapters returns a copy of the registered adapters.
func (s *AssetServer) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}

// Resolver returns the shared resolver.
func (s *AssetServer) Resolver() *vfs.Resolver {
	return s.resolver
}
