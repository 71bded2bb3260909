package adapter

import (
	"context"

	"github.com/modelibr/assetdav/pkg/vfs"
)

// Adapter represents a protocol-specific server adapter that can be managed
// by AssetServer.
//
// Each adapter exposes the same virtual asset tree over one file-access
// protocol. All adapters share one vfs.Resolver, so every protocol sees the
// same catalog, blobs and selection slot.
//
// Lifecycle:
//  1. Creation: Adapter is created with protocol-specific configuration
//  2. Resolver injection: SetResolver() provides the shared tree
//  3. Startup: Serve() starts the protocol server and blocks until shutdown
//  4. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. SetResolver() is called
// once before Serve(), but Stop() may be called concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is
	// cancelled or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	//   - Stop accepting new connections
	//   - Wait for active requests to complete (with timeout)
	//   - Return context.Canceled or nil
	//
	// If Serve returns before context cancellation, AssetServer treats it as
	// a fatal error and stops all other adapters.
	Serve(ctx context.Context) error

	// SetResolver injects the shared path resolver.
	//
	// Called exactly once by AssetServer before Serve().
	SetResolver(resolver *vfs.Resolver)

	// Stop initiates graceful shutdown of the protocol server.
	//
	// Implementations must be idempotent and safe to call concurrently with
	// Serve(). The context bounds how long in-flight requests may take.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and
	// metrics, e.g. "WebDAV".
	Protocol() string

	// Port returns the TCP port the adapter listens on, or 0 before Serve.
	Port() int
}
