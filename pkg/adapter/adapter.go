package adapter

import "context"

// Adapter is a network protocol server managed by the fshare process.
//
// Lifecycle:
//  1. Create the adapter with its configuration and collaborators.
//  2. Call Serve in a goroutine; it blocks until the context is cancelled or
//     Stop is called.
//  3. Call Stop to close the listener and wait for running sessions.
//
// Implementations must be safe for concurrent use: Stop may be called from a
// signal handler while Serve is running.
type Adapter interface {
	// Serve listens and dispatches connections until shutdown.
	// It returns nil on graceful shutdown.
	Serve(ctx context.Context) error

	// Stop initiates shutdown and waits for live sessions, bounded by ctx.
	Stop(ctx context.Context) error

	// Protocol returns a short name for logging ("fshare").
	Protocol() string

	// Port returns the configured TCP port.
	Port() int

	// ActiveSessions returns the number of sessions currently running.
	ActiveSessions() int

	// MapError translates a domain error into a protocol status.
	MapError(err error) ProtocolError
}
