package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/marmos91/fshare/internal/logger"
)

// ConnectionHandler serves one accepted connection. Serve blocks until the
// session ends; it owns the connection and must close it before returning.
type ConnectionHandler interface {
	Serve(ctx context.Context)
}

// ConnectionFactory creates a handler for each accepted connection.
// sessionID is unique for the lifetime of the process and never reused.
type ConnectionFactory interface {
	NewConnection(conn net.Conn, sessionID uint64) ConnectionHandler
}

// BaseConfig holds the settings shared by protocol adapters.
type BaseConfig struct {
	// BindAddress is the IP address to bind to. Empty binds all interfaces.
	BindAddress string

	// Port is the TCP port to listen on. 0 picks a free port.
	Port int

	// MaxSessions bounds concurrently live sessions. Connections beyond the
	// bound are closed without any protocol exchange. 0 means unlimited.
	MaxSessions int

	// ShutdownTimeout bounds how long Stop waits for sessions before
	// force-closing their connections. 0 waits indefinitely.
	ShutdownTimeout time.Duration

	// ReapInterval is how often finished sessions are pruned from the
	// registry between accepts. 0 disables the periodic reaper.
	ReapInterval time.Duration
}

// MetricsRecorder receives session lifecycle events. May be nil.
type MetricsRecorder interface {
	RecordSessionAccepted()
	RecordSessionRejected()
	RecordSessionClosed(duration time.Duration)
	RecordSessionForceClosed()
	SetActiveSessions(count int)
}

// BaseAdapter provides the TCP accept loop, session registry and shutdown
// sequencing shared by protocol adapters. Protocol behavior is injected
// through a ConnectionFactory.
//
// All exported methods are safe for concurrent use. Shutdown is idempotent.
type BaseAdapter struct {
	Config BaseConfig

	// Metrics is optional.
	Metrics MetricsRecorder

	protocolName string
	sessions     *registry

	listener   net.Listener
	listenerMu sync.RWMutex

	shutdownOnce sync.Once

	// Shutdown is closed when shutdown begins.
	Shutdown chan struct{}

	// ShutdownCtx is passed to every session. It is cancelled only when
	// sessions are force-closed; a graceful shutdown lets them run on until
	// their clients disconnect.
	ShutdownCtx    context.Context
	CancelSessions context.CancelFunc

	// ListenerReady is closed once the listener is bound (or failed to bind).
	ListenerReady chan struct{}
	readyOnce     sync.Once
}

// NewBaseAdapter creates a stopped adapter. Call ServeWithFactory to start.
func NewBaseAdapter(config BaseConfig, protocol string) *BaseAdapter {
	ctx, cancel := context.WithCancel(context.Background())

	return &BaseAdapter{
		Config:         config,
		protocolName:   protocol,
		sessions:       newRegistry(config.MaxSessions),
		Shutdown:       make(chan struct{}),
		ShutdownCtx:    ctx,
		CancelSessions: cancel,
		ListenerReady:  make(chan struct{}),
	}
}

// ServeWithFactory listens on the configured address and runs the accept
// loop until ctx is cancelled or Stop is called.
//
// For each accepted connection the registry is reaped and checked for
// capacity under one lock. A full registry closes the connection
// immediately; otherwise the session is registered and a goroutine runs its
// handler. On shutdown the listener is closed and ServeWithFactory returns
// once every session goroutine has finished.
func (b *BaseAdapter) ServeWithFactory(ctx context.Context, factory ConnectionFactory) error {
	listenAddr := net.JoinHostPort(b.Config.BindAddress, fmt.Sprint(b.Config.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		b.readyOnce.Do(func() { close(b.ListenerReady) })
		return fmt.Errorf("failed to create %s listener on %s: %w", b.protocolName, listenAddr, err)
	}

	b.listenerMu.Lock()
	b.listener = listener
	select {
	case <-b.Shutdown:
		// Stop ran before the listener existed.
		_ = listener.Close()
	default:
	}
	b.listenerMu.Unlock()
	b.readyOnce.Do(func() { close(b.ListenerReady) })

	logger.Info(b.protocolName+" server listening",
		logger.Address(listener.Addr().String()),
		logger.MaxSessions(b.Config.MaxSessions))

	go func() {
		select {
		case <-ctx.Done():
			logger.Info(b.protocolName+" shutdown signal received", logger.Err(ctx.Err()))
			b.initiateShutdown()
		case <-b.Shutdown:
		}
	}()

	if b.Config.ReapInterval > 0 {
		go b.reapLoop()
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-b.Shutdown:
				return b.gracefulShutdown()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return b.gracefulShutdown()
			}
			logger.Debug("Error accepting "+b.protocolName+" connection", logger.Err(err))
			continue
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", logger.Err(err))
			}
		}

		entry, ok := b.sessions.reserve(conn)
		if !ok {
			logger.Warn(b.protocolName+" session limit reached, rejecting connection",
				logger.Client(conn.RemoteAddr().String()),
				logger.MaxSessions(b.Config.MaxSessions))
			_ = conn.Close()
			if b.Metrics != nil {
				b.Metrics.RecordSessionRejected()
			}
			continue
		}

		active := b.sessions.live()
		if b.Metrics != nil {
			b.Metrics.RecordSessionAccepted()
			b.Metrics.SetActiveSessions(active)
		}
		logger.Debug(b.protocolName+" session accepted",
			logger.SessionID(entry.id), logger.Client(entry.remote), logger.ActiveSessions(active))

		handler := factory.NewConnection(conn, entry.id)
		go b.run(entry, handler)
	}
}

func (b *BaseAdapter) run(e *sessionEntry, h ConnectionHandler) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(b.protocolName+" session panicked",
				logger.SessionID(e.id), logger.Client(e.remote), "panic", r)
			_ = e.conn.Close()
		}
		if b.Metrics != nil {
			b.Metrics.RecordSessionClosed(time.Since(e.started))
		}
		b.sessions.finish(e)

		active := b.sessions.live()
		if b.Metrics != nil {
			b.Metrics.SetActiveSessions(active)
		}
		logger.Debug(b.protocolName+" session finished",
			logger.SessionID(e.id), logger.Client(e.remote), logger.ActiveSessions(active))
	}()

	h.Serve(b.ShutdownCtx)
}

func (b *BaseAdapter) reapLoop() {
	ticker := time.NewTicker(b.Config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.Shutdown:
			return
		case <-ticker.C:
			if n := b.sessions.reap(); n > 0 {
				logger.Debug(b.protocolName+" reaped finished sessions",
					logger.Count(n), logger.ActiveSessions(b.sessions.live()))
			}
		}
	}
}

// initiateShutdown closes the listener and stops admitting sessions. Live
// sessions are left running. Safe to call more than once.
func (b *BaseAdapter) initiateShutdown() {
	b.shutdownOnce.Do(func() {
		logger.Debug(b.protocolName + " shutdown initiated")
		close(b.Shutdown)
		b.sessions.close()

		b.listenerMu.Lock()
		if b.listener != nil {
			if err := b.listener.Close(); err != nil {
				logger.Debug("Error closing "+b.protocolName+" listener", logger.Err(err))
			}
		}
		b.listenerMu.Unlock()
	})
}

// waitSessions returns a channel closed once every registered session has
// finished.
func (b *BaseAdapter) waitSessions() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		b.sessions.joinAll()
		close(done)
	}()
	return done
}

// gracefulShutdown waits for sessions to finish. After ShutdownTimeout their
// connections are force-closed and the wait continues until every worker
// has returned.
func (b *BaseAdapter) gracefulShutdown() error {
	active := b.sessions.live()
	logger.Info(b.protocolName+" graceful shutdown: waiting for active sessions",
		logger.ActiveSessions(active), "timeout", b.Config.ShutdownTimeout)

	done := b.waitSessions()

	if b.Config.ShutdownTimeout <= 0 {
		<-done
		logger.Info(b.protocolName + " graceful shutdown complete")
		return nil
	}

	timer := time.NewTimer(b.Config.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		logger.Info(b.protocolName + " graceful shutdown complete")
		return nil
	case <-timer.C:
		remaining := b.forceCloseSessions()
		<-done
		return fmt.Errorf("%s shutdown timeout: %d sessions force-closed", b.protocolName, remaining)
	}
}

// forceCloseSessions cancels ShutdownCtx and closes the connection of every
// live session, which unblocks their reads.
func (b *BaseAdapter) forceCloseSessions() int {
	b.CancelSessions()

	closed := 0
	for _, e := range b.sessions.snapshot() {
		if !e.live() {
			continue
		}
		if err := e.conn.Close(); err != nil {
			logger.Debug("Error force-closing session", logger.SessionID(e.id), logger.Err(err))
			continue
		}
		closed++
		if b.Metrics != nil {
			b.Metrics.RecordSessionForceClosed()
		}
	}
	if closed > 0 {
		logger.Warn(b.protocolName+" force-closed sessions", logger.Count(closed))
	}
	return closed
}

// Stop initiates shutdown and waits for live sessions. If ctx ends first the
// remaining sessions are force-closed and ctx.Err() is returned.
func (b *BaseAdapter) Stop(ctx context.Context) error {
	b.initiateShutdown()

	done := b.waitSessions()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		b.forceCloseSessions()
		<-done
		return ctx.Err()
	}
}

// ActiveSessions returns the number of running sessions.
func (b *BaseAdapter) ActiveSessions() int {
	return b.sessions.live()
}

// GetListenerAddr blocks until the listener is bound and returns its address,
// or "" if binding failed.
func (b *BaseAdapter) GetListenerAddr() string {
	<-b.ListenerReady

	b.listenerMu.RLock()
	defer b.listenerMu.RUnlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Port returns the configured TCP port.
func (b *BaseAdapter) Port() int {
	return b.Config.Port
}

// Protocol returns the protocol name used in logs.
func (b *BaseAdapter) Protocol() string {
	return b.protocolName
}
