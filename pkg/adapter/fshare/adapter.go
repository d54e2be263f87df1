package fshare

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/pkg/adapter"
	"github.com/marmos91/fshare/pkg/metrics"
	"github.com/marmos91/fshare/pkg/storage"
)

// ProtocolName identifies the adapter in logs and metrics.
const ProtocolName = "fshare"

// Store is the storage surface used by sessions. *storage.Manager
// implements it.
type Store interface {
	List() ([]wire.FileRecord, error)
	Delete(name string) error
	OpenForReading(name string) (*storage.Download, error)
	OpenForWriting(name string) (*storage.Upload, error)
}

// Adapter serves the fshare protocol.
//
// The accept loop, session registry and shutdown sequencing come from
// adapter.BaseAdapter. Each admitted connection is served by a Connection
// which owns its session state exclusively. The store and credential are
// fixed at construction and shared read-only by every session.
type Adapter struct {
	*adapter.BaseAdapter

	config  Config
	store   Store
	cred    security.Credential
	metrics metrics.FShareMetrics
	started time.Time
}

var (
	_ adapter.Adapter           = (*Adapter)(nil)
	_ adapter.ConnectionFactory = (*Adapter)(nil)
)

// New creates a stopped Adapter. Call Serve to start accepting connections.
// m may be nil to disable metrics.
func New(config Config, store Store, cred security.Credential, m metrics.FShareMetrics) (*Adapter, error) {
	if store == nil {
		return nil, errors.New("fshare: store is required")
	}
	if cred == nil {
		return nil, errors.New("fshare: credential is required")
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid fshare config: %w", err)
	}

	base := adapter.NewBaseAdapter(config.baseConfig(), ProtocolName)
	if m != nil {
		base.Metrics = m
	}

	logger.Debug("fshare adapter configured",
		logger.MaxSessions(config.MaxSessions),
		"idle_timeout", config.IdleTimeout,
		"max_frame_size", config.MaxFrameSize)

	return &Adapter{
		BaseAdapter: base,
		config:      config,
		store:       store,
		cred:        cred,
		metrics:     m,
		started:     time.Now(),
	}, nil
}

// Serve accepts connections until ctx is cancelled or Stop is called.
func (a *Adapter) Serve(ctx context.Context) error {
	return a.ServeWithFactory(ctx, a)
}

// NewConnection implements adapter.ConnectionFactory.
func (a *Adapter) NewConnection(conn net.Conn, sessionID uint64) adapter.ConnectionHandler {
	return newConnection(a, conn, sessionID)
}

// MapError implements adapter.Adapter.
func (a *Adapter) MapError(err error) adapter.ProtocolError {
	if err == nil {
		return nil
	}
	return mapStorageError(err, "Internal server error")
}

// MaxSessions returns the configured session bound (0 is unlimited).
func (a *Adapter) MaxSessions() int {
	return a.config.MaxSessions
}

// Uptime returns the time since the adapter was created.
func (a *Adapter) Uptime() time.Duration {
	return time.Since(a.started)
}
