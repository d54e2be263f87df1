package fshare

import (
	"fmt"
	"time"

	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/pkg/adapter"
)

const (
	// DefaultIdleTimeout closes sessions that stay silent for five minutes.
	DefaultIdleTimeout = 300 * time.Second

	// DefaultDownloadChunkSize is the payload size of each DOWNLOAD_DATA frame.
	DefaultDownloadChunkSize = 4096

	// DefaultMaxAuthAttempts is the number of consecutive wrong passwords
	// after which a session is closed.
	DefaultMaxAuthAttempts = 3

	// DefaultReapInterval is how often finished sessions are pruned.
	DefaultReapInterval = 30 * time.Second
)

// Config holds the fshare server settings.
//
// Default values (applied by New if zero):
//   - MaxFrameSize: 1 MiB
//   - DownloadChunkSize: 4096
//   - MaxAuthAttempts: 3
//   - ReapInterval: 30s
//
// Port 0 picks a free port. IdleTimeout, ShutdownTimeout and MaxSessions are
// used as given: 0 disables the idle check, waits indefinitely on shutdown,
// and allows unlimited sessions respectively. pkg/config supplies the
// production defaults for those.
type Config struct {
	BindAddress string
	Port        int

	// MaxSessions bounds concurrently live sessions.
	MaxSessions int

	// IdleTimeout closes a session whose previous message is older than
	// this. It also bounds every blocking read.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds the wait for sessions during Stop before their
	// connections are force-closed.
	ShutdownTimeout time.Duration

	ReapInterval time.Duration

	// MaxFrameSize bounds the declared payload length of inbound frames.
	MaxFrameSize uint32

	DownloadChunkSize int
	MaxAuthAttempts   int
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = wire.DefaultMaxPayload
	}
	if c.DownloadChunkSize == 0 {
		c.DownloadChunkSize = DefaultDownloadChunkSize
	}
	if c.MaxAuthAttempts == 0 {
		c.MaxAuthAttempts = DefaultMaxAuthAttempts
	}
	if c.ReapInterval == 0 {
		c.ReapInterval = DefaultReapInterval
	}
}

// validate checks that the configuration can be served.
func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("invalid max sessions %d: must be >= 0", c.MaxSessions)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid idle timeout %v: must be >= 0", c.IdleTimeout)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout %v: must be >= 0", c.ShutdownTimeout)
	}
	if c.DownloadChunkSize < 1 || uint32(c.DownloadChunkSize) > c.MaxFrameSize {
		return fmt.Errorf("invalid download chunk size %d: must be 1-%d", c.DownloadChunkSize, c.MaxFrameSize)
	}
	if c.MaxAuthAttempts < 1 {
		return fmt.Errorf("invalid max auth attempts %d: must be >= 1", c.MaxAuthAttempts)
	}
	return nil
}

func (c *Config) baseConfig() adapter.BaseConfig {
	return adapter.BaseConfig{
		BindAddress:     c.BindAddress,
		Port:            c.Port,
		MaxSessions:     c.MaxSessions,
		ShutdownTimeout: c.ShutdownTimeout,
		ReapInterval:    c.ReapInterval,
	}
}
