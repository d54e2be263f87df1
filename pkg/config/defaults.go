package config

import (
	"strings"
	"time"

	"github.com/marmos91/fshare/internal/bytesize"
	"github.com/marmos91/fshare/internal/telemetry"
	"github.com/marmos91/fshare/pkg/adapter/fshare"
)

const (
	DefaultPort            = 8080
	DefaultStorageRoot     = "server_files"
	DefaultMaxSessions     = 10
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxFrameSize    = bytesize.MiB
)

// ApplyDefaults replaces zero values with defaults. Explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
	cfg.API.ApplyDefaults()
	if cfg.API.Enabled == nil {
		cfg.API.Enabled = boolPtr(true)
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	// 0 cannot be told apart from unset; disable tracing with enabled=false.
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = append([]string(nil), telemetry.DefaultProfileTypes...)
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.StorageRoot == "" {
		cfg.StorageRoot = DefaultStorageRoot
	}
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = fshare.DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}
	if cfg.AllowOverwrite == nil {
		cfg.AllowOverwrite = boolPtr(true)
	}
}

func boolPtr(b bool) *bool { return &b }

// GetDefaultConfig returns a Config with every default applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
