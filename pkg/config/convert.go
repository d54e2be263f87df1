package config

import (
	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/telemetry"
	"github.com/marmos91/fshare/pkg/adapter/fshare"
	"github.com/marmos91/fshare/pkg/storage"
)

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// TracingConfig returns the OpenTelemetry settings for the given build.
func (c *Config) TracingConfig(version string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = c.Telemetry.Enabled
	tc.ServiceVersion = version
	tc.Endpoint = c.Telemetry.Endpoint
	tc.Insecure = c.Telemetry.Insecure
	tc.SampleRate = c.Telemetry.SampleRate
	return tc
}

// ProfilingConfig returns the Pyroscope settings for the given build.
func (c *Config) ProfilingConfig(version string) telemetry.ProfilingConfig {
	return telemetry.ProfilingConfig{
		Enabled:        c.Telemetry.Profiling.Enabled,
		ServiceName:    telemetry.DefaultConfig().ServiceName,
		ServiceVersion: version,
		Endpoint:       c.Telemetry.Profiling.Endpoint,
		ProfileTypes:   c.Telemetry.Profiling.ProfileTypes,
	}
}

// AdapterConfig returns the listener settings for the fshare adapter.
func (c *Config) AdapterConfig() fshare.Config {
	return fshare.Config{
		BindAddress:     c.Server.BindAddress,
		Port:            c.Server.Port,
		MaxSessions:     c.Server.MaxSessions,
		IdleTimeout:     c.Server.IdleTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		MaxFrameSize:    c.Server.MaxFrameSize.Uint32(),
	}
}

// StorageOptions returns the storage manager settings.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{AllowOverwrite: c.Server.OverwriteAllowed()}
}

// MetricsOnAPI reports whether /metrics is mounted on the API server rather
// than on a dedicated listener.
func (c *Config) MetricsOnAPI() bool {
	return c.Metrics.Enabled && (c.Metrics.Port == 0 || c.Metrics.Port == c.API.Port)
}
