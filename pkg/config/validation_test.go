package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fshare/internal/bytesize"
	"github.com/marmos91/fshare/internal/protocol/security"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
	assert.Equal(t, "http://localhost:4040", cfg.Telemetry.Profiling.Endpoint)
	assert.NotEmpty(t, cfg.Telemetry.Profiling.ProfileTypes)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	require.NotNil(t, cfg.Server.AllowOverwrite)
	require.NotNil(t, cfg.API.Enabled)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	no := false
	cfg := &Config{
		Logging: LoggingConfig{Level: "error", Format: "json", Output: "stderr"},
		Server: ServerConfig{
			Port:           1234,
			StorageRoot:    "/srv/files",
			MaxSessions:    2,
			MaxFrameSize:   64 * bytesize.KiB,
			AllowOverwrite: &no,
		},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, 1234, cfg.Server.Port)
	assert.Equal(t, "/srv/files", cfg.Server.StorageRoot)
	assert.Equal(t, 2, cfg.Server.MaxSessions)
	assert.Equal(t, 64*bytesize.KiB, cfg.Server.MaxFrameSize)
	assert.False(t, cfg.Server.OverwriteAllowed())
}

func TestValidateDefaultConfig(t *testing.T) {
	assert.NoError(t, Validate(GetDefaultConfig()))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Logging.Level = "LOUD" }, "logging.level: failed 'oneof"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"server port", func(c *Config) { c.Server.Port = 70000 }, "server.port: failed 'max=65535'"},
		{"api port", func(c *Config) { c.API.Port = -1 }, "api.port"},
		{"bind address", func(c *Config) { c.Server.BindAddress = "not-an-ip" }, "server.bind_address: failed 'ip'"},
		{"sessions", func(c *Config) { c.Server.MaxSessions = -1 }, "server.max_sessions"},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "telemetry.sample_rate"},
		{"idle timeout", func(c *Config) { c.Server.IdleTimeout = -1 }, "server.idle_timeout"},
		{"frame too small", func(c *Config) { c.Server.MaxFrameSize = 100 }, "server.max_frame_size: must be at least"},
		{"frame too large", func(c *Config) { c.Server.MaxFrameSize = bytesize.GiB }, "server.max_frame_size: must not exceed"},
		{"bad digest", func(c *Config) { c.Auth.PasswordHash = "plain" }, "auth.password_hash"},
		{"api clash", func(c *Config) { c.API.Port = c.Server.Port }, "api.port: 8080 is already used"},
		{"metrics clash", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = c.Server.Port
		}, "metrics.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAPIClashIgnoredWhenDisabled(t *testing.T) {
	cfg := GetDefaultConfig()
	off := false
	cfg.API.Enabled = &off
	cfg.API.Port = cfg.Server.Port
	assert.NoError(t, Validate(cfg))
}

func TestValidateAcceptsDigest(t *testing.T) {
	digest, err := security.HashForStorage("s3cret")
	require.NoError(t, err)

	cfg := GetDefaultConfig()
	cfg.Auth.PasswordHash = digest
	assert.NoError(t, Validate(cfg))
}

func TestConversions(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Server.MaxFrameSize = 128 * bytesize.KiB
	cfg.Telemetry.Enabled = true

	ac := cfg.AdapterConfig()
	assert.Equal(t, "127.0.0.1", ac.BindAddress)
	assert.Equal(t, DefaultPort, ac.Port)
	assert.Equal(t, DefaultMaxSessions, ac.MaxSessions)
	assert.Equal(t, uint32(128*1024), ac.MaxFrameSize)
	assert.Equal(t, cfg.Server.IdleTimeout, ac.IdleTimeout)

	assert.True(t, cfg.StorageOptions().AllowOverwrite)

	tc := cfg.TracingConfig("1.2.3")
	assert.True(t, tc.Enabled)
	assert.Equal(t, "fshare", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)

	pc := cfg.ProfilingConfig("1.2.3")
	assert.Equal(t, cfg.Telemetry.Profiling.ProfileTypes, pc.ProfileTypes)

	lc := cfg.LoggerConfig()
	assert.Equal(t, "INFO", lc.Level)
}

func TestMetricsOnAPI(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.False(t, cfg.MetricsOnAPI())

	cfg.Metrics.Enabled = true
	assert.True(t, cfg.MetricsOnAPI())

	cfg.Metrics.Port = cfg.API.Port
	assert.True(t, cfg.MetricsOnAPI())

	cfg.Metrics.Port = 9191
	assert.False(t, cfg.MetricsOnAPI())
}
