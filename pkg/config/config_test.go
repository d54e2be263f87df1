package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fshare/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
server:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultStorageRoot, cfg.Server.StorageRoot)
	assert.Equal(t, DefaultMaxSessions, cfg.Server.MaxSessions)
	assert.Equal(t, 300*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, bytesize.MiB, cfg.Server.MaxFrameSize)
	assert.True(t, cfg.Server.OverwriteAllowed())
	assert.True(t, cfg.API.IsEnabled())
}

func TestLoadParsesCustomTypes(t *testing.T) {
	path := writeConfig(t, `
server:
  idle_timeout: 2m
  shutdown_timeout: 45
  max_frame_size: 256KiB
  allow_overwrite: false
telemetry:
  sample_rate: 0.25
  profiling:
    profile_types: [cpu, goroutines]
api:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
	assert.Equal(t, 45*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 256*bytesize.KiB, cfg.Server.MaxFrameSize)
	assert.False(t, cfg.Server.OverwriteAllowed())
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
	assert.Equal(t, []string{"cpu", "goroutines"}, cfg.Telemetry.Profiling.ProfileTypes)
	assert.False(t, cfg.API.IsEnabled())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)
	t.Setenv("FSHARE_SERVER_PORT", "9100")
	t.Setenv("FSHARE_SERVER_MAX_SESSIONS", "3")
	t.Setenv("FSHARE_AUTH_PASSWORD", "from-env")
	t.Setenv("FSHARE_SERVER_MAX_FRAME_SIZE", "2MiB")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Server.MaxSessions)
	assert.Equal(t, "from-env", cfg.Auth.Password)
	assert.Equal(t, 2*bytesize.MiB, cfg.Server.MaxFrameSize)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("FSHARE_LOGGING_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad level":    "logging:\n  level: loud\n",
		"bad duration": "server:\n  idle_timeout: soon\n",
		"bad size":     "server:\n  max_frame_size: big\n",
		"bad yaml":     "server: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestMustLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := MustLoad("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fshare init")

	_, err = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fshare init --config")

	_, err = InitConfig(false, "")
	require.NoError(t, err)
	cfg, err := MustLoad("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 7000
	cfg.Server.MaxFrameSize = 512 * bytesize.KiB
	cfg.Server.IdleTimeout = 90 * time.Second
	cfg.Auth.Password = "hunter2"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "fshare"), GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "fshare", "config.yaml"), GetDefaultConfigPath())
	assert.False(t, DefaultConfigExists())
}

func TestDecodeHooks(t *testing.T) {
	type hookFunc = func(reflect.Type, reflect.Type, any) (any, error)
	durType := reflect.TypeOf(time.Duration(0))
	sizeType := reflect.TypeOf(bytesize.ByteSize(0))
	strType := reflect.TypeOf("")

	dur := durationDecodeHook().(hookFunc)
	got, err := dur(strType, durType, "1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got)
	got, err = dur(reflect.TypeOf(0), durType, 10)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, got)
	got, err = dur(strType, strType, "untouched")
	require.NoError(t, err)
	assert.Equal(t, "untouched", got)

	size := byteSizeDecodeHook().(hookFunc)
	got, err = size(strType, sizeType, "4KiB")
	require.NoError(t, err)
	assert.Equal(t, 4*bytesize.KiB, got)
	got, err = size(reflect.TypeOf(0.0), sizeType, float64(2048))
	require.NoError(t, err)
	assert.Equal(t, bytesize.ByteSize(2048), got)
	_, err = size(reflect.TypeOf(0), sizeType, -1)
	assert.Error(t, err)
}
