package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// ErrConfigExists is returned by InitConfig when a file is already present
// and force is not set.
var ErrConfigExists = errors.New("configuration file already exists")

var sampleTemplate = template.Must(template.New("config").Parse(`# fshare Configuration File
#
# Every key can be overridden by an environment variable named after its
# path, e.g. FSHARE_SERVER_PORT=9000 or FSHARE_LOGGING_LEVEL=debug.

logging:
  # DEBUG, INFO, WARN or ERROR
  level: "{{ .Logging.Level }}"
  # text or json
  format: "{{ .Logging.Format }}"
  # stdout, stderr or a file path
  output: "{{ .Logging.Output }}"

telemetry:
  enabled: false
  endpoint: "{{ .Telemetry.Endpoint }}"
  insecure: {{ .Telemetry.Insecure }}
  sample_rate: {{ .Telemetry.SampleRate }}
  profiling:
    enabled: false
    endpoint: "{{ .Telemetry.Profiling.Endpoint }}"

server:
  bind_address: ""
  port: {{ .Server.Port }}
  # Directory holding shared files. Created on start.
  storage_root: "{{ .Server.StorageRoot }}"
  max_sessions: {{ .Server.MaxSessions }}
  idle_timeout: {{ .Server.IdleTimeout }}
  shutdown_timeout: {{ .Server.ShutdownTimeout }}
  max_frame_size: {{ .Server.MaxFrameSize }}
  # Let an upload replace an existing file of the same name.
  allow_overwrite: true

auth:
{{- if .Auth.PasswordHash }}
  password_hash: "{{ .Auth.PasswordHash }}"
{{- else }}
  # Generate with: fshare hash-password
  # password_hash: ""
  # password: ""
{{- end }}

metrics:
  enabled: false
  # 0 serves /metrics on the API port.
  port: 0

api:
  enabled: true
  port: {{ .API.Port }}
`))

// RenderSample returns the annotated sample configuration. passwordHash may
// be empty.
func RenderSample(passwordHash string) ([]byte, error) {
	cfg := GetDefaultConfig()
	cfg.Auth.PasswordHash = passwordHash

	var buf bytes.Buffer
	if err := sampleTemplate.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to render sample config: %w", err)
	}
	return buf.Bytes(), nil
}

// InitConfig writes a sample configuration to the default location and
// returns its path.
func InitConfig(force bool, passwordHash string) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force, passwordHash)
}

// InitConfigToPath writes a sample configuration to path.
func InitConfigToPath(path string, force bool, passwordHash string) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w at %s (use --force to overwrite)", ErrConfigExists, path)
	}

	data, err := RenderSample(passwordHash)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
