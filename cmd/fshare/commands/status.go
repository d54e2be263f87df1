package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/cli/output"
	"github.com/marmos91/fshare/pkg/api"
	"github.com/marmos91/fshare/pkg/apiclient"
	"github.com/marmos91/fshare/pkg/config"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the fshare server.

The PID file is checked first, then the health endpoint of the HTTP API is
queried for session counts and uptime. The API port is taken from the
configuration unless --api-port is given.

Examples:
  # Check status (uses default settings)
  fshare status

  # Check status with custom API port
  fshare status --api-port 9191

  # Output as JSON
  fshare status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/fshare/fshare.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 0, fmt.Sprintf("API server port (default: from config, else %d)", api.DefaultPort))
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus is what fshare status reports.
type ServerStatus struct {
	Running        bool   `json:"running" yaml:"running"`
	PID            int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Healthy        bool   `json:"healthy" yaml:"healthy"`
	Ready          bool   `json:"ready" yaml:"ready"`
	Message        string `json:"message" yaml:"message"`
	ActiveSessions int    `json:"active_sessions" yaml:"active_sessions"`
	MaxSessions    int    `json:"max_sessions" yaml:"max_sessions"`
	Uptime         string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
}

// Headers implements output.TableRenderer.
func (s ServerStatus) Headers() []string { return []string{"Field", "Value"} }

// Rows implements output.TableRenderer.
func (s ServerStatus) Rows() [][]string {
	state := "stopped"
	switch {
	case s.Running && s.Healthy && s.Ready:
		state = "running"
	case s.Running && s.Healthy:
		state = "running (not ready)"
	case s.Running:
		state = "running (unhealthy)"
	}

	rows := [][]string{{"Status", state}}
	if s.PID > 0 {
		rows = append(rows, []string{"PID", fmt.Sprint(s.PID)})
	}
	if s.Healthy {
		sessions := fmt.Sprint(s.ActiveSessions)
		if s.MaxSessions > 0 {
			sessions = fmt.Sprintf("%d/%d", s.ActiveSessions, s.MaxSessions)
		}
		rows = append(rows, []string{"Sessions", sessions}, []string{"Uptime", s.Uptime})
	}
	return rows
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	status := ServerStatus{Message: "Server is not running"}
	if pid, running := isProcessRunning(pidPath); running {
		status.Running = true
		status.PID = pid
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()
	probeHealth(ctx, apiclient.New(fmt.Sprintf("http://localhost:%d", resolveAPIPort())).WithTimeout(2*time.Second), &status)

	out := cmd.OutOrStdout()
	if format == output.FormatTable {
		return printStatusTable(out, status)
	}
	return output.NewPrinter(out, format, false).Print(status)
}

// resolveAPIPort picks the flag, then the configured port, then the default.
func resolveAPIPort() int {
	if statusAPIPort > 0 {
		return statusAPIPort
	}
	if cfg, err := config.Load(GetConfigFile()); err == nil && cfg.API.Port > 0 {
		return cfg.API.Port
	}
	return api.DefaultPort
}

func probeHealth(ctx context.Context, client *apiclient.Client, status *ServerStatus) {
	health, err := client.Health(ctx)
	if err != nil {
		if status.Running {
			status.Message = "Server process exists but health check failed"
		}
		return
	}

	status.Running = true
	status.Healthy = true
	status.ActiveSessions = health.ActiveSessions
	status.MaxSessions = health.MaxSessions
	status.Uptime = output.FormatUptime(time.Duration(health.UptimeSeconds) * time.Second)

	if err := client.Ready(ctx); err != nil {
		status.Message = fmt.Sprintf("Server is running but not accepting sessions: %v", err)
		return
	}
	status.Ready = true
	status.Message = "Server is running and healthy"
}

func printStatusTable(w io.Writer, status ServerStatus) error {
	_, _ = fmt.Fprintln(w, "fshare Server Status")
	_, _ = fmt.Fprintln(w)
	if err := output.SimpleTable(w, toPairs(status.Rows())); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, status.Message)
	return nil
}

func toPairs(rows [][]string) [][2]string {
	pairs := make([][2]string, 0, len(rows))
	for _, r := range rows {
		pairs = append(pairs, [2]string{r[0], r[1]})
	}
	return pairs
}
