package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/telemetry"
	"github.com/marmos91/fshare/pkg/config"
	"github.com/marmos91/fshare/pkg/server"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fshare server",
	Long: `Start the fshare server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Examples:
  # Start in background (default)
  fshare start

  # Start in foreground
  fshare start --foreground

  # Start with custom config file
  fshare start --config /etc/fshare/config.yaml

  # Start with environment variable overrides
  FSHARE_LOGGING_LEVEL=DEBUG fshare start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/fshare/fshare.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/fshare/fshare.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Init(ctx, cfg.TracingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		// ctx is cancelled by now; flushing needs a fresh one.
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(cfg.ProfilingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Starting fshare", "version", Version, "commit", Commit)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	logger.Info("Storage ready", "root", cfg.Server.StorageRoot, "allow_overwrite", cfg.Server.OverwriteAllowed())
	logger.Info("Authentication configured", "source", string(srv.CredentialSource()))
	switch {
	case !cfg.Metrics.Enabled:
		logger.Info("Metrics collection disabled")
	case cfg.MetricsOnAPI():
		logger.Info("Metrics enabled", "port", cfg.API.Port, "path", "/metrics")
	default:
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port, "path", "/metrics")
	}

	if _, err := config.Watch(GetConfigFile(), config.ApplyLogLevel); err != nil {
		logger.Warn("Configuration reload disabled", "error", err)
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", "error", err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
