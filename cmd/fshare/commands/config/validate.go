package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the fshare configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  fshare config validate

  # Validate specific config file
  fshare config validate --config /etc/fshare/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	var warnings []string
	switch {
	case cfg.Auth.PasswordHash == "" && cfg.Auth.Password == "":
		warnings = append(warnings, "No password configured - the built-in default password is in effect")
	case cfg.Auth.PasswordHash == "":
		warnings = append(warnings, "Plaintext password configured - prefer auth.password_hash (see 'fshare hash-password')")
	}
	if cfg.Server.BindAddress == "" || cfg.Server.BindAddress == "0.0.0.0" {
		warnings = append(warnings, "Server listens on all interfaces")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Listen:          %s:%d\n", cfg.Server.BindAddress, cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Storage root:    %s\n", cfg.Server.StorageRoot)
	_, _ = fmt.Fprintf(out, "  Max sessions:    %d\n", cfg.Server.MaxSessions)
	_, _ = fmt.Fprintf(out, "  Max frame size:  %s\n", cfg.Server.MaxFrameSize)
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.API.Port)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}
