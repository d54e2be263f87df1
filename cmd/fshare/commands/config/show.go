package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/cli/output"
	"github.com/marmos91/fshare/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and environment overrides are
applied. The plaintext password, if any, is masked.

Examples:
  fshare config show
  FSHARE_SERVER_PORT=9000 fshare config show -o json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (json|yaml)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return err
	}
	if cfg.Auth.Password != "" {
		cfg.Auth.Password = "********"
	}

	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
