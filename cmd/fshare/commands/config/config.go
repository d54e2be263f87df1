// Package config implements the fshare config subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for configuration management.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the server configuration",
	Long: `Create, inspect and validate the fshare configuration file.

The file is looked up at $XDG_CONFIG_HOME/fshare/config.yaml unless --config
is given. Every key can be overridden by an FSHARE_ environment variable,
e.g. FSHARE_SERVER_PORT=9000.`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(editCmd)
}

// configPath returns the --config value inherited from the root command.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
