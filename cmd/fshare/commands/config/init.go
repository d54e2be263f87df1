package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write the commented sample configuration without prompting for a
password. Use 'fshare init' for the interactive variant.

Examples:
  fshare config init
  fshare config init --config ./fshare.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		var err error
		if path, err = config.InitConfig(initForce, ""); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, initForce, ""); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}
