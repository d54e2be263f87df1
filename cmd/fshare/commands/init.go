package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/cli/prompt"
	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/pkg/config"
)

var (
	initForce      bool
	initNoPassword bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample configuration file",
	Long: `Create a commented sample configuration file.

You are asked for the server password; only its bcrypt digest is written to
the file. Use --no-password to skip the prompt, in which case the server
falls back to the built-in default password until one is configured.

Examples:
  # Create config at the default location
  fshare init

  # Create config at a custom path, replacing any existing file
  fshare init --config /etc/fshare/config.yaml --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
	initCmd.Flags().BoolVar(&initNoPassword, "no-password", false, "Do not prompt for a server password")
}

func runInit(cmd *cobra.Command, args []string) error {
	var hash string
	if !initNoPassword {
		password, err := prompt.NewPassword()
		if err != nil {
			if prompt.IsAborted(err) {
				return fmt.Errorf("init cancelled")
			}
			return err
		}
		if hash, err = security.HashForStorage(password); err != nil {
			return err
		}
	}

	path := GetConfigFile()
	if path == "" {
		var err error
		if path, err = config.InitConfig(initForce, hash); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, initForce, hash); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration written to %s\n", path)
	if hash == "" {
		_, _ = fmt.Fprintln(out, "No password set: the built-in default password is in effect.")
		_, _ = fmt.Fprintln(out, "Run 'fshare hash-password' and set auth.password_hash before exposing the server.")
	}
	_, _ = fmt.Fprintln(out, "\nStart the server with: fshare start")
	return nil
}
