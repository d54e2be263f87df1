package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/cli/prompt"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:     "rm NAME...",
	Aliases: []string{"delete"},
	Short:   "Delete files on a server",
	Long: `Delete one or more files from the server. You are asked to confirm each
deletion unless --force is given.

Examples:
  fshare rm old-report.pdf
  fshare rm -f a.txt b.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	addRemoteFlags(rmCmd)
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Do not ask for confirmation")
}

func runRm(cmd *cobra.Command, args []string) (err error) {
	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeClient(c, &err)

	out := cmd.OutOrStdout()
	for _, name := range args {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete %s", name), rmForce)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintf(out, "Skipped %s\n", name)
			continue
		}
		if err := c.Delete(name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		_, _ = fmt.Fprintf(out, "Deleted %s\n", name)
	}
	return nil
}
