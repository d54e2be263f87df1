package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/bytesize"
)

var getForce bool

var getCmd = &cobra.Command{
	Use:   "get NAME [DEST]",
	Short: "Download a file from a server",
	Long: `Download NAME into DEST. DEST defaults to NAME in the current directory;
use "-" to write to standard output. A partial file is removed if the
transfer fails.

Examples:
  fshare get report.pdf
  fshare get report.pdf /tmp/report.pdf
  fshare get notes.txt - | less`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func init() {
	addRemoteFlags(getCmd)
	getCmd.Flags().BoolVarP(&getForce, "force", "f", false, "Overwrite an existing local file")
}

func runGet(cmd *cobra.Command, args []string) (err error) {
	name := args[0]
	dest := name
	if len(args) == 2 {
		dest = args[1]
	}

	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeClient(c, &err)

	if dest == "-" {
		_, err = c.Download(name, cmd.OutOrStdout())
		return err
	}

	if info, statErr := os.Stat(dest); statErr == nil && info.IsDir() {
		dest = filepath.Join(dest, name)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !getForce {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(dest, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
		}
		return err
	}

	n, err := c.Download(name, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return err
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Downloaded %s (%s) to %s\n", name, bytesize.ByteSize(n).HumanString(), dest)
	return nil
}
