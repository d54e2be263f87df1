package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/bytesize"
	"github.com/marmos91/fshare/internal/protocol/security"
)

var putCmd = &cobra.Command{
	Use:   "put FILE [NAME]",
	Short: "Upload a file to a server",
	Long: `Upload FILE to the server, stored as NAME (default: the base name of FILE).

Examples:
  fshare put ./build/report.pdf
  fshare put ./notes.txt meeting-notes.txt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

func init() {
	addRemoteFlags(putCmd)
}

func runPut(cmd *cobra.Command, args []string) (err error) {
	path := args[0]
	name := filepath.Base(path)
	if len(args) == 2 {
		name = args[1]
	}
	if !security.IsSafeFilename(name) {
		return fmt.Errorf("invalid remote file name %q", name)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	size := uint64(info.Size())
	if !security.IsAcceptableSize(size) {
		return fmt.Errorf("%s is too large to upload (%s)", path, bytesize.ByteSize(size).HumanString())
	}

	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeClient(c, &err)

	if err := c.Upload(name, f, size); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", name, bytesize.ByteSize(size).HumanString())
	return nil
}
