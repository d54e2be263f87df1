package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/bytesize"
	"github.com/marmos91/fshare/internal/cli/output"
)

var lsOutput string

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List files on a server",
	Long: `List the files shared by an fshare server.

Examples:
  fshare ls --server files.example.com:8080
  FSHARE_PASSWORD=s3cret fshare ls -o json`,
	Args: cobra.NoArgs,
	RunE: runLs,
}

func init() {
	addRemoteFlags(lsCmd)
	lsCmd.Flags().StringVarP(&lsOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runLs(cmd *cobra.Command, args []string) (err error) {
	format, err := output.ParseFormat(lsOutput)
	if err != nil {
		return err
	}

	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeClient(c, &err)

	records, err := c.List()
	if err != nil {
		return err
	}

	list := output.NewFileList(records)
	out := cmd.OutOrStdout()
	if format == output.FormatTable && len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No files.")
		return nil
	}
	if err := output.NewPrinter(out, format, false).Print(list); err != nil {
		return err
	}
	if format == output.FormatTable {
		_, _ = fmt.Fprintf(out, "\n%d file(s), %s\n", len(list), bytesize.ByteSize(list.TotalSize()).HumanString())
	}
	return nil
}
