package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/cli/prompt"
	"github.com/marmos91/fshare/internal/protocol/security"
)

var hashFromStdin bool

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print the bcrypt digest of a password",
	Long: `Print the bcrypt digest of a password for use as auth.password_hash.

Examples:
  # Prompt for the password
  fshare hash-password

  # Read the password from standard input
  echo -n 's3cret' | fshare hash-password --stdin`,
	RunE: runHashPassword,
}

func init() {
	hashPasswordCmd.Flags().BoolVar(&hashFromStdin, "stdin", false, "Read the password from standard input")
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var (
		password string
		err      error
	)
	if hashFromStdin {
		password, err = readPassword(cmd.InOrStdin())
	} else {
		password, err = prompt.NewPassword()
	}
	if err != nil {
		return err
	}

	hash, err := security.HashForStorage(password)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// readPassword returns the first line of r without its line terminator.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}
