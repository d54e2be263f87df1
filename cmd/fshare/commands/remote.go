package commands

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/fshare/internal/cli/prompt"
	"github.com/marmos91/fshare/pkg/client"
	"github.com/marmos91/fshare/pkg/config"
)

// passwordEnv supplies the password to client commands without a prompt.
const passwordEnv = config.EnvPrefix + "_PASSWORD"

var (
	remoteServer   string
	remotePassword string
	remoteTimeout  time.Duration
)

func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&remoteServer, "server", "s", "",
		fmt.Sprintf("Server address host:port (default: localhost:%d)", config.DefaultPort))
	cmd.Flags().StringVarP(&remotePassword, "password", "p", "",
		fmt.Sprintf("Server password (default: $%s, else prompt)", passwordEnv))
	cmd.Flags().DurationVar(&remoteTimeout, "timeout", client.DefaultTimeout, "Timeout for each request")
}

func serverAddress() string {
	if remoteServer == "" {
		return net.JoinHostPort("localhost", strconv.Itoa(config.DefaultPort))
	}
	if _, _, err := net.SplitHostPort(remoteServer); err != nil {
		return net.JoinHostPort(remoteServer, strconv.Itoa(config.DefaultPort))
	}
	return remoteServer
}

func resolvePassword() (string, error) {
	if remotePassword != "" {
		return remotePassword, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	return prompt.Password("Password")
}

// connect dials the server and authenticates. The caller must Close the
// returned client.
func connect(cmd *cobra.Command) (*client.Client, error) {
	password, err := resolvePassword()
	if err != nil {
		return nil, err
	}

	c, err := client.Dial(cmd.Context(), serverAddress(), client.WithTimeout(remoteTimeout))
	if err != nil {
		return nil, err
	}
	if err := c.Connect(password); err != nil {
		_ = c.Close()
		var serr *client.ServerError
		if errors.As(err, &serr) && serr.IsAuthError() {
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
		return nil, err
	}
	return c, nil
}

// closeClient ends the session, reporting only the first error.
func closeClient(c *client.Client, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
