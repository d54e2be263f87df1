package config

import (
	"fmt"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/protocol/security"
)

// CredentialSource names where the server secret came from.
type CredentialSource string

const (
	SourcePasswordHash CredentialSource = "password_hash"
	SourcePassword     CredentialSource = "password"
	SourceDefault      CredentialSource = "default"
)

// BuildCredential turns the auth section into the credential peers are
// checked against. A bcrypt digest wins over a plaintext password; with
// neither set the built-in default password is used and a warning logged.
func BuildCredential(cfg AuthConfig) (security.Credential, CredentialSource, error) {
	switch {
	case cfg.PasswordHash != "":
		cred, err := security.NewBcryptCredential(cfg.PasswordHash)
		if err != nil {
			return nil, "", fmt.Errorf("auth.password_hash: %w", err)
		}
		return cred, SourcePasswordHash, nil
	case cfg.Password != "":
		return security.NewHashedCredential(cfg.Password), SourcePassword, nil
	default:
		logger.Warn("No password configured, using the built-in default; set auth.password_hash for production")
		return security.NewHashedCredential(security.DefaultPassword), SourceDefault, nil
	}
}
