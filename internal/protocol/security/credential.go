package security

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is used when no credential is configured.
const DefaultPassword = "admin123"

// ErrInvalidDigest is returned when a stored bcrypt digest cannot be parsed.
var ErrInvalidDigest = errors.New("security: invalid password digest")

// LegacyHash derives the wire form of a password: a djb2 rolling hash over
// the password bytes, each byte sign-extended as in the deployed clients,
// rendered as 16 lowercase hex digits.
//
// It is not a password hash in any cryptographic sense. Peers send this
// value in Connect-Request, so it is kept bit-for-bit for interoperability.
func LegacyHash(password string) string {
	var h uint64 = 5381
	for i := 0; i < len(password); i++ {
		h = h*33 + uint64(int64(int8(password[i])))
	}
	return fmt.Sprintf("%016x", h)
}

// Credential verifies the password hash presented by a peer.
type Credential interface {
	// Matches reports whether candidate is the expected wire hash.
	Matches(candidate string) bool
}

// HashedCredential holds the expected wire hash in memory.
// The plaintext password it was derived from is not retained.
type HashedCredential struct {
	hash []byte
}

// NewHashedCredential derives the wire hash of password.
func NewHashedCredential(password string) *HashedCredential {
	return &HashedCredential{hash: []byte(LegacyHash(password))}
}

// Matches compares candidate against the expected hash in constant time.
func (c *HashedCredential) Matches(candidate string) bool {
	return CredentialMatches(candidate, string(c.hash))
}

// BcryptCredential verifies peers against a bcrypt digest of the wire hash,
// so the configuration file never holds a value a peer could replay.
type BcryptCredential struct {
	digest []byte
}

// NewBcryptCredential wraps a digest produced by HashForStorage.
func NewBcryptCredential(digest string) (*BcryptCredential, error) {
	if _, err := bcrypt.Cost([]byte(digest)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	return &BcryptCredential{digest: []byte(digest)}, nil
}

// Matches reports whether candidate hashes to the stored digest.
func (c *BcryptCredential) Matches(candidate string) bool {
	return bcrypt.CompareHashAndPassword(c.digest, []byte(candidate)) == nil
}

// HashForStorage returns a bcrypt digest of the wire hash of password,
// suitable for the auth.password_hash configuration key.
func HashForStorage(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(LegacyHash(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// CredentialMatches compares two pre-hashed secrets in constant time with
// respect to their contents.
func CredentialMatches(candidateHash, serverHash string) bool {
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(serverHash)) == 1
}
