// ABOUTME: Credential verification over a pluggable principal store
// ABOUTME: bcrypt comparison with a dummy hash so unknown users cost the same as wrong passwords

package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/inventory-api/internal/store"
)

// dummyHash is compared against when the user doesn't exist so that the
// response time doesn't reveal which usernames are valid. Same cost as
// bcrypt.DefaultCost.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// CredentialStore looks up principals and checks their secrets.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*store.Principal, error)
	VerifySecret(ctx context.Context, username, secret string) bool
}

// Credentials implements CredentialStore on top of any store.PrincipalStore.
type Credentials struct {
	principals store.PrincipalStore
	logger     *slog.Logger
}

// NewCredentials wraps a principal store. A nil logger uses slog.Default().
func NewCredentials(principals store.PrincipalStore, logger *slog.Logger) *Credentials {
	if logger == nil {
		logger = slog.Default()
	}
	return &Credentials{
		principals: principals,
		logger:     logger.With("component", "credentials"),
	}
}

// FindByUsername returns the principal or store.ErrPrincipalNotFound.
func (c *Credentials) FindByUsername(ctx context.Context, username string) (*store.Principal, error) {
	return c.principals.GetPrincipal(ctx, username)
}

// VerifySecret reports whether secret matches the stored hash for username.
// Unknown users, empty hashes and store failures all return false after a
// full bcrypt comparison, never an error.
func (c *Credentials) VerifySecret(ctx context.Context, username, secret string) bool {
	principal, err := c.principals.GetPrincipal(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrPrincipalNotFound) {
			c.logger.Error("principal lookup failed", "error", err)
		}
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(secret))
		return false
	}

	if principal.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(secret))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(secret)) == nil
}

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
