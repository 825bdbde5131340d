// ABOUTME: Authentication gate orchestrating login, refresh and per-request token checks
// ABOUTME: Wires the credential store and token codec; every failure is terminal for the request

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/inventory-api/internal/store"
)

// Gate errors. ErrMalformedToken and ErrBadSignature come from the codec.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownSubject     = errors.New("token subject is not a known principal")
	ErrTokenExpired       = errors.New("token expired")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrSubjectLookup      = errors.New("subject lookup failed")
)

// Session is the result of a successful login or refresh.
type Session struct {
	Token     string
	Username  string
	ExpiresIn time.Duration
	ExpiresAt time.Time
}

// Gate verifies credentials, issues tokens and authorizes bearer tokens.
// It holds no mutable state; concurrent calls are independent.
type Gate struct {
	credentials CredentialStore
	codec       *Codec
	ttl         time.Duration
	logger      *slog.Logger
}

// NewGate wires a gate. ttl must be positive.
func NewGate(credentials CredentialStore, codec *Codec, ttl time.Duration, logger *slog.Logger) (*Gate, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		credentials: credentials,
		codec:       codec,
		ttl:         ttl,
		logger:      logger.With("component", "auth-gate"),
	}, nil
}

// TTL returns the configured token lifetime.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// Login verifies username/secret and issues a token. Any credential
// mismatch yields ErrInvalidCredentials without saying which part was wrong.
func (g *Gate) Login(ctx context.Context, username, secret string) (*Session, error) {
	if !g.credentials.VerifySecret(ctx, username, secret) {
		g.logger.Info("login rejected", "username", username)
		return nil, ErrInvalidCredentials
	}

	session, err := g.issue(username)
	if err != nil {
		return nil, err
	}

	g.logger.Info("login successful", "username", username)
	return session, nil
}

// Authenticate validates a bearer token and resolves the current identity.
// Roles come from the principal store at call time, not from the token.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := g.codec.Parse(token)
	if err != nil {
		g.reject(err, "")
		return nil, err
	}

	principal, err := g.credentials.FindByUsername(ctx, claims.Username())
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			g.reject(ErrUnknownSubject, claims.Username())
			return nil, ErrUnknownSubject
		}
		// Fail closed on anything unexpected
		g.logger.Error("token rejected", "reason", "lookup_failed", "subject", claims.Username(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSubjectLookup, err)
	}

	if IsExpired(claims, g.codec.Now()) {
		g.reject(ErrTokenExpired, claims.Username())
		return nil, ErrTokenExpired
	}

	return &Identity{
		Username: principal.Username,
		Roles:    append([]string(nil), principal.Roles...),
	}, nil
}

// Refresh authenticates token and issues a new one for the same subject
// with a renewed expiry.
func (g *Gate) Refresh(ctx context.Context, token string) (*Session, error) {
	identity, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	session, err := g.issue(identity.Username)
	if err != nil {
		return nil, err
	}

	g.logger.Info("token refreshed", "username", identity.Username)
	return session, nil
}

func (g *Gate) issue(username string) (*Session, error) {
	token, claims, err := g.codec.Issue(username, g.ttl)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{
		Token:     token,
		Username:  username,
		ExpiresIn: g.ttl,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// reject logs a rejected token with a reason that distinguishes the failure.
// The token itself is never logged.
func (g *Gate) reject(err error, subject string) {
	attrs := []any{"reason", RejectReason(err)}
	if subject != "" {
		attrs = append(attrs, "subject", subject)
	}
	g.logger.Warn("token rejected", attrs...)
}

// RejectReason maps a gate error to a short log reason.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	default:
		return "internal"
	}
}
