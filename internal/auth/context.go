// ABOUTME: Request-scoped identity carried through handlers via context.Context
// ABOUTME: Provides WithIdentity/FromContext for propagating the authenticated principal

package auth

import (
	"context"
)

// Identity is the authenticated principal bound to a single request.
// It is never persisted.
type Identity struct {
	Username string
	Roles    []string
}

// HasRole reports whether the identity holds role.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// identityKey is the key type for storing Identity in context.Context.
type identityKey struct{}

// WithIdentity returns a new context with the Identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext retrieves the Identity from the context, returning nil if the
// request is anonymous.
func FromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok {
		return nil
	}
	return id
}

// MustFromContext retrieves the Identity from the context, panicking if not present.
// Only call it behind RequireIdentity.
func MustFromContext(ctx context.Context) *Identity {
	id := FromContext(ctx)
	if id == nil {
		panic("auth: Identity not found in context")
	}
	return id
}
