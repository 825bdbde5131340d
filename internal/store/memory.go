// ABOUTME: Immutable in-memory principal set loaded once at startup
// ABOUTME: Default credential source; safe for concurrent reads without locking

package store

import (
	"context"
	"fmt"
	"sort"
)

// MemoryPrincipals is a read-only PrincipalStore. It is fully built by
// NewMemoryPrincipals and never mutated afterwards.
type MemoryPrincipals struct {
	byUsername map[string]*Principal
}

// NewMemoryPrincipals copies the given principals into a new set.
// Returns ErrDuplicatePrincipal if a username appears twice.
func NewMemoryPrincipals(principals []Principal) (*MemoryPrincipals, error) {
	m := &MemoryPrincipals{
		byUsername: make(map[string]*Principal, len(principals)),
	}
	for _, p := range principals {
		if p.Username == "" {
			return nil, fmt.Errorf("principal with empty username")
		}
		if _, exists := m.byUsername[p.Username]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePrincipal, p.Username)
		}
		cp := p
		cp.Roles = append([]string(nil), p.Roles...)
		m.byUsername[p.Username] = &cp
	}
	return m, nil
}

// GetPrincipal returns a copy of the named principal.
func (m *MemoryPrincipals) GetPrincipal(_ context.Context, username string) (*Principal, error) {
	p, ok := m.byUsername[username]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	cp := *p
	cp.Roles = append([]string(nil), p.Roles...)
	return &cp, nil
}

// Usernames lists the known usernames in sorted order.
func (m *MemoryPrincipals) Usernames() []string {
	names := make([]string, 0, len(m.byUsername))
	for name := range m.byUsername {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
