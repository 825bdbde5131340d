// ABOUTME: Tests for principal and role store operations
// ABOUTME: Covers create, lookup, duplicate handling, listing, deletion and role grants

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &Principal{
		Username:     "admin",
		PasswordHash: "$2a$10$hash",
		Roles:        []string{RoleUser, RoleAdmin},
	}
	require.NoError(t, store.CreatePrincipal(ctx, p))

	got, err := store.GetPrincipal(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	// Roles come back sorted
	assert.Equal(t, []string{RoleAdmin, RoleUser}, got.Roles)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestPrincipalStore_Create_Duplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "user", PasswordHash: "h1"}))

	err := store.CreatePrincipal(ctx, &Principal{Username: "user", PasswordHash: "h2"})
	assert.ErrorIs(t, err, ErrDuplicatePrincipal)
}

func TestPrincipalStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPrincipal(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestPrincipalStore_Get_NoRoles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "norole", PasswordHash: "h"}))

	got, err := store.GetPrincipal(ctx, "norole")
	require.NoError(t, err)
	assert.NotNil(t, got.Roles)
	assert.Empty(t, got.Roles)
}

func TestPrincipalStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "zed", PasswordHash: "h", Roles: []string{RoleUser}}))
	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "amy", PasswordHash: "h", Roles: []string{RoleAdmin}}))

	list, err := store.ListPrincipals(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "amy", list[0].Username)
	assert.Equal(t, []string{RoleAdmin}, list[0].Roles)
	assert.Equal(t, "zed", list[1].Username)
}

func TestPrincipalStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "temp", PasswordHash: "h", Roles: []string{RoleUser}}))
	require.NoError(t, store.DeletePrincipal(ctx, "temp"))

	_, err := store.GetPrincipal(ctx, "temp")
	assert.ErrorIs(t, err, ErrPrincipalNotFound)

	// Roles cascade away with the principal
	roles, err := store.ListRoles(ctx, "temp")
	require.NoError(t, err)
	assert.Empty(t, roles)

	assert.ErrorIs(t, store.DeletePrincipal(ctx, "temp"), ErrPrincipalNotFound)

	// Re-adding the username starts with no roles
	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "temp", PasswordHash: "h"}))
	roles, err = store.ListRoles(ctx, "temp")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestRoleStore_AddIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "user", PasswordHash: "h"}))

	require.NoError(t, store.AddRole(ctx, "user", RoleAdmin))
	require.NoError(t, store.AddRole(ctx, "user", RoleAdmin), "adding existing role should be idempotent")

	roles, err := store.ListRoles(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []string{RoleAdmin}, roles)
}

func TestRoleStore_Remove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePrincipal(ctx, &Principal{Username: "user", PasswordHash: "h", Roles: []string{RoleAdmin, RoleUser}}))

	require.NoError(t, store.RemoveRole(ctx, "user", RoleAdmin))
	require.NoError(t, store.RemoveRole(ctx, "user", "ROLE_MISSING"))

	roles, err := store.ListRoles(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []string{RoleUser}, roles)
}

func TestPrincipal_HasRole(t *testing.T) {
	p := &Principal{Roles: []string{RoleAdmin, RoleUser}}
	assert.True(t, p.HasRole(RoleAdmin))
	assert.False(t, p.HasRole("ROLE_AUDITOR"))
}
