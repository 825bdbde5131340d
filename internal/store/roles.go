// ABOUTME: Role assignment store methods for database-backed principals
// ABOUTME: Roles are free-form strings such as ROLE_ADMIN and ROLE_USER

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Well-known role names used by the default principal set.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// AddRole grants a role to a principal. This operation is idempotent - adding
// an existing role succeeds silently.
func (s *SQLiteStore) AddRole(ctx context.Context, username, role string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := addRoleTx(ctx, tx, username, role); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing role: %w", err)
	}

	s.logger.Debug("added role", "username", username, "role", role)
	return nil
}

func addRoleTx(ctx context.Context, tx *sql.Tx, username, role string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO principal_roles (username, role, created_at)
		VALUES (?, ?, ?)
	`, username, role, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("adding role: %w", err)
	}
	return nil
}

// RemoveRole revokes a role. This operation is idempotent - removing a
// non-existent role succeeds silently.
func (s *SQLiteStore) RemoveRole(ctx context.Context, username, role string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM principal_roles WHERE username = ? AND role = ?`,
		username, role,
	)
	if err != nil {
		return fmt.Errorf("removing role: %w", err)
	}

	s.logger.Debug("removed role", "username", username, "role", role)
	return nil
}

// ListRoles returns all roles held by a principal. Returns an empty slice
// if the principal has no roles.
func (s *SQLiteStore) ListRoles(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role FROM principal_roles
		WHERE username = ?
		ORDER BY role
	`, username)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	return roles, nil
}
