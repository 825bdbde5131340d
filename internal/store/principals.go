// ABOUTME: Principal entity store methods backed by SQLite
// ABOUTME: Credential records for the database principal source, managed from the CLI

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreatePrincipal inserts a principal and its roles in one transaction.
// Returns ErrDuplicatePrincipal if the username is already taken.
func (s *SQLiteStore) CreatePrincipal(ctx context.Context, p *Principal) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO principals (username, password_hash, created_at) VALUES (?, ?, ?)`,
		p.Username,
		p.PasswordHash,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicatePrincipal
		}
		return fmt.Errorf("inserting principal: %w", err)
	}

	for _, role := range p.Roles {
		if err := addRoleTx(ctx, tx, p.Username, role); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing principal: %w", err)
	}

	s.logger.Debug("created principal", "username", p.Username, "roles", p.Roles)
	return nil
}

// GetPrincipal retrieves a principal with its roles.
// Returns ErrPrincipalNotFound if no principal has that username.
func (s *SQLiteStore) GetPrincipal(ctx context.Context, username string) (*Principal, error) {
	var p Principal
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at FROM principals WHERE username = ?`,
		username,
	).Scan(&p.Username, &p.PasswordHash, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying principal: %w", err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	p.Roles, err = s.ListRoles(ctx, username)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// ListPrincipals returns every principal ordered by username.
func (s *SQLiteStore) ListPrincipals(ctx context.Context) ([]*Principal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM principals ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("listing principals: %w", err)
	}

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning principal: %w", err)
		}
		usernames = append(usernames, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating principals: %w", err)
	}
	rows.Close()

	principals := make([]*Principal, 0, len(usernames))
	for _, u := range usernames {
		p, err := s.GetPrincipal(ctx, u)
		if err != nil {
			return nil, err
		}
		principals = append(principals, p)
	}
	return principals, nil
}

// DeletePrincipal removes a principal and, via cascade, its roles.
// Returns ErrPrincipalNotFound if nothing was deleted.
func (s *SQLiteStore) DeletePrincipal(ctx context.Context, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM principal_roles WHERE username = ?`, username); err != nil {
		return fmt.Errorf("deleting principal roles: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM principals WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("deleting principal: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrPrincipalNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("deleted principal", "username", username)
	return nil
}
