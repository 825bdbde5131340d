// ABOUTME: Principal administration commands: hash-password, user and token
// ABOUTME: Passwords are always read from stdin so they never land in shell history

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/inventory-api/internal/auth"
	"github.com/2389/inventory-api/internal/config"
	"github.com/2389/inventory-api/internal/server"
	"github.com/2389/inventory-api/internal/store"
)

// readPassword reads the first line of in.
func readPassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password on stdin")
	}
	return password, nil
}

func runHashPassword(args []string, in io.Reader, out io.Writer) error {
	fs := pflag.NewFlagSet("hash-password", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword(in)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}

// openStore loads the config and opens its SQLite database.
func openStore(configPath string) (*config.Config, *store.SQLiteStore, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return cfg, s, nil
}

func runUser(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: inventory-api user add|list|remove|grant|revoke [flags]")
	}
	sub, args := args[0], args[1:]

	var configPath, username string
	var roles []string
	fs := newFlagSet("user "+sub, &configPath)
	switch sub {
	case "add":
		fs.StringVarP(&username, "username", "u", "", "username (required)")
		fs.StringArrayVarP(&roles, "role", "r", nil, "role to grant (repeatable)")
	case "remove":
		fs.StringVarP(&username, "username", "u", "", "username (required)")
	case "grant", "revoke":
		fs.StringVarP(&username, "username", "u", "", "username (required)")
		fs.StringArrayVarP(&roles, "role", "r", nil, "role (repeatable, at least one)")
	case "list":
	default:
		return fmt.Errorf("unknown user command: %s", sub)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if sub != "list" && strings.TrimSpace(username) == "" {
		return errors.New("--username is required")
	}
	if (sub == "grant" || sub == "revoke") && len(roles) == 0 {
		return errors.New("at least one --role is required")
	}

	cfg, s, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if cfg.Auth.PrincipalSource != config.PrincipalSourceDatabase {
		color.New(color.FgYellow).Fprintf(out,
			"  note: auth.principal_source is %q; database users are ignored until it is %q\n",
			cfg.Auth.PrincipalSource, config.PrincipalSourceDatabase)
	}

	green := color.New(color.FgGreen)

	switch sub {
	case "add":
		password, err := readPassword(in)
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		p := &store.Principal{Username: username, PasswordHash: hash, Roles: roles}
		if err := s.CreatePrincipal(ctx, p); err != nil {
			return fmt.Errorf("creating principal: %w", err)
		}
		green.Fprintf(out, "  ✓ Created %s %v\n", username, roles)

	case "remove":
		if err := s.DeletePrincipal(ctx, username); err != nil {
			return fmt.Errorf("removing principal: %w", err)
		}
		green.Fprintf(out, "  ✓ Removed %s\n", username)

	case "grant":
		if _, err := s.GetPrincipal(ctx, username); err != nil {
			return fmt.Errorf("granting roles: %w", err)
		}
		for _, role := range roles {
			if err := s.AddRole(ctx, username, role); err != nil {
				return fmt.Errorf("granting %s: %w", role, err)
			}
		}
		green.Fprintf(out, "  ✓ Granted %v to %s\n", roles, username)

	case "revoke":
		for _, role := range roles {
			if err := s.RemoveRole(ctx, username, role); err != nil {
				return fmt.Errorf("revoking %s: %w", role, err)
			}
		}
		green.Fprintf(out, "  ✓ Revoked %v from %s\n", roles, username)

	case "list":
		principals, err := s.ListPrincipals(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USERNAME\tROLES\tCREATED")
		for _, p := range principals {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Username, strings.Join(p.Roles, ","), p.CreatedAt.Format(time.DateOnly))
		}
		return tw.Flush()
	}
	return nil
}

func runToken(ctx context.Context, args []string, out io.Writer) error {
	var configPath, username string
	var ttl time.Duration
	fs := newFlagSet("token", &configPath)
	fs.StringVarP(&username, "username", "u", "", "principal to issue the token for (required)")
	fs.DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if username == "" {
		return errors.New("--username is required")
	}

	cfg, s, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL
	}

	principals, err := server.NewPrincipalSource(cfg, s, slog.Default())
	if err != nil {
		return err
	}
	if _, err := principals.GetPrincipal(ctx, username); err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			return fmt.Errorf("unknown principal %q in %s source", username, cfg.Auth.PrincipalSource)
		}
		return err
	}

	codec, err := auth.NewCodec([]byte(cfg.Auth.JWTSecret), auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return err
	}
	token, _, err := codec.Issue(username, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, token)
	return nil
}
