// ABOUTME: init command: writes a new YAML or TOML config with a random signing secret
// ABOUTME: Prompts for each setting unless --defaults is given

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/inventory-api/internal/config"
)

// generateSecret returns 32 random bytes, base64 encoded.
func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

func runInit(args []string, in io.Reader, out io.Writer) error {
	var configPath string
	var force, defaults bool
	fs := newFlagSet("init", &configPath)
	fs.BoolVar(&force, "force", false, "overwrite an existing config file")
	fs.BoolVar(&defaults, "defaults", false, "accept every default without prompting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	reader := bufio.NewReader(in)
	ask := func(question, defaultVal string) string {
		if defaults {
			return defaultVal
		}
		return prompt(reader, out, question, defaultVal)
	}

	cfg := config.Default()

	fmt.Fprintln(out, "inventory-api configuration setup")
	fmt.Fprintln(out, "=================================")

	fmt.Fprintln(out, "\n--- Server ---")
	cfg.Server.HTTPAddr = ask("HTTP address", config.DefaultHTTPAddr)
	cfg.Database.Path = ask("SQLite database path", config.DefaultDBPath)

	fmt.Fprintln(out, "\n--- Authentication ---")
	cfg.Auth.PrincipalSource = ask("Principal source (memory/database)", config.PrincipalSourceMemory)
	cfg.Auth.WriteRole = ask("Role required for product writes (empty for any user)", "")

	fmt.Fprintln(out, "\n--- Logging ---")
	cfg.Logging.Level = ask("Log level (debug/info/warn/error)", "info")
	cfg.Logging.Format = ask("Log format (text/json)", "text")

	secret, err := generateSecret()
	if err != nil {
		return err
	}
	cfg.Auth.JWTSecret = secret

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid answers: %w", err)
	}
	if err := config.Write(configPath, cfg); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(out)
	green.Fprintf(out, "  ✓ Config written to %s\n", configPath)
	fmt.Fprintln(out)
	yellow.Fprintln(out, "  Next steps:")
	if cfg.Auth.PrincipalSource == config.PrincipalSourceDatabase {
		fmt.Fprintf(out, "    inventory-api user add --config %s --username admin --role ROLE_ADMIN --role ROLE_USER\n", configPath)
	} else {
		fmt.Fprintln(out, "    add auth.users entries (see 'inventory-api hash-password'), or use the built-in admin/user accounts")
	}
	fmt.Fprintf(out, "    inventory-api serve --config %s\n", configPath)
	fmt.Fprintln(out)

	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}

	if input == "" {
		return defaultVal
	}
	return input
}
