// ABOUTME: Entry point for the inventory-api server and its admin commands
// ABOUTME: Dispatches serve, init, hash-password, user, token and health subcommands

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/inventory-api/internal/config"
	"github.com/2389/inventory-api/internal/server"
)

// Version is set at build time.
var version = "dev"

const banner = `
  _                      _                                 _
 (_)_ ____   _____ _ __ | |_ ___  _ __ _   _        __ _ _ __ (_)
 | | '_ \ \ / / _ \ '_ \| __/ _ \| '__| | | |_____ / _' | '_ \| |
 | | | | \ V /  __/ | | | || (_) | |  | |_| |_____| (_| | |_) | |
 |_|_| |_|\_/ \___|_| |_|\__\___/|_|   \__, |      \__,_| .__/|_|
                                       |___/            |_|
`

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: inventory-api <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                         Start the HTTP server")
	fmt.Fprintln(w, "  init                          Create a new config file with a random signing secret")
	fmt.Fprintln(w, "  hash-password                 Read a password on stdin and print its bcrypt hash")
	fmt.Fprintln(w, "  user add|list|remove|grant|revoke   Manage database principals")
	fmt.Fprintln(w, "  token --username NAME         Issue a token for a known principal")
	fmt.Fprintln(w, "  health                        Check a running server")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Every command accepts --config PATH; see 'inventory-api <command> --help'.")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Quiet store and auth logs for one-shot commands; serve replaces this.
	slog.SetDefault(setupLogger(config.LoggingConfig{Level: "warn"}, os.Stderr))

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args, os.Stdout)
	case "init":
		err = runInit(args, os.Stdin, os.Stdout)
	case "hash-password":
		err = runHashPassword(args, os.Stdin, os.Stdout)
	case "user":
		err = runUser(ctx, args, os.Stdin, os.Stdout)
	case "token":
		err = runToken(ctx, args, os.Stdout)
	case "health":
		err = runHealth(ctx, args, os.Stdout)
	case "version", "--version":
		fmt.Println(version)
	case "help", "--help", "-h":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(1)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet returns a flag set with the shared --config flag bound to configPath.
func newFlagSet(name string, configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(configPath, "config", "c", "", "config file (default: $"+config.EnvConfigPath+" or "+config.DefaultPath()+")")
	return fs
}

// loadConfig resolves and loads the config file. With no explicit path and
// no file at the default location it falls back to environment variables.
func loadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.Resolve(explicit)
	if errors.Is(err, config.ErrNoConfigFile) {
		cfg, envErr := config.FromEnv()
		if envErr != nil {
			return nil, "", fmt.Errorf("no config file at %s and environment is incomplete: %w", path, envErr)
		}
		return cfg, "(environment)", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func runServe(ctx context.Context, args []string, out io.Writer) error {
	var configPath string
	fs := newFlagSet("serve", &configPath)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Fprint(out, banner)

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    version: %s\n\n", version)

	cfg, source, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, out)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:     %s\n", source)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "HTTP:       %s\n", cfg.Server.HTTPAddr)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Database:   %s\n", cfg.Database.Path)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Principals: %s", cfg.Auth.PrincipalSource)
	if cfg.Auth.PrincipalSource == config.PrincipalSourceMemory && len(cfg.Auth.Users) == 0 {
		yellow.Fprint(out, " [built-in admin/user accounts]")
	}
	fmt.Fprintln(out)
	if cfg.Auth.WriteRole != "" {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "Write role: %s\n", cfg.Auth.WriteRole)
	}
	fmt.Fprintln(out)

	logger.Info("starting inventory-api",
		"config", source,
		"http_addr", cfg.Server.HTTPAddr,
		"token_ttl", cfg.Auth.TokenTTL,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func runHealth(ctx context.Context, args []string, out io.Writer) error {
	var configPath, baseURL string
	fs := newFlagSet("health", &configPath)
	fs.StringVar(&baseURL, "url", "", "server base URL (default: http://<server.http_addr>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if baseURL == "" {
		cfg, _, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		baseURL = "http://" + cfg.Server.HTTPAddr
	}

	url := strings.TrimRight(baseURL, "/") + "/health/ready"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fmt.Fprintln(out, "healthy")
	return nil
}
