// ABOUTME: Configuration loading and parsing for inventory-api
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/inventory-api/internal/auth"
)

// Environment variables consulted by the loader.
const (
	EnvConfigPath = "INVENTORY_CONFIG"
	EnvJWTSecret  = "INVENTORY_JWT_SECRET"
	EnvDBPath     = "INVENTORY_DB_PATH"
)

// Principal sources for auth.principal_source.
const (
	PrincipalSourceMemory   = "memory"
	PrincipalSourceDatabase = "database"
)

// Defaults applied before the file is decoded.
const (
	DefaultHTTPAddr = "localhost:8080"
	DefaultDBPath   = "inventory.db"
	DefaultTokenTTL = 24 * time.Hour
	DefaultIssuer   = "inventory-api"
)

// ErrNoConfigFile is returned by Resolve when no explicit path was given and
// the default location has no file.
var ErrNoConfigFile = errors.New("no config file found")

// Config represents the complete inventory-api configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Docs     DocsConfig     `yaml:"docs" toml:"docs"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       string       `yaml:"jwt_secret" toml:"jwt_secret"`
	Issuer          string       `yaml:"issuer" toml:"issuer"`
	PrincipalSource string       `yaml:"principal_source" toml:"principal_source"`
	Users           []UserConfig `yaml:"users" toml:"users"`

	// WriteRole, when set, is required for creating, updating and deleting
	// products. Reads only need an authenticated identity.
	WriteRole string `yaml:"write_role" toml:"write_role"`

	TokenTTL time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TokenTTLRaw string `yaml:"token_ttl" toml:"token_ttl"`
}

// UserConfig is one statically configured principal for the memory source.
type UserConfig struct {
	Username     string   `yaml:"username" toml:"username"`
	PasswordHash string   `yaml:"password_hash" toml:"password_hash"`
	Roles        []string `yaml:"roles" toml:"roles"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DocsConfig controls the public API reference page.
type DocsConfig struct {
	Enabled *bool `yaml:"enabled" toml:"enabled"`
}

// IsEnabled reports whether /docs is served. Defaults to true.
func (d DocsConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Default returns a configuration with every optional field filled in.
// The JWT secret is left empty and must come from the file or environment.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{HTTPAddr: DefaultHTTPAddr},
		Database: DatabaseConfig{Path: DefaultDBPath},
		Auth: AuthConfig{
			Issuer:          DefaultIssuer,
			PrincipalSource: PrincipalSourceMemory,
			TokenTTL:        DefaultTokenTTL,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(cfg)
}

// Write encodes cfg to path as TOML or YAML, chosen by extension like Load.
// The file is created with 0600 permissions since it holds the signing secret.
func Write(path string, cfg *Config) error {
	out := *cfg
	out.Auth.TokenTTLRaw = cfg.Auth.TokenTTL.String()

	var buf bytes.Buffer
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.NewEncoder(&buf).Encode(&out); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	} else {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&out); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// FromEnv builds a configuration from defaults plus environment overrides,
// for running without a config file.
func FromEnv() (*Config, error) {
	return finish(Default())
}

func finish(cfg *Config) (*Config, error) {
	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyEnvOverrides(cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Resolve returns the config file path to use.
// Priority: explicit path > INVENTORY_CONFIG env var > XDG_CONFIG_HOME/inventory-api/config.yaml > ~/.config/inventory-api/config.yaml
// Explicit and env paths are returned as-is; the default location returns
// ErrNoConfigFile if nothing is there.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath, nil
	}

	path := DefaultPath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return path, ErrNoConfigFile
		}
		return path, fmt.Errorf("checking config file: %w", err)
	}
	return path, nil
}

// DefaultPath is the XDG location of the config file.
func DefaultPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "inventory-api", "config.yaml")
}

// envVarPattern matches ${VAR_NAME}
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides lets deployments inject the secret and database path
// without editing the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (or set %s)", EnvJWTSecret)
	}
	if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes, got %d", auth.MinSecretLength, len(c.Auth.JWTSecret))
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	switch c.Auth.PrincipalSource {
	case PrincipalSourceMemory:
	case PrincipalSourceDatabase:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required when auth.principal_source is %q", PrincipalSourceDatabase)
		}
	default:
		return fmt.Errorf("auth.principal_source must be %q or %q, got %q",
			PrincipalSourceMemory, PrincipalSourceDatabase, c.Auth.PrincipalSource)
	}

	seen := make(map[string]bool, len(c.Auth.Users))
	for i, u := range c.Auth.Users {
		if strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("auth.users[%d].username is required", i)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("auth.users[%d].password_hash is required", i)
		}
		if seen[u.Username] {
			return fmt.Errorf("auth.users[%d]: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = true
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	return nil
}
