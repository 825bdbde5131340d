// ABOUTME: Tests for the CLI commands against temp-dir configs and SQLite databases
// ABOUTME: Covers logger setup, init, hash-password, user management and token issuance

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/inventory-api/internal/auth"
	"github.com/2389/inventory-api/internal/config"
	"github.com/2389/inventory-api/internal/store"
)

func init() {
	color.NoColor = true
}

// newTestConfig writes a database-backed config into a temp dir.
func newTestConfig(t *testing.T, name string) string {
	t.Helper()
	t.Setenv(config.EnvJWTSecret, "")
	t.Setenv(config.EnvDBPath, "")

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "inventory.db")
	cfg.Auth.JWTSecret = strings.Repeat("k", 40)
	cfg.Auth.PrincipalSource = config.PrincipalSourceDatabase

	path := filepath.Join(dir, name)
	require.NoError(t, config.Write(path, cfg))
	return path
}

func TestSetupLogger_ColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.With("component", "test").WithGroup("req").Warn("visible", "status", 401)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WRN visible")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "req.status=401")
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestColorHandler_ConcurrentDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})
	logger := setupLogger(config.LoggingConfig{}, w)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.With("worker", i).Info("line")
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, strings.Count(buf.String(), "\n"))
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestGenerateSecret(t *testing.T) {
	a, err := generateSecret()
	require.NoError(t, err)
	b, err := generateSecret()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), auth.MinSecretLength)
}

func TestRunInit(t *testing.T) {
	t.Setenv(config.EnvJWTSecret, "")
	t.Setenv(config.EnvDBPath, "")
	path := filepath.Join(t.TempDir(), "config.toml")

	answers := strings.NewReader("127.0.0.1:9090\n/tmp/inv.db\ndatabase\nROLE_ADMIN\n\njson\n")
	var out bytes.Buffer
	require.NoError(t, runInit([]string{"--config", path}, answers, &out))
	assert.Contains(t, out.String(), "Config written to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/inv.db", cfg.Database.Path)
	assert.Equal(t, config.PrincipalSourceDatabase, cfg.Auth.PrincipalSource)
	assert.Equal(t, "ROLE_ADMIN", cfg.Auth.WriteRole)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.GreaterOrEqual(t, len(cfg.Auth.JWTSecret), auth.MinSecretLength)

	// Refuses to overwrite without --force
	err = runInit([]string{"--config", path, "--defaults"}, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, runInit([]string{"--config", path, "--defaults", "--force"}, strings.NewReader(""), &out))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHTTPAddr, cfg.Server.HTTPAddr)
}

func TestRunInit_InvalidAnswer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	answers := strings.NewReader("\n\nldap\n")
	err := runInit([]string{"--config", path}, answers, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "principal_source")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be written")
}

func TestRunHashPassword(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runHashPassword(nil, strings.NewReader("hunter2\n"), &out))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))

	err := runHashPassword(nil, strings.NewReader(""), &out)
	assert.Error(t, err)
}

func TestRunUser_Lifecycle(t *testing.T) {
	ctx := context.Background()
	path := newTestConfig(t, "config.yaml")
	var out bytes.Buffer

	require.NoError(t, runUser(ctx, []string{"add", "--config", path, "-u", "alice", "-r", store.RoleUser}, strings.NewReader("pw-alice\n"), &out))
	require.NoError(t, runUser(ctx, []string{"grant", "--config", path, "-u", "alice", "-r", store.RoleAdmin}, nil, &out))

	out.Reset()
	require.NoError(t, runUser(ctx, []string{"list", "--config", path}, nil, &out))
	assert.Contains(t, out.String(), "alice")
	assert.Contains(t, out.String(), store.RoleAdmin)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	require.NoError(t, err)
	p, err := s.GetPrincipal(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{store.RoleUser, store.RoleAdmin}, p.Roles)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("pw-alice")))
	require.NoError(t, s.Close())

	require.NoError(t, runUser(ctx, []string{"revoke", "--config", path, "-u", "alice", "-r", store.RoleAdmin}, nil, &out))
	require.NoError(t, runUser(ctx, []string{"remove", "--config", path, "-u", "alice"}, nil, &out))

	err = runUser(ctx, []string{"remove", "--config", path, "-u", "alice"}, nil, &out)
	assert.ErrorIs(t, err, store.ErrPrincipalNotFound)
}

func TestRunUser_Errors(t *testing.T) {
	ctx := context.Background()
	path := newTestConfig(t, "config.yaml")
	var out bytes.Buffer

	assert.Error(t, runUser(ctx, nil, nil, &out))
	assert.Error(t, runUser(ctx, []string{"rename"}, nil, &out))
	assert.Error(t, runUser(ctx, []string{"add", "--config", path}, strings.NewReader("pw\n"), &out))
	assert.Error(t, runUser(ctx, []string{"grant", "--config", path, "-u", "alice"}, nil, &out))

	require.NoError(t, runUser(ctx, []string{"add", "--config", path, "-u", "bob"}, strings.NewReader("pw\n"), &out))
	err := runUser(ctx, []string{"add", "--config", path, "-u", "bob"}, strings.NewReader("pw\n"), &out)
	assert.ErrorIs(t, err, store.ErrDuplicatePrincipal)
}

func TestRunToken(t *testing.T) {
	ctx := context.Background()
	path := newTestConfig(t, "config.toml")
	var out bytes.Buffer

	err := runToken(ctx, []string{"--config", path, "-u", "carol"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown principal")

	require.NoError(t, runUser(ctx, []string{"add", "--config", path, "-u", "carol"}, strings.NewReader("pw\n"), &out))

	out.Reset()
	require.NoError(t, runToken(ctx, []string{"--config", path, "-u", "carol", "--ttl", "5m"}, &out))
	token := strings.TrimSpace(out.String())

	cfg, err := config.Load(path)
	require.NoError(t, err)
	codec, err := auth.NewCodec([]byte(cfg.Auth.JWTSecret), auth.WithIssuer(cfg.Auth.Issuer))
	require.NoError(t, err)
	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Username())
	assert.WithinDuration(t, codec.Now().Add(5*time.Minute), claims.ExpiresAtTime(), 2*time.Second)
}
