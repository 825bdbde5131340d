// ABOUTME: Tests for Server construction, lifecycle, health, docs and routing fallbacks
// ABOUTME: Shared helpers spin up the real stack over an in-memory SQLite store

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/inventory-api/internal/config"
)

const testSecret = "server-test-secret-0123456789abcdef"

// testConfig creates a minimal valid config with an available port and the
// built-in admin and user accounts.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find available HTTP port: %v", err)
	}
	httpAddr := ln.Addr().String()
	ln.Close()

	cfg := config.Default()
	cfg.Server.HTTPAddr = httpAddr
	cfg.Database.Path = ":memory:"
	cfg.Auth.JWTSecret = testSecret
	return cfg
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClock is a settable clock shared by a server and its test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// startTestServer builds a Server from cfg and serves its handler via httptest.
func startTestServer(t *testing.T, cfg *config.Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()

	s, err := New(cfg, testLogger(), opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})
	return s, ts
}

// doJSON sends a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, ts.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body), "body: %s", data)
	return body
}

func login(t *testing.T, ts *httptest.Server, username, password string) TokenResponse {
	t.Helper()
	resp, data := doJSON(t, ts, http.MethodPost, "/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", data)

	var tok TokenResponse
	require.NoError(t, json.Unmarshal(data, &tok))
	return tok
}

func TestServerNew(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Shutdown(context.Background())

	if s.config != cfg {
		t.Error("server config mismatch")
	}
	if s.gate == nil {
		t.Error("gate should not be nil")
	}
	if s.products == nil {
		t.Error("products should not be nil")
	}
	if s.Handler() == nil {
		t.Error("handler should not be nil")
	}
}

func TestServerNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "too-short"

	_, err := New(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestServerNew_DatabasePrincipals(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.PrincipalSource = config.PrincipalSourceDatabase

	_, ts := startTestServer(t, cfg)

	// An empty principals table means nobody can log in
	resp, data := doJSON(t, ts, http.MethodPost, "/auth/login", "", LoginRequest{Username: "admin", Password: "password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, CodeInvalidCredentials, decodeError(t, data).Code)
}

func TestServerRunAndShutdown(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	// Give it time to start
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://" + cfg.Server.HTTPAddr + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not shutdown in time")
	}
}

func TestServerRun_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.HTTPAddr = ln.Addr().String()

	s, err := New(cfg, testLogger())
	require.NoError(t, err)

	err = s.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on HTTP address")
}

func TestHealthEndpoints(t *testing.T) {
	s, ts := startTestServer(t, testConfig(t))

	resp, data := doJSON(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(data))

	resp, _ = doJSON(t, ts, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Ready reports 503 once the database is gone
	require.NoError(t, s.store.Close())
	resp, _ = doJSON(t, ts, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDocsPage(t *testing.T) {
	_, ts := startTestServer(t, testConfig(t))

	resp, data := doJSON(t, ts, http.MethodGet, "/docs", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page := string(data)
	assert.Contains(t, page, "<title>Inventory API Reference</title>")
	assert.Contains(t, page, "<h1>Inventory API</h1>")
	// GFM tables are rendered
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "TOKEN_EXPIRED")
}

func TestDocsPage_Disabled(t *testing.T) {
	cfg := testConfig(t)
	disabled := false
	cfg.Docs.Enabled = &disabled

	_, ts := startTestServer(t, cfg)

	resp, data := doJSON(t, ts, http.MethodGet, "/docs", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, CodeNotFound, decodeError(t, data).Code)
}

func TestUnknownRoute(t *testing.T) {
	_, ts := startTestServer(t, testConfig(t))

	resp, data := doJSON(t, ts, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, CodeNotFound, decodeError(t, data).Code)
}

func TestRequestIDHeader(t *testing.T) {
	_, ts := startTestServer(t, testConfig(t))

	resp, _ := doJSON(t, ts, http.MethodGet, "/health", "", nil)
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "client-supplied-id", resp.Header.Get(RequestIDHeader))
}
