// ABOUTME: Server orchestrator that wires store, auth gate and inventory service behind HTTP
// ABOUTME: Manages listener lifecycle, health endpoints and graceful shutdown

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/inventory-api/internal/auth"
	"github.com/2389/inventory-api/internal/config"
	"github.com/2389/inventory-api/internal/inventory"
	"github.com/2389/inventory-api/internal/store"
)

// defaultPassword is the password of the built-in users seeded when the
// memory principal source has no configured users.
const defaultPassword = "password"

// Server owns every component behind the HTTP API.
type Server struct {
	config     *config.Config
	store      *store.SQLiteStore
	gate       *auth.Gate
	products   *inventory.Service
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// Option customises a Server at construction.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for issuing and checking tokens.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a Server from the given configuration. The configuration is
// validated first; nothing is started until Run.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	principals, err := NewPrincipalSource(cfg, sqlStore, logger)
	if err != nil {
		_ = sqlStore.Close()
		return nil, err
	}

	codecOpts := []auth.CodecOption{auth.WithIssuer(cfg.Auth.Issuer)}
	if o.now != nil {
		codecOpts = append(codecOpts, auth.WithClock(o.now))
	}
	codec, err := auth.NewCodec([]byte(cfg.Auth.JWTSecret), codecOpts...)
	if err != nil {
		_ = sqlStore.Close()
		return nil, fmt.Errorf("creating token codec: %w", err)
	}

	credentials := auth.NewCredentials(principals, logger)
	gate, err := auth.NewGate(credentials, codec, cfg.Auth.TokenTTL, logger)
	if err != nil {
		_ = sqlStore.Close()
		return nil, fmt.Errorf("creating auth gate: %w", err)
	}

	s := &Server{
		config:   cfg,
		store:    sqlStore,
		gate:     gate,
		products: inventory.NewService(sqlStore, logger),
		logger:   logger.With("component", "server"),
	}

	handler, err := s.routes()
	if err != nil {
		_ = sqlStore.Close()
		return nil, err
	}
	s.handler = handler
	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// NewPrincipalSource returns the credential source named by auth.principal_source.
// The memory source falls back to built-in admin and user accounts when no
// users are configured.
func NewPrincipalSource(cfg *config.Config, sqlStore *store.SQLiteStore, logger *slog.Logger) (store.PrincipalStore, error) {
	if cfg.Auth.PrincipalSource == config.PrincipalSourceDatabase {
		logger.Info("principals loaded from database", "path", cfg.Database.Path)
		return sqlStore, nil
	}

	users := make([]store.Principal, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, store.Principal{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Roles:        u.Roles,
		})
	}

	if len(users) == 0 {
		defaults, err := defaultPrincipals()
		if err != nil {
			return nil, err
		}
		users = defaults
		logger.Warn("no users configured, using built-in admin and user accounts with the default password")
	}

	principals, err := store.NewMemoryPrincipals(users)
	if err != nil {
		return nil, fmt.Errorf("loading principals: %w", err)
	}
	logger.Info("principals loaded from config", "users", principals.Usernames())
	return principals, nil
}

func defaultPrincipals() ([]store.Principal, error) {
	hash, err := auth.HashPassword(defaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing default password: %w", err)
	}
	now := time.Now()
	return []store.Principal{
		{Username: "admin", PasswordHash: hash, Roles: []string{store.RoleAdmin, store.RoleUser}, CreatedAt: now},
		{Username: "user", PasswordHash: hash, Roles: []string{store.RoleUser}, CreatedAt: now},
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until the context is
// canceled or the server fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		_ = s.store.Close()
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := s.startServer(ln)
	serverErr := s.waitForShutdownSignal(ctx, errCh)

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// startServer starts the HTTP server in a goroutine, returning its error channel.
func (s *Server) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}
}

// gracefulShutdown runs Shutdown with a fresh context since the caller's is already done.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops accepting requests, waits for in-flight ones and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK when the database answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
