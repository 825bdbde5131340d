// ABOUTME: Route table for the HTTP API
// ABOUTME: Public auth, health and docs routes; product routes behind the auth gate

package server

import (
	"fmt"
	"net/http"

	"github.com/2389/inventory-api/internal/auth"
)

type middleware func(http.Handler) http.Handler

// chain applies middlewares so the first one listed runs first.
func chain(h http.HandlerFunc, mws ...middleware) http.Handler {
	var handler http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

func (s *Server) routes() (http.Handler, error) {
	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)

	if s.config.Docs.IsEnabled() {
		page, err := renderDocs()
		if err != nil {
			return nil, fmt.Errorf("rendering docs: %w", err)
		}
		mux.HandleFunc("GET /docs", docsHandler(page))
	}

	// Token endpoints validate the bearer themselves so failures report INVALID_TOKEN
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.handleMe)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)

	authenticate := middleware(auth.Middleware(s.gate))
	read := []middleware{authenticate, auth.RequireIdentity()}
	write := []middleware{authenticate, auth.RequireRole(s.config.Auth.WriteRole)}

	mux.Handle("GET /products", chain(s.handleListProducts, read...))
	mux.Handle("GET /products/search", chain(s.handleSearchProducts, read...))
	mux.Handle("GET /products/price-range", chain(s.handlePriceRange, read...))
	mux.Handle("GET /products/low-stock", chain(s.handleLowStock, read...))
	mux.Handle("GET /products/in-stock", chain(s.handleInStock, read...))
	mux.Handle("GET /products/stats", chain(s.handleStats, read...))
	mux.Handle("GET /products/{id}", chain(s.handleGetProduct, read...))
	mux.Handle("POST /products", chain(s.handleCreateProduct, write...))
	mux.Handle("PUT /products/{id}", chain(s.handleUpdateProduct, write...))
	mux.Handle("DELETE /products/{id}", chain(s.handleDeleteProduct, write...))

	mux.HandleFunc("/", s.handleNotFound)

	return requestLogger(s.logger, mux), nil
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.sendJSONError(w, http.StatusNotFound, CodeNotFound, "No route for "+r.Method+" "+r.URL.Path)
}
