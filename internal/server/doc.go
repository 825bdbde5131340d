// Package server exposes the inventory API over HTTP.
//
// # Overview
//
// Server owns the SQLite store, the authentication gate and the product
// service, and routes requests to them:
//
//	type Server struct {
//	    config     *config.Config
//	    store      *store.SQLiteStore
//	    gate       *auth.Gate
//	    products   *inventory.Service
//	    httpServer *http.Server
//	    logger     *slog.Logger
//	}
//
// New wires the components in order: store, principal source (configured
// users, built-in defaults or the principals table), credentials, token
// codec, gate, product service and finally the route table.
//
// # Routes
//
// Public:
//
//	GET  /health          liveness
//	GET  /health/ready    503 when the database does not answer
//	GET  /docs            HTML API reference (docs.enabled)
//	POST /auth/login      exchange credentials for a token
//	GET  /auth/me         identity behind a bearer token
//	POST /auth/refresh    new token for a valid bearer token
//
// Behind auth.Middleware and auth.RequireIdentity:
//
//	GET /products, /products/{id}, /products/search, /products/price-range,
//	    /products/low-stock, /products/in-stock, /products/stats
//
// Behind auth.Middleware and auth.RequireRole(auth.write_role):
//
//	POST /products, PUT /products/{id}, DELETE /products/{id}
//
// # Errors
//
// Every failure is a JSON ErrorResponse. Domain errors are mapped to status
// codes in one place, writeServiceError. Token failures on /auth/me and
// /auth/refresh report INVALID_TOKEN; on product routes they report
// UNAUTHORIZED. Expired tokens report TOKEN_EXPIRED everywhere.
//
// # Lifecycle
//
// Run listens on server.http_addr and blocks until the context is canceled,
// then shuts down with a five second grace period and closes the store.
package server
