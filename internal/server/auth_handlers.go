// ABOUTME: HTTP handlers for login, current identity and token refresh
// ABOUTME: Token failures on these endpoints report INVALID_TOKEN or TOKEN_EXPIRED

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/2389/inventory-api/internal/auth"
)

// LoginRequest is the JSON request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the JSON response for POST /auth/login and POST /auth/refresh.
type TokenResponse struct {
	Token           string `json:"token"`
	Type            string `json:"type"`
	Username        string `json:"username"`
	ExpiresInMillis int64  `json:"expiresInMillis"`
	ExpiresAt       string `json:"expiresAt"`
}

// IdentityResponse is the JSON response for GET /auth/me.
type IdentityResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func newTokenResponse(session *auth.Session) TokenResponse {
	return TokenResponse{
		Token:           session.Token,
		Type:            "Bearer",
		Username:        session.Username,
		ExpiresInMillis: session.ExpiresIn.Milliseconds(),
		ExpiresAt:       session.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// handleLogin handles POST /auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "username is required"
	}
	if strings.TrimSpace(req.Password) == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message:          "Validation failed for input data",
			Code:             CodeValidationError,
			ValidationErrors: fields,
		})
		return
	}

	session, err := s.gate.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(session))
}

// bearerFromRequest returns the bearer token or writes a 401 INVALID_TOKEN.
func (s *Server) bearerFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, present := auth.ExtractBearerToken(r.Header.Get("Authorization"))
	if !present || token == "" {
		s.sendJSONError(w, http.StatusUnauthorized, auth.CodeInvalidToken, "Invalid or missing authentication token")
		return "", false
	}
	return token, true
}

// handleMe handles GET /auth/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := s.bearerFromRequest(w, r)
	if !ok {
		return
	}

	identity, err := s.gate.Authenticate(r.Context(), token)
	if err != nil {
		s.sendJSONError(w, http.StatusUnauthorized, auth.TokenErrorCode(err), auth.ErrorMessage(err))
		return
	}

	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, IdentityResponse{Username: identity.Username, Roles: roles})
}

// handleRefresh handles POST /auth/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := s.bearerFromRequest(w, r)
	if !ok {
		return
	}

	session, err := s.gate.Refresh(r.Context(), token)
	if err != nil {
		s.sendJSONError(w, http.StatusUnauthorized, auth.TokenErrorCode(err), auth.ErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(session))
}
