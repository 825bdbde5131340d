// ABOUTME: HTTP middleware for bearer token authentication on API endpoints
// ABOUTME: Extracts the JWT from the Authorization header and binds the identity to the request context

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Machine-readable error codes written by the middleware.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeAccessDenied = "ACCESS_DENIED"
)

const bearerScheme = "Bearer"

// ExtractBearerToken pulls the token out of an Authorization header value.
// present is false when there is no header or it uses another scheme, in
// which case the request is treated as anonymous. A "Bearer" header with
// nothing after it is present but empty.
func ExtractBearerToken(authHeader string) (token string, present bool) {
	scheme, rest, _ := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// ErrorCode maps an Authenticate error to the code used on protected
// resources. Only expiry is distinguishable; everything else is UNAUTHORIZED.
func ErrorCode(err error) string {
	if errors.Is(err, ErrTokenExpired) {
		return CodeTokenExpired
	}
	return CodeUnauthorized
}

// TokenErrorCode maps an Authenticate error to the code used by the
// /auth endpoints, which report bad tokens as INVALID_TOKEN.
func TokenErrorCode(err error) string {
	if errors.Is(err, ErrTokenExpired) {
		return CodeTokenExpired
	}
	return CodeInvalidToken
}

// ErrorMessage is the generic client-facing text for an Authenticate error.
// Decoding details are never exposed.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrTokenExpired) {
		return "Token has expired"
	}
	return "Invalid or missing authentication token"
}

// Middleware authenticates bearer tokens. Requests without a bearer token
// pass through as anonymous; requests with one either carry an Identity
// downstream or are rejected with 401.
func Middleware(gate *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := ExtractBearerToken(r.Header.Get("Authorization"))
			if !present {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, ErrorCode(err), ErrorMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireIdentity rejects anonymous requests with 401.
// Must be used after Middleware.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()) == nil {
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized,
					"Full authentication is required to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose identity lacks role with 403.
// Anonymous requests get 401. An empty role allows any identity.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := FromContext(r.Context())
			if identity == nil {
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized,
					"Full authentication is required to access this resource")
				return
			}
			if role != "" && !identity.HasRole(role) {
				WriteError(w, http.StatusForbidden, CodeAccessDenied,
					"You do not have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// WriteError writes a {message, code} JSON body with the given status.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: message, Code: code})
}
