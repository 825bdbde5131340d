// ABOUTME: JSON response helpers and the single error-to-status mapping for the HTTP API
// ABOUTME: Every handler failure goes through writeServiceError so bodies stay uniform

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2389/inventory-api/internal/auth"
	"github.com/2389/inventory-api/internal/inventory"
	"github.com/2389/inventory-api/internal/store"
)

// Error codes written in ErrorResponse.Code. The auth package owns the token codes.
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeBadRequest          = "BAD_REQUEST"
	CodeDataIntegrityError  = "DATA_INTEGRITY_ERROR"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// maxRequestBodySize caps JSON request bodies.
const maxRequestBodySize = 64 * 1024

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Message          string            `json:"message"`
	Code             string            `json:"code"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSONBody decodes the size-limited request body into v. On failure it
// writes 413 or 400 VALIDATION_ERROR and returns false.
func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendJSONError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("request body too large (max %d bytes)", maxRequestBodySize))
			return false
		}
		s.sendJSONError(w, http.StatusBadRequest, CodeValidationError, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Message: message, Code: code})
}

// writeServiceError maps domain errors to HTTP. Unknown errors are logged
// and reported as a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *inventory.ValidationError
	var argErr *inventory.ArgumentError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message:          "Validation failed for input data",
			Code:             CodeValidationError,
			ValidationErrors: verr.Fields,
		})
	case errors.As(err, &argErr):
		s.sendJSONError(w, http.StatusBadRequest, CodeBadRequest, argErr.Message)
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, CodeNotFound, "Product not found")
	case errors.Is(err, store.ErrDuplicateName):
		s.sendJSONError(w, http.StatusConflict, CodeDataIntegrityError, "A product with that name already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.sendJSONError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, CodeInternalServerError, "Internal server error")
	}
}
