package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/services/viewer"
	"github.com/mcoot/playgate/internal/token"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountExists      = "ACCOUNT_EXISTS"
	CodeProviderFailure    = "IDENTITY_PROVIDER_UNAVAILABLE"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodeViewerNotFound     = "VIEWER_NOT_FOUND"
	CodeViewerClosed       = "VIEWER_CLOSED"
	CodeMediaNotFound      = "MEDIA_NOT_FOUND"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusFor returns the HTTP status err maps to
func StatusFor(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Authentication outcomes
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, model.ErrAccountExists):
		return &httpError{http.StatusConflict, APIError{CodeAccountExists, "An account with this email already exists"}}
	case errors.Is(err, model.ErrNetwork):
		return &httpError{http.StatusBadGateway, APIError{CodeProviderFailure, "Identity provider unreachable, try again"}}
	case errors.Is(err, model.ErrPasswordTooLong):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Password must be at most 72 bytes"}}
	case errors.Is(err, model.ErrTooManyAttempts):
		return &httpError{http.StatusTooManyRequests, APIError{CodeTooManyAttempts, "Too many attempts, wait before trying again"}}

	// Lookups
	case errors.Is(err, model.ErrViewerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeViewerNotFound, "Viewer not found"}}
	case errors.Is(err, model.ErrViewerClosed):
		return &httpError{http.StatusGone, APIError{CodeViewerClosed, "Viewer has been closed"}}
	case errors.Is(err, model.ErrMediaNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMediaNotFound, "Media not found"}}
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}

	case errors.Is(err, token.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired viewer token"}}
	case errors.Is(err, viewer.ErrIDExhausted):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, "Could not open a viewer, try again"}}
	case errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Request timed out"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Viewer token required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
