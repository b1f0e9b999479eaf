// Package apierrors defines the client-visible errors of the auth API.
// Each APIError carries one model error kind, an HTTP status and a message
// that is safe to show to the caller.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dtroode/authkeeper/internal/model"
)

// APIError is an error with a client-safe message and a kind from the model package.
type APIError struct {
	Kind       error
	HTTPStatus int
	Message    string
	cause      error
}

// Error returns the client-safe message.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the kind and, when present, the internal cause.
func (e *APIError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}

// Cause returns the internal error behind e, if any. It is meant for server-side logs.
func (e *APIError) Cause() error {
	return e.cause
}

func newErr(kind error, status int, message string, cause error) *APIError {
	return &APIError{Kind: kind, HTTPStatus: status, Message: message, cause: cause}
}

// NewErrEmailIsTaken reports a registration for an email that already exists.
func NewErrEmailIsTaken(email string) *APIError {
	return newErr(model.ErrConflict, http.StatusConflict, fmt.Sprintf("email %s is already taken", email), nil)
}

// NewErrInvalidCredentials is shared by "no such email" and "wrong secret".
func NewErrInvalidCredentials() *APIError {
	return newErr(model.ErrUnauthorized, http.StatusUnauthorized, "invalid email or password", nil)
}

func NewErrAccountDeactivated() *APIError {
	return newErr(model.ErrForbidden, http.StatusForbidden, "account is deactivated", nil)
}

func NewErrInvalidRefreshToken() *APIError {
	return newErr(model.ErrUnauthorized, http.StatusUnauthorized, "invalid or expired refresh token", nil)
}

func NewErrRevokedRefreshToken() *APIError {
	return newErr(model.ErrUnauthorized, http.StatusUnauthorized, "refresh token revoked or unknown", nil)
}

func NewErrMissingAuthorizationToken() *APIError {
	return newErr(model.ErrUnauthorized, http.StatusUnauthorized, "authorization token is missing", nil)
}

func NewErrInvalidAuthorizationToken() *APIError {
	return newErr(model.ErrUnauthorized, http.StatusUnauthorized, "invalid or expired access token", nil)
}

// NewErrAuthenticationRequired is returned when authorization runs without prior authentication.
func NewErrAuthenticationRequired() *APIError {
	return newErr(model.ErrUnauthorized, http.StatusUnauthorized, "authentication required", nil)
}

func NewErrInsufficientRole() *APIError {
	return newErr(model.ErrForbidden, http.StatusForbidden, "you do not have permission to perform this action", nil)
}

func NewErrUserNotFound() *APIError {
	return newErr(model.ErrNotFound, http.StatusNotFound, "user not found", nil)
}

func NewErrStorageUnavailable(cause error) *APIError {
	return newErr(model.ErrUnavailable, http.StatusServiceUnavailable, "service temporarily unavailable", cause)
}

func NewErrBadRequest(message string) *APIError {
	return newErr(errBadRequest, http.StatusBadRequest, message, nil)
}

func NewErrRouteNotFound() *APIError {
	return newErr(errBadRequest, http.StatusNotFound, "route not found", nil)
}

func NewErrMethodNotAllowed() *APIError {
	return newErr(errBadRequest, http.StatusMethodNotAllowed, "method not allowed", nil)
}

func NewErrInternalServerError(cause error) *APIError {
	return newErr(errInternal, http.StatusInternalServerError, "internal server error", cause)
}

var (
	errBadRequest = errors.New("bad request")
	errInternal   = errors.New("internal")
)

// From returns err as an *APIError, converting anything else into an internal server error.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewErrInternalServerError(err)
}
