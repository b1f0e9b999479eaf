package model

import "errors"

// Error kinds. Every error returned by the auth and access services wraps
// exactly one of these.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")
	ErrSigning      = errors.New("signing misconfiguration")
)

var (
	ErrNotFound = errors.New("not found")

	ErrInvalidSignature = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
)
