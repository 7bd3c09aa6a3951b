// Package common defines shared constants and sentinel errors used across
// filestash layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors (malformed names, out-of-range durations).
	ErrorValidation = errors.New("validation error")

	// Object-storage errors. Fatal on upload, swallowed on delete.
	ErrorExternalStore = errors.New("external store failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Share-link lifecycle errors. Distinct from ErrorNotFound so an
	// expired link surfaces as 410 Gone, never 404.
	ErrorLinkExpired = errors.New("shared link expired")
)
