// Package common defines the sentinel errors shared by repositories,
// services, and the REST boundary. Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorUsernameTaken = errors.New("username already exists")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorForbidden     = errors.New("forbidden")
	ErrorWrongPassword = errors.New("current password is incorrect")

	// Sync errors. A stale push is rejected, never merged.
	ErrorConflict = errors.New("remote data is newer")

	// Token lifecycle errors. Both surface as unauthenticated at the
	// boundary; they stay distinct for logging.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
