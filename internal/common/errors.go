// Package common defines shared constants and sentinel errors used across
// the Glytch client packages. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Configuration errors, raised before any network I/O.
	ErrConfig = errors.New("configuration error")

	// Request-shape errors.
	ErrUnsupportedRoute = errors.New("unsupported route")
	ErrInvalidArgument  = errors.New("invalid argument")

	// Response errors.
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrorUnauthorized     = errors.New("unauthorized")

	// The remote schema predates the feature being written.
	ErrMigrationRequired = errors.New("migration required")

	// The user is banned from the Glytch being joined.
	ErrBanned = errors.New("banned from glytch")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
)
