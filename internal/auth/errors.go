// Package auth provides bearer token authentication and ownership authorization
// for the gallery API.
package auth

import "errors"

// Authentication and token errors.
var (
	// ErrUnauthenticated indicates the request carries no usable credentials.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidAuthorizationHeader indicates the Authorization header is missing or malformed.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrTokenInvalid indicates the token is malformed, tampered with or missing claims.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired indicates a correctly signed token whose validity window has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrMissingSecret indicates no signing secret was configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")

	// ErrInvalidTTL indicates a non-positive token validity window.
	ErrInvalidTTL = errors.New("token validity must be positive")

	// ErrEmptySubject indicates a token was requested for an empty username.
	ErrEmptySubject = errors.New("token subject must not be empty")

	// ErrTokenSigning indicates signing the token failed.
	ErrTokenSigning = errors.New("failed to sign token")
)
