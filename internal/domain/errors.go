// Package domain contains the core business entities for the gallery.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrInvalidInput indicates a required field is missing or has the wrong type.
	ErrInvalidInput = errors.New("invalid input")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials indicates the username or password is wrong.
	// It deliberately does not say which.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ===========================================
	// Image Errors
	// ===========================================

	// ErrImageNotFound indicates the requested image does not exist.
	ErrImageNotFound = errors.New("image does not exist")

	// ErrInvalidImageID indicates the image identifier is malformed.
	ErrInvalidImageID = errors.New("invalid image ID")

	// ErrImageNameTooLong indicates the new name exceeds the configured limit.
	ErrImageNameTooLong = errors.New("image name is too long")

	// ===========================================
	// Authorization Errors
	// ===========================================

	// ErrAccessDenied indicates the caller is authenticated but not permitted.
	ErrAccessDenied = errors.New("access denied")

	// ===========================================
	// Infrastructure Errors
	// ===========================================

	// ErrInternal indicates a storage or other infrastructure failure.
	ErrInternal = errors.New("internal server error")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., username, image ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// Detail returns the human readable message carried by err, falling back
// to err's own text when it is not a DomainError.
func Detail(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}
