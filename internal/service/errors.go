// Package service provides business logic services for the gallery.
package service

import (
	"fmt"

	"github.com/prn-tf/gallery/internal/domain"
)

// Validation messages returned to clients.
const (
	msgMissingCredentials = "Missing username or password"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
)

func invalidInput(message string) error {
	return domain.NewDomainError(domain.ErrInvalidInput, message, "")
}

// internalError wraps an infrastructure failure so handlers answer 500.
func internalError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}
