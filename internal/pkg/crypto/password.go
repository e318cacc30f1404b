// Package crypto provides cryptographic utilities for the gallery.
// This includes bcrypt password hashing and signing secret generation.
package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used when none is configured.
const DefaultPasswordCost = 10

// MaxPasswordBytes is the longest plaintext bcrypt reads. Longer inputs are
// rejected on both hash and verify, never truncated.
const MaxPasswordBytes = 72

// Errors
var (
	// ErrEmptyPassword indicates an empty plaintext was given for hashing.
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrPasswordTooLong indicates the plaintext exceeds bcrypt's 72 byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

	// ErrInvalidCost indicates the configured work factor is outside bcrypt's range.
	ErrInvalidCost = errors.New("invalid bcrypt cost")
)

// PasswordHasher salts, hashes and verifies passwords with bcrypt.
// The resulting hash strings are self-describing: they embed the salt
// and the cost they were produced with.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher using the given bcrypt cost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of plaintext under a fresh random salt.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash.
// An empty plaintext or hash never matches, and neither does a plaintext
// longer than MaxPasswordBytes.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" || len(plaintext) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
