// Package repository defines data access interfaces for the gallery.
// These interfaces abstract the document store, allowing for different implementations
// (SQLite, PostgreSQL, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"
	"strings"

	"github.com/prn-tf/gallery/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for credential and user data access.
type UserRepository interface {
	// Create inserts a new user. A username that is already taken must be
	// reported as domain.ErrUserAlreadyExists, distinct from other failures.
	// Uniqueness is enforced by the store itself.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername retrieves a user's credential by username.
	// Returns domain.ErrUserNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByID retrieves a user by ID.
	// Returns domain.ErrUserNotFound if absent.
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)

	OwnerResolver
}

// OwnerResolver maps an authenticated username to the canonical owner id
// recorded on resources.
type OwnerResolver interface {
	// FindOwnerIDByUsername returns the user id for username.
	// Returns domain.ErrUserNotFound if absent.
	FindOwnerIDByUsername(ctx context.Context, username string) (domain.UserID, error)
}

// =============================================================================
// Image Repository
// =============================================================================

// ImageRepository defines the interface for image data access.
type ImageRepository interface {
	// Create inserts a new image.
	Create(ctx context.Context, image *domain.Image) error

	// GetByID retrieves an image with its owner reference.
	// Returns domain.ErrImageNotFound if absent.
	GetByID(ctx context.Context, id domain.ImageID) (*domain.Image, error)

	// GetWithAuthor retrieves an image joined with its author.
	// Returns domain.ErrImageNotFound if absent.
	GetWithAuthor(ctx context.Context, id domain.ImageID) (*domain.ImageWithAuthor, error)

	// List returns images joined with their authors, newest first.
	List(ctx context.Context, opts ImageListOptions) ([]*domain.ImageWithAuthor, error)

	// UpdateName sets the name of an image.
	// Returns domain.ErrImageNotFound if no image matched.
	UpdateName(ctx context.Context, id domain.ImageID, name string) error
}

// ImageListOptions contains options for listing images.
type ImageListOptions struct {
	// Search filters to images whose name contains this substring,
	// case-insensitively. Empty means no filter.
	Search string
}

// LikeEscapeChar is the escape character used by LikePattern.
const LikeEscapeChar = `\`

// LikePattern builds a "contains" pattern for LIKE/ILIKE with the wildcard
// characters of s escaped. Use it with ESCAPE '\'.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
