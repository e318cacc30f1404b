// Package domain contains the core business entities for the gallery.
// These are pure Go structs with no storage or transport dependencies,
// representing the fundamental concepts of the image gallery.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID is the opaque, stable identifier of a user.
// It is compared for equality only and never parsed for meaning.
type UserID string

// NewUserID generates a fresh random UserID.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// String returns the identifier as a plain string.
func (id UserID) String() string {
	return string(id)
}

// User represents a registered user and the credential it logs in with.
// Users own the images they create.
type User struct {
	// ID is the canonical owner identifier referenced by owned resources.
	ID UserID `json:"id"`

	// Username is the unique username for login and display.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user registered.
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates a new User with a generated ID.
func NewUser(username, passwordHash string) *User {
	return &User{
		ID:           NewUserID(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// Author is the public view of an image's owner.
type Author struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}
