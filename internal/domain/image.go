package domain

import (
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// DefaultMaxImageNameLength is the longest image name accepted when no
// limit is configured.
const DefaultMaxImageNameLength = 100

// ImageID is the opaque identifier of an image.
type ImageID string

// NewImageID generates a fresh random ImageID.
func NewImageID() ImageID {
	return ImageID(uuid.NewString())
}

// ParseImageID checks that s is a well-formed image identifier.
// Only the shape is checked; the value carries no further meaning.
func ParseImageID(s string) (ImageID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrInvalidImageID
	}
	return ImageID(s), nil
}

// String returns the identifier as a plain string.
func (id ImageID) String() string {
	return string(id)
}

// Image represents an uploaded picture in the shared gallery.
type Image struct {
	// ID is the unique identifier for the image.
	ID ImageID `json:"id"`

	// Src is the URL path the image file is served from.
	Src string `json:"src"`

	// Name is the display name. It is the only mutable field.
	Name string `json:"name"`

	// OwnerID references the user who created the image.
	// It is set at creation time and never changes.
	OwnerID UserID `json:"-"`

	// CreatedAt is the timestamp when the image was added.
	CreatedAt time.Time `json:"created_at"`
}

// NewImage creates a new Image owned by ownerID.
func NewImage(ownerID UserID, src, name string) *Image {
	return &Image{
		ID:        NewImageID(),
		Src:       src,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
}

// ImageWithAuthor is an image joined with its owner's public data,
// the shape returned by gallery listings.
type ImageWithAuthor struct {
	ID        ImageID   `json:"id"`
	Src       string    `json:"src"`
	Name      string    `json:"name"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateImageName checks a rename request against the length limit.
// Length is counted in UTF-16 code units, so characters outside the Basic
// Multilingual Plane count twice.
func ValidateImageName(name string, maxLength int) error {
	if name == "" {
		return NewDomainError(ErrInvalidInput, "Name field is required", "")
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxImageNameLength
	}
	if nameLength(name) > maxLength {
		return ErrImageNameTooLong
	}
	return nil
}

func nameLength(name string) int {
	n := 0
	for _, r := range name {
		n += utf16.RuneLen(r)
	}
	return n
}
