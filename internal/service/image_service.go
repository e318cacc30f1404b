package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/auth"
	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/repository"
)

// Authorizer decides ownership of a resource.
type Authorizer interface {
	Authorize(ctx context.Context, identity *auth.Identity, ownerID domain.UserID) auth.Decision
}

// ImageService handles gallery browsing and owner-only renames.
type ImageService struct {
	imageRepo     repository.ImageRepository
	owners        repository.OwnerResolver
	authorizer    Authorizer
	maxNameLength int
	logger        zerolog.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(
	imageRepo repository.ImageRepository,
	owners repository.OwnerResolver,
	authorizer Authorizer,
	maxNameLength int,
	logger zerolog.Logger,
) *ImageService {
	if maxNameLength <= 0 {
		maxNameLength = domain.DefaultMaxImageNameLength
	}
	return &ImageService{
		imageRepo:     imageRepo,
		owners:        owners,
		authorizer:    authorizer,
		maxNameLength: maxNameLength,
		logger:        logger.With().Str("service", "image").Logger(),
	}
}

// List returns every image whose name contains search, ignoring case.
// An empty search returns all images.
func (s *ImageService) List(ctx context.Context, search string) ([]*domain.ImageWithAuthor, error) {
	images, err := s.imageRepo.List(ctx, repository.ImageListOptions{Search: search})
	if err != nil {
		s.logger.Error().Err(err).Str("search", search).Msg("failed to list images")
		return nil, internalError(err)
	}
	return images, nil
}

// Get returns a single image with its author. Malformed ids are reported
// as not found.
func (s *ImageService) Get(ctx context.Context, rawID string) (*domain.ImageWithAuthor, error) {
	id, err := domain.ParseImageID(rawID)
	if err != nil {
		return nil, domain.ErrImageNotFound
	}

	image, err := s.imageRepo.GetWithAuthor(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("image_id", rawID).Msg("failed to get image")
		return nil, internalError(err)
	}
	return image, nil
}

// RenameInput contains the data needed to rename an image.
type RenameInput struct {
	Identity *auth.Identity
	ImageID  string
	Name     string
}

// Rename sets a new name on an image owned by the caller.
// Checks run in order: name, id shape, existence, ownership.
func (s *ImageService) Rename(ctx context.Context, input RenameInput) error {
	if err := s.validateName(input.Name); err != nil {
		return err
	}

	id, err := domain.ParseImageID(input.ImageID)
	if err != nil {
		return domain.ErrImageNotFound
	}

	image, err := s.imageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("image_id", input.ImageID).Msg("failed to load image")
		return internalError(err)
	}

	if s.authorizer.Authorize(ctx, input.Identity, image.OwnerID) != auth.Permitted {
		username := ""
		if input.Identity != nil {
			username = input.Identity.Username
		}
		s.logger.Info().
			Str("image_id", input.ImageID).
			Str("username", username).
			Msg("rename denied: caller does not own image")
		return domain.NewDomainError(domain.ErrAccessDenied, "You do not own this image", input.ImageID)
	}

	if err := s.imageRepo.UpdateName(ctx, id, input.Name); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("image_id", input.ImageID).Msg("failed to update image name")
		return internalError(err)
	}

	s.logger.Info().
		Str("image_id", input.ImageID).
		Str("username", input.Identity.Username).
		Msg("image renamed")

	return nil
}

// CreateImageInput contains the data needed to add an image.
type CreateImageInput struct {
	// OwnerUsername is the user recorded as the image's owner.
	OwnerUsername string
	Src           string
	Name          string
}

// Create adds an image owned by an existing user.
func (s *ImageService) Create(ctx context.Context, input CreateImageInput) (*domain.Image, error) {
	if input.OwnerUsername == "" || input.Src == "" {
		return nil, invalidInput("owner and src are required")
	}
	if err := s.validateName(input.Name); err != nil {
		return nil, err
	}

	ownerID, err := s.owners.FindOwnerIDByUsername(ctx, input.OwnerUsername)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.NewDomainError(domain.ErrUserNotFound, "owner does not exist", input.OwnerUsername)
		}
		return nil, internalError(err)
	}

	image := domain.NewImage(ownerID, input.Src, input.Name)
	if err := s.imageRepo.Create(ctx, image); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create image")
		return nil, internalError(err)
	}

	s.logger.Info().
		Str("image_id", image.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("image created")

	return image, nil
}

func (s *ImageService) validateName(name string) error {
	err := domain.ValidateImageName(name, s.maxNameLength)
	if errors.Is(err, domain.ErrImageNameTooLong) {
		return domain.NewDomainError(err, fmt.Sprintf("Image name exceeds %d characters", s.maxNameLength), "")
	}
	return err
}
