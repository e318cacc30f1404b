package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/pkg/crypto"
	"github.com/prn-tf/gallery/internal/repository"
)

// RegisterResult is the outcome of a credential registration.
type RegisterResult int

const (
	// Created means the credential was stored.
	Created RegisterResult = iota + 1
	// AlreadyExists means the username was taken; nothing was written.
	AlreadyExists
)

// String returns the result name.
func (r RegisterResult) String() string {
	switch r {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// CredentialService stores and verifies username/password credentials.
type CredentialService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	logger   zerolog.Logger
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(userRepo repository.UserRepository, hasher PasswordHasher, logger zerolog.Logger) *CredentialService {
	return &CredentialService{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger.With().Str("service", "credential").Logger(),
	}
}

// Register stores a credential for username unless one already exists.
// An existing username short-circuits before hashing. Two concurrent calls
// for the same new username both get past the lookup; the store's unique
// constraint rejects the second insert and it reports AlreadyExists.
func (s *CredentialService) Register(ctx context.Context, username, password string) (RegisterResult, error) {
	_, err := s.userRepo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return AlreadyExists, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		s.logger.Error().Err(err).Str("username", username).Msg("failed to look up username")
		return 0, internalError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		switch {
		case errors.Is(err, crypto.ErrEmptyPassword):
			return 0, invalidInput(msgMissingCredentials)
		case errors.Is(err, crypto.ErrPasswordTooLong):
			return 0, invalidInput(msgPasswordTooLong)
		}
		s.logger.Error().Err(err).Msg("failed to hash password")
		return 0, internalError(err)
	}

	user := domain.NewUser(username, hash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			s.logger.Debug().Str("username", username).Msg("lost registration race")
			return AlreadyExists, nil
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to create user")
		return 0, internalError(err)
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("username", user.Username).
		Msg("user registered")

	return Created, nil
}

// Verify reports whether password matches the stored credential.
// Unknown usernames and wrong passwords both yield false.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (bool, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Str("username", username).Msg("user not found during authentication")
			return false, nil
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to look up credential")
		return false, internalError(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Debug().Str("username", username).Msg("invalid password during authentication")
		return false, nil
	}

	return true, nil
}
