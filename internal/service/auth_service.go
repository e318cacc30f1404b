package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/auth"
	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/metrics"
	"github.com/prn-tf/gallery/internal/pkg/crypto"
)

// Credentials is the credential store used by AuthService.
type Credentials interface {
	Register(ctx context.Context, username, password string) (RegisterResult, error)
	Verify(ctx context.Context, username, password string) (bool, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(username string) (*auth.Token, error)
}

// AuthService composes the credential store and token codec into the
// register and login flows.
type AuthService struct {
	credentials Credentials
	tokens      TokenIssuer
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(credentials Credentials, tokens TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		logger:      logger.With().Str("service", "auth").Logger(),
	}
}

// CredentialsInput is the body of register and login requests.
type CredentialsInput struct {
	Username string
	Password string
}

// TokenEnvelope is returned by successful register and login calls.
type TokenEnvelope struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
}

func (in CredentialsInput) validate() error {
	if in.Username == "" || in.Password == "" {
		return invalidInput(msgMissingCredentials)
	}
	if len(in.Password) > crypto.MaxPasswordBytes {
		return invalidInput(msgPasswordTooLong)
	}
	return nil
}

// Register creates the credential and logs the new user in.
func (s *AuthService) Register(ctx context.Context, input CredentialsInput) (*TokenEnvelope, error) {
	if err := input.validate(); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}

	result, err := s.credentials.Register(ctx, input.Username, input.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		} else {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		}
		return nil, err
	}

	if result == AlreadyExists {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		return nil, domain.NewDomainError(domain.ErrUserAlreadyExists, "Username already taken", input.Username)
	}

	envelope, err := s.issue(input.Username)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.logger.Info().Str("username", input.Username).Msg("user registered and logged in")
	return envelope, nil
}

// Login verifies the credential and issues a token. Unknown usernames and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, input CredentialsInput) (*TokenEnvelope, error) {
	if err := input.validate(); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return nil, err
	}

	ok, err := s.credentials.Verify(ctx, input.Username, input.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}
	if !ok {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	envelope, err := s.issue(input.Username)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	s.logger.Info().Str("username", input.Username).Msg("user logged in")
	return envelope, nil
}

func (s *AuthService) issue(username string) (*TokenEnvelope, error) {
	token, err := s.tokens.Issue(username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to issue token")
		return nil, internalError(err)
	}

	return &TokenEnvelope{
		Username:  token.Subject,
		ExpiresAt: token.ExpiresAt,
		Token:     token.Signed,
	}, nil
}
