package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window of issued tokens.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig is the immutable configuration of a TokenCodec.
// It is built once at startup and injected.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 signing key. Required.
	Secret []byte

	// TTL is the validity window. Defaults to DefaultTokenTTL.
	TTL time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Token is an issued bearer token.
type Token struct {
	// Subject is the username the token was issued to.
	Subject string

	// IssuedAt is when the token was signed.
	IssuedAt time.Time

	// ExpiresAt is always IssuedAt plus the configured TTL.
	ExpiresAt time.Time

	// Signed is the compact JWT presented by clients.
	Signed string
}

// tokenClaims is the JWT payload. The username travels in the standard
// "sub" claim.
type tokenClaims struct {
	jwt.RegisteredClaims
}

// TokenValidator validates bearer tokens and returns the username they carry.
type TokenValidator interface {
	Validate(raw string) (string, error)
}

// TokenCodec issues and validates HS256-signed, time-limited bearer tokens.
type TokenCodec struct {
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
	parser    *jwt.Parser
	validator *jwt.Validator
}

// NewTokenCodec creates a codec. A missing secret is a configuration error
// and must abort startup.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenCodec{
		secret: secret,
		ttl:    cfg.TTL,
		now:    cfg.Now,
		// Claims are checked separately, after the signature, so that an
		// expired token is only reported as such when it is authentic.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
		validator: jwt.NewValidator(
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(cfg.Now),
		),
	}, nil
}

// TTL returns the validity window of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a new token for username valid from now for the configured TTL.
func (c *TokenCodec) Issue(username string) (*Token, error) {
	if username == "" {
		return nil, ErrEmptySubject
	}

	// JWT numeric dates have second precision.
	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenSigning, err)
	}

	return &Token{
		Subject:   username,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Signed:    signed,
	}, nil
}

// Validate verifies the token signature and claims and returns its subject.
// It returns ErrTokenExpired for authentic tokens past their expiry and
// ErrTokenInvalid for everything else that is not acceptable.
func (c *TokenCodec) Validate(raw string) (string, error) {
	if raw == "" {
		return "", ErrTokenInvalid
	}

	claims := &tokenClaims{}
	if _, err := c.parser.ParseWithClaims(raw, claims, c.keyFunc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if err := c.validator.Validate(claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.IssuedAt == nil {
		return "", fmt.Errorf("%w: missing issued-at", ErrTokenInvalid)
	}

	return claims.Subject, nil
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

// Ensure TokenCodec implements TokenValidator.
var _ TokenValidator = (*TokenCodec)(nil)
