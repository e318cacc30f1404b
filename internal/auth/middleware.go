package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/metrics"
)

const (
	// AuthorizationHeader is the HTTP header carrying the bearer token.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the authorization scheme accepted by the gate.
	BearerScheme = "Bearer"
)

// Middleware creates the auth gate. Every request passing through it must
// carry a valid bearer token; the token's subject is attached to the request
// context as the Identity. All failures get the same 401 answer so callers
// cannot tell a missing token from an expired or forged one.
func Middleware(validator TokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth_gate").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractBearerToken(r)
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("missing").Inc()
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer token missing or malformed")
				writeUnauthorized(w)
				return
			}

			username, err := validator.Validate(raw)
			if err != nil {
				result := "invalid"
				if errors.Is(err, ErrTokenExpired) {
					result = "expired"
				}
				metrics.TokenValidationsTotal.WithLabelValues(result).Inc()
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer token rejected")
				writeUnauthorized(w)
				return
			}

			metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()

			ctx := SetIdentity(r.Context(), &Identity{Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(AuthorizationHeader)
	if header == "" {
		return "", ErrInvalidAuthorizationHeader
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], BearerScheme) {
		return "", ErrInvalidAuthorizationHeader
	}

	return parts[1], nil
}

// writeUnauthorized writes the uniform authentication failure response.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", BearerScheme)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": ErrUnauthenticated.Error(),
	})
}
