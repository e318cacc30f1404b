package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/service"
)

// AuthFlows is the register/login orchestration used by AuthHandler.
type AuthFlows interface {
	Register(ctx context.Context, input service.CredentialsInput) (*service.TokenEnvelope, error)
	Login(ctx context.Context, input service.CredentialsInput) (*service.TokenEnvelope, error)
}

// AuthHandler serves the public registration and login endpoints.
type AuthHandler struct {
	auth        AuthFlows
	maxBodySize int64
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth AuthFlows, maxBodySize int64, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		maxBodySize: maxBodySize,
		logger:      logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers auth routes. They are not behind the auth gate.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	envelope, err := h.auth.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, envelope)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	envelope, err := h.auth.Login(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to login user")
		return
	}

	writeJSON(w, http.StatusOK, envelope)
}

// readCredentials decodes {"username": string, "password": string}.
// It writes the 400 answer itself and returns false on bad input.
func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (service.CredentialsInput, bool) {
	fields, err := decodeJSONObject(w, r, h.maxBodySize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return service.CredentialsInput{}, false
	}

	username, userState := stringField(fields, "username")
	password, passState := stringField(fields, "password")

	switch {
	case userState == fieldMissing || passState == fieldMissing:
		writeError(w, http.StatusBadRequest, "Missing username or password")
		return service.CredentialsInput{}, false
	case userState == fieldNotString || passState == fieldNotString:
		writeError(w, http.StatusBadRequest, "Username and password must be strings")
		return service.CredentialsInput{}, false
	}

	return service.CredentialsInput{Username: username, Password: password}, true
}
