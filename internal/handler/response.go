package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/domain"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an ErrorResponse whose error field is the status text.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// writeServiceError maps a service error to its HTTP answer.
// Unexpected errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, err error, internalMessage string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, domain.Detail(err))
	case errors.Is(err, domain.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, "Username already taken")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, domain.Detail(err))
	case errors.Is(err, domain.ErrImageNotFound):
		writeError(w, http.StatusNotFound, "Image does not exist")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, domain.Detail(err))
	case errors.Is(err, domain.ErrImageNameTooLong):
		writeError(w, http.StatusUnprocessableEntity, domain.Detail(err))
	default:
		logger.Error().Err(err).Msg(internalMessage)
		writeError(w, http.StatusInternalServerError, internalMessage)
	}
}

var errTrailingData = errors.New("unexpected data after JSON object")

// decodeJSONObject reads a JSON object body into a map of raw fields.
// Bodies larger than maxBytes or with anything after the object are rejected.
func decodeJSONObject(w http.ResponseWriter, r *http.Request, maxBytes int64) (map[string]json.RawMessage, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	dec := json.NewDecoder(r.Body)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}

	// The object must be the whole body.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

// fieldState describes a raw JSON field.
type fieldState int

const (
	fieldMissing fieldState = iota
	fieldNotString
	fieldString
)

// stringField reports whether key is absent (or null or ""), a non-string,
// or a non-empty string, and returns the string value in the last case.
func stringField(fields map[string]json.RawMessage, key string) (string, fieldState) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return "", fieldMissing
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fieldNotString
	}
	if s == "" {
		return "", fieldMissing
	}
	return s, fieldString
}
