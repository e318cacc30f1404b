package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/auth"
	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/service"
)

// Images is the gallery service used by ImageHandler.
type Images interface {
	List(ctx context.Context, search string) ([]*domain.ImageWithAuthor, error)
	Get(ctx context.Context, rawID string) (*domain.ImageWithAuthor, error)
	Rename(ctx context.Context, input service.RenameInput) error
}

// ImageHandler serves the protected gallery endpoints.
type ImageHandler struct {
	images      Images
	maxBodySize int64
	logger      zerolog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images Images, maxBodySize int64, logger zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		images:      images,
		maxBodySize: maxBodySize,
		logger:      logger.With().Str("handler", "image").Logger(),
	}
}

// RegisterRoutes registers image routes relative to the mount point.
func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/images", h.handleList)
	r.Get("/images/{id}", h.handleGet)
	r.Put("/images/{id}", h.handleRename)
}

func (h *ImageHandler) handleList(w http.ResponseWriter, r *http.Request) {
	values, present := r.URL.Query()["search"]
	if present && len(values) != 1 {
		writeError(w, http.StatusBadRequest, "Search parameter must be a single string value")
		return
	}

	search := ""
	if present {
		search = values[0]
	}

	images, err := h.images.List(r.Context(), search)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch images")
		return
	}

	writeJSON(w, http.StatusOK, images)
}

func (h *ImageHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	image, err := h.images.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch image")
		return
	}

	writeJSON(w, http.StatusOK, image)
}

func (h *ImageHandler) handleRename(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	fields, err := decodeJSONObject(w, r, h.maxBodySize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}

	name, state := stringField(fields, "name")
	switch state {
	case fieldMissing:
		writeError(w, http.StatusBadRequest, "Name field is required")
		return
	case fieldNotString:
		writeError(w, http.StatusBadRequest, "Name field must be a string")
		return
	}

	err = h.images.Rename(r.Context(), service.RenameInput{
		Identity: identity,
		ImageID:  chi.URLParam(r, "id"),
		Name:     name,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update image")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
