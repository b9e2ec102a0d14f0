package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playgate/internal/api/response"
	"github.com/mcoot/playgate/internal/model"
)

// MediaSource looks up media descriptions
type MediaSource interface {
	Get(ctx context.Context, id model.MediaID) (*model.Media, error)
}

// MediaHandler serves static media descriptions
type MediaHandler struct {
	media MediaSource
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media MediaSource) *MediaHandler {
	return &MediaHandler{media: media}
}

// Get handles GET /api/v1/media/{id}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.MediaID(mux.Vars(r)["id"])

	m, err := h.media.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MediaFromModel(m))
}
