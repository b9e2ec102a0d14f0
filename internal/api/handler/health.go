package handler

import (
	"net/http"

	"github.com/mcoot/playgate/internal/api/response"
)

// ViewerCounter reports how many viewers are open
type ViewerCounter interface {
	Count() int
}

// HealthHandler serves the liveness check
type HealthHandler struct {
	viewers ViewerCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(viewers ViewerCounter) *HealthHandler {
	return &HealthHandler{viewers: viewers}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:  "ok",
		Viewers: h.viewers.Count(),
	})
}
