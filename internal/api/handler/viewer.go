package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/playgate/internal/api/middleware"
	"github.com/mcoot/playgate/internal/api/request"
	"github.com/mcoot/playgate/internal/api/response"
	"github.com/mcoot/playgate/internal/catalog"
	"github.com/mcoot/playgate/internal/identity"
	httpmw "github.com/mcoot/playgate/internal/middleware"
	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/services/viewer"
	"github.com/mcoot/playgate/internal/sse"
)

// Catalog reports which media can be opened
type Catalog interface {
	Exists(id model.MediaID) bool
}

// TokenIssuer mints viewer tokens
type TokenIssuer interface {
	Issue(viewerID model.ViewerID, mediaID model.MediaID) (string, error)
}

// ViewerHandler handles viewer endpoints
type ViewerHandler struct {
	viewers  *viewer.Manager
	catalog  Catalog
	tokens   TokenIssuer
	hubs     *sse.HubManager
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(
	viewers *viewer.Manager,
	catalog Catalog,
	tokens TokenIssuer,
	hubs *sse.HubManager,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *ViewerHandler {
	return &ViewerHandler{
		viewers:  viewers,
		catalog:  catalog,
		tokens:   tokens,
		hubs:     hubs,
		tokenTTL: tokenTTL,
		logger:   logger.With(slog.String("component", "viewer-handler")),
	}
}

// Create handles POST /api/v1/viewers
func (h *ViewerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateViewerRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	mediaID := model.MediaID(req.MediaID)
	if mediaID == "" {
		mediaID = catalog.DefaultMediaID
	}
	if !h.catalog.Exists(mediaID) {
		WriteError(w, model.ErrMediaNotFound)
		return
	}

	v, err := h.viewers.Create(mediaID)
	if err != nil {
		WriteError(w, err)
		return
	}

	token, err := h.tokens.Issue(v.ID(), mediaID)
	if err != nil {
		h.logger.Error("failed to issue viewer token", slog.Any("error", err))
		_ = h.viewers.Remove(v.ID())
		WriteError(w, err)
		return
	}

	state, err := v.State(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.ViewerCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusCreated, response.ViewerCreated{
		ViewerToken: token,
		State:       response.ViewStateFromModel(state),
	})
}

// Get handles GET /api/v1/viewer
func (h *ViewerHandler) Get(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	state, err := v.State(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ViewStateFromModel(state))
}

// End handles DELETE /api/v1/viewer
func (h *ViewerHandler) End(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	if err := h.viewers.Remove(v.ID()); err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.ViewerCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	response.NoContent(w)
}

// PlayPause handles POST /api/v1/viewer/play-pause
func (h *ViewerHandler) PlayPause(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	event, state, err := v.RequestPlayPause(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayPauseResponse{
		Event: string(event),
		State: response.ViewStateFromModel(state),
	})
}

// OpenPrompt handles POST /api/v1/viewer/auth-prompt
func (h *ViewerHandler) OpenPrompt(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	state, err := v.OpenAuthPrompt(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ViewStateFromModel(state))
}

// DismissPrompt handles DELETE /api/v1/viewer/auth-prompt
func (h *ViewerHandler) DismissPrompt(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	state, err := v.DismissAuthPrompt(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ViewStateFromModel(state))
}

// Login handles POST /api/v1/viewer/login
func (h *ViewerHandler) Login(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	var req request.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	account, state, err := v.Login(r.Context(), model.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.AuthResponse{
		Account: *response.AccountFromModel(account),
		State:   response.ViewStateFromModel(state),
	})
}

// CreateAccount handles POST /api/v1/viewer/accounts
func (h *ViewerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	var req request.CreateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}
	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}
	if len(req.Password) > identity.MaxPasswordBytes {
		WriteError(w, model.ErrPasswordTooLong)
		return
	}

	account, state, err := v.CreateAccount(r.Context(), model.Profile{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.AuthResponse{
		Account: *response.AccountFromModel(account),
		State:   response.ViewStateFromModel(state),
	})
}

// Logout handles POST /api/v1/viewer/logout
func (h *ViewerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	state, err := v.Logout(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ViewStateFromModel(state))
}

// Events handles GET /api/v1/viewer/events
func (h *ViewerHandler) Events(w http.ResponseWriter, r *http.Request) {
	v := middleware.MustGetViewer(r.Context())

	hub := h.hubs.GetHub(v.ID())
	if hub == nil {
		WriteError(w, model.ErrViewerClosed)
		return
	}

	detach := v.Attach()
	defer detach()

	snapshot := func() (string, error) {
		state, err := v.State(r.Context())
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(response.ViewStateFromModel(state))
		return string(data), err
	}
	sse.ServeSSE(w, r, hub, httpmw.GetRequestID(r.Context()), snapshot)
}
