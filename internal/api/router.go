package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/playgate/internal/api/handler"
	"github.com/mcoot/playgate/internal/api/middleware"
	"github.com/mcoot/playgate/internal/catalog"
	httpmw "github.com/mcoot/playgate/internal/middleware"
	"github.com/mcoot/playgate/internal/services/viewer"
	"github.com/mcoot/playgate/internal/sse"
	"github.com/mcoot/playgate/internal/token"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Viewers  *viewer.Manager
	Catalog  *catalog.Service
	Tokens   *token.Issuer
	TokenTTL time.Duration
	Hubs     *sse.HubManager

	// Metrics is served at /metrics when set
	Metrics http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	viewerHandler := handler.NewViewerHandler(cfg.Viewers, cfg.Catalog, cfg.Tokens, cfg.Hubs, cfg.TokenTTL, cfg.Logger)
	mediaHandler := handler.NewMediaHandler(cfg.Catalog)
	healthHandler := handler.NewHealthHandler(cfg.Viewers)

	viewerAuth := middleware.ViewerAuth(cfg.Tokens, cfg.Viewers)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(httpmw.RequestID)
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(httpmw.Logging(cfg.Logger))

	// Open routes
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/media/{id}", mediaHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/viewers", viewerHandler.Create).Methods(http.MethodPost)

	// Routes acting on the caller's viewer
	v := api.PathPrefix("/viewer").Subrouter()
	v.Use(viewerAuth)
	v.HandleFunc("", viewerHandler.Get).Methods(http.MethodGet)
	v.HandleFunc("", viewerHandler.End).Methods(http.MethodDelete)
	v.HandleFunc("/play-pause", viewerHandler.PlayPause).Methods(http.MethodPost)
	v.HandleFunc("/auth-prompt", viewerHandler.OpenPrompt).Methods(http.MethodPost)
	v.HandleFunc("/auth-prompt", viewerHandler.DismissPrompt).Methods(http.MethodDelete)
	v.HandleFunc("/login", viewerHandler.Login).Methods(http.MethodPost)
	v.HandleFunc("/accounts", viewerHandler.CreateAccount).Methods(http.MethodPost)
	v.HandleFunc("/logout", viewerHandler.Logout).Methods(http.MethodPost)
	v.HandleFunc("/events", viewerHandler.Events).Methods(http.MethodGet)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	return r
}
