package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/playgate/internal/api/apierr"
	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/services/viewer"
)

// ViewerCookie is the cookie a browser carries its viewer token in
const ViewerCookie = "viewer"

type contextKey string

const viewerContextKey contextKey = "viewer"

// TokenParser resolves a viewer token to the viewer it names
type TokenParser interface {
	Parse(token string) (model.ViewerID, error)
}

// ViewerLookup finds a live viewer
type ViewerLookup interface {
	Get(id model.ViewerID) (*viewer.Viewer, error)
}

// ViewerAuth requires a valid viewer token and puts the viewer in the context
func ViewerAuth(tokens TokenParser, viewers ViewerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			id, err := tokens.Parse(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			v, err := viewers.Get(id)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), viewerContextKey, v)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the viewer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	cookie, err := r.Cookie(ViewerCookie)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetViewer returns the viewer from the request context
func GetViewer(ctx context.Context) *viewer.Viewer {
	v, _ := ctx.Value(viewerContextKey).(*viewer.Viewer)
	return v
}

// MustGetViewer returns the viewer or panics
func MustGetViewer(ctx context.Context) *viewer.Viewer {
	v := GetViewer(ctx)
	if v == nil {
		panic("no viewer in context - auth middleware not applied?")
	}
	return v
}
