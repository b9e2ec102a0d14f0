package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playgate/internal/api/apierr"
	"github.com/mcoot/playgate/internal/api/response"
	"github.com/mcoot/playgate/internal/catalog"
	"github.com/mcoot/playgate/internal/factory"
	"github.com/mcoot/playgate/internal/identity"
	"github.com/mcoot/playgate/internal/testutil"
	"github.com/mcoot/playgate/internal/token"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T, mode identity.Mode) *testServer {
	t.Helper()

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{
		Logger:       testutil.NopLogger(),
		IdentityMode: mode,
		Local:        identity.LocalConfig{BcryptCost: 4},
		Token:        token.Config{Secret: "api-test-secret"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{handler: app.Router(), app: app}
}

func (ts *testServer) request(method, path string, body any, viewerToken string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if viewerToken != "" {
		req.Header.Set("Authorization", "Bearer "+viewerToken)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) startViewer(t *testing.T) response.ViewerCreated {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/viewers", map[string]string{"media_id": string(catalog.DefaultMediaID)}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created response.ViewerCreated
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ViewerToken)
	return created
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	ts.startViewer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Viewers)
}

func TestGetMedia(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)

	rr := ts.request(http.MethodGet, "/api/v1/media/"+string(catalog.DefaultMediaID), nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	media := decode[response.Media](t, rr)
	assert.Equal(t, "Interestelar", media.Title)
	assert.Equal(t, "2h 49min", media.Runtime)
	assert.NotEmpty(t, media.SourceURL)
	assert.NotEmpty(t, media.Cast)

	rr = ts.request(http.MethodGet, "/api/v1/media/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeMediaNotFound, errorCode(t, rr))
}

func TestCreateViewer(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)

	created := ts.startViewer(t)
	assert.Equal(t, "stopped", created.State.PlayState)
	assert.False(t, created.State.Authenticated)
	assert.False(t, created.State.AuthPromptVisible)
	assert.Equal(t, string(catalog.DefaultMediaID), created.State.MediaID)
}

func TestCreateViewerValidation(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)

	rr := ts.request(http.MethodPost, "/api/v1/viewers", map[string]string{"media_id": "nope"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/viewers", map[string]string{"title": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestCreateViewerDefaultsMedia(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)

	rr := ts.request(http.MethodPost, "/api/v1/viewers", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, string(catalog.DefaultMediaID), decode[response.ViewerCreated](t, rr).State.MediaID)
}

func TestViewerRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)

	rr := ts.request(http.MethodGet, "/api/v1/viewer", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGatedPlayThenLoginResumes(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken

	rr := ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)
	require.Equal(t, http.StatusOK, rr.Code)
	pp := decode[response.PlayPauseResponse](t, rr)
	assert.Equal(t, "auth_required", pp.Event)
	assert.Equal(t, "stopped", pp.State.PlayState)
	assert.True(t, pp.State.AuthPromptVisible)
	assert.True(t, pp.State.PendingPlayIntent)
	assert.Equal(t, "playback", pp.State.PromptReason)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/login", map[string]string{
		"email":    "ana@example.com",
		"password": "qualquer",
	}, tok)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	auth := decode[response.AuthResponse](t, rr)
	assert.Equal(t, "ana@example.com", auth.Account.Email)
	assert.Equal(t, "playing", auth.State.PlayState)
	assert.True(t, auth.State.Authenticated)
	assert.False(t, auth.State.AuthPromptVisible)
	assert.False(t, auth.State.PendingPlayIntent)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)
	require.Equal(t, http.StatusOK, rr.Code)
	pp = decode[response.PlayPauseResponse](t, rr)
	assert.Equal(t, "stopped", pp.Event)
	assert.Equal(t, "stopped", pp.State.PlayState)
}

func TestMenuPromptDoesNotStartPlayback(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken

	rr := ts.request(http.MethodPost, "/api/v1/viewer/auth-prompt", nil, tok)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[response.ViewState](t, rr)
	assert.True(t, st.AuthPromptVisible)
	assert.False(t, st.PendingPlayIntent)
	assert.Equal(t, "menu", st.PromptReason)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/accounts", map[string]string{
		"display_name": "Ana",
		"email":        "ana@example.com",
		"password":     "segredo",
	}, tok)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	auth := decode[response.AuthResponse](t, rr)
	assert.Equal(t, "Ana", auth.Account.DisplayName)
	assert.Equal(t, "stopped", auth.State.PlayState)
	assert.False(t, auth.State.AuthPromptVisible)
}

func TestDismissClearsIntent(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken

	ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)

	rr := ts.request(http.MethodDelete, "/api/v1/viewer/auth-prompt", nil, tok)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[response.ViewState](t, rr)
	assert.False(t, st.AuthPromptVisible)
	assert.False(t, st.PendingPlayIntent)

	// Logging in afterwards does not start playback on its own
	rr = ts.request(http.MethodPost, "/api/v1/viewer/login", map[string]string{"email": "a@b.c", "password": "x"}, tok)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "stopped", decode[response.AuthResponse](t, rr).State.PlayState)
}

func TestLogoutStopsPlayback(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken

	ts.request(http.MethodPost, "/api/v1/viewer/login", map[string]string{"email": "a@b.c", "password": "x"}, tok)
	rr := ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)
	require.Equal(t, "started", decode[response.PlayPauseResponse](t, rr).Event)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/logout", nil, tok)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[response.ViewState](t, rr)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.Account)
	assert.Equal(t, "stopped", st.PlayState)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)
	assert.Equal(t, "auth_required", decode[response.PlayPauseResponse](t, rr).Event)
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken

	rr := ts.request(http.MethodPost, "/api/v1/viewer/login", map[string]string{"email": "a@b.c"}, tok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/accounts", map[string]string{"email": "a@b.c", "password": "x"}, tok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLocalIdentityErrors(t *testing.T) {
	ts := newTestServer(t, identity.ModeLocal)
	tok := ts.startViewer(t).ViewerToken

	ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)

	rr := ts.request(http.MethodPost, "/api/v1/viewer/login", map[string]string{"email": "ana@example.com", "password": "x"}, tok)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))

	// Failure leaves the gate armed
	rr = ts.request(http.MethodGet, "/api/v1/viewer", nil, tok)
	st := decode[response.ViewState](t, rr)
	assert.True(t, st.AuthPromptVisible)
	assert.True(t, st.PendingPlayIntent)

	profile := map[string]string{"display_name": "Ana", "email": "ana@example.com", "password": "segredo"}
	rr = ts.request(http.MethodPost, "/api/v1/viewer/accounts", profile, tok)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "playing", decode[response.AuthResponse](t, rr).State.PlayState)

	rr = ts.request(http.MethodPost, "/api/v1/viewer/accounts", profile, tok)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAccountExists, errorCode(t, rr))
}

func TestCreateAccountRejectsOverlongPassword(t *testing.T) {
	ts := newTestServer(t, identity.ModeLocal)
	tok := ts.startViewer(t).ViewerToken

	profile := map[string]string{
		"display_name": "Ana",
		"email":        "ana@example.com",
		"password":     strings.Repeat("x", identity.MaxPasswordBytes+1),
	}
	rr := ts.request(http.MethodPost, "/api/v1/viewer/accounts", profile, tok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))

	profile["password"] = strings.Repeat("x", identity.MaxPasswordBytes)
	rr = ts.request(http.MethodPost, "/api/v1/viewer/accounts", profile, tok)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestLoginThrottled(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken
	creds := map[string]string{"email": "a@b.c", "password": "x"}

	for i := 0; i < 5; i++ {
		rr := ts.request(http.MethodPost, "/api/v1/viewer/login", creds, tok)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := ts.request(http.MethodPost, "/api/v1/viewer/login", creds, tok)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, apierr.CodeTooManyAttempts, errorCode(t, rr))

	// Other viewers have their own allowance
	other := ts.startViewer(t).ViewerToken
	rr = ts.request(http.MethodPost, "/api/v1/viewer/login", creds, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCookieAuth(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)

	rr := ts.request(http.MethodPost, "/api/v1/viewers", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/viewer", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEndViewer(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken

	rr := ts.request(http.MethodDelete, "/api/v1/viewer", nil, tok)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/viewer", nil, tok)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeViewerNotFound, errorCode(t, rr))
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, "trace-123", rr.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	tok := ts.startViewer(t).ViewerToken
	ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `playgate_play_pause_requests_total{event="auth_required"} 1`)
	assert.Contains(t, body, "playgate_active_viewers 1")
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t, identity.ModeAcceptAll)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	tok := ts.startViewer(t).ViewerToken

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/api/v1/viewer/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan [2]string, 16)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		var name string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				events <- [2]string{name, strings.TrimPrefix(line, "data: ")}
			}
		}
	}()

	next := func() [2]string {
		select {
		case evt, ok := <-events:
			require.True(t, ok, "stream ended early")
			return evt
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return [2]string{}
		}
	}

	assert.Equal(t, "connected", next()[0])
	snapshot := next()
	assert.Equal(t, "state", snapshot[0])

	rr := ts.request(http.MethodPost, "/api/v1/viewer/play-pause", nil, tok)
	require.Equal(t, http.StatusOK, rr.Code)

	evt := next()
	require.Equal(t, "state", evt[0])
	var st response.ViewState
	require.NoError(t, json.Unmarshal([]byte(evt[1]), &st))
	assert.True(t, st.AuthPromptVisible)
	assert.True(t, st.PendingPlayIntent)

	ts.request(http.MethodDelete, "/api/v1/viewer", nil, tok)
	for {
		evt = next()
		if evt[0] != "state" {
			break
		}
	}
	assert.Equal(t, "closed", evt[0])
}
