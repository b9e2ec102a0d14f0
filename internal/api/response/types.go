package response

import (
	"time"

	"github.com/mcoot/playgate/internal/model"
)

// Account represents the authenticated account in API responses
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AccountFromModel converts a model.Account, which may be nil
func AccountFromModel(a *model.Account) *Account {
	if a == nil {
		return nil
	}
	return &Account{
		ID:          string(a.ID),
		Email:       a.Email,
		DisplayName: a.DisplayName,
	}
}

// ViewState represents a viewer's playback and session state
type ViewState struct {
	ViewerID          string    `json:"viewer_id"`
	MediaID           string    `json:"media_id"`
	PlayState         string    `json:"play_state"`
	AuthPromptVisible bool      `json:"auth_prompt_visible"`
	PendingPlayIntent bool      `json:"pending_play_intent"`
	PromptReason      string    `json:"prompt_reason,omitempty"`
	Authenticated     bool      `json:"authenticated"`
	Account           *Account  `json:"account"`
	AuthInFlight      bool      `json:"auth_in_flight"`
	Version           uint64    `json:"version"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ViewStateFromModel converts model.ViewState
func ViewStateFromModel(s model.ViewState) ViewState {
	return ViewState{
		ViewerID:          string(s.ViewerID),
		MediaID:           string(s.MediaID),
		PlayState:         string(s.PlayState),
		AuthPromptVisible: s.AuthPromptVisible,
		PendingPlayIntent: s.PendingPlayIntent,
		PromptReason:      string(s.PromptReason),
		Authenticated:     s.Authenticated,
		Account:           AccountFromModel(s.Account),
		AuthInFlight:      s.AuthInFlight,
		Version:           s.Version,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ViewerCreated is the response for opening a viewer
type ViewerCreated struct {
	ViewerToken string    `json:"viewer_token"`
	State       ViewState `json:"state"`
}

// PlayPauseResponse is the response for a play/pause request
type PlayPauseResponse struct {
	Event string    `json:"event"`
	State ViewState `json:"state"`
}

// AuthResponse is the response for login and sign-up
type AuthResponse struct {
	Account Account   `json:"account"`
	State   ViewState `json:"state"`
}

// CastMember represents a credited performer
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
}

// Media represents a media-detail page's static content
type Media struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Year            int          `json:"year,omitempty"`
	RuntimeMinutes  int          `json:"runtime_minutes,omitempty"`
	Runtime         string       `json:"runtime,omitempty"`
	Genres          []string     `json:"genres,omitempty"`
	Synopsis        string       `json:"synopsis,omitempty"`
	SourceURL       string       `json:"source_url,omitempty"`
	Director        string       `json:"director,omitempty"`
	Writers         []string     `json:"writers,omitempty"`
	ReleaseDate     string       `json:"release_date,omitempty"`
	ApprovalPercent int          `json:"approval_percent,omitempty"`
	Cast            []CastMember `json:"cast,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// MediaFromModel converts model.Media
func MediaFromModel(m *model.Media) Media {
	cast := make([]CastMember, len(m.Cast))
	for i, c := range m.Cast {
		cast[i] = CastMember{Name: c.Name, Character: c.Character}
	}

	recs := make([]string, len(m.Recommendations))
	for i, id := range m.Recommendations {
		recs[i] = string(id)
	}

	var releaseDate string
	if !m.ReleaseDate.IsZero() {
		releaseDate = m.ReleaseDate.Format(time.DateOnly)
	}

	var runtime string
	if m.RuntimeMinutes > 0 {
		runtime = m.Runtime()
	}

	return Media{
		ID:              string(m.ID),
		Title:           m.Title,
		Year:            m.Year,
		RuntimeMinutes:  m.RuntimeMinutes,
		Runtime:         runtime,
		Genres:          m.Genres,
		Synopsis:        m.Synopsis,
		SourceURL:       m.SourceURL,
		Director:        m.Director,
		Writers:         m.Writers,
		ReleaseDate:     releaseDate,
		ApprovalPercent: m.ApprovalPercent,
		Cast:            cast,
		Recommendations: recs,
	}
}

// AuthFailed is the payload of an auth_failed stream event
type AuthFailed struct {
	Operation string    `json:"operation"`
	Reason    string    `json:"reason"`
	State     ViewState `json:"state"`
}

// Health is the response for the health check
type Health struct {
	Status  string `json:"status"`
	Viewers int    `json:"viewers"`
}
