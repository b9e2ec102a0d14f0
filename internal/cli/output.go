package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case ViewState:
		o.printViewState(v)
	case ViewerStarted:
		fmt.Printf("Viewer token: %s\n", v.ViewerToken)
		o.printViewState(v.State)
	case PlayPauseResult:
		o.printPlayPause(v)
	case AuthResult:
		o.printAccount(v.Account)
		o.printViewState(v.State)
	case Media:
		o.printMedia(v)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
		fmt.Printf("Viewers: %d\n", v.Viewers)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// ViewState response type
type ViewState struct {
	ViewerID          string   `json:"viewer_id"`
	MediaID           string   `json:"media_id"`
	PlayState         string   `json:"play_state"`
	AuthPromptVisible bool     `json:"auth_prompt_visible"`
	PendingPlayIntent bool     `json:"pending_play_intent"`
	PromptReason      string   `json:"prompt_reason,omitempty"`
	Authenticated     bool     `json:"authenticated"`
	Account           *Account `json:"account"`
	AuthInFlight      bool     `json:"auth_in_flight"`
	Version           uint64   `json:"version"`
}

// ViewerStarted is returned when a viewer is created
type ViewerStarted struct {
	ViewerToken string    `json:"viewer_token"`
	State       ViewState `json:"state"`
}

// PlayPauseResult response type
type PlayPauseResult struct {
	Event string    `json:"event"`
	State ViewState `json:"state"`
}

// AuthResult response type
type AuthResult struct {
	Account Account   `json:"account"`
	State   ViewState `json:"state"`
}

// CastMember response type
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
}

// Media response type
type Media struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Year            int          `json:"year,omitempty"`
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

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Viewers int    `json:"viewers"`
}

func (o *Output) printAccount(a Account) {
	fmt.Printf("Account: %s <%s>\n", a.DisplayName, a.Email)
}

func (o *Output) printViewState(s ViewState) {
	fmt.Printf("Media: %s\n", s.MediaID)
	fmt.Printf("Playback: %s\n", s.PlayState)

	if s.Authenticated && s.Account != nil {
		fmt.Printf("Signed in: %s\n", s.Account.Email)
	} else {
		fmt.Println("Signed in: no")
	}

	if s.AuthPromptVisible {
		prompt := "Sign-in prompt: open"
		if s.PromptReason != "" {
			prompt += " (" + s.PromptReason + ")"
		}
		fmt.Println(prompt)
	}
	if s.PendingPlayIntent {
		fmt.Println("Playback will start after sign-in")
	}
	if s.AuthInFlight {
		fmt.Println("Sign-in in progress")
	}
}

func (o *Output) printPlayPause(p PlayPauseResult) {
	switch p.Event {
	case "started":
		fmt.Println("Playback started")
	case "stopped":
		fmt.Println("Playback stopped")
	case "auth_required":
		fmt.Println("Sign in to watch: use 'playgate login' or 'playgate signup'")
	default:
		fmt.Printf("Result: %s\n", p.Event)
	}
	o.printViewState(p.State)
}

func (o *Output) printMedia(m Media) {
	fmt.Printf("%s (%d)\n", m.Title, m.Year)
	if m.Runtime != "" {
		fmt.Printf("Runtime: %s\n", m.Runtime)
	}
	if len(m.Genres) > 0 {
		fmt.Printf("Genres: %s\n", strings.Join(m.Genres, ", "))
	}
	if m.ApprovalPercent > 0 {
		fmt.Printf("Approval: %d%%\n", m.ApprovalPercent)
	}
	if m.Director != "" {
		fmt.Printf("Director: %s\n", m.Director)
	}
	if len(m.Writers) > 0 {
		fmt.Printf("Writers: %s\n", strings.Join(m.Writers, ", "))
	}
	if m.Synopsis != "" {
		fmt.Printf("\n%s\n", m.Synopsis)
	}
	if len(m.Cast) > 0 {
		fmt.Println("\nCast:")
		for _, c := range m.Cast {
			if c.Character != "" {
				fmt.Printf("  - %s as %s\n", c.Name, c.Character)
			} else {
				fmt.Printf("  - %s\n", c.Name)
			}
		}
	}
	if len(m.Recommendations) > 0 {
		fmt.Printf("\nMore like this: %s\n", strings.Join(m.Recommendations, ", "))
	}
}
