package playback

import (
	"log/slog"
	"sync"

	"github.com/mcoot/playgate/internal/model"
)

// Authenticator is the read side of the session store
type Authenticator interface {
	IsAuthenticated() bool
}

// State is the controller's observable state.
//
// AuthPromptVisible implies PendingPlayIntent unless the prompt was opened
// from the account menu (PromptReason == model.PromptMenu).
type State struct {
	PlayState         model.PlayState
	PendingPlayIntent bool
	AuthPromptVisible bool
	PromptReason      model.PromptReason
}

// Controller gates playback behind authentication and replays a play
// request that was interrupted by the authentication prompt
type Controller struct {
	auth   Authenticator
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	subscribers []func(State)
}

// NewController creates a stopped Controller with no prompt open
func NewController(auth Authenticator, logger *slog.Logger) *Controller {
	return &Controller{
		auth:   auth,
		logger: logger.With(slog.String("component", "playback")),
		state:  State{PlayState: model.PlayStateStopped},
	}
}

// RequestPlayPause toggles playback. When stopped and not authenticated the
// request is deferred and the prompt is raised instead; this is not an error.
func (c *Controller) RequestPlayPause() model.PlaybackEvent {
	var event model.PlaybackEvent

	c.apply(func(s *State) {
		if s.PlayState == model.PlayStatePlaying {
			s.PlayState = model.PlayStateStopped
			event = model.PlaybackStopped
			return
		}

		if c.auth.IsAuthenticated() {
			s.PlayState = model.PlayStatePlaying
			s.clearPrompt()
			event = model.PlaybackStarted
			return
		}

		// Flags, not counters: a second request while the prompt is open changes nothing
		s.PendingPlayIntent = true
		s.AuthPromptVisible = true
		s.PromptReason = model.PromptPlayback
		event = model.PlaybackAuthRequired
	})

	c.logger.Debug("play/pause requested", slog.String("event", string(event)))
	return event
}

// OnAuthenticationSucceeded closes the prompt and resumes playback if, and
// only if, a gated play request is still pending
func (c *Controller) OnAuthenticationSucceeded() {
	c.apply(func(s *State) {
		if s.PendingPlayIntent && s.PlayState == model.PlayStateStopped {
			s.PlayState = model.PlayStatePlaying
			c.logger.Debug("resuming deferred play request")
		}
		s.clearPrompt()
	})
}

// OnAuthenticationDismissed drops the deferred intent; playback is untouched
func (c *Controller) OnAuthenticationDismissed() {
	c.apply(func(s *State) {
		s.clearPrompt()
	})
}

// OpenAuthPrompt shows the prompt for a reason other than playback, such as
// the account menu. It never records a play intent.
func (c *Controller) OpenAuthPrompt() {
	c.apply(func(s *State) {
		if s.AuthPromptVisible {
			return
		}
		s.AuthPromptVisible = true
		s.PromptReason = model.PromptMenu
	})
}

// OnLoggedOut stops playback and drops any prompt; protected content does
// not outlive the session
func (c *Controller) OnLoggedOut() {
	c.apply(func(s *State) {
		s.PlayState = model.PlayStateStopped
		s.clearPrompt()
	})
}

// State returns a snapshot
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive the new state after every change
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	idx := len(c.subscribers) - 1
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.subscribers[idx] = nil
		c.mu.Unlock()
	}
}

// apply runs mutate under the lock and notifies subscribers if the state changed
func (c *Controller) apply(mutate func(*State)) {
	c.mu.Lock()
	before := c.state
	mutate(&c.state)
	after := c.state
	subs := make([]func(State), len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range subs {
		if fn != nil {
			fn(after)
		}
	}
}

func (s *State) clearPrompt() {
	s.PendingPlayIntent = false
	s.AuthPromptVisible = false
	s.PromptReason = model.PromptNone
}
