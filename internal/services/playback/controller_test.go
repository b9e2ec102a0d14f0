package playback

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/testutil"
)

type fakeAuth struct {
	authenticated bool
}

func (f *fakeAuth) IsAuthenticated() bool { return f.authenticated }

type ControllerSuite struct {
	suite.Suite
	auth       *fakeAuth
	controller *Controller
	published  []State
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.auth = &fakeAuth{}
	s.controller = NewController(s.auth, testutil.NopLogger())
	s.published = nil
	s.controller.Subscribe(func(st State) { s.published = append(s.published, st) })
}

// assertInvariant checks that a visible prompt is explained by a pending
// play intent or by the account menu
func (s *ControllerSuite) assertInvariant() {
	st := s.controller.State()
	if st.AuthPromptVisible {
		s.True(st.PendingPlayIntent || st.PromptReason == model.PromptMenu,
			"visible prompt without pending intent: %+v", st)
	}
	if st.PendingPlayIntent {
		s.True(st.AuthPromptVisible, "pending intent without prompt: %+v", st)
	}
}

func (s *ControllerSuite) TestInitialState() {
	s.Equal(State{PlayState: model.PlayStateStopped}, s.controller.State())
}

// RequestPlayPause tests

func (s *ControllerSuite) TestAuthenticatedRequestStartsPlayback() {
	s.auth.authenticated = true

	s.Equal(model.PlaybackStarted, s.controller.RequestPlayPause())
	s.Equal(model.PlayStatePlaying, s.controller.State().PlayState)
}

func (s *ControllerSuite) TestAuthenticatedTogglesOncePerRequest() {
	s.auth.authenticated = true

	expected := []model.PlayState{
		model.PlayStatePlaying, model.PlayStateStopped,
		model.PlayStatePlaying, model.PlayStateStopped,
		model.PlayStatePlaying,
	}
	for i, want := range expected {
		s.controller.RequestPlayPause()
		s.Equal(want, s.controller.State().PlayState, "after request %d", i+1)
	}
	s.Len(s.published, len(expected))
}

func (s *ControllerSuite) TestUnauthenticatedRequestIsGated() {
	event := s.controller.RequestPlayPause()

	s.Equal(model.PlaybackAuthRequired, event)
	s.Equal(State{
		PlayState:         model.PlayStateStopped,
		PendingPlayIntent: true,
		AuthPromptVisible: true,
		PromptReason:      model.PromptPlayback,
	}, s.controller.State())
	s.assertInvariant()
}

func (s *ControllerSuite) TestRepeatedGatedRequestsDoNotStack() {
	s.controller.RequestPlayPause()
	s.Equal(model.PlaybackAuthRequired, s.controller.RequestPlayPause())
	s.Equal(model.PlaybackAuthRequired, s.controller.RequestPlayPause())

	// Only the first request changed anything
	s.Len(s.published, 1)

	// A single success resolves all of them with a single start
	s.auth.authenticated = true
	s.controller.OnAuthenticationSucceeded()
	s.Equal(model.PlayStatePlaying, s.controller.State().PlayState)

	s.controller.RequestPlayPause()
	s.Equal(model.PlayStateStopped, s.controller.State().PlayState)
}

func (s *ControllerSuite) TestPlayingRequestStopsWithoutAuthCheck() {
	s.auth.authenticated = true
	s.controller.RequestPlayPause()
	s.auth.authenticated = false

	s.Equal(model.PlaybackStopped, s.controller.RequestPlayPause())
	s.Equal(State{PlayState: model.PlayStateStopped}, s.controller.State())
}

func (s *ControllerSuite) TestAuthenticatedRequestClearsMenuPrompt() {
	s.controller.OpenAuthPrompt()
	s.auth.authenticated = true

	s.controller.RequestPlayPause()

	s.Equal(State{PlayState: model.PlayStatePlaying}, s.controller.State())
}

// OnAuthenticationSucceeded tests

func (s *ControllerSuite) TestSucceededResumesDeferredPlay() {
	s.controller.RequestPlayPause()
	s.auth.authenticated = true

	s.controller.OnAuthenticationSucceeded()

	s.Equal(State{PlayState: model.PlayStatePlaying}, s.controller.State())
	s.assertInvariant()
}

func (s *ControllerSuite) TestSucceededWithoutPendingIntentDoesNotPlay() {
	s.controller.OpenAuthPrompt()
	s.auth.authenticated = true

	s.controller.OnAuthenticationSucceeded()

	s.Equal(State{PlayState: model.PlayStateStopped}, s.controller.State())
}

func (s *ControllerSuite) TestSucceededWhilePlayingKeepsPlaying() {
	s.auth.authenticated = true
	s.controller.RequestPlayPause()

	s.controller.OnAuthenticationSucceeded()

	s.Equal(State{PlayState: model.PlayStatePlaying}, s.controller.State())
}

func (s *ControllerSuite) TestSucceededWithNothingOpenPublishesNothing() {
	s.controller.OnAuthenticationSucceeded()
	s.Empty(s.published)
}

// OnAuthenticationDismissed tests

func (s *ControllerSuite) TestDismissCancelsIntent() {
	s.controller.RequestPlayPause()

	s.controller.OnAuthenticationDismissed()

	s.Equal(State{PlayState: model.PlayStateStopped}, s.controller.State())
}

func (s *ControllerSuite) TestLateSuccessAfterDismissDoesNotResume() {
	s.controller.RequestPlayPause()
	s.controller.OnAuthenticationDismissed()

	s.auth.authenticated = true
	s.controller.OnAuthenticationSucceeded()

	s.Equal(model.PlayStateStopped, s.controller.State().PlayState)
	s.False(s.controller.State().PendingPlayIntent)
}

func (s *ControllerSuite) TestDismissLeavesPlaybackUnchanged() {
	s.auth.authenticated = true
	s.controller.RequestPlayPause()
	s.controller.OpenAuthPrompt()

	s.controller.OnAuthenticationDismissed()

	s.Equal(State{PlayState: model.PlayStatePlaying}, s.controller.State())
}

func (s *ControllerSuite) TestRequestAfterDismissIsGatedAgain() {
	s.controller.RequestPlayPause()
	s.controller.OnAuthenticationDismissed()

	s.Equal(model.PlaybackAuthRequired, s.controller.RequestPlayPause())
	s.True(s.controller.State().PendingPlayIntent)
}

// OpenAuthPrompt tests

func (s *ControllerSuite) TestMenuPromptDoesNotRecordIntent() {
	s.controller.OpenAuthPrompt()

	st := s.controller.State()
	s.True(st.AuthPromptVisible)
	s.False(st.PendingPlayIntent)
	s.Equal(model.PromptMenu, st.PromptReason)
	s.assertInvariant()
}

func (s *ControllerSuite) TestMenuPromptKeepsPlaybackReason() {
	s.controller.RequestPlayPause()
	s.controller.OpenAuthPrompt()

	st := s.controller.State()
	s.Equal(model.PromptPlayback, st.PromptReason)
	s.True(st.PendingPlayIntent)
}

func (s *ControllerSuite) TestPlayRequestWhileMenuPromptOpenRecordsIntent() {
	s.controller.OpenAuthPrompt()

	s.Equal(model.PlaybackAuthRequired, s.controller.RequestPlayPause())

	st := s.controller.State()
	s.True(st.PendingPlayIntent)
	s.Equal(model.PromptPlayback, st.PromptReason)
}

// OnLoggedOut tests

func (s *ControllerSuite) TestLogoutStopsPlayback() {
	s.auth.authenticated = true
	s.controller.RequestPlayPause()

	s.auth.authenticated = false
	s.controller.OnLoggedOut()

	s.Equal(State{PlayState: model.PlayStateStopped}, s.controller.State())
}

func (s *ControllerSuite) TestLogoutRestoresGating() {
	s.auth.authenticated = true
	s.controller.RequestPlayPause()
	s.controller.RequestPlayPause()

	s.auth.authenticated = false
	s.controller.OnLoggedOut()

	s.Equal(model.PlaybackAuthRequired, s.controller.RequestPlayPause())
	s.True(s.controller.State().AuthPromptVisible)
	s.True(s.controller.State().PendingPlayIntent)
}

// Subscribe tests

func (s *ControllerSuite) TestUnsubscribeStopsDelivery() {
	var got []State
	unsubscribe := s.controller.Subscribe(func(st State) { got = append(got, st) })

	s.controller.RequestPlayPause()
	unsubscribe()
	s.controller.OnAuthenticationDismissed()

	s.Len(got, 1)
	s.Len(s.published, 2)
}

// Property: whatever order events arrive in, the prompt invariant holds
func (s *ControllerSuite) TestInvariantHoldsAcrossEventSequences() {
	steps := []func(){
		func() { s.controller.RequestPlayPause() },
		func() { s.controller.OpenAuthPrompt() },
		func() { s.controller.OnAuthenticationDismissed() },
		func() { s.auth.authenticated = true; s.controller.OnAuthenticationSucceeded() },
		func() { s.auth.authenticated = false; s.controller.OnLoggedOut() },
	}

	// Every sequence of length 4 over the five events
	var run func(depth int, seq []int)
	run = func(depth int, seq []int) {
		if depth == 0 {
			s.SetupTest()
			for _, i := range seq {
				steps[i]()
				s.assertInvariant()
			}
			return
		}
		for i := range steps {
			run(depth-1, append(seq, i))
		}
	}
	run(4, nil)
}
