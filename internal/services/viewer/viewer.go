package viewer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/playgate/internal/dependencies/clock"
	"github.com/mcoot/playgate/internal/identity"
	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/services/playback"
	"github.com/mcoot/playgate/internal/services/session"
)

const (
	// Depth of the intent queue; senders block once it is full
	commandBufferSize = 64

	// Auth operation names used in events and metrics
	OpLogin         = "login"
	OpCreateAccount = "create_account"
)

// Recorder receives counters from viewers. A nil Recorder is allowed.
type Recorder interface {
	PlaybackEvent(event model.PlaybackEvent)
	AuthAttempt(op string, err error)
}

type commandKind int

const (
	cmdPlayPause commandKind = iota
	cmdOpenPrompt
	cmdDismissPrompt
	cmdLogin
	cmdCreateAccount
	cmdLogout
	cmdState
)

type reply struct {
	event   model.PlaybackEvent
	account *model.Account
	state   model.ViewState
	err     error
}

type command struct {
	kind    commandKind
	creds   model.Credentials
	profile model.Profile
	reply   chan reply
}

// authResult is posted back to the loop when a round-trip returns
type authResult struct {
	cmd     command
	op      string
	account *model.Account
	err     error
}

// Viewer is one open media-detail page: a session store and a playback
// controller driven by a single event loop.
//
// Every controller mutation happens on the Run goroutine. Login and sign-up
// round-trips run on their own goroutines so the loop keeps serving intents
// while they are in flight; their outcome is fed back into the loop.
type Viewer struct {
	id      model.ViewerID
	mediaID model.MediaID

	store      *session.Store
	controller *playback.Controller
	clock      clock.Clock
	recorder   Recorder
	logger     *slog.Logger

	authCtx     context.Context
	authCancel  context.CancelFunc
	authTimeout time.Duration
	authLimiter *rate.Limiter

	commands    chan command
	authResults chan authResult
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once

	// session events queued by store callbacks, drained by the loop
	pendingMu     sync.Mutex
	pendingEvents []session.Event

	observersMu sync.RWMutex
	observers   map[int]func(model.Event)
	nextObsID   int

	lastActive atomic.Int64
	playing    atomic.Bool
	streams    atomic.Int32

	// Loop-owned
	inFlight      int
	dirty         bool
	authenticated bool
	account       *model.Account
	version       uint64
	updatedAt     time.Time
	unsubscribe   []func()
}

// Config holds per-viewer settings
type Config struct {
	// AuthTimeout bounds one login or sign-up round-trip
	AuthTimeout time.Duration
	// AuthRate and AuthBurst throttle login and sign-up attempts
	AuthRate  rate.Limit
	AuthBurst int
}

// DefaultConfig returns default viewer configuration
func DefaultConfig() Config {
	return Config{
		AuthTimeout: 15 * time.Second,
		AuthRate:    rate.Every(6 * time.Second),
		AuthBurst:   5,
	}
}

// New creates a Viewer. Call Run to start its loop.
func New(
	id model.ViewerID,
	mediaID model.MediaID,
	provider identity.Provider,
	clock clock.Clock,
	cfg Config,
	recorder Recorder,
	logger *slog.Logger,
) *Viewer {
	if cfg.AuthTimeout == 0 {
		cfg.AuthTimeout = DefaultConfig().AuthTimeout
	}
	if cfg.AuthRate == 0 || cfg.AuthBurst == 0 {
		cfg.AuthRate, cfg.AuthBurst = DefaultConfig().AuthRate, DefaultConfig().AuthBurst
	}
	logger = logger.With(slog.String("viewer_id", string(id)))

	store := session.New(provider, clock, logger)
	authCtx, authCancel := context.WithCancel(context.Background())

	v := &Viewer{
		id:          id,
		mediaID:     mediaID,
		store:       store,
		controller:  playback.NewController(store, logger),
		clock:       clock,
		recorder:    recorder,
		logger:      logger.With(slog.String("component", "viewer")),
		authCtx:     authCtx,
		authCancel:  authCancel,
		authTimeout: cfg.AuthTimeout,
		authLimiter: rate.NewLimiter(cfg.AuthRate, cfg.AuthBurst),
		commands:    make(chan command, commandBufferSize),
		authResults: make(chan authResult),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		observers:   make(map[int]func(model.Event)),
		updatedAt:   clock.Now(),
	}
	v.lastActive.Store(v.updatedAt.UnixNano())

	v.unsubscribe = append(v.unsubscribe,
		store.Subscribe(v.enqueueSessionEvent),
		v.controller.Subscribe(func(playback.State) { v.dirty = true }),
	)
	return v
}

// ID returns the viewer's identifier
func (v *Viewer) ID() model.ViewerID {
	return v.id
}

// MediaID returns the media the viewer was opened for
func (v *Viewer) MediaID() model.MediaID {
	return v.mediaID
}

// LastActive returns the time of the last intent the loop handled
func (v *Viewer) LastActive() time.Time {
	return time.Unix(0, v.lastActive.Load())
}

// Attach records an open event stream. While any stream is attached the
// viewer is never expired as idle; detach restarts the idle clock.
func (v *Viewer) Attach() (detach func()) {
	v.streams.Add(1)
	v.touch()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.streams.Add(-1)
			v.touch()
		})
	}
}

// Busy reports whether the viewer is playing or has a stream attached
func (v *Viewer) Busy() bool {
	return v.playing.Load() || v.streams.Load() > 0
}

func (v *Viewer) touch() {
	v.lastActive.Store(v.clock.Now().UnixNano())
}

// Run processes intents until Close is called
func (v *Viewer) Run() {
	defer close(v.stopped)
	v.logger.Info("viewer started", slog.String("media_id", string(v.mediaID)))

	for {
		select {
		case cmd := <-v.commands:
			v.touch()
			v.drainSessionEvents()
			r, deferred := v.handle(cmd)
			v.drainSessionEvents()
			v.publishIfDirty()
			if !deferred {
				r.state = v.snapshot()
				cmd.reply <- r
			}

		case res := <-v.authResults:
			// The store notified before the round-trip goroutine posted its
			// result, so the success is already queued
			v.drainSessionEvents()
			v.finishAuth(res)

		case <-v.done:
			for _, unsub := range v.unsubscribe {
				unsub()
			}
			v.emit(model.Event{Type: model.EventViewerClosed, Timestamp: v.clock.Now(), ViewerID: v.id, State: v.snapshot()})
			v.observersMu.Lock()
			v.observers = make(map[int]func(model.Event))
			v.observersMu.Unlock()
			v.logger.Info("viewer stopped")
			return
		}
	}
}

// Close stops the loop and cancels in-flight round-trips. It does not wait
// for the loop to exit; use Wait for that.
func (v *Viewer) Close() {
	v.closeOnce.Do(func() {
		v.authCancel()
		close(v.done)
	})
}

// Wait blocks until Run has returned
func (v *Viewer) Wait() {
	<-v.stopped
}

// RequestPlayPause toggles playback or raises the authentication prompt
func (v *Viewer) RequestPlayPause(ctx context.Context) (model.PlaybackEvent, model.ViewState, error) {
	r, err := v.submit(ctx, command{kind: cmdPlayPause})
	return r.event, r.state, err
}

// OpenAuthPrompt shows the prompt without recording a play intent
func (v *Viewer) OpenAuthPrompt(ctx context.Context) (model.ViewState, error) {
	r, err := v.submit(ctx, command{kind: cmdOpenPrompt})
	return r.state, err
}

// DismissAuthPrompt closes the prompt and cancels any deferred play intent.
// A login that is still in flight may complete, but it will not start playback.
func (v *Viewer) DismissAuthPrompt(ctx context.Context) (model.ViewState, error) {
	r, err := v.submit(ctx, command{kind: cmdDismissPrompt})
	return r.state, err
}

// Login authenticates the session. It returns once the outcome has been
// applied, so the returned state already reflects a resumed play request.
func (v *Viewer) Login(ctx context.Context, creds model.Credentials) (*model.Account, model.ViewState, error) {
	r, err := v.submit(ctx, command{kind: cmdLogin, creds: creds})
	return r.account, r.state, err
}

// CreateAccount registers and authenticates the session
func (v *Viewer) CreateAccount(ctx context.Context, profile model.Profile) (*model.Account, model.ViewState, error) {
	r, err := v.submit(ctx, command{kind: cmdCreateAccount, profile: profile})
	return r.account, r.state, err
}

// Logout ends the authenticated session and stops playback
func (v *Viewer) Logout(ctx context.Context) (model.ViewState, error) {
	r, err := v.submit(ctx, command{kind: cmdLogout})
	return r.state, err
}

// State returns the state after every previously submitted intent
func (v *Viewer) State(ctx context.Context) (model.ViewState, error) {
	r, err := v.submit(ctx, command{kind: cmdState})
	return r.state, err
}

// Subscribe registers fn for state changes, auth failures and the final
// close event. fn runs on the loop goroutine and must not block or call
// back into the viewer.
func (v *Viewer) Subscribe(fn func(model.Event)) (unsubscribe func()) {
	v.observersMu.Lock()
	id := v.nextObsID
	v.nextObsID++
	v.observers[id] = fn
	v.observersMu.Unlock()

	return func() {
		v.observersMu.Lock()
		delete(v.observers, id)
		v.observersMu.Unlock()
	}
}

// submit queues cmd and waits for its reply. Cancelling ctx abandons the
// wait but not the intent.
func (v *Viewer) submit(ctx context.Context, cmd command) (reply, error) {
	cmd.reply = make(chan reply, 1)

	select {
	case <-v.done:
		return reply{}, model.ErrViewerClosed
	default:
	}

	select {
	case v.commands <- cmd:
	case <-v.done:
		return reply{}, model.ErrViewerClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}

	select {
	case r := <-cmd.reply:
		return r, r.err
	case <-v.done:
		return reply{}, model.ErrViewerClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

// handle applies one intent. deferred is true when the reply will be sent
// later by finishAuth.
func (v *Viewer) handle(cmd command) (r reply, deferred bool) {
	switch cmd.kind {
	case cmdPlayPause:
		r.event = v.controller.RequestPlayPause()
		v.record(r.event)
	case cmdOpenPrompt:
		v.controller.OpenAuthPrompt()
	case cmdDismissPrompt:
		v.controller.OnAuthenticationDismissed()
	case cmdLogout:
		v.store.Logout()
	case cmdState:
	case cmdLogin:
		if !v.authLimiter.AllowN(v.clock.Now(), 1) {
			return v.rejectAuth(OpLogin), false
		}
		v.startAuth(cmd, OpLogin, func(ctx context.Context) (*model.Account, error) {
			return v.store.Login(ctx, cmd.creds)
		})
		return reply{}, true
	case cmdCreateAccount:
		if !v.authLimiter.AllowN(v.clock.Now(), 1) {
			return v.rejectAuth(OpCreateAccount), false
		}
		v.startAuth(cmd, OpCreateAccount, func(ctx context.Context) (*model.Account, error) {
			return v.store.CreateAccount(ctx, cmd.profile)
		})
		return reply{}, true
	}
	return r, false
}

// rejectAuth refuses a throttled attempt without calling the provider.
// Controller state is left untouched.
func (v *Viewer) rejectAuth(op string) reply {
	if v.recorder != nil {
		v.recorder.AuthAttempt(op, model.ErrTooManyAttempts)
	}
	v.logger.Warn("authentication throttled", slog.String("operation", op))
	return reply{err: model.ErrTooManyAttempts}
}

func (v *Viewer) startAuth(cmd command, op string, call func(context.Context) (*model.Account, error)) {
	v.inFlight++
	v.dirty = true

	go func() {
		ctx, cancel := context.WithTimeout(v.authCtx, v.authTimeout)
		defer cancel()

		account, err := call(ctx)
		select {
		case v.authResults <- authResult{cmd: cmd, op: op, account: account, err: err}:
		case <-v.done:
		}
	}()
}

func (v *Viewer) finishAuth(res authResult) {
	v.inFlight--
	v.dirty = true

	if v.recorder != nil {
		v.recorder.AuthAttempt(res.op, res.err)
	}

	if res.err != nil {
		// The prompt and any pending intent stay as they are so the user can retry
		v.logger.Info("authentication failed",
			slog.String("operation", res.op),
			slog.String("error", res.err.Error()))
		v.publishIfDirty()
		v.emit(model.Event{
			Type:      model.EventAuthFailed,
			Timestamp: v.clock.Now(),
			ViewerID:  v.id,
			State:     v.snapshot(),
			Payload:   model.AuthFailedPayload{Operation: res.op, Reason: res.err.Error()},
		})
		res.cmd.reply <- reply{state: v.snapshot(), err: res.err}
		return
	}

	v.publishIfDirty()
	res.cmd.reply <- reply{account: res.account, state: v.snapshot()}
}

// enqueueSessionEvent runs on whichever goroutine changed the store. The
// store is only changed by the loop itself or by a round-trip goroutine that
// posts to authResults afterwards, so the loop always drains in time.
func (v *Viewer) enqueueSessionEvent(evt session.Event) {
	v.pendingMu.Lock()
	v.pendingEvents = append(v.pendingEvents, evt)
	v.pendingMu.Unlock()
}

func (v *Viewer) drainSessionEvents() {
	v.pendingMu.Lock()
	events := v.pendingEvents
	v.pendingEvents = nil
	v.pendingMu.Unlock()

	for _, evt := range events {
		v.dirty = true
		switch evt.Type {
		case session.EventAuthenticated:
			v.authenticated = true
			v.account = evt.Account
			v.controller.OnAuthenticationSucceeded()
		case session.EventLoggedOut:
			v.authenticated = false
			v.account = nil
			v.controller.OnLoggedOut()
		}
	}
}

func (v *Viewer) publishIfDirty() {
	if !v.dirty {
		return
	}
	v.dirty = false
	v.version++
	v.updatedAt = v.clock.Now()

	state := v.snapshot()
	v.playing.Store(state.PlayState == model.PlayStatePlaying)
	v.logger.Debug("state changed",
		slog.String("play_state", string(state.PlayState)),
		slog.Bool("auth_prompt_visible", state.AuthPromptVisible),
		slog.Bool("pending_play_intent", state.PendingPlayIntent),
		slog.Bool("authenticated", state.Authenticated),
		slog.Uint64("version", state.Version))
	v.emit(model.Event{Type: model.EventStateChanged, Timestamp: state.UpdatedAt, ViewerID: v.id, State: state})
}

func (v *Viewer) snapshot() model.ViewState {
	ps := v.controller.State()
	var account *model.Account
	if v.account != nil {
		acc := *v.account
		account = &acc
	}
	return model.ViewState{
		ViewerID:          v.id,
		MediaID:           v.mediaID,
		PlayState:         ps.PlayState,
		AuthPromptVisible: ps.AuthPromptVisible,
		PendingPlayIntent: ps.PendingPlayIntent,
		PromptReason:      ps.PromptReason,
		Authenticated:     v.authenticated,
		Account:           account,
		AuthInFlight:      v.inFlight > 0,
		Version:           v.version,
		UpdatedAt:         v.updatedAt,
	}
}

func (v *Viewer) emit(evt model.Event) {
	v.observersMu.RLock()
	observers := make([]func(model.Event), 0, len(v.observers))
	for _, fn := range v.observers {
		observers = append(observers, fn)
	}
	v.observersMu.RUnlock()

	for _, fn := range observers {
		fn(evt)
	}
}

func (v *Viewer) record(event model.PlaybackEvent) {
	if v.recorder != nil {
		v.recorder.PlaybackEvent(event)
	}
}
