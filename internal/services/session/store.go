package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/playgate/internal/dependencies/clock"
	"github.com/mcoot/playgate/internal/identity"
	"github.com/mcoot/playgate/internal/model"
)

// EventType identifies a change of authentication status
type EventType string

const (
	EventAuthenticated EventType = "authenticated"
	EventLoggedOut     EventType = "logged_out"
)

// Event is delivered to subscribers after the store has changed
type Event struct {
	Type    EventType
	Account *model.Account // set for EventAuthenticated
	At      time.Time
}

type subscriber struct {
	id int
	fn func(Event)
}

// Store is the single source of truth for whether a viewer session may play
// protected content. Only Login, CreateAccount and Logout change it.
type Store struct {
	provider identity.Provider
	clock    clock.Clock
	logger   *slog.Logger

	// held across each change and its notification so subscribers see
	// events in the order the changes were applied
	changeMu sync.Mutex

	mu            sync.RWMutex
	authenticated bool
	account       *model.Account
	subscribers   []subscriber
	nextID        int
}

// New creates a logged-out Store backed by provider
func New(provider identity.Provider, clock clock.Clock, logger *slog.Logger) *Store {
	return &Store{
		provider: provider,
		clock:    clock,
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Login authenticates with the identity provider. Logging in again as the
// account already signed in succeeds without a provider round-trip.
func (s *Store) Login(ctx context.Context, creds model.Credentials) (*model.Account, error) {
	if account := s.currentAccount(); account != nil && account.Email == identity.NormalizeEmail(creds.Email) {
		s.authenticate(account)
		return account, nil
	}

	account, err := s.provider.Authenticate(ctx, creds)
	if err != nil {
		s.logger.Info("login failed", slog.String("error", err.Error()))
		return nil, err
	}

	s.authenticate(account)
	s.logger.Info("login succeeded", slog.String("account_id", string(account.ID)))
	return account, nil
}

// CreateAccount registers a new identity and authenticates as it
func (s *Store) CreateAccount(ctx context.Context, profile model.Profile) (*model.Account, error) {
	account, err := s.provider.Register(ctx, profile)
	if err != nil {
		s.logger.Info("account creation failed", slog.String("error", err.Error()))
		return nil, err
	}

	s.authenticate(account)
	s.logger.Info("account created", slog.String("account_id", string(account.ID)))
	return account, nil
}

// Logout clears the session. It is a no-op when already logged out.
func (s *Store) Logout() {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return
	}
	s.authenticated = false
	s.account = nil
	s.mu.Unlock()

	s.logger.Info("logged out")
	s.notify(Event{Type: EventLoggedOut, At: s.clock.Now()})
}

// IsAuthenticated reports the current status
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Account returns a copy of the signed-in account, or nil
func (s *Store) Account() *model.Account {
	return s.currentAccount()
}

// Subscribe registers fn for every subsequent change. Callbacks run on the
// goroutine that made the change and must not call Login, CreateAccount or
// Logout.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) authenticate(account *model.Account) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	s.authenticated = true
	acc := *account
	s.account = &acc
	s.mu.Unlock()

	s.notify(Event{Type: EventAuthenticated, Account: &acc, At: s.clock.Now()})
}

func (s *Store) currentAccount() *model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return nil
	}
	acc := *s.account
	return &acc
}

func (s *Store) notify(evt Event) {
	s.mu.RLock()
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(evt)
	}
}
