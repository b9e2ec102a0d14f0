package viewer

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/playgate/internal/dependencies/clock"
	"github.com/mcoot/playgate/internal/dependencies/random"
	"github.com/mcoot/playgate/internal/identity"
	"github.com/mcoot/playgate/internal/model"
)

const (
	// ViewerIDLength is the length of generated viewer IDs
	ViewerIDLength = 16
	// ViewerIDAlphabet is the characters used in viewer IDs
	ViewerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	maxIDAttempts = 10
)

// ErrIDExhausted is returned when no unused viewer ID could be generated
var ErrIDExhausted = errors.New("could not generate unique viewer id")

// ManagerConfig holds Manager settings
type ManagerConfig struct {
	// IdleTTL is how long a viewer may go without an intent before cleanup
	IdleTTL time.Duration
	Viewer  Config
}

// DefaultManagerConfig returns default manager configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		IdleTTL: 30 * time.Minute,
		Viewer:  DefaultConfig(),
	}
}

// Observer is told when viewers come and go
type Observer interface {
	ViewerOpened(v *Viewer)
	ViewerClosed(v *Viewer)
}

// Manager is the registry of live viewers
type Manager struct {
	viewers  map[model.ViewerID]*Viewer
	mu       sync.RWMutex
	provider identity.Provider
	clock    clock.Clock
	random   random.Random
	cfg      ManagerConfig
	recorder Recorder
	logger   *slog.Logger
	// base logger handed to viewers, which add their own component
	viewerLogger *slog.Logger

	observers []Observer
}

// NewManager creates a new Manager
func NewManager(
	provider identity.Provider,
	clock clock.Clock,
	random random.Random,
	cfg ManagerConfig,
	recorder Recorder,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		viewers:  make(map[model.ViewerID]*Viewer),
		provider: provider,
		clock:    clock,
		random:   random,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "viewers")),

		viewerLogger: logger,
	}
}

// AddObserver registers o. Not safe to call once viewers are being created.
func (m *Manager) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// Create starts a new viewer for mediaID
func (m *Manager) Create(mediaID model.MediaID) (*Viewer, error) {
	m.mu.Lock()

	var id model.ViewerID
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			m.mu.Unlock()
			return nil, ErrIDExhausted
		}
		id = model.ViewerID(m.random.String(ViewerIDLength, ViewerIDAlphabet))
		if _, exists := m.viewers[id]; id != "" && !exists {
			break
		}
	}

	v := New(id, mediaID, m.provider, m.clock, m.cfg.Viewer, m.recorder, m.viewerLogger)
	m.viewers[id] = v
	count := len(m.viewers)
	m.mu.Unlock()

	go v.Run()
	for _, o := range m.observers {
		o.ViewerOpened(v)
	}

	m.logger.Info("viewer created",
		slog.String("viewer_id", string(id)),
		slog.String("media_id", string(mediaID)),
		slog.Int("total_viewers", count))
	return v, nil
}

// Get returns the viewer with the given ID
func (m *Manager) Get(id model.ViewerID) (*Viewer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.viewers[id]
	if !ok {
		return nil, model.ErrViewerNotFound
	}
	return v, nil
}

// Remove closes and forgets a viewer
func (m *Manager) Remove(id model.ViewerID) error {
	m.mu.Lock()
	v, ok := m.viewers[id]
	if ok {
		delete(m.viewers, id)
	}
	m.mu.Unlock()

	if !ok {
		return model.ErrViewerNotFound
	}
	m.close(v)
	m.logger.Info("viewer removed", slog.String("viewer_id", string(id)))
	return nil
}

// CleanupIdle closes viewers that have been idle longer than IdleTTL.
// Viewers that are playing or streaming events are kept.
func (m *Manager) CleanupIdle() int {
	cutoff := m.clock.Now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var expired []*Viewer
	for id, v := range m.viewers {
		if !v.Busy() && v.LastActive().Before(cutoff) {
			expired = append(expired, v)
			delete(m.viewers, id)
		}
	}
	m.mu.Unlock()

	for _, v := range expired {
		m.close(v)
	}
	if len(expired) > 0 {
		m.logger.Info("idle viewers cleaned up", slog.Int("removed", len(expired)))
	}
	return len(expired)
}

// Count returns the number of live viewers
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.viewers)
}

// CloseAll closes every viewer and waits for their loops to exit
func (m *Manager) CloseAll() {
	m.mu.Lock()
	viewers := make([]*Viewer, 0, len(m.viewers))
	for id, v := range m.viewers {
		viewers = append(viewers, v)
		delete(m.viewers, id)
	}
	m.mu.Unlock()

	for _, v := range viewers {
		m.close(v)
	}
	for _, v := range viewers {
		v.Wait()
	}
}

func (m *Manager) close(v *Viewer) {
	v.Close()
	for _, o := range m.observers {
		o.ViewerClosed(v)
	}
}
