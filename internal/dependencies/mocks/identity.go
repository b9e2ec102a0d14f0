package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/playgate/internal/model"
)

// MockIdentity is a scriptable identity provider. Calls succeed unless an
// error has been queued, and can be held open to simulate a slow round-trip.
type MockIdentity struct {
	mu      sync.Mutex
	errs    []error
	gate    chan struct{}
	calls   int
	started chan struct{}
}

// NewMockIdentity creates a MockIdentity that accepts everything
func NewMockIdentity() *MockIdentity {
	return &MockIdentity{started: make(chan struct{}, 64)}
}

// Authenticate returns an account for the email or the next queued error
func (m *MockIdentity) Authenticate(ctx context.Context, creds model.Credentials) (*model.Account, error) {
	return m.call(ctx, creds.Email, "")
}

// Register returns an account for the profile or the next queued error
func (m *MockIdentity) Register(ctx context.Context, profile model.Profile) (*model.Account, error) {
	return m.call(ctx, profile.Email, profile.DisplayName)
}

func (m *MockIdentity) call(ctx context.Context, email, name string) (*model.Account, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()

	select {
	case m.started <- struct{}{}:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", model.ErrNetwork, ctx.Err())
		}
	}

	m.mu.Lock()
	var err error
	if len(m.errs) > 0 {
		err = m.errs[0]
		m.errs = m.errs[1:]
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(email)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return &model.Account{
		ID:          model.AccountID("acc-" + email),
		Email:       email,
		DisplayName: name,
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

// QueueError makes the next calls fail with errs, in order
func (m *MockIdentity) QueueError(errs ...error) {
	m.mu.Lock()
	m.errs = append(m.errs, errs...)
	m.mu.Unlock()
}

// Hold blocks every subsequent call until Release
func (m *MockIdentity) Hold() {
	m.mu.Lock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
	m.mu.Unlock()
}

// Release unblocks held calls
func (m *MockIdentity) Release() {
	m.mu.Lock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
	m.mu.Unlock()
}

// Started receives once for every call that has begun
func (m *MockIdentity) Started() <-chan struct{} {
	return m.started
}

// Calls returns the number of calls made so far
func (m *MockIdentity) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
