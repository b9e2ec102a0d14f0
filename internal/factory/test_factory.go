package factory

import (
	"time"

	"github.com/mcoot/playgate/internal/dependencies/mocks"
	"github.com/mcoot/playgate/internal/storage/memory"
	"github.com/mcoot/playgate/internal/testutil"
	"github.com/mcoot/playgate/internal/token"
)

// TestTokenSecret signs viewer tokens in test apps
const TestTokenSecret = "test-secret-do-not-use"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockIdentity *mocks.MockIdentity
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIdentity := mocks.NewMockIdentity()

	cfg := Config{
		Token: token.Config{Secret: TestTokenSecret, TTL: token.DefaultConfig().TTL},
	}
	app, err := newWithDependencies(store, mockClock, mockRandom, mockIdentity, cfg, testutil.NopLogger())
	if err != nil {
		// Only a missing secret fails, and one is always set here
		panic(err)
	}

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockIdentity: mockIdentity,
	}
}
