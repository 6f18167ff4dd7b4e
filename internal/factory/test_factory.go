package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/threestones/internal/dependencies/mocks"
	"github.com/mcoot/threestones/internal/storage/memory"
	"github.com/mcoot/threestones/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Grace timers fire only when MockClock is advanced, and lobby refreshes
// publish immediately.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := DefaultConfig()
	cfg.LobbyDebounce = 0
	cfg.Room.PasswordCost = bcrypt.MinCost

	app := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
