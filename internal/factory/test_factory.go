package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/tokenrace/tokenrace/internal/dependencies/mocks"
	"github.com/tokenrace/tokenrace/internal/services/auth"
	"github.com/tokenrace/tokenrace/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"
	app := NewWithDependencies(store, mockClock, mockRandom, authCfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
