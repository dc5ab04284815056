package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/stratking/matchmaker/internal/dependencies/mocks"
	"github.com/stratking/matchmaker/internal/provision"
	"github.com/stratking/matchmaker/internal/services/auth"
	"github.com/stratking/matchmaker/internal/services/match"
	"github.com/stratking/matchmaker/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock       *mocks.MockClock
	MockRandom      *mocks.MockRandom
	MockProvisioner *provision.MockProvisioner
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockProvisioner := provision.NewMockProvisioner()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(
		store,
		mockProvisioner,
		mockClock,
		mockRandom,
		auth.DefaultConfig(),
		match.DefaultConfig(),
		logger,
	)

	return &TestApp{
		App:             app,
		MockClock:       mockClock,
		MockRandom:      mockRandom,
		MockProvisioner: mockProvisioner,
	}
}
