package factory

import (
	"time"

	"github.com/comate/comate/internal/dependencies/mocks"
	"github.com/comate/comate/internal/services/auth"
	"github.com/comate/comate/internal/services/lifecycle"
	"github.com/comate/comate/internal/storage"
	"github.com/comate/comate/internal/storage/memory"
	"github.com/comate/comate/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestOption customizes a TestApp before services are wired
type TestOption func(*testOptions)

type testOptions struct {
	store     storage.Storage
	guard     *auth.Guard
	lifecycle lifecycle.Config
}

// WithStorage runs the TestApp on the given backend instead of memory
func WithStorage(store storage.Storage) TestOption {
	return func(o *testOptions) { o.store = store }
}

// WithAdminGuard protects admin operations with the given guard
func WithAdminGuard(guard *auth.Guard) TestOption {
	return func(o *testOptions) { o.guard = guard }
}

// WithReleasePartnerOnLeave enables clearing the remaining partner on leave
func WithReleasePartnerOnLeave() TestOption {
	return func(o *testOptions) { o.lifecycle.ReleasePartnerOnLeave = true }
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(opts ...TestOption) *TestApp {
	o := testOptions{store: memory.New(), guard: &auth.Guard{}}
	for _, opt := range opts {
		opt(&o)
	}

	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(o.store, mockClock, mockRandom, o.guard, o.lifecycle, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
