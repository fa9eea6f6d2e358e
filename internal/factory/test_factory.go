package factory

import (
	"time"

	"github.com/mcoot/xrkiosk/internal/blob"
	memoryblob "github.com/mcoot/xrkiosk/internal/blob/memory"
	"github.com/mcoot/xrkiosk/internal/dependencies/mocks"
	"github.com/mcoot/xrkiosk/internal/services/auth"
	"github.com/mcoot/xrkiosk/internal/services/registration"
	"github.com/mcoot/xrkiosk/internal/storage/memory"
	"github.com/mcoot/xrkiosk/internal/testutil"
)

// TestBaseURL prefixes artifact references in test apps
const TestBaseURL = "http://kiosk.test"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MockOrigin  *mocks.StaticOrigin
	MemoryStore *memory.Storage
	BlobBackend *memoryblob.Backend
}

// TestOption adjusts a TestApp before it is wired
type TestOption func(*testOptions)

type testOptions struct {
	reg  registration.Config
	auth auth.Config
}

// WithRegistrationConfig overrides the kiosk settings
func WithRegistrationConfig(cfg registration.Config) TestOption {
	return func(o *testOptions) { o.reg = cfg }
}

// WithStaffPINHash enables staff authentication
func WithStaffPINHash(hash string) TestOption {
	return func(o *testOptions) { o.auth.PINHash = hash }
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(opts ...TestOption) *TestApp {
	o := testOptions{
		reg:  registration.Config{StoreID: "nk1"},
		auth: auth.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	store := memory.New()
	backend := memoryblob.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockOrigin := mocks.NewStaticOrigin("10.0.0.7")

	app := newWithDependencies(dependencies{
		store:  store,
		blobs:  blob.New(backend, TestBaseURL),
		clock:  mockClock,
		random: mockRandom,
		origin: mockOrigin,
		reg:    o.reg,
		auth:   o.auth,
		logger: testutil.NopLogger(),
	})

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MockOrigin:  mockOrigin,
		MemoryStore: store,
		BlobBackend: backend,
	}
}
