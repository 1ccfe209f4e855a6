package authcore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/veritane/authcore/credential"
	"github.com/veritane/authcore/otp"
)

// fakeClock drives engine and store time in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// mockUserProvider is an in-memory UserProvider.
type mockUserProvider struct {
	mu   sync.Mutex
	byID map[string]*UserRecord
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{byID: map[string]*UserRecord{}}
}

func (p *mockUserProvider) put(rec UserRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := rec
	p.byID[rec.UserID] = &clone
}

func (p *mockUserProvider) get(userID string) UserRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.byID[userID]
}

func (p *mockUserProvider) FindByEmail(_ context.Context, email string) (UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range p.byID {
		if strings.EqualFold(rec.Email, email) {
			return *rec, nil
		}
	}
	return UserRecord{}, ErrUserNotFound
}

func (p *mockUserProvider) FindByUsername(_ context.Context, username string) (UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range p.byID {
		if strings.EqualFold(rec.Username, username) {
			return *rec, nil
		}
	}
	return UserRecord{}, ErrUserNotFound
}

func (p *mockUserProvider) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range p.byID {
		if strings.EqualFold(rec.Username, input.Username) || strings.EqualFold(rec.Email, input.Email) {
			return UserRecord{}, ErrAccountExists
		}
	}

	rec := UserRecord{
		UserID:        input.UserID,
		Username:      input.Username,
		Email:         input.Email,
		Credential:    input.Credential,
		Profile:       input.Profile,
		IsActive:      true,
		EmailVerified: false,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	clone := rec
	p.byID[rec.UserID] = &clone
	return rec, nil
}

func (p *mockUserProvider) UpdateSecurityState(_ context.Context, userID string, state SecurityState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	rec.Security = state
	rec.UpdatedAt = time.Now()
	return nil
}

func (p *mockUserProvider) RecordLogin(_ context.Context, userID string, state SecurityState, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	rec.Security = state
	rec.LastLoginAt = at
	rec.UpdatedAt = time.Now()
	return nil
}

func (p *mockUserProvider) SetActive(_ context.Context, userID string, active bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	rec.IsActive = active
	rec.UpdatedAt = time.Now()
	return nil
}

// captureNotifier records dispatched codes.
type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	fail  bool
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{codes: map[string]string{}}
}

func (n *captureNotifier) Send(_ context.Context, identifier, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return ErrDispatchFailed
	}
	n.codes[identifier] = code
	return nil
}

func (n *captureNotifier) code(identifier string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[identifier]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = false
	return cfg
}

func testCodec(t *testing.T) *credential.Codec {
	t.Helper()

	codec, err := credential.NewCodec(credential.Config{Iterations: 100_000, SaltBytes: 16})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

// seedUser registers a record with a real credential for the password.
func seedUser(t *testing.T, up *mockUserProvider, userID, username, email, password string) {
	t.Helper()

	cred, err := testCodec(t).Hash(password)
	if err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}

	up.put(UserRecord{
		UserID:        userID,
		Username:      username,
		Email:         email,
		Credential:    cred,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     time.Now(),
	})
}

type engineFixture struct {
	engine   *Engine
	provider *mockUserProvider
	notifier *captureNotifier
	clock    *fakeClock
	otpStore *otp.MemoryStore
}

// newTestEngine builds an engine on a memory passcode store with a pinned
// clock and a fixed code generator.
func newTestEngine(t *testing.T, cfg Config) *engineFixture {
	t.Helper()

	clock := newFakeClock()
	provider := newMockUserProvider()
	notifier := newCaptureNotifier()

	store := otp.NewMemoryStore(otp.MemoryConfig{
		TTL:      cfg.OTP.TTL,
		Digits:   cfg.OTP.Digits,
		Now:      clock.Now,
		Generate: func(int) (string, error) { return "482913", nil },
	})

	engine, err := New().
		WithConfig(cfg).
		WithUserProvider(provider).
		WithNotifier(notifier).
		WithOTPStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineFixture{
		engine:   engine,
		provider: provider,
		notifier: notifier,
		clock:    clock,
		otpStore: store,
	}
}
