package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestLoginSuccessByUsernameAndEmail(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()

	res, err := fx.engine.Login(ctx, "alice", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login by username failed: %v", err)
	}
	if res.User.UserID != "u1" {
		t.Fatalf("user id = %q, want u1", res.User.UserID)
	}

	// Case-insensitive email lookup.
	res, err = fx.engine.Login(ctx, "Alice@Gmail.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
	if res.User.Email != "alice@gmail.com" {
		t.Fatalf("email = %q", res.User.Email)
	}
	if res.User.LastLoginAt.IsZero() {
		t.Fatal("last login not stamped")
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	fx := newTestEngine(t, testConfig())

	_, err := fx.engine.Login(context.Background(), "nobody@gmail.com", "whatever1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLoginValidationBeforeStateMutation(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()

	if _, err := fx.engine.Login(ctx, "a", "pw"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := fx.engine.Login(ctx, "alice", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}

	if got := fx.provider.get("u1").Security.LoginAttempts; got != 0 {
		t.Fatalf("validation failure mutated attempts: %d", got)
	}
}

func TestLoginWrongPasswordCountsAttempts(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()

	_, err := fx.engine.Login(ctx, "alice", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockoutError, got %T", err)
	}
	if lockErr.AttemptsRemaining != 4 {
		t.Fatalf("attempts remaining = %d, want 4", lockErr.AttemptsRemaining)
	}
	if lockErr.Locked {
		t.Fatal("single failure should not lock")
	}

	if got := fx.provider.get("u1").Security.LoginAttempts; got != 1 {
		t.Fatalf("persisted attempts = %d, want 1", got)
	}
}

func TestLockoutThresholdTriggersLock(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()

	// First four failures surface as invalid credentials.
	for i := 0; i < 4; i++ {
		_, err := fx.engine.Login(ctx, "alice", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// The fifth failure trips the lock.
	_, err := fx.engine.Login(ctx, "alice", "wrong-password")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("threshold attempt: expected ErrAccountLocked, got %v", err)
	}

	// The sixth attempt is rejected before verification even with the
	// correct password.
	_, err = fx.engine.Login(ctx, "alice", "correct-horse-battery")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked for locked account, got %v", err)
	}

	state := fx.provider.get("u1").Security
	if !state.AccountLocked {
		t.Fatal("account not persisted as locked")
	}
}

func TestLockoutAtFourAttemptsWrongPassword(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	// Account already at four failures.
	rec := fx.provider.get("u1")
	rec.Security = SecurityState{LoginAttempts: 4}
	fx.provider.put(rec)

	_, err := fx.engine.Login(context.Background(), "alice", "wrong-password")

	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockoutError, got %v", err)
	}
	if lockErr.AttemptsRemaining != 0 {
		t.Fatalf("attempts remaining = %d, want 0", lockErr.AttemptsRemaining)
	}
	if !lockErr.Locked {
		t.Fatal("fifth failure should lock")
	}

	if state := fx.provider.get("u1").Security; !state.AccountLocked {
		t.Fatal("state not Locked after fifth failure")
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = fx.engine.Login(ctx, "alice", "wrong-password")
	}

	if _, err := fx.engine.Login(ctx, "alice", "correct-horse-battery"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	state := fx.provider.get("u1").Security
	if state.LoginAttempts != 0 || state.AccountLocked {
		t.Fatalf("state not reset: %+v", state)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	rec := fx.provider.get("u1")
	rec.IsActive = false
	fx.provider.put(rec)

	_, err := fx.engine.Login(context.Background(), "alice", "correct-horse-battery")
	if !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestLoginUnknownCredentialAlgorithm(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	rec := fx.provider.get("u1")
	rec.Credential.Algorithm = "bcrypt"
	fx.provider.put(rec)

	_, err := fx.engine.Login(context.Background(), "alice", "correct-horse-battery")
	if !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("expected ErrCryptoFailure, got %v", err)
	}
}

func TestLoginSanitizedViewCarriesNoSecrets(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	res, err := fx.engine.Login(context.Background(), "alice", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// SafeUser has no credential fields by construction; spot-check the
	// identity fields survived sanitization.
	if res.User.Username != "alice" || res.User.Email != "alice@gmail.com" {
		t.Fatalf("unexpected view: %+v", res.User)
	}
}

func TestConcurrentFailuresNeverUndercount(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = fx.engine.Login(ctx, "alice", "wrong-password")
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	state := fx.provider.get("u1").Security
	if state.LoginAttempts != 5 {
		t.Fatalf("attempts = %d, want 5 (lost increment)", state.LoginAttempts)
	}
	if !state.AccountLocked {
		t.Fatal("five concurrent failures must lock the account")
	}
}

func TestConcurrentFailuresAcrossIdentifierForms(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()
	done := make(chan struct{})

	// Username and email resolve to the same account and must contend for
	// the same critical section; locking per identifier would let these two
	// read the same pre-increment state and lose a failure.
	for _, identifier := range []string{"alice", "alice@gmail.com"} {
		go func(identifier string) {
			defer func() { done <- struct{}{} }()
			_, _ = fx.engine.Login(ctx, identifier, "wrong-password")
		}(identifier)
	}
	for i := 0; i < 2; i++ {
		<-done
	}

	state := fx.provider.get("u1").Security
	if state.LoginAttempts != 2 {
		t.Fatalf("attempts = %d, want 2 (lost increment across identifier forms)", state.LoginAttempts)
	}
}

func TestLoginMetrics(t *testing.T) {
	fx := newTestEngine(t, testConfig())
	seedUser(t, fx.provider, "u1", "alice", "alice@gmail.com", "correct-horse-battery")

	ctx := context.Background()

	_, _ = fx.engine.Login(ctx, "alice", "wrong-password")
	_, _ = fx.engine.Login(ctx, "alice", "correct-horse-battery")

	snap := fx.engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("login success counter = %d, want 1", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("login failure counter = %d, want 1", snap.Counters[MetricLoginFailure])
	}
}
