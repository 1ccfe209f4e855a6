package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

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

func fixedGenerator(code string) Generator {
	return func(int) (string, error) { return code, nil }
}

func newTestMemoryStore(clock *fakeClock, code string) *MemoryStore {
	return NewMemoryStore(MemoryConfig{
		TTL:      10 * time.Minute,
		Digits:   6,
		Now:      clock.Now,
		Generate: fixedGenerator(code),
	})
}

func TestMemoryIssueValidateRemove(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestMemoryStore(clock, "482913")

	code, err := store.Issue(ctx, "alice@gmail.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if code != "482913" {
		t.Fatalf("code = %q, want 482913", code)
	}

	if err := store.Validate(ctx, "alice@gmail.com", "482913"); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	// Validate does not consume; a second check still succeeds.
	if err := store.Validate(ctx, "alice@gmail.com", "482913"); err != nil {
		t.Fatalf("repeat Validate failed: %v", err)
	}

	if err := store.Remove(ctx, "alice@gmail.com"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if err := store.Validate(ctx, "alice@gmail.com", "482913"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after removal, got %v", err)
	}
}

func TestMemoryValidateUnknownIdentifier(t *testing.T) {
	store := newTestMemoryStore(newFakeClock(), "111111")

	if err := store.Validate(context.Background(), "nobody", "111111"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestMemoryExpiryEvicts(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestMemoryStore(clock, "482913")

	if _, err := store.Issue(ctx, "alice@gmail.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	clock.Advance(10*time.Minute + time.Second)

	if err := store.Validate(ctx, "alice@gmail.com", "482913"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	// The expired entry is gone; a retry sees not-found.
	if err := store.Validate(ctx, "alice@gmail.com", "482913"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after eviction, got %v", err)
	}
}

func TestMemoryMismatchKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(newFakeClock(), "482913")

	if _, err := store.Issue(ctx, "alice@gmail.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := store.Validate(ctx, "alice@gmail.com", "000000"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	// Retry with the right code still succeeds within the TTL.
	if err := store.Validate(ctx, "alice@gmail.com", "482913"); err != nil {
		t.Fatalf("retry after mismatch failed: %v", err)
	}
}

func TestMemoryReissueOverwrites(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(MemoryConfig{
		TTL:    10 * time.Minute,
		Digits: 6,
		Now:    clock.Now,
	})

	first, err := store.Issue(ctx, "alice@gmail.com")
	if err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	second, err := store.Issue(ctx, "alice@gmail.com")
	if err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("expected one live entry, got %d", store.Len())
	}

	if first != second {
		if err := store.Validate(ctx, "alice@gmail.com", first); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("stale code should mismatch, got %v", err)
		}
	}
	if err := store.Validate(ctx, "alice@gmail.com", second); err != nil {
		t.Fatalf("fresh code rejected: %v", err)
	}
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestMemoryStore(clock, "482913")

	if _, err := store.Issue(ctx, "old@gmail.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	clock.Advance(11 * time.Minute)

	if _, err := store.Issue(ctx, "fresh@gmail.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := store.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("expected one entry after sweep, got %d", store.Len())
	}
	if err := store.Validate(ctx, "fresh@gmail.com", "482913"); err != nil {
		t.Fatalf("fresh entry swept: %v", err)
	}
}

func TestMemoryGeneratedCodeShape(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{})

	code, err := store.Issue(context.Background(), "alice@gmail.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if len(code) != DefaultDigits {
		t.Fatalf("code length = %d, want %d", len(code), DefaultDigits)
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			t.Fatalf("non-digit %q in code %q", code[i], code)
		}
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(MemoryConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a'+n%4)) + "@gmail.com"
			code, err := store.Issue(ctx, id)
			if err != nil {
				t.Errorf("Issue failed: %v", err)
				return
			}
			_ = store.Validate(ctx, id, code)
			_ = store.Remove(ctx, id)
		}(i)
	}
	wg.Wait()
}
