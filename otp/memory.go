package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/veritane/authcore/internal"
)

// MemoryConfig configures a MemoryStore. Zero fields fall back to defaults;
// Now and Generate exist so tests can pin the clock and the drawn code.
type MemoryConfig struct {
	TTL      time.Duration
	Digits   int
	Now      func() time.Time
	Generate Generator
}

// MemoryStore is an in-process expiring map. A single mutex guards the map:
// expected throughput is one issue and a handful of validations per login,
// so finer-grained locking buys nothing here.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]Entry
	ttl      time.Duration
	digits   int
	now      func() time.Time
	generate Generator
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Digits <= 0 {
		cfg.Digits = DefaultDigits
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Generate == nil {
		cfg.Generate = internal.NewCode
	}

	return &MemoryStore{
		entries:  make(map[string]Entry),
		ttl:      cfg.TTL,
		digits:   cfg.Digits,
		now:      cfg.Now,
		generate: cfg.Generate,
	}
}

// Issue implements [Store].
func (s *MemoryStore) Issue(_ context.Context, identifier string) (string, error) {
	code, err := s.generate(s.digits)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[identifier] = Entry{
		Identifier: identifier,
		Code:       code,
		IssuedAt:   s.now(),
	}

	return code, nil
}

// Validate implements [Store].
func (s *MemoryStore) Validate(_ context.Context, identifier, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identifier]
	if !ok {
		return ErrCodeNotFound
	}

	if s.now().Sub(entry.IssuedAt) > s.ttl {
		delete(s.entries, identifier)
		return ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		return ErrCodeMismatch
	}

	return nil
}

// Remove implements [Store].
func (s *MemoryStore) Remove(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, identifier)
	return nil
}

// Sweep implements [Store].
func (s *MemoryStore) Sweep(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for identifier, entry := range s.entries {
		if now.Sub(entry.IssuedAt) > s.ttl {
			delete(s.entries, identifier)
		}
	}

	return nil
}

// Len reports the number of live entries, expired or not. Intended for
// observability and tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
