package otp

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultTTL is the validity window of an issued passcode.
	DefaultTTL = 10 * time.Minute
	// DefaultDigits is the passcode length.
	DefaultDigits = 6
)

var (
	// ErrCodeNotFound indicates no live entry exists for the identifier.
	ErrCodeNotFound = errors.New("passcode not found")
	// ErrCodeExpired indicates the entry outlived its TTL. The entry is
	// evicted as a side effect of the failed validation.
	ErrCodeExpired = errors.New("passcode expired")
	// ErrCodeMismatch indicates the supplied code differs from the stored
	// one. The entry remains live so the caller may retry within the TTL.
	ErrCodeMismatch = errors.New("passcode mismatch")
	// ErrStoreUnavailable indicates the backing store is unreachable.
	ErrStoreUnavailable = errors.New("passcode store unavailable")
)

// Entry is a live passcode record. Entries are transient only and never
// persisted outside the store.
type Entry struct {
	Identifier string
	Code       string
	IssuedAt   time.Time
}

// Generator produces a numeric passcode of the requested digit count.
type Generator func(digits int) (string, error)

// Store is the passcode side-channel contract. Issue, Validate, and Remove
// for the same identifier are serialized relative to one another by every
// implementation; operations on distinct identifiers may run in parallel.
type Store interface {
	// Issue generates and stores a fresh code for the identifier,
	// unconditionally replacing any existing entry, and returns the code for
	// dispatch.
	Issue(ctx context.Context, identifier string) (string, error)

	// Validate checks the supplied code. It returns ErrCodeNotFound,
	// ErrCodeExpired (evicting the entry), or ErrCodeMismatch (keeping it).
	// A nil return does not consume the entry.
	Validate(ctx context.Context, identifier, code string) error

	// Remove deletes the entry unconditionally. Removing an absent entry is
	// not an error.
	Remove(ctx context.Context, identifier string) error

	// Sweep evicts all entries past their TTL. It bounds memory when run
	// opportunistically or on a periodic timer; stores whose backend expires
	// keys natively may treat it as a no-op.
	Sweep(ctx context.Context) error
}
