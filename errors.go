package authcore

import (
	"errors"
	"fmt"

	"github.com/veritane/authcore/otp"
)

var (
	// ErrEngineNotReady is returned when an Engine method is called before a
	// successful Build.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidIdentifier is returned for identifiers that are neither a
	// syntactically valid email nor a username of at least three characters.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidPassword is returned for structurally unusable passwords
	// (empty input) before any state is touched.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidCode is returned for passcodes that are not the configured
	// number of decimal digits.
	ErrInvalidCode = errors.New("invalid passcode format")
	// ErrUserNotFound is returned when no account matches the identifier.
	// UserProvider implementations must return it from their lookup methods.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when password verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while the lockout state machine holds the
	// account in Locked; no credential is consulted in that state.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDeactivated is returned for accounts with IsActive false.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrAccountExists is returned by Register for duplicate identifiers.
	ErrAccountExists = errors.New("account already exists")
	// ErrUnregistered is returned when a passcode validates but no account
	// exists for the identifier.
	ErrUnregistered = errors.New("no account registered for identifier")
	// ErrDomainNotAllowed is returned by RequestOTP when the email domain is
	// outside the configured allow list.
	ErrDomainNotAllowed = errors.New("email domain not allowed for passcode login")
	// ErrDispatchFailed is returned when the notification collaborator could
	// not deliver an issued passcode.
	ErrDispatchFailed = errors.New("passcode dispatch failed")
	// ErrCryptoFailure masks internal codec faults. The underlying cause is
	// audited, never surfaced.
	ErrCryptoFailure = errors.New("internal cryptographic failure")
	// ErrStoreFailure masks persistence faults the same way.
	ErrStoreFailure = errors.New("internal storage failure")
)

// Kind is a stable, enumerable failure classification. Callers build
// locale-specific messages from the Kind instead of parsing error text.
type Kind uint8

const (
	// KindUnknown is the classification for errors that did not originate in
	// this package.
	KindUnknown Kind = iota
	// KindValidation covers malformed identifier, password, or code shape.
	KindValidation
	// KindNotFound covers unknown identifiers and absent passcodes.
	KindNotFound
	// KindUnauthorized covers failed password verification.
	KindUnauthorized
	// KindLocked covers lockout rejections.
	KindLocked
	// KindDeactivated covers inactive accounts.
	KindDeactivated
	// KindExpired covers passcodes past their TTL.
	KindExpired
	// KindMismatch covers wrong passcodes still within their TTL.
	KindMismatch
	// KindUnregistered covers valid passcodes with no matching account.
	KindUnregistered
	// KindConflict covers duplicate registration.
	KindConflict
	// KindCrypto covers masked codec faults.
	KindCrypto
	// KindStore covers masked persistence faults.
	KindStore
)

// String returns the canonical wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindLocked:
		return "locked"
	case KindDeactivated:
		return "deactivated"
	case KindExpired:
		return "expired"
	case KindMismatch:
		return "mismatch"
	case KindUnregistered:
		return "unregistered"
	case KindConflict:
		return "conflict"
	case KindCrypto:
		return "crypto"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// KindOf classifies any error returned by an Engine method.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrDomainNotAllowed):
		return KindValidation
	case errors.Is(err, ErrUserNotFound), errors.Is(err, otp.ErrCodeNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrAccountLocked):
		return KindLocked
	case errors.Is(err, ErrAccountDeactivated):
		return KindDeactivated
	case errors.Is(err, otp.ErrCodeExpired):
		return KindExpired
	case errors.Is(err, otp.ErrCodeMismatch):
		return KindMismatch
	case errors.Is(err, ErrUnregistered):
		return KindUnregistered
	case errors.Is(err, ErrAccountExists):
		return KindConflict
	case errors.Is(err, ErrCryptoFailure):
		return KindCrypto
	case errors.Is(err, ErrStoreFailure), errors.Is(err, ErrDispatchFailed):
		return KindStore
	default:
		return KindUnknown
	}
}

// LockoutError wraps a password-verification failure with the remaining
// attempt budget. It replaces the side-channel payload the legacy system
// attached to its exceptions: the hint travels as a typed field, so callers
// use errors.As to read it and errors.Is to branch on the sentinel.
type LockoutError struct {
	// AttemptsRemaining is max(0, threshold - loginAttempts) after the
	// failure was recorded.
	AttemptsRemaining int
	// Locked reports whether this failure tripped the lockout threshold.
	Locked bool
}

// Error implements the error interface.
func (e *LockoutError) Error() string {
	if e.Locked {
		return "invalid credentials: account locked"
	}
	return fmt.Sprintf("invalid credentials: %d attempts remaining", e.AttemptsRemaining)
}

// Unwrap maps the failure onto the sentinel taxonomy: ErrAccountLocked when
// the threshold was reached on this attempt, ErrInvalidCredentials otherwise.
func (e *LockoutError) Unwrap() error {
	if e.Locked {
		return ErrAccountLocked
	}
	return ErrInvalidCredentials
}
