package authcore

// DefaultLockoutThreshold is the failed-attempt count at which an account
// transitions to Locked.
const DefaultLockoutThreshold = 5

// SecurityState is the per-account lockout counter and flag. It is mutated
// only by the engine, inside a per-user critical section, and persisted
// through [UserProvider].
//
// The state machine has two states. Active: attempts accumulate on failure
// and reset on success. Locked: entered when attempts reach the threshold;
// every verification attempt is rejected without consulting a credential,
// and only a successful administrative unlock (or a reset shipped with a
// successful verification that raced the lock) leaves it.
type SecurityState struct {
	LoginAttempts int
	AccountLocked bool
}

// RecordFailure applies the failed-verification transition and reports
// whether the account is now locked.
func (s *SecurityState) RecordFailure(threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}

	s.LoginAttempts++
	if s.LoginAttempts >= threshold {
		s.AccountLocked = true
	}
	return s.AccountLocked
}

// RecordSuccess applies the successful-verification transition: counter to
// zero, state to Active.
func (s *SecurityState) RecordSuccess() {
	s.LoginAttempts = 0
	s.AccountLocked = false
}

// AttemptsRemaining reports how many further failures the account absorbs
// before locking, never negative.
func (s SecurityState) AttemptsRemaining(threshold int) int {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}

	remaining := threshold - s.LoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Locked reports the derived lockout state. It depends on the flag alone:
// once set, the counter value is irrelevant until an explicit reset.
func (s SecurityState) Locked() bool {
	return s.AccountLocked
}
