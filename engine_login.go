package authcore

import (
	"context"
	"strconv"

	"github.com/veritane/authcore/credential"
)

// Login authenticates an identifier/password pair and returns the sanitized
// user view.
//
// Failure taxonomy: [ErrInvalidIdentifier]/[ErrInvalidPassword] before any
// state is touched, [ErrUserNotFound] for unknown identifiers,
// [ErrAccountDeactivated] and [ErrAccountLocked] before the codec runs, and
// a [*LockoutError] (unwrapping to [ErrInvalidCredentials] or
// [ErrAccountLocked]) after a failed verification has been recorded and
// persisted.
//
// The verify plus security-state read-modify-write runs inside a per-user
// critical section so concurrent failures for one account never lose an
// increment.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	id, err := ResolveIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrInvalidPassword
	}

	start := e.now()
	threshold := e.config.Lockout.Threshold

	// The critical section is keyed by user ID, not by the identifier:
	// username and email are two routes to the same security state, and
	// keying on the identifier would let them race past each other. The
	// first lookup only resolves the account; the record is re-read under
	// the lock before anything is decided on it.
	rec, err := e.lookupUser(ctx, id)
	if err != nil {
		if err == ErrUserNotFound {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", id.Value, ErrUserNotFound, nil)
		}
		return nil, err
	}

	unlock := e.locks.Lock(rec.UserID)
	defer unlock()

	rec, err = e.lookupUser(ctx, id)
	if err != nil {
		if err == ErrUserNotFound {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", id.Value, ErrUserNotFound, nil)
		}
		return nil, err
	}

	if !rec.IsActive {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.UserID, id.Value, ErrAccountDeactivated, nil)
		return nil, ErrAccountDeactivated
	}

	// Fail fast while locked: the codec is never consulted, correct password
	// or not.
	if rec.Security.Locked() {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.UserID, id.Value, ErrAccountLocked, nil)
		return nil, ErrAccountLocked
	}

	// The credential variant is resolved once here, not re-probed per field.
	if rec.Credential.Algorithm != credential.AlgorithmID {
		e.metricInc(MetricCryptoFault)
		e.emitAudit(ctx, auditEventCryptoFault, false, rec.UserID, id.Value, ErrCryptoFailure, func() map[string]string {
			return map[string]string{"algorithm": rec.Credential.Algorithm}
		})
		return nil, ErrCryptoFailure
	}

	ok := e.codec.Verify(password, rec.Credential.Hash, rec.Credential.Salt, rec.Credential.PublicKey)
	if !ok {
		locked := rec.Security.RecordFailure(threshold)
		if err := e.persistSecurityState(ctx, rec.UserID, id.Value, rec.Security); err != nil {
			return nil, err
		}

		e.metricInc(MetricLoginFailure)
		if locked {
			e.metricInc(MetricAccountLocked)
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.UserID, id.Value, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"attempts": strconv.Itoa(rec.Security.LoginAttempts),
			}
		})

		return nil, &LockoutError{
			AttemptsRemaining: rec.Security.AttemptsRemaining(threshold),
			Locked:            locked,
		}
	}

	rec.Security.RecordSuccess()
	loginAt := e.now()
	if err := e.users.RecordLogin(ctx, rec.UserID, rec.Security, loginAt); err != nil {
		e.emitAudit(ctx, auditEventStoreFault, false, rec.UserID, id.Value, err, nil)
		e.metricInc(MetricStoreFault)
		return nil, ErrStoreFailure
	}
	rec.LastLoginAt = loginAt

	e.metricInc(MetricLoginSuccess)
	e.metrics.Observe(MetricLoginLatency, e.now().Sub(start))
	e.emitAudit(ctx, auditEventLoginSuccess, true, rec.UserID, id.Value, nil, nil)

	return &LoginResult{User: rec.Sanitized()}, nil
}
