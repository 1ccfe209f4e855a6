package authcore

import (
	"context"
	"errors"

	"github.com/veritane/authcore/otp"
)

// RequestOTP issues a fresh passcode for the identifier and dispatches it
// through the configured [Notifier]. The returned error reflects dispatch,
// not eventual validation. Reissuing replaces any live code; there is no
// separate resend operation.
func (e *Engine) RequestOTP(ctx context.Context, identifier string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	id, err := ResolveIdentifier(identifier)
	if err != nil {
		return err
	}
	if err := e.checkOTPDomain(id); err != nil {
		return err
	}

	e.sweepInline(ctx)

	code, err := e.otpStore.Issue(ctx, id.Value)
	if err != nil {
		if errors.Is(err, otp.ErrStoreUnavailable) {
			e.emitAudit(ctx, auditEventStoreFault, false, "", id.Value, err, nil)
			e.metricInc(MetricStoreFault)
			return ErrStoreFailure
		}
		// Generation faults mean the entropy source failed.
		e.emitAudit(ctx, auditEventCryptoFault, false, "", id.Value, err, nil)
		e.metricInc(MetricCryptoFault)
		return ErrCryptoFailure
	}

	if err := e.notifier.Send(ctx, id.Value, code); err != nil {
		e.metricInc(MetricOTPDispatchFailure)
		e.emitAudit(ctx, auditEventOTPDispatchFailure, false, "", id.Value, err, nil)
		return ErrDispatchFailed
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPIssued, true, "", id.Value, nil, nil)
	return nil
}

// VerifyOTP completes a passcode login.
//
// Validation outcomes propagate as-is: [otp.ErrCodeNotFound],
// [otp.ErrCodeExpired] (the entry is gone afterwards), and
// [otp.ErrCodeMismatch] (the entry stays live so the caller may retry within
// the TTL). A code that validates is consumed on the spot, before any
// account gate runs; a valid code with no matching account then fails with
// [ErrUnregistered], and deactivated or locked accounts fail with their
// usual errors. Every terminal outcome except a mismatch consumes the code,
// so a spent or dead code can never be replayed.
//
// Two locks run in sequence, never nested: the identifier lock makes
// validate-and-consume single use, and the user lock serializes the
// security-state write with the password path.
func (e *Engine) VerifyOTP(ctx context.Context, identifier, code string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	id, err := ResolveIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if !validCodeShape(code, e.config.OTP.Digits) {
		return nil, ErrInvalidCode
	}

	if err := e.validateAndConsumeCode(ctx, id, code); err != nil {
		return nil, err
	}

	rec, err := e.lookupUser(ctx, id)
	if err != nil {
		if err == ErrUserNotFound {
			e.metricInc(MetricOTPLoginFailure)
			e.emitAudit(ctx, auditEventOTPFailure, false, "", id.Value, ErrUnregistered, nil)
			return nil, ErrUnregistered
		}
		return nil, err
	}

	// Same account-keyed critical section as Login; re-read the record under
	// the lock so the gates and the state write see current data.
	unlock := e.locks.Lock(rec.UserID)
	defer unlock()

	rec, err = e.lookupUser(ctx, id)
	if err != nil {
		if err == ErrUserNotFound {
			e.metricInc(MetricOTPLoginFailure)
			e.emitAudit(ctx, auditEventOTPFailure, false, "", id.Value, ErrUnregistered, nil)
			return nil, ErrUnregistered
		}
		return nil, err
	}

	if !rec.IsActive {
		e.metricInc(MetricOTPLoginFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, rec.UserID, id.Value, ErrAccountDeactivated, nil)
		return nil, ErrAccountDeactivated
	}
	if rec.Security.Locked() {
		e.metricInc(MetricOTPLoginFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, rec.UserID, id.Value, ErrAccountLocked, nil)
		return nil, ErrAccountLocked
	}

	rec.Security.RecordSuccess()
	loginAt := e.now()
	if err := e.users.RecordLogin(ctx, rec.UserID, rec.Security, loginAt); err != nil {
		e.emitAudit(ctx, auditEventStoreFault, false, rec.UserID, id.Value, err, nil)
		e.metricInc(MetricStoreFault)
		return nil, ErrStoreFailure
	}
	rec.LastLoginAt = loginAt

	e.metricInc(MetricOTPLoginSuccess)
	e.emitAudit(ctx, auditEventOTPSuccess, true, rec.UserID, id.Value, nil, nil)

	return &LoginResult{User: rec.Sanitized()}, nil
}

// validateAndConsumeCode checks the passcode and, on success, deletes it,
// all under the identifier lock so racing verifications cannot spend one
// code twice. No inline sweep runs first: sweeping would turn an expired
// entry into a not-found, and callers are told which of the two happened.
func (e *Engine) validateAndConsumeCode(ctx context.Context, id Identifier, code string) error {
	unlock := e.locks.Lock(id.Value)
	defer unlock()

	if err := e.otpStore.Validate(ctx, id.Value, code); err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeNotFound), errors.Is(err, otp.ErrCodeExpired):
			// Terminal: make sure nothing is left to retry against.
			_ = e.otpStore.Remove(ctx, id.Value)
			e.metricInc(MetricOTPLoginFailure)
			e.emitAudit(ctx, auditEventOTPFailure, false, "", id.Value, err, nil)
			return err
		case errors.Is(err, otp.ErrCodeMismatch):
			e.metricInc(MetricOTPLoginFailure)
			e.emitAudit(ctx, auditEventOTPFailure, false, "", id.Value, err, nil)
			return err
		default:
			e.emitAudit(ctx, auditEventStoreFault, false, "", id.Value, err, nil)
			e.metricInc(MetricStoreFault)
			return ErrStoreFailure
		}
	}

	if err := e.otpStore.Remove(ctx, id.Value); err != nil {
		e.emitAudit(ctx, auditEventStoreFault, false, "", id.Value, err, nil)
		e.metricInc(MetricStoreFault)
		return ErrStoreFailure
	}
	return nil
}

func (e *Engine) checkOTPDomain(id Identifier) error {
	allowed := e.config.OTP.AllowedEmailDomains
	if len(allowed) == 0 {
		return nil
	}

	domain := id.EmailDomain()
	if domain == "" {
		return ErrDomainNotAllowed
	}
	for _, d := range allowed {
		if domain == d {
			return nil
		}
	}
	return ErrDomainNotAllowed
}

func validCodeShape(code string, digits int) bool {
	if digits <= 0 {
		digits = otp.DefaultDigits
	}
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
