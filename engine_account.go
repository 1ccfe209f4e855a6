package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Register creates a new account. The engine owns credential derivation and
// the initial security state; the provider owns persistence and duplicate
// detection under its own uniqueness constraints.
func (e *Engine) Register(ctx context.Context, username, email, password string) (*SafeUser, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if len(username) < minUsernameLength || strings.ContainsRune(username, '@') {
		return nil, ErrInvalidIdentifier
	}

	emailID, err := ResolveIdentifier(email)
	if err != nil || emailID.Kind != IdentifierEmail {
		return nil, ErrInvalidIdentifier
	}

	if len(password) < e.config.Credential.MinPasswordLength {
		return nil, ErrInvalidPassword
	}

	if _, err := e.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrUserNotFound) {
		e.metricInc(MetricStoreFault)
		return nil, ErrStoreFailure
	}
	if _, err := e.users.FindByEmail(ctx, emailID.Value); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrUserNotFound) {
		e.metricInc(MetricStoreFault)
		return nil, ErrStoreFailure
	}

	cred, err := e.codec.Hash(password)
	if err != nil {
		e.metricInc(MetricCryptoFault)
		e.emitAudit(ctx, auditEventCryptoFault, false, "", emailID.Value, err, nil)
		return nil, ErrCryptoFailure
	}

	rec, err := e.users.CreateUser(ctx, CreateUserInput{
		UserID:     uuid.NewString(),
		Username:   username,
		Email:      emailID.Value,
		Credential: cred,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			return nil, ErrAccountExists
		}
		e.emitAudit(ctx, auditEventStoreFault, false, "", emailID.Value, err, nil)
		e.metricInc(MetricStoreFault)
		return nil, ErrStoreFailure
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, rec.UserID, emailID.Value, nil, nil)

	view := rec.Sanitized()
	return &view, nil
}

// UnlockAccount is the administrative transition out of Locked: counter to
// zero, flag cleared. It is never triggered by the engine itself.
func (e *Engine) UnlockAccount(ctx context.Context, userID string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	if err := e.users.UpdateSecurityState(ctx, userID, SecurityState{}); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		e.metricInc(MetricStoreFault)
		return ErrStoreFailure
	}

	e.metricInc(MetricAccountUnlocked)
	e.emitAudit(ctx, auditEventAccountUnlocked, true, userID, "", nil, nil)
	return nil
}

// DeactivateUser clears the activity flag; all authentication paths reject
// the account until reactivation.
func (e *Engine) DeactivateUser(ctx context.Context, userID string) error {
	return e.setActive(ctx, userID, false)
}

// ReactivateUser restores the activity flag. Lockout state is left intact:
// reactivation and unlock are distinct administrative actions.
func (e *Engine) ReactivateUser(ctx context.Context, userID string) error {
	return e.setActive(ctx, userID, true)
}

func (e *Engine) setActive(ctx context.Context, userID string, active bool) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	if err := e.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		e.metricInc(MetricStoreFault)
		return ErrStoreFailure
	}

	e.emitAudit(ctx, auditEventAccountStatusChange, true, userID, "", nil, func() map[string]string {
		if active {
			return map[string]string{"active": "true"}
		}
		return map[string]string{"active": "false"}
	})
	return nil
}
