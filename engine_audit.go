package authcore

import "context"

const (
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventOTPIssued           = "otp_issued"
	auditEventOTPDispatchFailure  = "otp_dispatch_failure"
	auditEventOTPSuccess          = "otp_login_success"
	auditEventOTPFailure          = "otp_login_failure"
	auditEventAccountCreated      = "account_created"
	auditEventAccountUnlocked     = "account_unlocked"
	auditEventAccountStatusChange = "account_status_change"
	auditEventStoreFault          = "store_fault"
	auditEventCryptoFault         = "crypto_fault"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	identifier string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  e.now().UTC(),
		EventType:  eventType,
		UserID:     userID,
		Identifier: identifier,
		Success:    success,
		Metadata:   metadata,
	}
	if err != nil {
		// Internal faults are recorded with their kind only; raw error text
		// from providers stays inside the fault events where it is needed
		// for operability.
		switch eventType {
		case auditEventStoreFault, auditEventCryptoFault:
			event.Error = err.Error()
		default:
			event.Error = KindOf(err).String()
		}
	}

	e.audit.Emit(ctx, event)
}
