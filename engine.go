package authcore

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/veritane/authcore/credential"
	"github.com/veritane/authcore/internal"
	"github.com/veritane/authcore/otp"
)

// Engine orchestrates the two authentication paths (password and passcode),
// the lockout policy, and the sanitized result boundary. Engines are built
// once through [Builder.Build] and are safe for concurrent use.
type Engine struct {
	config   Config
	codec    *credential.Codec
	otpStore otp.Store
	users    UserProvider
	notifier Notifier
	audit    *auditDispatcher
	metrics  *Metrics
	locks    internal.KeyedMutex
	now      func() time.Time

	sweepDone chan struct{}
	sweepWG   sync.WaitGroup
	closeOnce sync.Once
}

// Close stops the periodic sweep (if running) and drains the audit pipeline.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.sweepDone != nil {
			close(e.sweepDone)
			e.sweepWG.Wait()
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

// AuditDropped reports audit events shed under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e != nil && e.metrics != nil {
		e.metrics.Inc(id)
	}
}

func (e *Engine) startSweep(interval time.Duration) {
	e.sweepDone = make(chan struct{})
	e.sweepWG.Add(1)

	go func() {
		defer e.sweepWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := e.otpStore.Sweep(context.Background()); err != nil {
					log.Printf("authcore: otp sweep failed: %v", err)
				}
			case <-e.sweepDone:
				return
			}
		}
	}()
}

// sweepInline runs an opportunistic sweep when no periodic sweeper owns the
// job. Sweep failures never block the calling operation.
func (e *Engine) sweepInline(ctx context.Context) {
	if e.config.OTP.SweepInterval > 0 {
		return
	}
	if err := e.otpStore.Sweep(ctx); err != nil {
		log.Printf("authcore: otp sweep failed: %v", err)
	}
}

// lookupUser resolves an identifier to a record. Provider faults other than
// not-found are audited and masked as ErrStoreFailure.
func (e *Engine) lookupUser(ctx context.Context, id Identifier) (UserRecord, error) {
	var (
		rec UserRecord
		err error
	)

	switch id.Kind {
	case IdentifierEmail:
		rec, err = e.users.FindByEmail(ctx, id.Value)
	default:
		rec, err = e.users.FindByUsername(ctx, id.Value)
	}

	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, ErrUserNotFound
		}
		e.emitAudit(ctx, auditEventStoreFault, false, "", id.Value, err, nil)
		e.metricInc(MetricStoreFault)
		return UserRecord{}, ErrStoreFailure
	}

	return rec, nil
}

// persistSecurityState writes the mutated state, masking provider faults.
func (e *Engine) persistSecurityState(ctx context.Context, userID, identifier string, state SecurityState) error {
	if err := e.users.UpdateSecurityState(ctx, userID, state); err != nil {
		e.emitAudit(ctx, auditEventStoreFault, false, userID, identifier, err, nil)
		e.metricInc(MetricStoreFault)
		return ErrStoreFailure
	}
	return nil
}
