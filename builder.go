package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veritane/authcore/credential"
	"github.com/veritane/authcore/otp"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until Build, and a Builder is single use.
type Builder struct {
	config Config

	redis        redis.UniversalClient
	otpStore     otp.Store
	userProvider UserProvider
	notifier     Notifier
	auditSink    AuditSink
	clock        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies a Redis client. When set and no explicit store is
// given, the passcode store is Redis-backed so multiple processes share one
// side channel.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithOTPStore injects a passcode store, overriding the Redis/memory
// default.
func (b *Builder) WithOTPStore(store otp.Store) *Builder {
	b.otpStore = store
	return b
}

// WithUserProvider supplies the user-record store. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithNotifier supplies the passcode dispatch collaborator. Defaults to
// [NoOpNotifier].
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine clock. Test hook.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration, wires the components, and returns a
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	codec, err := credential.NewCodec(credential.Config{
		Iterations: cfg.Credential.Iterations,
		SaltBytes:  cfg.Credential.SaltBytes,
	})
	if err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	store := b.otpStore
	if store == nil {
		if b.redis != nil {
			store = otp.NewRedisStore(b.redis, otp.RedisConfig{
				TTL:    cfg.OTP.TTL,
				Digits: cfg.OTP.Digits,
				Prefix: cfg.OTP.RedisPrefix,
				Now:    clock,
			})
		} else {
			store = otp.NewMemoryStore(otp.MemoryConfig{
				TTL:    cfg.OTP.TTL,
				Digits: cfg.OTP.Digits,
				Now:    clock,
			})
		}
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = NoOpNotifier{}
	}

	engine := &Engine{
		config:   cfg,
		codec:    codec,
		otpStore: store,
		users:    b.userProvider,
		notifier: notifier,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		now:      clock,
	}

	if cfg.OTP.SweepInterval > 0 {
		engine.startSweep(cfg.OTP.SweepInterval)
	}

	b.built = true
	return engine, nil
}
