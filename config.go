package authcore

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full engine configuration. Instances are configured during
// initialization and treated as immutable after Build.
type Config struct {
	Credential CredentialConfig
	OTP        OTPConfig
	Lockout    LockoutConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// CredentialConfig holds codec cost parameters.
type CredentialConfig struct {
	// Iterations is the key-stretching round count, minimum 100000.
	Iterations int
	// SaltBytes is the random salt length in bytes, minimum 8.
	SaltBytes int
	// MinPasswordLength applies at registration only; verification accepts
	// whatever was registered.
	MinPasswordLength int
}

// OTPConfig holds passcode side-channel parameters.
type OTPConfig struct {
	// Digits is the passcode length.
	Digits int
	// TTL is the validity window of an issued passcode.
	TTL time.Duration
	// SweepInterval enables the periodic expiry sweep when positive. At
	// zero, the engine sweeps opportunistically before each issue.
	SweepInterval time.Duration
	// AllowedEmailDomains restricts RequestOTP to the listed email domains.
	// Empty means any email identifier is accepted.
	AllowedEmailDomains []string
	// RedisPrefix overrides the key prefix of the Redis-backed store.
	RedisPrefix string
}

// LockoutConfig holds the failed-attempt policy.
type LockoutConfig struct {
	// Threshold is the failure count that locks the account.
	Threshold int
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking the request path when the
	// buffer is saturated. Dropped counts are observable via AuditDropped.
	DropIfFull bool
}

// MetricsConfig controls the lock-free counter set.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Credential: CredentialConfig{
			Iterations:        100_000,
			SaltBytes:         16,
			MinPasswordLength: 8,
		},
		OTP: OTPConfig{
			Digits: 6,
			TTL:    10 * time.Minute,
		},
		Lockout: LockoutConfig{
			Threshold: DefaultLockoutThreshold,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks cross-field invariants. Called by Build.
func (c Config) Validate() error {
	if c.Credential.Iterations < 100_000 {
		return errors.New("credential iterations must be >= 100000")
	}
	if c.Credential.SaltBytes < 8 {
		return errors.New("credential salt length must be >= 8 bytes")
	}
	if c.Credential.MinPasswordLength < 1 {
		return errors.New("minimum password length must be >= 1")
	}
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("otp digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("otp ttl must be positive")
	}
	if c.OTP.SweepInterval < 0 {
		return errors.New("otp sweep interval must not be negative")
	}
	if c.Lockout.Threshold < 1 {
		return errors.New("lockout threshold must be >= 1")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("audit buffer size must be >= 1 when audit is enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.OTP.AllowedEmailDomains != nil {
		out.OTP.AllowedEmailDomains = append([]string(nil), cfg.OTP.AllowedEmailDomains...)
	}
	return out
}

type envConfig struct {
	CredentialIterations int           `env:"AUTHCORE_CREDENTIAL_ITERATIONS" envDefault:"100000"`
	CredentialSaltBytes  int           `env:"AUTHCORE_CREDENTIAL_SALT_BYTES" envDefault:"16"`
	MinPasswordLength    int           `env:"AUTHCORE_MIN_PASSWORD_LENGTH" envDefault:"8"`
	OTPDigits            int           `env:"AUTHCORE_OTP_DIGITS" envDefault:"6"`
	OTPTTL               time.Duration `env:"AUTHCORE_OTP_TTL" envDefault:"10m"`
	OTPSweepInterval     time.Duration `env:"AUTHCORE_OTP_SWEEP_INTERVAL" envDefault:"0"`
	OTPAllowedDomains    []string      `env:"AUTHCORE_OTP_ALLOWED_DOMAINS" envSeparator:","`
	OTPRedisPrefix       string        `env:"AUTHCORE_OTP_REDIS_PREFIX"`
	LockoutThreshold     int           `env:"AUTHCORE_LOCKOUT_THRESHOLD" envDefault:"5"`
	AuditEnabled         bool          `env:"AUTHCORE_AUDIT_ENABLED" envDefault:"true"`
	AuditBufferSize      int           `env:"AUTHCORE_AUDIT_BUFFER_SIZE" envDefault:"256"`
	AuditDropIfFull      bool          `env:"AUTHCORE_AUDIT_DROP_IF_FULL" envDefault:"true"`
	MetricsEnabled       bool          `env:"AUTHCORE_METRICS_ENABLED" envDefault:"true"`
	MetricsLatency       bool          `env:"AUTHCORE_METRICS_LATENCY" envDefault:"false"`
}

// ConfigFromEnv builds a Config from AUTHCORE_* environment variables,
// falling back to DefaultConfig values. Intended for binary embedders that
// configure through the process environment instead of code.
func ConfigFromEnv() (Config, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.Credential.Iterations = e.CredentialIterations
	cfg.Credential.SaltBytes = e.CredentialSaltBytes
	cfg.Credential.MinPasswordLength = e.MinPasswordLength
	cfg.OTP.Digits = e.OTPDigits
	cfg.OTP.TTL = e.OTPTTL
	cfg.OTP.SweepInterval = e.OTPSweepInterval
	cfg.OTP.AllowedEmailDomains = e.OTPAllowedDomains
	cfg.OTP.RedisPrefix = e.OTPRedisPrefix
	cfg.Lockout.Threshold = e.LockoutThreshold
	cfg.Audit.Enabled = e.AuditEnabled
	cfg.Audit.BufferSize = e.AuditBufferSize
	cfg.Audit.DropIfFull = e.AuditDropIfFull
	cfg.Metrics.Enabled = e.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = e.MetricsLatency

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
