package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veritane/authcore/internal"
)

const redisKeyPrefix = "acotp"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	TTL      time.Duration
	Digits   int
	Prefix   string
	Now      func() time.Time
	Generate Generator
}

// RedisStore keeps passcode entries in Redis so multiple processes share one
// side channel. Single-key commands give the per-identifier serialization
// [Store] requires. The issue timestamp is embedded in the value rather than
// delegated to the key TTL so an expired entry is reported as ErrCodeExpired
// instead of silently degrading to ErrCodeNotFound; the key TTL is kept at
// twice the logical TTL purely as an eviction backstop.
type RedisStore struct {
	redis    redis.UniversalClient
	ttl      time.Duration
	digits   int
	prefix   string
	now      func() time.Time
	generate Generator
}

// NewRedisStore creates a store on the given client.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) *RedisStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Digits <= 0 {
		cfg.Digits = DefaultDigits
	}
	if cfg.Prefix == "" {
		cfg.Prefix = redisKeyPrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Generate == nil {
		cfg.Generate = internal.NewCode
	}

	return &RedisStore{
		redis:    client,
		ttl:      cfg.TTL,
		digits:   cfg.Digits,
		prefix:   cfg.Prefix,
		now:      cfg.Now,
		generate: cfg.Generate,
	}
}

func (s *RedisStore) key(identifier string) string {
	return s.prefix + ":" + identifier
}

// Millisecond precision keeps the TTL boundary aligned with the memory
// store; whole seconds would round the issue time down by up to a second.
func encodeRedisEntry(code string, issuedAt time.Time) string {
	return strconv.FormatInt(issuedAt.UnixMilli(), 10) + ":" + code
}

func decodeRedisEntry(value string) (code string, issuedAt time.Time, err error) {
	sep := strings.IndexByte(value, ':')
	if sep <= 0 || sep == len(value)-1 {
		return "", time.Time{}, errors.New("malformed passcode entry")
	}

	millis, err := strconv.ParseInt(value[:sep], 10, 64)
	if err != nil {
		return "", time.Time{}, errors.New("malformed passcode timestamp")
	}

	return value[sep+1:], time.UnixMilli(millis), nil
}

// Issue implements [Store].
func (s *RedisStore) Issue(ctx context.Context, identifier string) (string, error) {
	code, err := s.generate(s.digits)
	if err != nil {
		return "", err
	}

	value := encodeRedisEntry(code, s.now())
	if err := s.redis.Set(ctx, s.key(identifier), value, 2*s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return code, nil
}

// Validate implements [Store].
func (s *RedisStore) Validate(ctx context.Context, identifier, code string) error {
	key := s.key(identifier)

	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	stored, issuedAt, err := decodeRedisEntry(value)
	if err != nil {
		// Unreadable entries are treated as expired: evict and force reissue.
		_ = s.redis.Del(ctx, key).Err()
		return ErrCodeExpired
	}

	if s.now().Sub(issuedAt) > s.ttl {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrCodeMismatch
	}

	return nil
}

// Remove implements [Store].
func (s *RedisStore) Remove(ctx context.Context, identifier string) error {
	if err := s.redis.Del(ctx, s.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Sweep implements [Store]. Redis evicts keys natively via the backstop TTL,
// so there is nothing to scan.
func (s *RedisStore) Sweep(context.Context) error {
	return nil
}
