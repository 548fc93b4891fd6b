// Package lockout throttles sign-in attempts per email and client address.
// After Threshold failures inside Window the pair is locked for LockFor.
package lockout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/requestcontext"
)

type Store interface {
	// RecordFailure increments the failure count of key and returns the new
	// count. The count expires window after the first failure.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	// Lock marks key locked until the given time. The lock expires after ttl.
	Lock(ctx context.Context, key string, until time.Time, ttl time.Duration) error
	// LockedUntil returns the zero time when key is not locked.
	LockedUntil(ctx context.Context, key string) (time.Time, error)
	Clear(ctx context.Context, key string) error
}

type Config struct {
	Threshold int
	Window    time.Duration
	LockFor   time.Duration
}

func DefaultConfig() Config {
	return Config{Threshold: 5, Window: 15 * time.Minute, LockFor: 15 * time.Minute}
}

type Service struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, cfg: DefaultConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key identifies an email and client address pair. The email is hashed so it
// never appears in Redis.
func Key(email, ip string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "lockout:" + hex.EncodeToString(sum[:12]) + ":" + ip
}

// Check fails with CodeRateLimited while the pair is locked.
func (s *Service) Check(ctx context.Context, email, ip string) error {
	until, err := s.store.LockedUntil(ctx, Key(email, ip))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sign-in lockout")
	}
	if until.After(requestcontext.Now(ctx)) {
		return dErrors.New(dErrors.CodeRateLimited, "too many failed sign-in attempts")
	}
	return nil
}

// RecordFailure counts a failed attempt and locks the pair once the threshold
// is reached. It reports whether the pair is now locked.
func (s *Service) RecordFailure(ctx context.Context, email, ip string) (bool, error) {
	key := Key(email, ip)
	n, err := s.store.RecordFailure(ctx, key, s.cfg.Window)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sign-in failure")
	}
	if n < s.cfg.Threshold {
		return false, nil
	}
	until := requestcontext.Now(ctx).Add(s.cfg.LockFor)
	if err := s.store.Lock(ctx, key, until, s.cfg.LockFor); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock sign-in")
	}
	s.logger.Warn("sign-in locked",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("key", key),
		zap.Time("locked_until", until),
	)
	return true, nil
}

// Clear forgets the failures of the pair after a successful sign-in.
func (s *Service) Clear(ctx context.Context, email, ip string) error {
	if err := s.store.Clear(ctx, Key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear sign-in failures")
	}
	return nil
}
