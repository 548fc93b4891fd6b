package counters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"territorial/pkg/platform/tx"
	"territorial/pkg/requestcontext"
)

type Service struct {
	store   Store
	tx      tx.Transactor
	logger  *zap.Logger
	metrics *Metrics
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, transactor tx.Transactor, opts ...Option) *Service {
	s := &Service{store: store, tx: transactor, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply increments every change. It joins the caller's transaction when ctx
// carries one.
func (s *Service) Apply(ctx context.Context, changes ...Change) error {
	for _, c := range changes {
		if c.Delta.IsZero() || c.ID == "" {
			continue
		}
		if err := s.store.Increment(ctx, c.Kind, c.ID, c.Delta); err != nil {
			return fmt.Errorf("increment %s %s: %w", c.Kind, c.ID, err)
		}
		s.metrics.observeDelta(c.Kind)
	}
	return nil
}

// ApplyOnce claims key and applies changes in one transaction. It returns false
// without writing when the key was already claimed.
func (s *Service) ApplyOnce(ctx context.Context, key, kind string, changes ...Change) (bool, error) {
	applied := false
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		claimed, err := s.store.ClaimMarker(ctx, key, kind, requestcontext.Now(ctx).UTC())
		if err != nil {
			return fmt.Errorf("claim marker %s: %w", key, err)
		}
		if !claimed {
			applied = false
			return nil
		}
		applied = true
		return s.Apply(ctx, changes...)
	})
	if err != nil {
		return false, err
	}
	if !applied {
		s.metrics.incDuplicate(kind)
		s.logger.Debug("counter delta already applied", zap.String("key", key), zap.String("kind", kind))
	}
	return applied, nil
}
