// Package service implements territory lifecycle operations: assignment,
// return, progress reset, history correction, and the administrative writes
// that create and delete territories, quadras and house progress.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"territorial/internal/authz"
	"territorial/internal/counters"
	"territorial/internal/events"
	"territorial/internal/profile"
	"territorial/internal/territory/metrics"
	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/sentinel"
	"territorial/pkg/platform/tx"
	"territorial/pkg/requestcontext"
)

// Store persists territories, quadras, houses and activity. Lookups of absent
// documents return sentinel.ErrNotFound.
type Store interface {
	FindTerritory(ctx context.Context, territoryID id.TerritoryID) (*models.Territory, error)
	CreateTerritory(ctx context.Context, t *models.Territory) error
	// UpdateLifecycle writes status, assignment and history when the stored
	// version equals expectedVersion, bumping it. A lost race returns
	// sentinel.ErrStaleVersion.
	UpdateLifecycle(ctx context.Context, t *models.Territory, expectedVersion int64) error
	DeleteTerritory(ctx context.Context, territoryID id.TerritoryID) error

	FindQuadra(ctx context.Context, quadraID id.QuadraID) (*models.Quadra, error)
	CreateQuadra(ctx context.Context, q *models.Quadra, houses []*models.House) error
	DeleteQuadra(ctx context.Context, quadraID id.QuadraID) error

	FindHouse(ctx context.Context, houseID id.HouseID) (*models.House, error)
	// SetHouseDone changes done only if it differs and reports whether it did.
	SetHouseDone(ctx context.Context, houseID id.HouseID, done bool, by id.UserID, at time.Time) (bool, error)
	SetHouseNotes(ctx context.Context, houseID id.HouseID, notes string, by id.UserID, at time.Time) error

	AppendActivity(ctx context.Context, a *models.Activity) error
	TouchLastActivity(ctx context.Context, territoryID id.TerritoryID, at time.Time) error
	DeleteActivityBatch(ctx context.Context, territoryID id.TerritoryID, limit int) (int64, error)
	// ResetHouses flips every done house of the territory to undone and returns
	// how many changed.
	ResetHouses(ctx context.Context, territoryID id.TerritoryID) (int64, error)
	// ZeroHousesDone sets houses_done to zero on the territory and its quadras.
	ZeroHousesDone(ctx context.Context, territoryID id.TerritoryID) error
}

type ProfileReader interface {
	FindByID(ctx context.Context, userID id.UserID) (*profile.Profile, error)
}

type CounterApplier interface {
	Apply(ctx context.Context, changes ...counters.Change) error
}

type EventAppender interface {
	Append(ctx context.Context, env events.Envelope) error
}

// Service orchestrates territory lifecycle operations.
type Service struct {
	store       Store
	profiles    ProfileReader
	counters    CounterApplier
	outbox      EventAppender
	tx          tx.Transactor
	logger      *zap.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	maxAttempts int
	baseBackoff time.Duration
	batchSize   int
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetry sets the optimistic-write attempt budget and initial backoff.
func WithRetry(attempts int, base time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
		if base > 0 {
			s.baseBackoff = base
		}
	}
}

// WithBatchSize bounds bulk deletes of activity documents.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func New(store Store, profiles ProfileReader, counterSvc CounterApplier, outbox EventAppender, transactor tx.Transactor, opts ...Option) *Service {
	s := &Service{
		store:       store,
		profiles:    profiles,
		counters:    counterSvc,
		outbox:      outbox,
		tx:          transactor,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer("territorial/territory"),
		maxAttempts: 4,
		baseBackoff: 25 * time.Millisecond,
		batchSize:   500,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// caller loads the acting user's profile. A token whose profile is gone is
// treated as unauthenticated.
func (s *Service) caller(ctx context.Context, callerID id.UserID) (*profile.Profile, error) {
	p, err := s.profiles.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "caller profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load caller profile")
	}
	return p, nil
}

func (s *Service) authorize(caller *profile.Profile, action authz.Action, congregationID id.CongregationID, target id.UserID) error {
	req := caller.AuthzRequest(action, congregationID)
	req.TargetID = target
	decision := authz.Decide(req)
	if !decision.Allowed {
		s.metrics.IncDenied(string(action))
		return decision.Err()
	}
	return nil
}

func (s *Service) loadTerritory(ctx context.Context, territoryID id.TerritoryID) (*models.Territory, error) {
	t, err := s.store.FindTerritory(ctx, territoryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "territory not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load territory")
	}
	return t, nil
}

// withOptimisticRetry runs attempt until it stops losing version races. Domain
// errors end the loop immediately; an exhausted budget is a contention error.
func (s *Service) withOptimisticRetry(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.baseBackoff
	policy.MaxInterval = 20 * s.baseBackoff
	policy.MaxElapsedTime = 0

	tries := 0
	err := backoff.Retry(func() error {
		tries++
		err := attempt(ctx)
		if errors.Is(err, sentinel.ErrStaleVersion) {
			s.metrics.IncConflict(op)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxAttempts-1)), ctx))

	if errors.Is(err, sentinel.ErrStaleVersion) {
		s.logger.Warn("optimistic write exhausted retries",
			zap.String("op", op),
			zap.Int("attempts", tries),
			zap.String("request_id", requestcontext.RequestID(ctx)),
		)
		return dErrors.Wrap(err, dErrors.CodeContention, "concurrent update, please retry")
	}
	return err
}

func (s *Service) emit(ctx context.Context, t events.Type, aggregateID string, payload any) error {
	env, err := events.New(t, aggregateID, requestcontext.Now(ctx), payload)
	if err != nil {
		return err
	}
	env.RequestID = requestcontext.RequestID(ctx)
	return s.outbox.Append(ctx, env)
}
