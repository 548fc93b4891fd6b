// Package cascade removes the descendants of deleted territories and quadras
// and applies the matching counter decrements. Counts come only from what each
// invocation deleted, so redelivered events never decrement twice.
package cascade

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"territorial/internal/counters"
	"territorial/internal/events"
	id "territorial/pkg/domain"
	"territorial/pkg/requestcontext"
)

// Store deletes descendant documents in bounded batches.
type Store interface {
	QuadraIDs(ctx context.Context, territoryID id.TerritoryID, limit int) ([]id.QuadraID, error)
	// DeleteHouses removes up to limit houses of the quadra with the given done
	// flag and returns how many it removed.
	DeleteHouses(ctx context.Context, quadraID id.QuadraID, done bool, limit int) (int64, error)
	DeleteQuadraDoc(ctx context.Context, quadraID id.QuadraID) (bool, error)
	DeleteActivityBatch(ctx context.Context, territoryID id.TerritoryID, limit int) (int64, error)
}

type Counters interface {
	Apply(ctx context.Context, changes ...counters.Change) error
	ApplyOnce(ctx context.Context, key, kind string, changes ...counters.Change) (bool, error)
}

type Service struct {
	store     Store
	counters  Counters
	logger    *zap.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	batchSize int
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

func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func New(store Store, counterSvc Counters, opts ...Option) *Service {
	s := &Service{
		store:     store,
		counters:  counterSvc,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("territorial/cascade"),
		batchSize: 500,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register subscribes the service to deletion events.
func (s *Service) Register(r *events.Router) {
	r.Register(events.TypeTerritoryDeleted, events.HandlerFunc(s.handleTerritoryDeleted))
	r.Register(events.TypeQuadraDeleted, events.HandlerFunc(s.handleQuadraDeleted))
}

func (s *Service) handleTerritoryDeleted(ctx context.Context, env events.Envelope) error {
	snap, err := events.Decode[events.TerritorySnapshot](env)
	if err != nil {
		return backoff.Permanent(err)
	}
	return s.DeleteTerritory(ctx, snap)
}

func (s *Service) handleQuadraDeleted(ctx context.Context, env events.Envelope) error {
	snap, err := events.Decode[events.QuadraSnapshot](env)
	if err != nil {
		return backoff.Permanent(err)
	}
	return s.DeleteQuadra(ctx, snap)
}

// Removed tallies one invocation's deletions.
type Removed struct {
	Quadras    int64
	Houses     int64
	HousesDone int64
	Activity   int64
}

// DeleteTerritory removes every quadra with its houses and the activity log of
// a deleted territory, then decrements the congregation's territory count once.
func (s *Service) DeleteTerritory(ctx context.Context, snap events.TerritorySnapshot) error {
	ctx, span := s.tracer.Start(ctx, "cascade.DeleteTerritory")
	defer span.End()
	span.SetAttributes(attribute.String("territory_id", snap.TerritoryID.String()))

	var total Removed
	for {
		quadraIDs, err := s.store.QuadraIDs(ctx, snap.TerritoryID, s.batchSize)
		if err != nil {
			return fmt.Errorf("list quadras of %s: %w", snap.TerritoryID, err)
		}
		if len(quadraIDs) == 0 {
			break
		}
		for _, quadraID := range quadraIDs {
			r, err := s.deleteQuadraTree(ctx, quadraID, snap.TerritoryID, snap.CongregationID, true)
			if err != nil {
				return err
			}
			total.add(r)
		}
	}

	for {
		n, err := s.store.DeleteActivityBatch(ctx, snap.TerritoryID, s.batchSize)
		if err != nil {
			return fmt.Errorf("delete activity of %s: %w", snap.TerritoryID, err)
		}
		total.Activity += n
		if n < int64(s.batchSize) {
			break
		}
	}

	root := counters.Delta{Territories: -1}
	if snap.Kind == events.KindRural {
		root.RuralTerritories = -1
	}
	applied, err := s.counters.ApplyOnce(ctx,
		counters.MarkerKey(events.TypeTerritoryDeleted, snap.TerritoryID.String()),
		string(events.TypeTerritoryDeleted),
		counters.Change{Kind: counters.KindCongregation, ID: snap.CongregationID.String(), Delta: root},
	)
	if err != nil {
		return fmt.Errorf("decrement territory %s: %w", snap.TerritoryID, err)
	}

	s.metrics.observe("territory", total)
	s.logger.Info("territory cascade finished",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("territory_id", snap.TerritoryID.String()),
		zap.Int64("quadras", total.Quadras),
		zap.Int64("houses", total.Houses),
		zap.Int64("houses_done", total.HousesDone),
		zap.Int64("activity", total.Activity),
		zap.Bool("root_decremented", applied),
	)
	return nil
}

// DeleteQuadra removes the houses of a deleted quadra and decrements the owning
// territory and the congregation. The quadra document is already gone.
func (s *Service) DeleteQuadra(ctx context.Context, snap events.QuadraSnapshot) error {
	ctx, span := s.tracer.Start(ctx, "cascade.DeleteQuadra")
	defer span.End()
	span.SetAttributes(attribute.String("quadra_id", snap.QuadraID.String()))

	removed, err := s.deleteQuadraTree(ctx, snap.QuadraID, snap.TerritoryID, snap.CongregationID, false)
	if err != nil {
		return err
	}

	root := counters.Delta{Quadras: -1}
	applied, err := s.counters.ApplyOnce(ctx,
		counters.MarkerKey(events.TypeQuadraDeleted, snap.QuadraID.String()),
		string(events.TypeQuadraDeleted),
		counters.Change{Kind: counters.KindTerritory, ID: snap.TerritoryID.String(), Delta: root},
		counters.Change{Kind: counters.KindCongregation, ID: snap.CongregationID.String(), Delta: root},
	)
	if err != nil {
		return fmt.Errorf("decrement quadra %s: %w", snap.QuadraID, err)
	}

	s.metrics.observe("quadra", removed)
	s.logger.Info("quadra cascade finished",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("quadra_id", snap.QuadraID.String()),
		zap.Int64("houses", removed.Houses),
		zap.Int64("houses_done", removed.HousesDone),
		zap.Bool("root_decremented", applied),
	)
	return nil
}

// deleteQuadraTree deletes houses batch by batch, decrementing after each
// batch. Rounds repeat until one removes nothing, so a house flipped between
// the done and undone passes is still found. With withDoc it also deletes the
// quadra document and counts it.
func (s *Service) deleteQuadraTree(ctx context.Context, quadraID id.QuadraID, territoryID id.TerritoryID, congregationID id.CongregationID, withDoc bool) (Removed, error) {
	var r Removed
	for {
		var round int64
		for _, done := range []bool{true, false} {
			for {
				n, err := s.store.DeleteHouses(ctx, quadraID, done, s.batchSize)
				if err != nil {
					return r, fmt.Errorf("delete houses of %s: %w", quadraID, err)
				}
				if n == 0 {
					break
				}
				round += n
				d := counters.Delta{Houses: -n}
				if done {
					d.HousesDone = -n
					r.HousesDone += n
				}
				r.Houses += n
				if err := s.counters.Apply(ctx, s.chain(quadraID, territoryID, congregationID, d)...); err != nil {
					return r, fmt.Errorf("decrement houses of %s: %w", quadraID, err)
				}
			}
		}
		if round == 0 {
			break
		}
	}
	if !withDoc {
		return r, nil
	}
	deleted, err := s.store.DeleteQuadraDoc(ctx, quadraID)
	if err != nil {
		return r, fmt.Errorf("delete quadra %s: %w", quadraID, err)
	}
	if deleted {
		r.Quadras++
		d := counters.Delta{Quadras: -1}
		if err := s.counters.Apply(ctx,
			counters.Change{Kind: counters.KindTerritory, ID: territoryID.String(), Delta: d},
			counters.Change{Kind: counters.KindCongregation, ID: congregationID.String(), Delta: d},
		); err != nil {
			return r, fmt.Errorf("decrement quadra %s: %w", quadraID, err)
		}
	}
	return r, nil
}

func (s *Service) chain(quadraID id.QuadraID, territoryID id.TerritoryID, congregationID id.CongregationID, d counters.Delta) []counters.Change {
	return []counters.Change{
		{Kind: counters.KindQuadra, ID: quadraID.String(), Delta: d},
		{Kind: counters.KindTerritory, ID: territoryID.String(), Delta: d},
		{Kind: counters.KindCongregation, ID: congregationID.String(), Delta: d},
	}
}

func (r *Removed) add(o Removed) {
	r.Quadras += o.Quadras
	r.Houses += o.Houses
	r.HousesDone += o.HousesDone
	r.Activity += o.Activity
}
