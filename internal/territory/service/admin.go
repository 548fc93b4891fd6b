package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"territorial/internal/authz"
	"territorial/internal/events"
	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/sentinel"
	"territorial/pkg/requestcontext"
)

// CreateTerritoryRequest carries the fields of a new territory.
type CreateTerritoryRequest struct {
	Number string
	Name   string
	Kind   models.Kind
}

// CreateTerritory inserts the territory and queues territory.created in the
// same transaction. Congregation counters follow from the event.
func (s *Service) CreateTerritory(ctx context.Context, callerID id.UserID, congregationID id.CongregationID, req CreateTerritoryRequest) (*models.Territory, error) {
	ctx, span := s.tracer.Start(ctx, "territory.CreateTerritory")
	defer span.End()

	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionManageTerritories, congregationID, ""); err != nil {
		return nil, err
	}
	t, err := models.NewTerritory(id.NewTerritoryID(), congregationID, req.Number, req.Name, req.Kind, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateTerritory(ctx, t); err != nil {
			return err
		}
		return s.emit(ctx, events.TypeTerritoryCreated, t.ID.String(), territorySnapshot(t))
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "territory number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create territory")
	}

	s.metrics.IncLifecycle("create_territory")
	s.logger.Info("territory created",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("territory_id", t.ID.String()),
		zap.String("congregation_id", congregationID.String()),
	)
	return t, nil
}

// DeleteTerritory removes the root document and queues territory.deleted.
// Quadras, houses, activity and counters are handled by the cascade.
func (s *Service) DeleteTerritory(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID) error {
	ctx, span := s.tracer.Start(ctx, "territory.DeleteTerritory")
	defer span.End()

	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return err
	}
	t, err := s.loadTerritory(ctx, territoryID)
	if err != nil {
		return err
	}
	if err := s.authorize(caller, authz.ActionManageTerritories, t.CongregationID, ""); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteTerritory(ctx, territoryID); err != nil {
			return err
		}
		return s.emit(ctx, events.TypeTerritoryDeleted, t.ID.String(), territorySnapshot(t))
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "territory not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete territory")
	}

	s.metrics.IncLifecycle("delete_territory")
	s.logger.Info("territory deleted",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("territory_id", territoryID.String()),
	)
	return nil
}

// CreateQuadra inserts a quadra with houseCount undone houses and queues
// quadra.created.
func (s *Service) CreateQuadra(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID, name string, houseCount int) (*models.Quadra, error) {
	ctx, span := s.tracer.Start(ctx, "territory.CreateQuadra")
	defer span.End()

	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	t, err := s.loadTerritory(ctx, territoryID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionManageTerritories, t.CongregationID, ""); err != nil {
		return nil, err
	}
	q, houses, err := models.NewQuadra(id.NewQuadraID(), t, name, houseCount, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateQuadra(ctx, q, houses); err != nil {
			return err
		}
		return s.emit(ctx, events.TypeQuadraCreated, q.ID.String(), quadraSnapshot(q))
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create quadra")
	}

	s.metrics.IncLifecycle("create_quadra")
	s.logger.Info("quadra created",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("quadra_id", q.ID.String()),
		zap.String("territory_id", territoryID.String()),
		zap.Int("houses", houseCount),
	)
	return q, nil
}

// DeleteQuadra removes the quadra document and queues quadra.deleted.
func (s *Service) DeleteQuadra(ctx context.Context, callerID id.UserID, quadraID id.QuadraID) error {
	ctx, span := s.tracer.Start(ctx, "territory.DeleteQuadra")
	defer span.End()

	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return err
	}
	q, err := s.store.FindQuadra(ctx, quadraID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "quadra not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load quadra")
	}
	if err := s.authorize(caller, authz.ActionManageTerritories, q.CongregationID, ""); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteQuadra(ctx, quadraID); err != nil {
			return err
		}
		return s.emit(ctx, events.TypeQuadraDeleted, q.ID.String(), quadraSnapshot(q))
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "quadra not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete quadra")
	}

	s.metrics.IncLifecycle("delete_quadra")
	s.logger.Info("quadra deleted",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("quadra_id", quadraID.String()),
	)
	return nil
}

func territorySnapshot(t *models.Territory) events.TerritorySnapshot {
	return events.TerritorySnapshot{
		TerritoryID:    t.ID,
		CongregationID: t.CongregationID,
		Number:         t.Number,
		Kind:           events.TerritoryKind(t.Kind),
	}
}

func quadraSnapshot(q *models.Quadra) events.QuadraSnapshot {
	return events.QuadraSnapshot{
		QuadraID:       q.ID,
		TerritoryID:    q.TerritoryID,
		CongregationID: q.CongregationID,
		Houses:         q.Stats.Houses,
	}
}
