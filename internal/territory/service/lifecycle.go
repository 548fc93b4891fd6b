package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"territorial/internal/authz"
	"territorial/internal/counters"
	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/sentinel"
	"territorial/pkg/requestcontext"
)

const maxAssignmentDays = 365

// Assign gives an available territory to assigneeID for durationDays.
func (s *Service) Assign(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID, assigneeID id.UserID, durationDays int) (*models.Territory, error) {
	ctx, span := s.tracer.Start(ctx, "territory.Assign")
	defer span.End()
	span.SetAttributes(attribute.String("territory_id", territoryID.String()))

	if durationDays <= 0 || durationDays > maxAssignmentDays {
		return nil, dErrors.New(dErrors.CodeValidation, "duration days must be between 1 and 365")
	}
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var result *models.Territory
	err = s.withOptimisticRetry(ctx, "assign", func(ctx context.Context) error {
		t, err := s.loadTerritory(ctx, territoryID)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionAssignTerritory, t.CongregationID, assigneeID); err != nil {
			return err
		}
		assignee, err := s.profiles.FindByID(ctx, assigneeID)
		if errors.Is(err, sentinel.ErrNotFound) || (err == nil && assignee.CongregationID != t.CongregationID) {
			return dErrors.New(dErrors.CodeNotFound, "assignee not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assignee")
		}
		if err := t.CanAssign(); err != nil {
			return err
		}
		expected := t.Version
		t.ApplyAssignment(assignee.ID, assignee.Name, durationDays, requestcontext.Now(ctx))
		if err := s.store.UpdateLifecycle(ctx, t, expected); err != nil {
			return s.translateWrite(err)
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLifecycle("assign")
	s.logger.Info("territory assigned",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("territory_id", territoryID.String()),
		zap.String("assignee_id", assigneeID.String()),
		zap.Int("duration_days", durationDays),
	)
	return result, nil
}

// Return closes the current assignment into the history log.
func (s *Service) Return(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID) (*models.HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "territory.Return")
	defer span.End()

	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var entry models.HistoryEntry
	err = s.withOptimisticRetry(ctx, "return", func(ctx context.Context) error {
		t, err := s.loadTerritory(ctx, territoryID)
		if err != nil {
			return err
		}
		var holder id.UserID
		if t.Assignment != nil {
			holder = t.Assignment.AssigneeID
		}
		if err := s.authorize(caller, authz.ActionReturnTerritory, t.CongregationID, holder); err != nil {
			return err
		}
		if err := t.CanReturn(); err != nil {
			return err
		}
		expected := t.Version
		entry = t.ApplyReturn(requestcontext.Now(ctx))
		return s.translateWrite(s.store.UpdateLifecycle(ctx, t, expected))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLifecycle("return")
	s.logger.Info("territory returned",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("territory_id", territoryID.String()),
		zap.String("history_id", entry.ID.String()),
	)
	return &entry, nil
}

// EditHistoryLog applies an administrator's correction to one history entry.
func (s *Service) EditHistoryLog(ctx context.Context, callerID id.UserID, territoryID id.TerritoryID, logID id.HistoryLogID, correction models.HistoryCorrection) (*models.HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "territory.EditHistoryLog")
	defer span.End()

	if err := correction.Validate(); err != nil {
		return nil, err
	}
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var edited models.HistoryEntry
	err = s.withOptimisticRetry(ctx, "edit_history", func(ctx context.Context) error {
		t, err := s.loadTerritory(ctx, territoryID)
		if err != nil {
			return err
		}
		if err := s.authorize(caller, authz.ActionEditHistory, t.CongregationID, ""); err != nil {
			return err
		}
		expected := t.Version
		if err := t.CorrectHistory(logID, correction, caller.ID, requestcontext.Now(ctx)); err != nil {
			return err
		}
		for _, e := range t.History {
			if e.ID == logID {
				edited = e
			}
		}
		return s.translateWrite(s.store.UpdateLifecycle(ctx, t, expected))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLifecycle("edit_history")
	s.logger.Info("territory history corrected",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("territory_id", territoryID.String()),
		zap.String("history_id", logID.String()),
		zap.String("edited_by", caller.ID.String()),
	)
	return &edited, nil
}

// ResetProgress clears the territory's activity log, then marks every done
// house undone and zeroes the houses_done counters in one transaction. It
// returns how many houses changed. Re-running it is safe.
func (s *Service) ResetProgress(ctx context.Context, callerID id.UserID, congregationID id.CongregationID, territoryID id.TerritoryID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "territory.ResetProgress")
	defer span.End()
	start := time.Now()

	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return 0, err
	}
	t, err := s.loadTerritory(ctx, territoryID)
	if err != nil {
		return 0, err
	}
	if t.CongregationID != congregationID {
		return 0, dErrors.New(dErrors.CodeNotFound, "territory not found")
	}
	if err := s.authorize(caller, authz.ActionResetProgress, t.CongregationID, ""); err != nil {
		return 0, err
	}

	removed, err := s.deleteActivity(ctx, territoryID)
	if err != nil {
		return 0, err
	}

	var changed int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.store.ResetHouses(ctx, territoryID)
		if err != nil {
			return err
		}
		changed = n
		if n == 0 {
			return nil
		}
		if err := s.store.ZeroHousesDone(ctx, territoryID); err != nil {
			return err
		}
		return s.counters.Apply(ctx, counters.Change{
			Kind:  counters.KindCongregation,
			ID:    t.CongregationID.String(),
			Delta: counters.Delta{HousesDone: -n},
		})
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset territory progress")
	}

	s.metrics.IncLifecycle("reset_progress")
	s.metrics.ObserveReset(changed, time.Since(start))
	s.logger.Info("territory progress reset",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("territory_id", territoryID.String()),
		zap.Int64("houses_changed", changed),
		zap.Int64("activity_removed", removed),
	)
	return changed, nil
}

func (s *Service) deleteActivity(ctx context.Context, territoryID id.TerritoryID) (int64, error) {
	var total int64
	for {
		n, err := s.store.DeleteActivityBatch(ctx, territoryID, s.batchSize)
		if err != nil {
			return total, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete territory activity")
		}
		total += n
		if n < int64(s.batchSize) {
			return total, nil
		}
	}
}

// translateWrite keeps the stale-version sentinel visible to the retry loop and
// maps everything else to domain errors.
func (s *Service) translateWrite(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrStaleVersion):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "territory not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update territory")
	}
}
