package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"territorial/internal/authz"
	"territorial/internal/counters"
	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/sanitize"
	"territorial/pkg/platform/sentinel"
	"territorial/pkg/requestcontext"
)

const maxNotesRunes = 500

// HouseUpdate is a progress update for one house. Nil Notes leaves notes as they are.
type HouseUpdate struct {
	Done  bool
	Notes *string
}

// MarkHouse records house progress. When done flips, the house, the three
// houses_done counters, the activity log and last_activity_at change in one
// transaction. It reports whether done changed.
func (s *Service) MarkHouse(ctx context.Context, callerID id.UserID, houseID id.HouseID, update HouseUpdate) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "territory.MarkHouse")
	defer span.End()

	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return false, err
	}
	h, err := s.store.FindHouse(ctx, houseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "house not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load house")
	}
	if err := s.authorize(caller, authz.ActionMarkHouse, h.CongregationID, ""); err != nil {
		return false, err
	}

	now := requestcontext.Now(ctx)
	var changed bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if update.Notes != nil {
			if err := s.store.SetHouseNotes(ctx, houseID, sanitize.Text(*update.Notes, maxNotesRunes), caller.ID, now); err != nil {
				return err
			}
		}
		ok, err := s.store.SetHouseDone(ctx, houseID, update.Done, caller.ID, now)
		if err != nil {
			return err
		}
		changed = ok
		if !ok {
			return nil
		}

		step := int64(1)
		action := models.ActionHouseDone
		if !update.Done {
			step = -1
			action = models.ActionHouseUndone
		}
		delta := counters.Delta{HousesDone: step}
		if err := s.counters.Apply(ctx,
			counters.Change{Kind: counters.KindQuadra, ID: h.QuadraID.String(), Delta: delta},
			counters.Change{Kind: counters.KindTerritory, ID: h.TerritoryID.String(), Delta: delta},
			counters.Change{Kind: counters.KindCongregation, ID: h.CongregationID.String(), Delta: delta},
		); err != nil {
			return err
		}
		if err := s.store.AppendActivity(ctx, &models.Activity{
			ID:          uuid.NewString(),
			TerritoryID: h.TerritoryID,
			QuadraID:    h.QuadraID,
			HouseID:     h.ID,
			UserID:      caller.ID,
			Action:      action,
			At:          now,
		}); err != nil {
			return err
		}
		return s.store.TouchLastActivity(ctx, h.TerritoryID, now)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "house not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update house")
	}

	if changed {
		s.metrics.IncHouseMark(map[bool]string{true: "done", false: "undone"}[update.Done])
	}
	s.logger.Debug("house updated",
		zap.String("request_id", requestcontext.RequestID(ctx)),
		zap.String("house_id", houseID.String()),
		zap.Bool("done", update.Done),
		zap.Bool("changed", changed),
	)
	return changed, nil
}
