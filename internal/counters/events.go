package counters

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"territorial/internal/events"
)

// EventHandler applies creation deltas from territory.created and
// quadra.created. Deletion deltas are applied by the cascade, which knows what
// it actually removed.
type EventHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewEventHandler(service *Service, logger *zap.Logger) *EventHandler {
	return &EventHandler{service: service, logger: logger}
}

func (h *EventHandler) Register(r *events.Router) {
	r.Register(events.TypeTerritoryCreated, events.HandlerFunc(h.territoryCreated))
	r.Register(events.TypeQuadraCreated, events.HandlerFunc(h.quadraCreated))
}

// MarkerKey is the idempotency key for a document event.
func MarkerKey(t events.Type, documentID string) string {
	return fmt.Sprintf("%s:%s", t, documentID)
}

func (h *EventHandler) territoryCreated(ctx context.Context, env events.Envelope) error {
	snap, err := events.Decode[events.TerritorySnapshot](env)
	if err != nil {
		return backoff.Permanent(err)
	}
	d := Delta{Territories: 1}
	if snap.Kind == events.KindRural {
		d.RuralTerritories = 1
	}
	applied, err := h.service.ApplyOnce(ctx, MarkerKey(env.Type, snap.TerritoryID.String()), string(env.Type),
		Change{Kind: KindCongregation, ID: snap.CongregationID.String(), Delta: d},
	)
	if err != nil {
		return err
	}
	h.logger.Debug("territory creation counted",
		zap.String("territory_id", snap.TerritoryID.String()),
		zap.Bool("applied", applied),
	)
	return nil
}

func (h *EventHandler) quadraCreated(ctx context.Context, env events.Envelope) error {
	snap, err := events.Decode[events.QuadraSnapshot](env)
	if err != nil {
		return backoff.Permanent(err)
	}
	d := Delta{Quadras: 1, Houses: snap.Houses}
	applied, err := h.service.ApplyOnce(ctx, MarkerKey(env.Type, snap.QuadraID.String()), string(env.Type),
		Change{Kind: KindTerritory, ID: snap.TerritoryID.String(), Delta: d},
		Change{Kind: KindCongregation, ID: snap.CongregationID.String(), Delta: d},
	)
	if err != nil {
		return err
	}
	h.logger.Debug("quadra creation counted",
		zap.String("quadra_id", snap.QuadraID.String()),
		zap.Bool("applied", applied),
	)
	return nil
}
