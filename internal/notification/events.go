package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"territorial/internal/events"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/requestcontext"
)

// MarkerClaimer records processed event keys. ClaimMarker reports whether this
// call created the marker.
type MarkerClaimer interface {
	ClaimMarker(ctx context.Context, key, kind string, at time.Time) (bool, error)
}

// EventHandler turns territory.overdue and user.created events into pushes.
// The marker is claimed before sending, so a redelivered event never notifies
// twice; a crash between claim and send drops that notification.
type EventHandler struct {
	service *Service
	markers MarkerClaimer
	logger  *zap.Logger
}

func NewEventHandler(service *Service, markers MarkerClaimer, logger *zap.Logger) *EventHandler {
	return &EventHandler{service: service, markers: markers, logger: logger}
}

func (h *EventHandler) Register(r *events.Router) {
	r.Register(events.TypeTerritoryOverdue, events.HandlerFunc(h.territoryOverdue))
	r.Register(events.TypeUserCreated, events.HandlerFunc(h.userCreated))
}

func (h *EventHandler) claim(ctx context.Context, key string, t events.Type) (bool, error) {
	claimed, err := h.markers.ClaimMarker(ctx, "notify:"+key, string(t), requestcontext.Now(ctx).UTC())
	if err != nil {
		return false, fmt.Errorf("claim notification marker %s: %w", key, err)
	}
	if !claimed {
		h.logger.Debug("notification already sent", zap.String("key", key))
	}
	return claimed, nil
}

func (h *EventHandler) territoryOverdue(ctx context.Context, env events.Envelope) error {
	ev, err := events.Decode[events.TerritoryOverdue](env)
	if err != nil {
		return backoff.Permanent(err)
	}
	if ev.AssigneeID == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%s:%d", env.Type, ev.TerritoryID, ev.AssignedAt.Unix())
	claimed, err := h.claim(ctx, key, env.Type)
	if err != nil || !claimed {
		return err
	}

	label := ev.Number
	if ev.Name != "" {
		label = fmt.Sprintf("%s (%s)", ev.Number, ev.Name)
	}
	content, err := NewContent(TypeTerritoryOverdue,
		"Territory overdue",
		fmt.Sprintf("Territory %s was due on %s. Please return it or ask for an extension.", label, ev.DueDate.Format("2006-01-02")),
		map[string]string{"kind": string(TypeTerritoryOverdue), "territory_id": ev.TerritoryID.String()},
	)
	if err != nil {
		return backoff.Permanent(err)
	}
	return h.deliver(ctx, ev.AssigneeID, content)
}

func (h *EventHandler) userCreated(ctx context.Context, env events.Envelope) error {
	ev, err := events.Decode[events.UserCreated](env)
	if err != nil {
		return backoff.Permanent(err)
	}
	if ev.Status != id.UserStatusPending {
		return nil
	}

	claimed, err := h.claim(ctx, fmt.Sprintf("%s:%s", env.Type, ev.UserID), env.Type)
	if err != nil || !claimed {
		return err
	}

	admins, err := h.service.profiles.ListByRole(ctx, ev.CongregationID, id.RoleAdministrator)
	if err != nil {
		return fmt.Errorf("list administrators: %w", err)
	}
	content, err := NewContent(TypeMemberPending,
		"New member awaiting approval",
		fmt.Sprintf("%s asked to join the congregation.", ev.Name),
		map[string]string{"kind": string(TypeMemberPending), "user_id": ev.UserID.String()},
	)
	if err != nil {
		return backoff.Permanent(err)
	}
	for _, admin := range admins {
		if err := h.deliver(ctx, admin.ID, content); err != nil {
			return err
		}
	}
	return nil
}

// deliver treats a recipient that no longer exists as done.
func (h *EventHandler) deliver(ctx context.Context, userID id.UserID, content Content) error {
	result, err := h.service.Dispatch(ctx, userID, content)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		h.logger.Info("notification recipient gone", zap.String("user_id", userID.String()))
		return nil
	}
	if err != nil {
		return err
	}
	h.logger.Debug("event notification sent",
		zap.String("user_id", userID.String()),
		zap.Int("success", result.SuccessCount),
	)
	return nil
}
