package presence

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Mirror copies presence events into profiles. Events older than or equal to
// the stored last_seen change nothing, so replays and reordering are harmless.
type Mirror struct {
	profiles PresenceWriter
	logger   *zap.Logger
	metrics  *Metrics
}

func NewMirror(profiles PresenceWriter, logger *zap.Logger, metrics *Metrics) *Mirror {
	return &Mirror{profiles: profiles, logger: logger, metrics: metrics}
}

func (m *Mirror) Apply(ctx context.Context, ev Event) error {
	applied, err := m.profiles.UpdatePresence(ctx, ev.UserID, ev.Online(), ev.LastChanged)
	if err != nil {
		return fmt.Errorf("mirror presence of %s: %w", ev.UserID, err)
	}
	m.metrics.observeEvent(applied)
	m.logger.Debug("presence event mirrored",
		zap.String("user_id", ev.UserID.String()),
		zap.String("state", ev.State),
		zap.Time("last_changed", ev.LastChanged),
		zap.Bool("applied", applied),
	)
	return nil
}
