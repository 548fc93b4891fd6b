package presence

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TestamentFirer is the realtime store operation the reaper drives.
type TestamentFirer interface {
	FireExpiredTestaments(ctx context.Context, limit int64) (int, error)
}

// Reaper periodically fires the testaments of connections whose lease lapsed,
// the way a realtime backend detects a dropped socket.
type Reaper struct {
	store    TestamentFirer
	interval time.Duration
	batch    int64
	logger   *zap.Logger
	metrics  *Metrics
}

func NewReaper(store TestamentFirer, interval time.Duration, logger *zap.Logger, metrics *Metrics) *Reaper {
	return &Reaper{store: store, interval: interval, batch: 500, logger: logger, metrics: metrics}
}

func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.ReapOnce(ctx)
		}
	}
}

// ReapOnce fires expired testaments until a batch comes back short.
func (r *Reaper) ReapOnce(ctx context.Context) int {
	total := 0
	for {
		n, err := r.store.FireExpiredTestaments(ctx, r.batch)
		total += n
		if err != nil {
			r.logger.Warn("presence reaper failed", zap.Error(err))
			break
		}
		if int64(n) < r.batch {
			break
		}
	}
	if total > 0 {
		r.metrics.observeReaped(total)
		r.logger.Info("fired expired presence testaments", zap.Int("count", total))
	}
	return total
}
