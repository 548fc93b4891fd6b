package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"territorial/internal/events"
)

// Publisher delivers a record to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Relay polls the outbox and publishes pending records in creation order. A
// record is marked published only after the broker acknowledged it, so a crash
// in between republishes it; consumers are idempotent.
type Relay struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewRelay(store Store, publisher Publisher, logger *zap.Logger, opts ...RelayOption) *Relay {
	r := &Relay{store: store, publisher: publisher, logger: logger, interval: time.Second, batchSize: 100}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("outbox relay failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many records were sent. It
// stops at the first failure to keep per-aggregate order.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := r.store.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range pending {
		value, err := json.Marshal(rec.Envelope)
		if err != nil {
			return sent, err
		}
		headers := map[string]string{"event_type": string(rec.Type), "event_id": rec.ID}
		if err := r.publisher.Publish(ctx, rec.Topic, []byte(rec.AggregateID), value, headers); err != nil {
			_ = r.store.MarkFailed(ctx, rec.ID)
			return sent, err
		}
		if err := r.store.MarkPublished(ctx, rec.ID, time.Now().UTC()); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		r.logger.Debug("outbox relayed", zap.Int("count", sent))
	}
	return sent, nil
}

// DispatchPublisher delivers records straight to an in-process router. It
// stands in for the broker in tests and when no brokers are configured.
type DispatchPublisher struct {
	Router *events.Router
}

func (p DispatchPublisher) Publish(ctx context.Context, _ string, _, value []byte, _ map[string]string) error {
	var env events.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return err
	}
	return p.Router.Dispatch(ctx, env)
}
