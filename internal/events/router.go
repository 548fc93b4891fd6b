package events

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"territorial/internal/platform/kafka/consumer"
	"territorial/pkg/requestcontext"
)

// Handler handles one event type. Handlers must be idempotent: the same
// envelope can arrive more than once and in any order relative to others.
type Handler interface {
	HandleEvent(ctx context.Context, env Envelope) error
}

type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) HandleEvent(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// Router dispatches consumed messages to the handlers registered for the
// envelope's type. It implements consumer.Handler.
type Router struct {
	handlers map[Type][]Handler
	logger   *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{handlers: make(map[Type][]Handler), logger: logger}
}

// Register adds a handler for an event type.
func (r *Router) Register(t Type, h Handler) {
	r.handlers[t] = append(r.handlers[t], h)
}

// Handle decodes the envelope and runs its handlers. Undecodable messages are
// skipped; unknown types are committed without work.
func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return backoff.Permanent(err)
	}
	return r.Dispatch(ctx, env)
}

// Dispatch runs the handlers for env. It is also used by tests and by the
// in-process relay when no broker is configured.
func (r *Router) Dispatch(ctx context.Context, env Envelope) error {
	handlers, ok := r.handlers[env.Type]
	if !ok {
		r.logger.Debug("no handler for event type, skipping",
			zap.String("type", string(env.Type)),
			zap.String("event_id", env.ID),
		)
		return nil
	}
	if env.RequestID != "" {
		ctx = requestcontext.WithRequestID(ctx, env.RequestID)
	}
	for _, h := range handlers {
		if err := h.HandleEvent(ctx, env); err != nil {
			return err
		}
	}
	return nil
}
