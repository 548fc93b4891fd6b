// Package gateway defines the push delivery boundary.
package gateway

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrUnregistered means the token no longer maps to an installed app.
	ErrUnregistered = errors.New("device token is unregistered")
	// ErrInvalidArgument means the token is malformed or the message was rejected.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable means the gateway is failing and the call was not attempted.
	ErrUnavailable = errors.New("push gateway unavailable")
)

type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// IsDeadToken reports errors after which a token should be removed.
func IsDeadToken(err error) bool {
	return errors.Is(err, ErrUnregistered) || errors.Is(err, ErrInvalidArgument)
}

// LogGateway logs messages instead of sending them. Used when no push project
// is configured.
type LogGateway struct {
	Logger *zap.Logger
}

func (g LogGateway) Send(_ context.Context, msg Message) error {
	g.Logger.Info("push message (no gateway configured)",
		zap.String("title", msg.Title),
		zap.Int("token_len", len(msg.Token)),
	)
	return nil
}
