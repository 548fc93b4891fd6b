// Package outbox stores events in the document store in the same transaction as
// the write that produced them, and relays them to the broker afterwards.
package outbox

import (
	"context"
	"time"

	"territorial/internal/events"
)

// Record is a stored envelope awaiting publication.
type Record struct {
	events.Envelope `bson:",inline"`
	Topic           string     `bson:"topic"`
	CreatedAt       time.Time  `bson:"created_at"`
	PublishedAt     *time.Time `bson:"published_at"`
	Attempts        int        `bson:"attempts"`
}

// Store persists outbox records. Append joins the transaction carried by ctx.
type Store interface {
	Append(ctx context.Context, env events.Envelope) error
	Pending(ctx context.Context, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID string) error
}
