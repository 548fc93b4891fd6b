// Package events defines the document events exchanged between services, their
// topics, and the router that dispatches consumed events to handlers.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "territorial/pkg/domain"
)

type Type string

const (
	TypeTerritoryCreated Type = "territory.created"
	TypeTerritoryDeleted Type = "territory.deleted"
	TypeTerritoryOverdue Type = "territory.overdue"
	TypeQuadraCreated    Type = "quadra.created"
	TypeQuadraDeleted    Type = "quadra.deleted"
	TypeUserCreated      Type = "user.created"
)

const (
	TopicTerritory = "territory-events"
	TopicQuadra    = "quadra-events"
	TopicUser      = "user-events"
)

// Topics lists every topic the workers consume.
var Topics = []string{TopicTerritory, TopicQuadra, TopicUser}

// TopicFor returns the topic an event type is published on.
func TopicFor(t Type) string {
	switch t {
	case TypeQuadraCreated, TypeQuadraDeleted:
		return TopicQuadra
	case TypeUserCreated:
		return TopicUser
	default:
		return TopicTerritory
	}
}

// Envelope wraps every event. AggregateID is the document the event is about
// and doubles as the partition key.
type Envelope struct {
	ID          string          `json:"id" bson:"_id"`
	Type        Type            `json:"type" bson:"type"`
	AggregateID string          `json:"aggregate_id" bson:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at" bson:"occurred_at"`
	RequestID   string          `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Payload     json.RawMessage `json:"payload" bson:"payload"`
}

// New builds an envelope with a JSON payload.
func New(t Type, aggregateID string, occurredAt time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{
		ID:          uuid.NewString(),
		Type:        t,
		AggregateID: aggregateID,
		OccurredAt:  occurredAt.UTC(),
		Payload:     raw,
	}, nil
}

// Decode unmarshals the payload into T.
func Decode[T any](env Envelope) (T, error) {
	var out T
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return out, nil
}

type TerritoryKind string

const (
	KindUrban TerritoryKind = "urban"
	KindRural TerritoryKind = "rural"
)

// TerritorySnapshot is carried by territory.created and territory.deleted.
type TerritorySnapshot struct {
	TerritoryID    id.TerritoryID    `json:"territory_id"`
	CongregationID id.CongregationID `json:"congregation_id"`
	Number         string            `json:"number"`
	Kind           TerritoryKind     `json:"kind"`
}

// QuadraSnapshot is carried by quadra.created and quadra.deleted. Houses is the
// count at creation; deletion derives counts from what it removes.
type QuadraSnapshot struct {
	QuadraID       id.QuadraID       `json:"quadra_id"`
	TerritoryID    id.TerritoryID    `json:"territory_id"`
	CongregationID id.CongregationID `json:"congregation_id"`
	Houses         int64             `json:"houses"`
}

type TerritoryOverdue struct {
	TerritoryID    id.TerritoryID    `json:"territory_id"`
	CongregationID id.CongregationID `json:"congregation_id"`
	Number         string            `json:"number"`
	Name           string            `json:"name"`
	AssigneeID     id.UserID         `json:"assignee_id"`
	AssignedAt     time.Time         `json:"assigned_at"`
	DueDate        time.Time         `json:"due_date"`
}

type UserCreated struct {
	UserID         id.UserID         `json:"user_id"`
	CongregationID id.CongregationID `json:"congregation_id"`
	Name           string            `json:"name"`
	Status         id.UserStatus     `json:"status"`
}
