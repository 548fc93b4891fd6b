// Package congregation holds the tenant document. Its stats are written only
// through the counters service after creation.
package congregation

import (
	"context"
	"strings"
	"time"

	"territorial/internal/counters"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

type Congregation struct {
	ID        id.CongregationID `bson:"_id" json:"id"`
	Name      string            `bson:"name" json:"name"`
	Stats     counters.Stats    `bson:"stats" json:"stats"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
}

func NewCongregation(congregationID id.CongregationID, name string, now time.Time) (*Congregation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "congregation name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "congregation name must be 128 characters or less")
	}
	return &Congregation{ID: congregationID, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// Store persists congregations. Absent documents yield sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, c *Congregation) error
	FindByID(ctx context.Context, congregationID id.CongregationID) (*Congregation, error)
	Delete(ctx context.Context, congregationID id.CongregationID) error
}
