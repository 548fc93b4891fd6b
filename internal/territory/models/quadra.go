package models

import (
	"strings"
	"time"

	"territorial/internal/counters"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

const MaxHousesPerQuadra = 2000

type Quadra struct {
	ID             id.QuadraID       `bson:"_id" json:"id"`
	TerritoryID    id.TerritoryID    `bson:"territory_id" json:"territory_id"`
	CongregationID id.CongregationID `bson:"congregation_id" json:"congregation_id"`
	Name           string            `bson:"name" json:"name"`
	Stats          counters.Stats    `bson:"stats" json:"stats"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
}

type House struct {
	ID             id.HouseID        `bson:"_id" json:"id"`
	QuadraID       id.QuadraID       `bson:"quadra_id" json:"quadra_id"`
	TerritoryID    id.TerritoryID    `bson:"territory_id" json:"territory_id"`
	CongregationID id.CongregationID `bson:"congregation_id" json:"congregation_id"`
	Ordinal        int               `bson:"ordinal" json:"ordinal"`
	Done           bool              `bson:"done" json:"done"`
	Notes          string            `bson:"notes,omitempty" json:"notes,omitempty"`
	LastWorkedBy   id.UserID         `bson:"last_worked_by,omitempty" json:"last_worked_by,omitempty"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
}

// NewQuadra builds a quadra under t with houseCount undone houses numbered from 1.
func NewQuadra(quadraID id.QuadraID, t *Territory, name string, houseCount int, now time.Time) (*Quadra, []*House, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, dErrors.New(dErrors.CodeInvariantViolation, "quadra name cannot be empty")
	}
	if houseCount < 0 || houseCount > MaxHousesPerQuadra {
		return nil, nil, dErrors.New(dErrors.CodeInvariantViolation, "house count out of range")
	}
	q := &Quadra{
		ID:             quadraID,
		TerritoryID:    t.ID,
		CongregationID: t.CongregationID,
		Name:           name,
		Stats:          counters.Stats{Houses: int64(houseCount)},
		CreatedAt:      now,
	}
	houses := make([]*House, houseCount)
	for i := range houses {
		houses[i] = &House{
			ID:             id.NewHouseID(),
			QuadraID:       q.ID,
			TerritoryID:    t.ID,
			CongregationID: t.CongregationID,
			Ordinal:        i + 1,
			UpdatedAt:      now,
		}
	}
	return q, houses, nil
}

type ActivityAction string

const (
	ActionHouseDone   ActivityAction = "house.done"
	ActionHouseUndone ActivityAction = "house.undone"
)

// Activity is one entry of a territory's work log.
type Activity struct {
	ID          string         `bson:"_id" json:"id"`
	TerritoryID id.TerritoryID `bson:"territory_id" json:"territory_id"`
	QuadraID    id.QuadraID    `bson:"quadra_id" json:"quadra_id"`
	HouseID     id.HouseID     `bson:"house_id" json:"house_id"`
	UserID      id.UserID      `bson:"user_id" json:"user_id"`
	Action      ActivityAction `bson:"action" json:"action"`
	At          time.Time      `bson:"at" json:"at"`
}
