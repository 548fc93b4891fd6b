// Package counters is the only writer of aggregate counters. Every change is an
// $inc delta; creation and deletion deltas are guarded by an idempotency marker
// so redelivered events apply them once.
package counters

import (
	"context"
	"time"
)

type Kind string

const (
	KindCongregation Kind = "congregation"
	KindTerritory    Kind = "territory"
	KindQuadra       Kind = "quadra"
)

// Delta is a set of counter increments. Zero fields are not written. Fields a
// target does not carry (territories on a quadra) are ignored by stores.
type Delta struct {
	Territories      int64
	RuralTerritories int64
	Quadras          int64
	Houses           int64
	HousesDone       int64
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Negate flips every field, turning a creation delta into its deletion delta.
func (d Delta) Negate() Delta {
	return Delta{
		Territories:      -d.Territories,
		RuralTerritories: -d.RuralTerritories,
		Quadras:          -d.Quadras,
		Houses:           -d.Houses,
		HousesDone:       -d.HousesDone,
	}
}

// Fields maps the delta to stats field names for an $inc document.
func (d Delta) Fields(kind Kind) map[string]int64 {
	out := make(map[string]int64, 5)
	put := func(name string, v int64) {
		if v != 0 {
			out["stats."+name] = v
		}
	}
	if kind == KindCongregation {
		put("territories", d.Territories)
		put("rural_territories", d.RuralTerritories)
	}
	if kind != KindQuadra {
		put("quadras", d.Quadras)
	}
	put("houses", d.Houses)
	put("houses_done", d.HousesDone)
	return out
}

// Change applies a delta to one document.
type Change struct {
	Kind  Kind
	ID    string
	Delta Delta
}

// Stats is the counter block embedded in congregation, territory and quadra documents.
type Stats struct {
	Territories      int64 `bson:"territories,omitempty" json:"territories,omitempty"`
	RuralTerritories int64 `bson:"rural_territories,omitempty" json:"rural_territories,omitempty"`
	Quadras          int64 `bson:"quadras" json:"quadras"`
	Houses           int64 `bson:"houses" json:"houses"`
	HousesDone       int64 `bson:"houses_done" json:"houses_done"`
}

// Store persists markers and increments.
type Store interface {
	// ClaimMarker records key and reports whether this call created it.
	ClaimMarker(ctx context.Context, key, kind string, at time.Time) (bool, error)
	// Increment applies d to the document; a missing document is not an error.
	Increment(ctx context.Context, kind Kind, id string, d Delta) error
}
