package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"territorial/internal/counters"
	"territorial/internal/platform/mongodb"
)

// Store writes counters into the congregation, territory and quadra documents
// and markers into processed_events.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) ClaimMarker(ctx context.Context, key, kind string, at time.Time) (bool, error) {
	_, err := s.db.Collection(mongodb.CollProcessedEvents).InsertOne(ctx, bson.M{
		"_id":        key,
		"kind":       kind,
		"created_at": at,
	})
	if err == nil {
		return true, nil
	}
	if mongodb.IsDuplicateKey(err) {
		return false, nil
	}
	return false, err
}

func (s *Store) Increment(ctx context.Context, kind counters.Kind, id string, d counters.Delta) error {
	fields := d.Fields(kind)
	if len(fields) == 0 {
		return nil
	}
	inc := bson.M{}
	for k, v := range fields {
		inc[k] = v
	}
	coll, err := collectionFor(kind)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(coll).UpdateByID(ctx, id, bson.M{"$inc": inc})
	return err
}

func collectionFor(kind counters.Kind) (string, error) {
	switch kind {
	case counters.KindCongregation:
		return mongodb.CollCongregations, nil
	case counters.KindTerritory:
		return mongodb.CollTerritories, nil
	case counters.KindQuadra:
		return mongodb.CollQuadras, nil
	}
	return "", fmt.Errorf("unknown counter target %q", kind)
}
