package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollCongregations   = "congregations"
	CollTerritories     = "territories"
	CollQuadras         = "quadras"
	CollHouses          = "houses"
	CollActivity        = "territory_activity"
	CollUsers           = "users"
	CollNotifications   = "notifications"
	CollProcessedEvents = "processed_events"
	CollOutbox          = "outbox"
)

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

var indexes = []indexSpec{
	{CollTerritories, mongo.IndexModel{
		Keys:    bson.D{{Key: "congregation_id", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}},
	{CollTerritories, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "assignment.due_date", Value: 1}},
	}},
	{CollQuadras, mongo.IndexModel{Keys: bson.D{{Key: "territory_id", Value: 1}}}},
	{CollHouses, mongo.IndexModel{Keys: bson.D{{Key: "quadra_id", Value: 1}, {Key: "done", Value: 1}}}},
	{CollHouses, mongo.IndexModel{Keys: bson.D{{Key: "territory_id", Value: 1}, {Key: "done", Value: 1}}}},
	{CollActivity, mongo.IndexModel{Keys: bson.D{{Key: "territory_id", Value: 1}, {Key: "at", Value: -1}}}},
	{CollUsers, mongo.IndexModel{Keys: bson.D{{Key: "congregation_id", Value: 1}, {Key: "role", Value: 1}}}},
	{CollUsers, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}},
	{CollNotifications, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}},
	{CollOutbox, mongo.IndexModel{Keys: bson.D{{Key: "published_at", Value: 1}, {Key: "created_at", Value: 1}}}},
}

// EnsureIndexes creates every index the stores rely on. CreateMany is idempotent
// for identical specs.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byColl := make(map[string][]mongo.IndexModel)
	for _, ix := range indexes {
		byColl[ix.collection] = append(byColl[ix.collection], ix.model)
	}
	for coll, models := range byColl {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
