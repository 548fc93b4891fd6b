package outbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"territorial/internal/events"
	"territorial/internal/platform/mongodb"
	"territorial/pkg/requestcontext"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongodb.CollOutbox)}
}

func (s *MongoStore) Append(ctx context.Context, env events.Envelope) error {
	if env.RequestID == "" {
		env.RequestID = requestcontext.RequestID(ctx)
	}
	rec := Record{
		Envelope:  env,
		Topic:     events.TopicFor(env.Type),
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("append outbox %s: %w", env.Type, err)
	}
	return nil
}

func (s *MongoStore) Pending(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.M{"published_at": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("find pending outbox: %w", err)
	}
	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode pending outbox: %w", err)
	}
	return out, nil
}

func (s *MongoStore) MarkPublished(ctx context.Context, eventID string, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, eventID, bson.M{"$set": bson.M{"published_at": at}})
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func (s *MongoStore) MarkFailed(ctx context.Context, eventID string) error {
	_, err := s.coll.UpdateByID(ctx, eventID, bson.M{"$inc": bson.M{"attempts": 1}})
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}
