package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"territorial/internal/notification"
	"territorial/internal/platform/mongodb"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type Store struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(mongodb.CollNotifications)}
}

func (s *Store) Create(ctx context.Context, n *notification.Notification) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*notification.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := []*notification.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID, at time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": notificationID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByUser(ctx context.Context, userID id.UserID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return res.DeletedCount, nil
}
