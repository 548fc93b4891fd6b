package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"territorial/internal/platform/mongodb"
	"territorial/internal/profile"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type Store struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(mongodb.CollUsers)}
}

func (s *Store) Create(ctx context.Context, p *profile.Profile) error {
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, userID id.UserID) (*profile.Profile, error) {
	var p profile.Profile
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (s *Store) Delete(ctx context.Context, userID id.UserID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListByRole(ctx context.Context, congregationID id.CongregationID, roles ...id.Role) ([]*profile.Profile, error) {
	filter := bson.M{"congregation_id": congregationID, "status": id.UserStatusActive}
	if len(roles) > 0 {
		filter["role"] = bson.M{"$in": roles}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	var out []*profile.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return out, nil
}

func (s *Store) AddDeviceToken(ctx context.Context, userID id.UserID, token profile.DeviceToken) error {
	// Pull first so re-registering a token refreshes its platform and timestamp.
	_, err := s.coll.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"device_tokens": bson.M{"token": token.Token}}})
	if err != nil {
		return fmt.Errorf("refresh device token: %w", err)
	}
	res, err := s.coll.UpdateByID(ctx, userID, bson.M{
		"$push": bson.M{"device_tokens": token},
		"$set":  bson.M{"updated_at": token.AddedAt},
	})
	if err != nil {
		return fmt.Errorf("add device token: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveDeviceTokens(ctx context.Context, userID id.UserID, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := s.coll.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"device_tokens": bson.M{"token": bson.M{"$in": tokens}}},
	})
	if err != nil {
		return fmt.Errorf("remove device tokens: %w", err)
	}
	return nil
}

func (s *Store) UpdatePresence(ctx context.Context, userID id.UserID, online bool, lastSeen time.Time) (bool, error) {
	filter := bson.M{
		"_id": userID,
		"$or": bson.A{
			bson.M{"last_seen": bson.M{"$lt": lastSeen}},
			bson.M{"last_seen": bson.M{"$exists": false}},
		},
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_online": online, "last_seen": lastSeen}})
	if err != nil {
		return false, fmt.Errorf("update presence: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
