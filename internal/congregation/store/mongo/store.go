package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"territorial/internal/congregation"
	"territorial/internal/platform/mongodb"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type Store struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(mongodb.CollCongregations)}
}

func (s *Store) Create(ctx context.Context, c *congregation.Congregation) error {
	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert congregation: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, congregationID id.CongregationID) (*congregation.Congregation, error) {
	var c congregation.Congregation
	err := s.coll.FindOne(ctx, bson.M{"_id": congregationID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find congregation: %w", err)
	}
	return &c, nil
}

func (s *Store) Delete(ctx context.Context, congregationID id.CongregationID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": congregationID})
	if err != nil {
		return fmt.Errorf("delete congregation: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
