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
	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

// Store persists territories and their descendants. Calls made with a ctx from
// mongodb.Transactor.RunInTx join its session.
type Store struct {
	territories *mongo.Collection
	quadras     *mongo.Collection
	houses      *mongo.Collection
	activity    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		territories: db.Collection(mongodb.CollTerritories),
		quadras:     db.Collection(mongodb.CollQuadras),
		houses:      db.Collection(mongodb.CollHouses),
		activity:    db.Collection(mongodb.CollActivity),
	}
}

func (s *Store) FindTerritory(ctx context.Context, territoryID id.TerritoryID) (*models.Territory, error) {
	var t models.Territory
	err := s.territories.FindOne(ctx, bson.M{"_id": territoryID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find territory: %w", err)
	}
	return &t, nil
}

func (s *Store) CreateTerritory(ctx context.Context, t *models.Territory) error {
	if _, err := s.territories.InsertOne(ctx, t); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert territory: %w", err)
	}
	return nil
}

// UpdateLifecycle sets only lifecycle fields so concurrent $inc on stats survive.
func (s *Store) UpdateLifecycle(ctx context.Context, t *models.Territory, expectedVersion int64) error {
	set := bson.M{
		"status":     t.Status,
		"history":    t.History,
		"updated_at": t.UpdatedAt,
		"version":    expectedVersion + 1,
	}
	update := bson.M{"$set": set}
	if t.Assignment != nil {
		set["assignment"] = t.Assignment
	} else {
		update["$unset"] = bson.M{"assignment": ""}
	}
	res, err := s.territories.UpdateOne(ctx, bson.M{"_id": t.ID, "version": expectedVersion}, update)
	if err != nil {
		return fmt.Errorf("update territory lifecycle: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.territories.CountDocuments(ctx, bson.M{"_id": t.ID})
		if err != nil {
			return fmt.Errorf("check territory: %w", err)
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrStaleVersion
	}
	t.Version = expectedVersion + 1
	return nil
}

func (s *Store) DeleteTerritory(ctx context.Context, territoryID id.TerritoryID) error {
	res, err := s.territories.DeleteOne(ctx, bson.M{"_id": territoryID})
	if err != nil {
		return fmt.Errorf("delete territory: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) FindQuadra(ctx context.Context, quadraID id.QuadraID) (*models.Quadra, error) {
	var q models.Quadra
	err := s.quadras.FindOne(ctx, bson.M{"_id": quadraID}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find quadra: %w", err)
	}
	return &q, nil
}

func (s *Store) CreateQuadra(ctx context.Context, q *models.Quadra, houses []*models.House) error {
	if _, err := s.quadras.InsertOne(ctx, q); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert quadra: %w", err)
	}
	if len(houses) == 0 {
		return nil
	}
	docs := make([]any, len(houses))
	for i, h := range houses {
		docs[i] = h
	}
	if _, err := s.houses.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert houses: %w", err)
	}
	return nil
}

func (s *Store) DeleteQuadra(ctx context.Context, quadraID id.QuadraID) error {
	ok, err := s.DeleteQuadraDoc(ctx, quadraID)
	if err != nil {
		return err
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) FindHouse(ctx context.Context, houseID id.HouseID) (*models.House, error) {
	var h models.House
	err := s.houses.FindOne(ctx, bson.M{"_id": houseID}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find house: %w", err)
	}
	return &h, nil
}

func (s *Store) SetHouseDone(ctx context.Context, houseID id.HouseID, done bool, by id.UserID, at time.Time) (bool, error) {
	res, err := s.houses.UpdateOne(ctx,
		bson.M{"_id": houseID, "done": !done},
		bson.M{"$set": bson.M{"done": done, "last_worked_by": by, "updated_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("set house done: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) SetHouseNotes(ctx context.Context, houseID id.HouseID, notes string, by id.UserID, at time.Time) error {
	res, err := s.houses.UpdateByID(ctx, houseID,
		bson.M{"$set": bson.M{"notes": notes, "last_worked_by": by, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("set house notes: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) AppendActivity(ctx context.Context, a *models.Activity) error {
	if _, err := s.activity.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *Store) TouchLastActivity(ctx context.Context, territoryID id.TerritoryID, at time.Time) error {
	_, err := s.territories.UpdateByID(ctx, territoryID, bson.M{"$max": bson.M{"last_activity_at": at}})
	if err != nil {
		return fmt.Errorf("touch territory activity: %w", err)
	}
	return nil
}

func (s *Store) DeleteActivityBatch(ctx context.Context, territoryID id.TerritoryID, limit int) (int64, error) {
	ids, err := s.idBatch(ctx, s.activity, bson.M{"territory_id": territoryID}, limit)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	res, err := s.activity.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete activity: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) ResetHouses(ctx context.Context, territoryID id.TerritoryID) (int64, error) {
	res, err := s.houses.UpdateMany(ctx,
		bson.M{"territory_id": territoryID, "done": true},
		bson.M{"$set": bson.M{"done": false}},
	)
	if err != nil {
		return 0, fmt.Errorf("reset houses: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) ZeroHousesDone(ctx context.Context, territoryID id.TerritoryID) error {
	zero := bson.M{"$set": bson.M{"stats.houses_done": 0}}
	if _, err := s.territories.UpdateByID(ctx, territoryID, zero); err != nil {
		return fmt.Errorf("zero territory houses done: %w", err)
	}
	if _, err := s.quadras.UpdateMany(ctx, bson.M{"territory_id": territoryID}, zero); err != nil {
		return fmt.Errorf("zero quadra houses done: %w", err)
	}
	return nil
}

func (s *Store) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*models.Territory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assignment.due_date", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.territories.Find(ctx, bson.M{
		"status":                      models.StatusAssigned,
		"assignment.due_date":         bson.M{"$lt": now},
		"assignment.overdue_notified": bson.M{"$ne": true},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("list overdue territories: %w", err)
	}
	var out []*models.Territory
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode overdue territories: %w", err)
	}
	return out, nil
}

// MarkOverdueNotified bumps the version so a lifecycle write based on an
// earlier read cannot clear the flag.
func (s *Store) MarkOverdueNotified(ctx context.Context, territoryID id.TerritoryID, assignedAt time.Time) (bool, error) {
	res, err := s.territories.UpdateOne(ctx,
		bson.M{
			"_id":                         territoryID,
			"assignment.assigned_at":      assignedAt,
			"assignment.overdue_notified": bson.M{"$ne": true},
		},
		bson.M{
			"$set": bson.M{"assignment.overdue_notified": true},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, fmt.Errorf("mark overdue notified: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) QuadraIDs(ctx context.Context, territoryID id.TerritoryID, limit int) ([]id.QuadraID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.quadras.Find(ctx, bson.M{"territory_id": territoryID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list quadras: %w", err)
	}
	var docs []struct {
		ID id.QuadraID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode quadras: %w", err)
	}
	out := make([]id.QuadraID, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out, nil
}

func (s *Store) DeleteHouses(ctx context.Context, quadraID id.QuadraID, done bool, limit int) (int64, error) {
	ids, err := s.idBatch(ctx, s.houses, bson.M{"quadra_id": quadraID, "done": done}, limit)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	// done is repeated so a house flipped since the read is left for the next batch.
	res, err := s.houses.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "done": done})
	if err != nil {
		return 0, fmt.Errorf("delete houses: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteQuadraDoc(ctx context.Context, quadraID id.QuadraID) (bool, error) {
	res, err := s.quadras.DeleteOne(ctx, bson.M{"_id": quadraID})
	if err != nil {
		return false, fmt.Errorf("delete quadra: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (s *Store) idBatch(ctx context.Context, coll *mongo.Collection, filter bson.M, limit int) ([]any, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("select batch: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	ids := make([]any, len(docs))
	for i, d := range docs {
		ids[i] = d["_id"]
	}
	return ids, nil
}
