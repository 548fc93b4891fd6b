package cascade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"territorial/internal/cascade"
	"territorial/internal/counters"
	countersmem "territorial/internal/counters/store/memory"
	"territorial/internal/events"
	"territorial/internal/territory/models"
	territorymem "territorial/internal/territory/store/memory"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/tx"
)

type CascadeSuite struct {
	suite.Suite
	ctx     context.Context
	stats   *countersmem.Store
	store   *territorymem.InMemoryStore
	router  *events.Router
	cong    id.CongregationID
	terr    *models.Territory
	quadras []*models.Quadra
}

func TestCascadeSuite(t *testing.T) {
	suite.Run(t, new(CascadeSuite))
}

// SetupTest builds a territory with two quadras of five houses, two of them
// done, and congregation counters that match.
func (s *CascadeSuite) SetupTest() {
	s.ctx = context.Background()
	now := time.Now()
	s.stats = countersmem.New()
	s.store = territorymem.New(s.stats)
	s.cong = id.NewCongregationID()

	var err error
	s.terr, err = models.NewTerritory(id.NewTerritoryID(), s.cong, "9", "Norte", models.KindRural, now)
	s.Require().NoError(err)
	s.terr.Stats = counters.Stats{Quadras: 2, Houses: 10, HousesDone: 2}
	s.Require().NoError(s.store.CreateTerritory(s.ctx, s.terr))

	s.quadras = nil
	for _, name := range []string{"A", "B"} {
		q, houses, err := models.NewQuadra(id.NewQuadraID(), s.terr, name, 5, now)
		s.Require().NoError(err)
		houses[0].Done = true
		q.Stats.HousesDone = 1
		s.Require().NoError(s.store.CreateQuadra(s.ctx, q, houses))
		s.quadras = append(s.quadras, q)
	}
	s.stats.Seed(counters.KindCongregation, s.cong.String(), counters.Stats{
		Territories: 1, RuralTerritories: 1, Quadras: 2, Houses: 10, HousesDone: 2,
	})

	svc := cascade.New(s.store, counters.New(s.stats, &tx.Locked{}),
		cascade.WithLogger(zap.NewNop()), cascade.WithBatchSize(3))
	s.router = events.NewRouter(zap.NewNop())
	svc.Register(s.router)
}

func (s *CascadeSuite) envelope(t events.Type, aggregateID string, payload any) events.Envelope {
	env, err := events.New(t, aggregateID, time.Now(), payload)
	s.Require().NoError(err)
	return env
}

func (s *CascadeSuite) TestTerritoryCascadeRedeliveredDecrementsOnce() {
	s.Require().NoError(s.store.DeleteTerritory(s.ctx, s.terr.ID))
	env := s.envelope(events.TypeTerritoryDeleted, s.terr.ID.String(), events.TerritorySnapshot{
		TerritoryID:    s.terr.ID,
		CongregationID: s.cong,
		Number:         s.terr.Number,
		Kind:           events.KindRural,
	})

	s.Require().NoError(s.router.Dispatch(s.ctx, env))
	s.Require().NoError(s.router.Dispatch(s.ctx, env))

	st, ok := s.stats.Stats(counters.KindCongregation, s.cong.String())
	s.Require().True(ok)
	s.Equal(counters.Stats{}, st, "10 houses, 2 quadras and 1 territory removed exactly once")
	for _, q := range s.quadras {
		s.Zero(s.store.HouseCount(q.ID))
		_, err := s.store.FindQuadra(s.ctx, q.ID)
		s.Error(err)
	}
}

func (s *CascadeSuite) TestQuadraCascadeDecrementsTerritory() {
	q := s.quadras[0]
	s.Require().NoError(s.store.DeleteQuadra(s.ctx, q.ID))
	env := s.envelope(events.TypeQuadraDeleted, q.ID.String(), events.QuadraSnapshot{
		QuadraID:       q.ID,
		TerritoryID:    s.terr.ID,
		CongregationID: s.cong,
		Houses:         5,
	})

	s.Require().NoError(s.router.Dispatch(s.ctx, env))
	s.Require().NoError(s.router.Dispatch(s.ctx, env))

	terr, _ := s.stats.Stats(counters.KindTerritory, s.terr.ID.String())
	s.Equal(counters.Stats{Quadras: 1, Houses: 5, HousesDone: 1}, terr)
	cong, _ := s.stats.Stats(counters.KindCongregation, s.cong.String())
	s.Equal(counters.Stats{Territories: 1, RuralTerritories: 1, Quadras: 1, Houses: 5, HousesDone: 1}, cong)
	s.Zero(s.store.HouseCount(q.ID))
	s.Equal(5, s.store.HouseCount(s.quadras[1].ID))
}

func (s *CascadeSuite) TestQuadraCascadeAfterTerritoryGone() {
	q := s.quadras[1]
	s.Require().NoError(s.store.DeleteQuadra(s.ctx, q.ID))
	s.Require().NoError(s.store.DeleteTerritory(s.ctx, s.terr.ID))

	err := s.router.Dispatch(s.ctx, s.envelope(events.TypeQuadraDeleted, q.ID.String(), events.QuadraSnapshot{
		QuadraID:       q.ID,
		TerritoryID:    s.terr.ID,
		CongregationID: s.cong,
	}))
	s.Require().NoError(err)

	cong, _ := s.stats.Stats(counters.KindCongregation, s.cong.String())
	s.Equal(int64(1), cong.Quadras)
	s.Equal(int64(5), cong.Houses)
}

type failingStore struct {
	*territorymem.InMemoryStore
	failures int
}

func (f *failingStore) DeleteHouses(ctx context.Context, quadraID id.QuadraID, done bool, limit int) (int64, error) {
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("primary stepped down")
	}
	return f.InMemoryStore.DeleteHouses(ctx, quadraID, done, limit)
}

func (s *CascadeSuite) TestRetryAfterFailureConverges() {
	store := &failingStore{InMemoryStore: s.store, failures: 1}
	svc := cascade.New(store, counters.New(s.stats, &tx.Locked{}), cascade.WithBatchSize(2))
	s.Require().NoError(s.store.DeleteTerritory(s.ctx, s.terr.ID))
	snap := events.TerritorySnapshot{TerritoryID: s.terr.ID, CongregationID: s.cong, Kind: events.KindRural}

	s.Require().Error(svc.DeleteTerritory(s.ctx, snap))
	s.Require().NoError(svc.DeleteTerritory(s.ctx, snap))

	st, _ := s.stats.Stats(counters.KindCongregation, s.cong.String())
	s.Equal(counters.Stats{}, st)
}

// flippingStore marks one undone house as done right before the first undone
// batch, the way a concurrent MarkHouse would.
type flippingStore struct {
	*territorymem.InMemoryStore
	counters *counters.Service
	house    *models.House
	flipped  bool
}

func (f *flippingStore) DeleteHouses(ctx context.Context, quadraID id.QuadraID, done bool, limit int) (int64, error) {
	if !done && !f.flipped {
		f.flipped = true
		changed, err := f.InMemoryStore.SetHouseDone(ctx, f.house.ID, true, id.NewUserID(), time.Now())
		if err != nil {
			return 0, err
		}
		if changed {
			d := counters.Delta{HousesDone: 1}
			if err := f.counters.Apply(ctx,
				counters.Change{Kind: counters.KindQuadra, ID: f.house.QuadraID.String(), Delta: d},
				counters.Change{Kind: counters.KindTerritory, ID: f.house.TerritoryID.String(), Delta: d},
				counters.Change{Kind: counters.KindCongregation, ID: f.house.CongregationID.String(), Delta: d},
			); err != nil {
				return 0, err
			}
		}
	}
	return f.InMemoryStore.DeleteHouses(ctx, quadraID, done, limit)
}

func (s *CascadeSuite) TestHouseMarkedDoneMidCascadeIsRemoved() {
	q := s.quadras[0]
	ids, err := s.store.HouseIDs(s.ctx, q.ID)
	s.Require().NoError(err)
	last, err := s.store.FindHouse(s.ctx, ids[len(ids)-1])
	s.Require().NoError(err)
	s.Require().False(last.Done)

	counterSvc := counters.New(s.stats, &tx.Locked{})
	store := &flippingStore{InMemoryStore: s.store, counters: counterSvc, house: last}
	svc := cascade.New(store, counterSvc, cascade.WithBatchSize(3))
	s.Require().NoError(s.store.DeleteQuadra(s.ctx, q.ID))

	s.Require().NoError(svc.DeleteQuadra(s.ctx, events.QuadraSnapshot{
		QuadraID:       q.ID,
		TerritoryID:    s.terr.ID,
		CongregationID: s.cong,
		Houses:         5,
	}))

	s.True(store.flipped)
	s.Zero(s.store.HouseCount(q.ID))
	terr, _ := s.stats.Stats(counters.KindTerritory, s.terr.ID.String())
	s.Equal(counters.Stats{Quadras: 1, Houses: 5, HousesDone: 1}, terr)
	cong, _ := s.stats.Stats(counters.KindCongregation, s.cong.String())
	s.Equal(counters.Stats{Territories: 1, RuralTerritories: 1, Quadras: 1, Houses: 5, HousesDone: 1}, cong)
}
