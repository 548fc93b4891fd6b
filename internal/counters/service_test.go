package counters_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"territorial/internal/counters"
	"territorial/internal/counters/store/memory"
	"territorial/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *counters.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.store.Seed(counters.KindCongregation, "c1", counters.Stats{})
	s.store.Seed(counters.KindTerritory, "t1", counters.Stats{})
	s.service = counters.New(s.store, &tx.Locked{})
}

func (s *ServiceSuite) TestApplyOnce_RedeliveryAppliesOnce() {
	ctx := context.Background()
	change := counters.Change{Kind: counters.KindCongregation, ID: "c1", Delta: counters.Delta{Territories: 1, RuralTerritories: 1}}

	applied, err := s.service.ApplyOnce(ctx, "territory.created:t1", "territory.created", change)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.service.ApplyOnce(ctx, "territory.created:t1", "territory.created", change)
	s.Require().NoError(err)
	s.False(applied)

	st, _ := s.store.Stats(counters.KindCongregation, "c1")
	s.Equal(int64(1), st.Territories)
	s.Equal(int64(1), st.RuralTerritories)
}

func (s *ServiceSuite) TestApply_MissingDocumentIsNoop() {
	err := s.service.Apply(context.Background(),
		counters.Change{Kind: counters.KindTerritory, ID: "gone", Delta: counters.Delta{Houses: -3}},
		counters.Change{Kind: counters.KindCongregation, ID: "c1", Delta: counters.Delta{Houses: -3}},
	)
	s.Require().NoError(err)
	st, _ := s.store.Stats(counters.KindCongregation, "c1")
	s.Equal(int64(-3), st.Houses)
}

func (s *ServiceSuite) TestApply_QuadraIgnoresForeignFields() {
	s.store.Seed(counters.KindQuadra, "q1", counters.Stats{Houses: 4})
	err := s.service.Apply(context.Background(),
		counters.Change{Kind: counters.KindQuadra, ID: "q1", Delta: counters.Delta{Quadras: 1, HousesDone: 2}},
	)
	s.Require().NoError(err)
	st, _ := s.store.Stats(counters.KindQuadra, "q1")
	s.Equal(counters.Stats{Houses: 4, HousesDone: 2}, st)
}

type failingStore struct {
	*memory.Store
}

func (f failingStore) Increment(context.Context, counters.Kind, string, counters.Delta) error {
	return errors.New("write conflict")
}

func TestApplyOnce_PropagatesIncrementFailure(t *testing.T) {
	store := failingStore{memory.New()}
	svc := counters.New(store, &tx.Locked{})
	_, err := svc.ApplyOnce(context.Background(), "k", "kind",
		counters.Change{Kind: counters.KindCongregation, ID: "c1", Delta: counters.Delta{Quadras: 1}})
	require.Error(t, err)
}

func TestDelta(t *testing.T) {
	d := counters.Delta{Territories: 1, Quadras: 2, Houses: 10, HousesDone: 3}
	assert.Equal(t, counters.Delta{Territories: -1, Quadras: -2, Houses: -10, HousesDone: -3}, d.Negate())
	assert.Equal(t, map[string]int64{"stats.quadras": 2, "stats.houses": 10, "stats.houses_done": 3}, d.Fields(counters.KindTerritory))
	assert.True(t, counters.Delta{}.IsZero())
}
