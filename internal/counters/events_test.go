package counters_test

import (
	"context"
	"time"

	"go.uber.org/zap"

	"territorial/internal/counters"
	"territorial/internal/events"
	id "territorial/pkg/domain"
)

func (s *ServiceSuite) TestEventHandlerCountsCreationsOnce() {
	ctx := context.Background()
	router := events.NewRouter(zap.NewNop())
	counters.NewEventHandler(s.service, zap.NewNop()).Register(router)

	territoryCreated, err := events.New(events.TypeTerritoryCreated, "t1", time.Now(), events.TerritorySnapshot{
		TerritoryID:    id.TerritoryID("t1"),
		CongregationID: id.CongregationID("c1"),
		Number:         "4",
		Kind:           events.KindRural,
	})
	s.Require().NoError(err)
	quadraCreated, err := events.New(events.TypeQuadraCreated, "q1", time.Now(), events.QuadraSnapshot{
		QuadraID:       id.QuadraID("q1"),
		TerritoryID:    id.TerritoryID("t1"),
		CongregationID: id.CongregationID("c1"),
		Houses:         8,
	})
	s.Require().NoError(err)

	for range 2 {
		s.Require().NoError(router.Dispatch(ctx, territoryCreated))
		s.Require().NoError(router.Dispatch(ctx, quadraCreated))
	}

	cong, _ := s.store.Stats(counters.KindCongregation, "c1")
	s.Equal(counters.Stats{Territories: 1, RuralTerritories: 1, Quadras: 1, Houses: 8}, cong)
	terr, _ := s.store.Stats(counters.KindTerritory, "t1")
	s.Equal(counters.Stats{Quadras: 1, Houses: 8}, terr)
}

func (s *ServiceSuite) TestEventHandlerRejectsMalformedPayload() {
	router := events.NewRouter(zap.NewNop())
	counters.NewEventHandler(s.service, zap.NewNop()).Register(router)

	err := router.Dispatch(context.Background(), events.Envelope{
		ID: "e1", Type: events.TypeTerritoryCreated, Payload: []byte(`{"territory_id":`),
	})
	s.Require().Error(err)
}
