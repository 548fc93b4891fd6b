//go:build integration

package territory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"territorial/internal/cascade"
	congregationstore "territorial/internal/congregation/store/mongo"
	"territorial/internal/counters"
	countersstore "territorial/internal/counters/store/mongo"
	"territorial/internal/events"
	identitystore "territorial/internal/identity/store/postgres"
	"territorial/internal/outbox"
	"territorial/internal/platform/mongodb"
	"territorial/internal/platform/postgres"
	profilestore "territorial/internal/profile/store/mongo"
	"territorial/internal/provisioning"
	"territorial/internal/territory/models"
	territoryservice "territorial/internal/territory/service"
	territorystore "territorial/internal/territory/store/mongo"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/audit"
	auditstore "territorial/pkg/platform/audit/store/postgres"
	"territorial/pkg/requestcontext"
	"territorial/pkg/testutil/containers"
)

type LifecycleSuite struct {
	suite.Suite
	ctx           context.Context
	db            *mongo.Database
	congregations *congregationstore.Store
	territories   *territorystore.Store
	outbox        *outbox.MongoStore
	relay         *outbox.Relay
	service       *territoryservice.Service
	provisioning  *provisioning.Service
	trail         *auditstore.Store
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	logger := zap.NewNop()
	s.ctx = requestcontext.WithTime(context.Background(), time.Now().UTC())

	mc := containers.Mongo(s.T())
	s.db = mc.FreshDatabase("lifecycle")
	s.Require().NoError(mongodb.EnsureIndexes(s.ctx, s.db))
	pg := containers.Postgres(s.T())
	s.Require().NoError(postgres.Migrate(s.ctx, pg.DB))
	s.Require().NoError(pg.Truncate(s.ctx, "identities", "audit_events"))

	transactor := mongodb.NewTransactor(mc.Client, logger)
	profiles := profilestore.New(s.db)
	s.congregations = congregationstore.New(s.db)
	s.territories = territorystore.New(s.db)
	s.outbox = outbox.NewMongoStore(s.db)

	counterSvc := counters.New(countersstore.New(s.db), transactor, counters.WithLogger(logger))
	s.service = territoryservice.New(s.territories, profiles, counterSvc, s.outbox, transactor,
		territoryservice.WithLogger(logger))
	s.trail = auditstore.New(pg.DB)
	s.provisioning = provisioning.New(identitystore.New(pg.DB), s.congregations, profiles, logger,
		provisioning.WithAudit(audit.NewRecorder(s.trail, logger)))

	router := events.NewRouter(logger)
	counters.NewEventHandler(counterSvc, logger).Register(router)
	cascade.New(s.territories, counterSvc, cascade.WithLogger(logger), cascade.WithBatchSize(2)).Register(router)
	s.relay = outbox.NewRelay(s.outbox, outbox.DispatchPublisher{Router: router}, logger)
}

func (s *LifecycleSuite) drain() {
	for {
		n, err := s.relay.RelayOnce(s.ctx)
		s.Require().NoError(err)
		if n == 0 {
			return
		}
	}
}

func (s *LifecycleSuite) houseIDs(territoryID id.TerritoryID) []id.HouseID {
	cur, err := s.db.Collection(mongodb.CollHouses).Find(s.ctx, bson.M{"territory_id": territoryID})
	s.Require().NoError(err)
	var houses []models.House
	s.Require().NoError(cur.All(s.ctx, &houses))
	out := make([]id.HouseID, 0, len(houses))
	for _, h := range houses {
		out = append(out, h.ID)
	}
	return out
}

func (s *LifecycleSuite) TestProgressResetAndCascade() {
	res, err := s.provisioning.CreateOrganizationAndAdmin(s.ctx,
		provisioning.OrganizationData{Name: "Congregação Central"},
		provisioning.AdminData{Name: "Ana", Email: "ana@example.com", Password: "s3cret-passw0rd"},
	)
	s.Require().NoError(err)
	trail, err := s.trail.ListBySubject(s.ctx, res.CongregationID.String(), 10)
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.Equal(audit.ActionCongregationProvisioned, trail[0].Action)

	t, err := s.service.CreateTerritory(s.ctx, res.AdminID, res.CongregationID, territoryservice.CreateTerritoryRequest{
		Number: "7", Name: "Vila Nova", Kind: models.KindUrban,
	})
	s.Require().NoError(err)
	_, err = s.service.CreateQuadra(s.ctx, res.AdminID, t.ID, "A", 3)
	s.Require().NoError(err)
	_, err = s.service.CreateQuadra(s.ctx, res.AdminID, t.ID, "B", 2)
	s.Require().NoError(err)
	s.drain()

	houses := s.houseIDs(t.ID)
	s.Require().Len(houses, 5)
	for _, h := range houses[:2] {
		changed, err := s.service.MarkHouse(s.ctx, res.AdminID, h, territoryservice.HouseUpdate{Done: true})
		s.Require().NoError(err)
		s.True(changed)
	}

	stored, err := s.territories.FindTerritory(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(int64(5), stored.Stats.Houses)
	s.Equal(int64(2), stored.Stats.HousesDone)

	reset, err := s.service.ResetProgress(s.ctx, res.AdminID, res.CongregationID, t.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), reset)

	cong, err := s.congregations.FindByID(s.ctx, res.CongregationID)
	s.Require().NoError(err)
	s.Equal(int64(5), cong.Stats.Houses)
	s.Equal(int64(0), cong.Stats.HousesDone)

	s.Require().NoError(s.service.DeleteTerritory(s.ctx, res.AdminID, t.ID))
	s.drain()

	left, err := s.db.Collection(mongodb.CollHouses).CountDocuments(s.ctx, bson.M{"territory_id": t.ID})
	s.Require().NoError(err)
	s.Zero(left)
	left, err = s.db.Collection(mongodb.CollQuadras).CountDocuments(s.ctx, bson.M{"territory_id": t.ID})
	s.Require().NoError(err)
	s.Zero(left)

	cong, err = s.congregations.FindByID(s.ctx, res.CongregationID)
	s.Require().NoError(err)
	s.Equal(int64(0), cong.Stats.Territories)
	s.Equal(int64(0), cong.Stats.Quadras)
	s.Equal(int64(0), cong.Stats.Houses)
}

func (s *LifecycleSuite) TestResetHidesTerritoryOfAnotherCongregation() {
	res, err := s.provisioning.CreateOrganizationAndAdmin(s.ctx,
		provisioning.OrganizationData{Name: "Norte"},
		provisioning.AdminData{Name: "Bia", Email: "bia@example.com", Password: "s3cret-passw0rd"},
	)
	s.Require().NoError(err)
	t, err := s.service.CreateTerritory(s.ctx, res.AdminID, res.CongregationID, territoryservice.CreateTerritoryRequest{
		Number: "1", Name: "Praia", Kind: models.KindUrban,
	})
	s.Require().NoError(err)

	_, err = s.service.ResetProgress(s.ctx, res.AdminID, id.NewCongregationID(), t.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
