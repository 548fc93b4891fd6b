package service_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,ProfileReader,CounterApplier,EventAppender

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"territorial/internal/profile"
	"territorial/internal/territory/models"
	"territorial/internal/territory/service"
	"territorial/internal/territory/service/mocks"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
	"territorial/pkg/platform/sentinel"
	"territorial/pkg/platform/tx"
)

type mockDeps struct {
	store    *mocks.MockStore
	profiles *mocks.MockProfileReader
	counters *mocks.MockCounterApplier
	outbox   *mocks.MockEventAppender
	service  *service.Service
}

func newMockDeps(t *testing.T) mockDeps {
	ctrl := gomock.NewController(t)
	d := mockDeps{
		store:    mocks.NewMockStore(ctrl),
		profiles: mocks.NewMockProfileReader(ctrl),
		counters: mocks.NewMockCounterApplier(ctrl),
		outbox:   mocks.NewMockEventAppender(ctrl),
	}
	d.service = service.New(d.store, d.profiles, d.counters, d.outbox, &tx.Locked{},
		service.WithRetry(4, time.Millisecond), service.WithBatchSize(2))
	return d
}

func activeProfile(t *testing.T, congregationID id.CongregationID, role id.Role) *profile.Profile {
	p, err := profile.NewProfile(id.NewUserID(), congregationID, "Member", "", role, id.UserStatusActive, time.Now())
	require.NoError(t, err)
	return p
}

func TestAssignRetriesLostVersionRace(t *testing.T) {
	d := newMockDeps(t)
	ctx := context.Background()
	cong := id.NewCongregationID()
	admin := activeProfile(t, cong, id.RoleAdministrator)
	assignee := activeProfile(t, cong, id.RolePublisher)
	terr, err := models.NewTerritory(id.NewTerritoryID(), cong, "7", "", models.KindUrban, time.Now())
	require.NoError(t, err)

	d.profiles.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
	d.profiles.EXPECT().FindByID(gomock.Any(), assignee.ID).Return(assignee, nil).Times(2)
	d.store.EXPECT().FindTerritory(gomock.Any(), terr.ID).DoAndReturn(
		func(context.Context, id.TerritoryID) (*models.Territory, error) {
			c := *terr
			return &c, nil
		}).Times(2)
	gomock.InOrder(
		d.store.EXPECT().UpdateLifecycle(gomock.Any(), gomock.Any(), int64(0)).Return(sentinel.ErrStaleVersion),
		d.store.EXPECT().UpdateLifecycle(gomock.Any(), gomock.Any(), int64(0)).Return(nil),
	)

	got, err := d.service.Assign(ctx, admin.ID, terr.ID, assignee.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
}

func TestAssignExhaustedRetriesIsContention(t *testing.T) {
	d := newMockDeps(t)
	ctx := context.Background()
	cong := id.NewCongregationID()
	admin := activeProfile(t, cong, id.RoleAdministrator)
	terr, err := models.NewTerritory(id.NewTerritoryID(), cong, "7", "", models.KindUrban, time.Now())
	require.NoError(t, err)

	d.profiles.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(admin, nil).AnyTimes()
	d.store.EXPECT().FindTerritory(gomock.Any(), terr.ID).DoAndReturn(
		func(context.Context, id.TerritoryID) (*models.Territory, error) {
			c := *terr
			return &c, nil
		}).Times(4)
	d.store.EXPECT().UpdateLifecycle(gomock.Any(), gomock.Any(), gomock.Any()).Return(sentinel.ErrStaleVersion).Times(4)

	_, err = d.service.Assign(ctx, admin.ID, terr.ID, admin.ID, 7)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeContention))
	assert.Equal(t, 500, dErrors.HTTPStatus(dErrors.CodeContention))
}

func TestResetProgressWithNothingDoneWritesNothing(t *testing.T) {
	d := newMockDeps(t)
	ctx := context.Background()
	cong := id.NewCongregationID()
	admin := activeProfile(t, cong, id.RoleAdministrator)
	terr, err := models.NewTerritory(id.NewTerritoryID(), cong, "7", "", models.KindUrban, time.Now())
	require.NoError(t, err)

	d.profiles.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
	d.store.EXPECT().FindTerritory(gomock.Any(), terr.ID).Return(terr, nil)
	d.store.EXPECT().DeleteActivityBatch(gomock.Any(), terr.ID, 2).Return(int64(0), nil)
	d.store.EXPECT().ResetHouses(gomock.Any(), terr.ID).Return(int64(0), nil)
	// No ZeroHousesDone and no counter Apply: the controller fails on any unexpected call.

	changed, err := d.service.ResetProgress(ctx, admin.ID, cong, terr.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestResetProgressDeletesActivityInBatches(t *testing.T) {
	d := newMockDeps(t)
	ctx := context.Background()
	cong := id.NewCongregationID()
	admin := activeProfile(t, cong, id.RoleAdministrator)
	terr, err := models.NewTerritory(id.NewTerritoryID(), cong, "7", "", models.KindUrban, time.Now())
	require.NoError(t, err)

	d.profiles.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
	d.store.EXPECT().FindTerritory(gomock.Any(), terr.ID).Return(terr, nil)
	gomock.InOrder(
		d.store.EXPECT().DeleteActivityBatch(gomock.Any(), terr.ID, 2).Return(int64(2), nil).Times(2),
		d.store.EXPECT().DeleteActivityBatch(gomock.Any(), terr.ID, 2).Return(int64(1), nil),
		d.store.EXPECT().ResetHouses(gomock.Any(), terr.ID).Return(int64(4), nil),
		d.store.EXPECT().ZeroHousesDone(gomock.Any(), terr.ID).Return(nil),
		d.counters.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil),
	)

	changed, err := d.service.ResetProgress(ctx, admin.ID, cong, terr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), changed)
}

func TestResetProgressSurfacesStoreFailure(t *testing.T) {
	d := newMockDeps(t)
	ctx := context.Background()
	cong := id.NewCongregationID()
	admin := activeProfile(t, cong, id.RoleAdministrator)
	terr, err := models.NewTerritory(id.NewTerritoryID(), cong, "7", "", models.KindUrban, time.Now())
	require.NoError(t, err)

	d.profiles.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
	d.store.EXPECT().FindTerritory(gomock.Any(), terr.ID).Return(terr, nil)
	d.store.EXPECT().DeleteActivityBatch(gomock.Any(), terr.ID, 2).Return(int64(0), errors.New("connection reset"))

	_, err = d.service.ResetProgress(ctx, admin.ID, cong, terr.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
