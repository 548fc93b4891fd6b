package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"territorial/internal/profile"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newProfile(cong id.CongregationID, role id.Role, email string) *profile.Profile {
	p, err := profile.NewProfile(id.NewUserID(), cong, "Member "+email, email, role, id.UserStatusActive, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *InMemoryStoreSuite) TestCreateRejectsDuplicateEmail() {
	cong := id.NewCongregationID()
	s.newProfile(cong, id.RolePublisher, "a@example.org")
	dup, err := profile.NewProfile(id.NewUserID(), cong, "Other", "a@example.org", id.RolePublisher, id.UserStatusActive, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestListByRoleFiltersCongregationAndRole() {
	cong := id.NewCongregationID()
	admin := s.newProfile(cong, id.RoleAdministrator, "admin@example.org")
	s.newProfile(cong, id.RolePublisher, "pub@example.org")
	s.newProfile(id.NewCongregationID(), id.RoleAdministrator, "other@example.org")

	admins, err := s.store.ListByRole(s.ctx, cong, id.RoleAdministrator)
	s.Require().NoError(err)
	s.Require().Len(admins, 1)
	s.Equal(admin.ID, admins[0].ID)
}

func (s *InMemoryStoreSuite) TestDeviceTokens() {
	p := s.newProfile(id.NewCongregationID(), id.RolePublisher, "dev@example.org")
	for _, tok := range []string{"t1", "t2", "t3", "t1"} {
		s.Require().NoError(s.store.AddDeviceToken(s.ctx, p.ID, profile.DeviceToken{Token: tok, AddedAt: s.now}))
	}
	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"t1", "t2", "t3"}, got.Tokens())

	s.Require().NoError(s.store.RemoveDeviceTokens(s.ctx, p.ID, []string{"t1", "t3"}))
	got, err = s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal([]string{"t2"}, got.Tokens())
}

func (s *InMemoryStoreSuite) TestUpdatePresenceIsLastWriteWins() {
	p := s.newProfile(id.NewCongregationID(), id.RolePublisher, "presence@example.org")
	t1 := s.now
	t2 := s.now.Add(time.Second)

	applied, err := s.store.UpdatePresence(s.ctx, p.ID, false, t2)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.store.UpdatePresence(s.ctx, p.ID, true, t1)
	s.Require().NoError(err)
	s.False(applied)

	applied, err = s.store.UpdatePresence(s.ctx, p.ID, true, t2)
	s.Require().NoError(err)
	s.False(applied, "equal timestamps are no-ops")

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(got.IsOnline)
	s.Equal(t2, got.LastSeen)
}

func (s *InMemoryStoreSuite) TestDeleteMissingIsNotFound() {
	s.ErrorIs(s.store.Delete(s.ctx, id.NewUserID()), sentinel.ErrNotFound)
}
