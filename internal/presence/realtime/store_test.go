package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	id "territorial/pkg/domain"
)

type StoreSuite struct {
	suite.Suite
	ctx    context.Context
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *Store
	now    time.Time
	user   id.UserID
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.mr = miniredis.RunT(s.T())
	s.now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	s.mr.SetTime(s.now)
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = s.client.Close() })
	s.store = New(s.client, 30*time.Second)
	s.user = id.NewUserID()
}

func (s *StoreSuite) streamLen() int64 {
	n, err := s.client.XLen(s.ctx, StreamKey).Result()
	s.Require().NoError(err)
	return n
}

func (s *StoreSuite) TestConnectWritesOnlineAndTestament() {
	at, err := s.store.Connect(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(s.now, at)

	st, err := s.store.Status(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(StateOnline, st.State)
	s.Equal(s.now, st.LastChanged)

	testament, err := s.client.Get(s.ctx, testamentKey(s.user)).Result()
	s.Require().NoError(err)
	s.Equal(StateOffline, testament)
	s.Equal(int64(1), s.streamLen())
}

func (s *StoreSuite) TestTimestampsStrictlyIncreaseUnderFrozenClock() {
	first, err := s.store.Connect(s.ctx, s.user)
	s.Require().NoError(err)
	fired, err := s.store.Disconnect(s.ctx, s.user)
	s.Require().NoError(err)
	s.True(fired)

	st, err := s.store.Status(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(StateOffline, st.State)
	s.Equal(first.Add(time.Millisecond), st.LastChanged)
}

func (s *StoreSuite) TestDisconnectFiresOnce() {
	_, err := s.store.Connect(s.ctx, s.user)
	s.Require().NoError(err)

	fired, err := s.store.Disconnect(s.ctx, s.user)
	s.Require().NoError(err)
	s.True(fired)

	fired, err = s.store.Disconnect(s.ctx, s.user)
	s.Require().NoError(err)
	s.False(fired)
	s.Equal(int64(2), s.streamLen())
}

func (s *StoreSuite) TestHeartbeatNeedsLiveLease() {
	alive, err := s.store.Heartbeat(s.ctx, s.user)
	s.Require().NoError(err)
	s.False(alive)

	_, err = s.store.Connect(s.ctx, s.user)
	s.Require().NoError(err)
	alive, err = s.store.Heartbeat(s.ctx, s.user)
	s.Require().NoError(err)
	s.True(alive)
}

func (s *StoreSuite) TestReaperFiresOnlyLapsedLeases() {
	other := id.NewUserID()
	_, err := s.store.Connect(s.ctx, s.user)
	s.Require().NoError(err)
	_, err = s.store.Connect(s.ctx, other)
	s.Require().NoError(err)

	s.mr.SetTime(s.now.Add(20 * time.Second))
	alive, err := s.store.Heartbeat(s.ctx, other)
	s.Require().NoError(err)
	s.True(alive)

	s.mr.SetTime(s.now.Add(45 * time.Second))
	fired, err := s.store.FireExpiredTestaments(s.ctx, 100)
	s.Require().NoError(err)
	s.Equal(1, fired)

	st, err := s.store.Status(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(StateOffline, st.State)
	s.Equal(s.now.Add(45*time.Second), st.LastChanged)

	st, err = s.store.Status(s.ctx, other)
	s.Require().NoError(err)
	s.Equal(StateOnline, st.State)

	fired, err = s.store.FireExpiredTestaments(s.ctx, 100)
	s.Require().NoError(err)
	s.Zero(fired)
}

func (s *StoreSuite) TestRemoveDropsKeysWithoutEvent() {
	_, err := s.store.Connect(s.ctx, s.user)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Remove(s.ctx, s.user))

	s.False(s.mr.Exists(statusKey(s.user)))
	s.False(s.mr.Exists(testamentKey(s.user)))
	s.Equal(int64(1), s.streamLen())

	fired, err := s.store.Disconnect(s.ctx, s.user)
	s.Require().NoError(err)
	s.False(fired)
}

func (s *StoreSuite) TestNowUsesServerClock() {
	now, err := s.store.Now(s.ctx)
	s.Require().NoError(err)
	s.Equal(s.now, now)
}
