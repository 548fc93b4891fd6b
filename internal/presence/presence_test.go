package presence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"territorial/internal/presence"
	"territorial/internal/presence/realtime"
	"territorial/internal/profile"
	profilemem "territorial/internal/profile/store/memory"
	id "territorial/pkg/domain"
)

func newProfile(t *testing.T, store *profilemem.InMemoryStore) *profile.Profile {
	p, err := profile.NewProfile(id.NewUserID(), id.NewCongregationID(), "Dora", "", id.RolePublisher, id.UserStatusActive, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func TestMirrorIgnoresOlderEvents(t *testing.T) {
	ctx := context.Background()
	profiles := profilemem.New()
	p := newProfile(t, profiles)
	mirror := presence.NewMirror(profiles, zap.NewNop(), nil)

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	require.NoError(t, mirror.Apply(ctx, presence.Event{UserID: p.ID, State: realtime.StateOffline, LastChanged: t2}))
	require.NoError(t, mirror.Apply(ctx, presence.Event{UserID: p.ID, State: realtime.StateOnline, LastChanged: t1}))

	got, err := profiles.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, t2, got.LastSeen)
	assert.False(t, got.IsOnline)
}

func TestMirrorUnknownUserIsNoop(t *testing.T) {
	mirror := presence.NewMirror(profilemem.New(), zap.NewNop(), nil)
	err := mirror.Apply(context.Background(), presence.Event{UserID: id.NewUserID(), State: realtime.StateOnline, LastChanged: time.Now()})
	assert.NoError(t, err)
}

func TestParseEvent(t *testing.T) {
	ev, err := presence.ParseEvent(redis.XMessage{ID: "1-0", Values: map[string]any{
		"uid": "u1", "state": "online", "last_changed": "1767261600000",
	}})
	require.NoError(t, err)
	assert.Equal(t, id.UserID("u1"), ev.UserID)
	assert.True(t, ev.Online())
	assert.Equal(t, time.UnixMilli(1767261600000).UTC(), ev.LastChanged)

	_, err = presence.ParseEvent(redis.XMessage{ID: "2-0", Values: map[string]any{"uid": "u1"}})
	assert.Error(t, err)
}

type flakyWriter struct {
	presence.PresenceWriter
	failures int
}

func (f *flakyWriter) UpdatePresence(ctx context.Context, userID id.UserID, online bool, lastSeen time.Time) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("mongo unavailable")
	}
	return f.PresenceWriter.UpdatePresence(ctx, userID, online, lastSeen)
}

type ConsumerSuite struct {
	suite.Suite
	ctx      context.Context
	mr       *miniredis.Miniredis
	client   *redis.Client
	realtime *realtime.Store
	profiles *profilemem.InMemoryStore
	writer   *flakyWriter
	consumer *presence.Consumer
}

func TestConsumerSuite(t *testing.T) {
	suite.Run(t, new(ConsumerSuite))
}

func (s *ConsumerSuite) SetupTest() {
	s.ctx = context.Background()
	s.mr = miniredis.RunT(s.T())
	s.mr.SetTime(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = s.client.Close() })

	s.realtime = realtime.New(s.client, time.Minute)
	s.profiles = profilemem.New()
	s.writer = &flakyWriter{PresenceWriter: s.profiles}
	mirror := presence.NewMirror(s.writer, zap.NewNop(), nil)
	s.consumer = presence.NewConsumer(s.client, mirror, "mirror", "test-1", zap.NewNop(),
		presence.WithBlock(10*time.Millisecond), presence.WithRetryDelay(time.Millisecond))
	s.Require().NoError(s.consumer.EnsureGroup(s.ctx))
	s.Require().NoError(s.consumer.EnsureGroup(s.ctx))
}

func (s *ConsumerSuite) TestAppliesAndAcknowledges() {
	p := newProfile(s.T(), s.profiles)
	_, err := s.realtime.Connect(s.ctx, p.ID)
	s.Require().NoError(err)
	_, err = s.realtime.Disconnect(s.ctx, p.ID)
	s.Require().NoError(err)

	read, failed, err := s.consumer.Poll(s.ctx, ">")
	s.Require().NoError(err)
	s.Equal(2, read)
	s.Zero(failed)

	st, err := s.realtime.Status(s.ctx, p.ID)
	s.Require().NoError(err)
	got, err := s.profiles.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(got.IsOnline)
	s.Equal(st.LastChanged, got.LastSeen)

	pending, err := s.client.XPending(s.ctx, realtime.StreamKey, "mirror").Result()
	s.Require().NoError(err)
	s.Zero(pending.Count)
}

func (s *ConsumerSuite) TestFailedEntryStaysPendingAndIsRetried() {
	p := newProfile(s.T(), s.profiles)
	s.writer.failures = 1
	_, err := s.realtime.Connect(s.ctx, p.ID)
	s.Require().NoError(err)

	_, failed, err := s.consumer.Poll(s.ctx, ">")
	s.Require().NoError(err)
	s.Equal(1, failed)

	read, failed, err := s.consumer.Poll(s.ctx, "0")
	s.Require().NoError(err)
	s.Equal(1, read)
	s.Zero(failed)

	got, err := s.profiles.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(got.IsOnline)

	read, _, err = s.consumer.Poll(s.ctx, "0")
	s.Require().NoError(err)
	s.Zero(read)
}

func (s *ConsumerSuite) TestClaimsEntriesOfVanishedConsumer() {
	p := newProfile(s.T(), s.profiles)
	_, err := s.realtime.Connect(s.ctx, p.ID)
	s.Require().NoError(err)

	// A consumer that read the entry and never came back.
	_, err = s.client.XReadGroup(s.ctx, &redis.XReadGroupArgs{
		Group:    "mirror",
		Consumer: "gone-1",
		Streams:  []string{realtime.StreamKey, ">"},
		Count:    10,
	}).Result()
	s.Require().NoError(err)

	claimed, err := s.consumer.Reclaim(s.ctx)
	s.Require().NoError(err)
	s.Zero(claimed, "entry is not idle yet")

	s.mr.SetTime(time.Date(2026, 5, 4, 12, 5, 0, 0, time.UTC))
	claimed, err = s.consumer.Reclaim(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, claimed)

	read, failed, err := s.consumer.Poll(s.ctx, "0")
	s.Require().NoError(err)
	s.Equal(1, read)
	s.Zero(failed)

	got, err := s.profiles.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(got.IsOnline)

	pending, err := s.client.XPending(s.ctx, realtime.StreamKey, "mirror").Result()
	s.Require().NoError(err)
	s.Zero(pending.Count)
}

func TestReaperFiresThroughStore(t *testing.T) {
	mr := miniredis.RunT(t)
	start := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	mr.SetTime(start)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := realtime.New(client, time.Second)
	user := id.NewUserID()
	_, err := store.Connect(context.Background(), user)
	require.NoError(t, err)

	mr.SetTime(start.Add(5 * time.Second))
	reaper := presence.NewReaper(store, time.Second, zap.NewNop(), nil)
	assert.Equal(t, 1, reaper.ReapOnce(context.Background()))
	assert.Zero(t, reaper.ReapOnce(context.Background()))
}
