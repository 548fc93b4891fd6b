// Package realtime is the connection-state store clients write to directly. It
// keeps each user's status hash, a disconnect testament and a lease, and
// appends every status write to the presence stream.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	id "territorial/pkg/domain"
)

const (
	StateOnline  = "online"
	StateOffline = "offline"

	StreamKey = "presence:events"
	leasesKey = "presence:leases"

	defaultStreamLen = 100000
)

func statusKey(userID id.UserID) string    { return "presence:status:" + userID.String() }
func testamentKey(userID id.UserID) string { return "presence:testament:" + userID.String() }

// Status is the stored connection state of one user.
type Status struct {
	State       string
	LastChanged time.Time
}

type Store struct {
	client    redis.UniversalClient
	leaseTTL  time.Duration
	streamLen int64
}

type Option func(*Store)

func WithStreamLength(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.streamLen = n
		}
	}
}

func New(client redis.UniversalClient, leaseTTL time.Duration, opts ...Option) *Store {
	s := &Store{client: client, leaseTTL: leaseTTL, streamLen: defaultStreamLen}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) keys(userID id.UserID) []string {
	return []string{statusKey(userID), StreamKey, testamentKey(userID), leasesKey}
}

func (s *Store) run(ctx context.Context, script *redis.Script, userID id.UserID) (int64, error) {
	return script.Run(ctx, s.client, s.keys(userID),
		userID.String(), s.streamLen, s.leaseTTL.Milliseconds(),
	).Int64()
}

// Connect registers the offline testament and a lease, then marks the user
// online. It returns the new last_changed.
func (s *Store) Connect(ctx context.Context, userID id.UserID) (time.Time, error) {
	ms, err := s.run(ctx, connectScript, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("connect %s: %w", userID, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// Heartbeat renews the lease. It reports false when the user has no live
// connection and must Connect again.
func (s *Store) Heartbeat(ctx context.Context, userID id.UserID) (bool, error) {
	n, err := s.run(ctx, heartbeatScript, userID)
	if err != nil {
		return false, fmt.Errorf("heartbeat %s: %w", userID, err)
	}
	return n == 1, nil
}

// Disconnect fires the testament. It reports false when it was already fired.
func (s *Store) Disconnect(ctx context.Context, userID id.UserID) (bool, error) {
	ms, err := s.run(ctx, disconnectScript, userID)
	if err != nil {
		return false, fmt.Errorf("disconnect %s: %w", userID, err)
	}
	return ms > 0, nil
}

// FireExpiredTestaments fires the testaments of up to limit users whose lease
// lapsed and returns how many it fired.
func (s *Store) FireExpiredTestaments(ctx context.Context, limit int64) (int, error) {
	now, err := s.nowMillis(ctx)
	if err != nil {
		return 0, err
	}
	expired, err := s.client.ZRangeByScore(ctx, leasesKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: limit,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list expired leases: %w", err)
	}
	fired := 0
	for _, uid := range expired {
		ms, err := s.run(ctx, reapScript, id.UserID(uid))
		if err != nil {
			return fired, fmt.Errorf("reap %s: %w", uid, err)
		}
		if ms > 0 {
			fired++
		}
	}
	return fired, nil
}

// Status reads the stored state. A user never seen is offline at the zero time.
func (s *Store) Status(ctx context.Context, userID id.UserID) (Status, error) {
	vals, err := s.client.HGetAll(ctx, statusKey(userID)).Result()
	if err != nil {
		return Status{}, fmt.Errorf("read status %s: %w", userID, err)
	}
	st := Status{State: StateOffline}
	if v, ok := vals["state"]; ok {
		st.State = v
	}
	if v, ok := vals["last_changed"]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Status{}, fmt.Errorf("parse last_changed %q: %w", v, err)
		}
		st.LastChanged = time.UnixMilli(ms).UTC()
	}
	return st, nil
}

// Now is the server clock, the single authority for presence timestamps.
func (s *Store) Now(ctx context.Context) (time.Time, error) {
	ms, err := s.nowMillis(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (s *Store) nowMillis(ctx context.Context) (int64, error) {
	ms, err := nowScript.Run(ctx, s.client, nil).Int64()
	if err != nil {
		return 0, fmt.Errorf("read server time: %w", err)
	}
	return ms, nil
}

// Remove deletes every key of a user without writing an event. Used when the
// account itself is deleted.
func (s *Store) Remove(ctx context.Context, userID id.UserID) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, statusKey(userID), testamentKey(userID))
		p.ZRem(ctx, leasesKey, userID.String())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("remove presence %s: %w", userID, err)
	}
	return nil
}
