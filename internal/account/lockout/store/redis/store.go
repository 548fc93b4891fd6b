package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps failure counts and locks as expiring keys.
type Store struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func failuresKey(key string) string { return key + ":failures" }
func lockKey(key string) string     { return key + ":locked" }

func (s *Store) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	n, err := s.client.Incr(ctx, failuresKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("record failure: %w", err)
	}
	if n == 1 {
		if err := s.client.PExpire(ctx, failuresKey(key), window).Err(); err != nil {
			return 0, fmt.Errorf("expire failures: %w", err)
		}
	}
	return int(n), nil
}

func (s *Store) Lock(ctx context.Context, key string, until time.Time, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, lockKey(key), until.UnixMilli(), ttl)
		p.Del(ctx, failuresKey(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	return nil
}

func (s *Store) LockedUntil(ctx context.Context, key string) (time.Time, error) {
	v, err := s.client.Get(ctx, lockKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read lock: %w", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse lock %q: %w", v, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, failuresKey(key), lockKey(key)).Err(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}
