package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	failures  int
	expiresAt time.Time
	lockedTil time.Time
}

// InMemoryStore keeps lockout state in a map. Expiry is checked against the
// wall clock on read.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func New() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*entry), now: time.Now}
}

func (s *InMemoryStore) get(key string) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		e.failures, e.expiresAt = 0, time.Time{}
	}
	return e
}

func (s *InMemoryStore) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(key)
	if e.failures == 0 {
		e.expiresAt = s.now().Add(window)
	}
	e.failures++
	return e.failures, nil
}

func (s *InMemoryStore) Lock(_ context.Context, key string, until time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(key)
	e.lockedTil = until
	e.failures, e.expiresAt = 0, time.Time{}
	return nil
}

func (s *InMemoryStore) LockedUntil(_ context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.lockedTil, nil
	}
	return time.Time{}, nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
