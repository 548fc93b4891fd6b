package memory

import (
	"context"
	"sync"

	"territorial/internal/congregation"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu            sync.RWMutex
	congregations map[id.CongregationID]*congregation.Congregation
}

func New() *InMemoryStore {
	return &InMemoryStore{congregations: make(map[id.CongregationID]*congregation.Congregation)}
}

func (s *InMemoryStore) Create(_ context.Context, c *congregation.Congregation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.congregations[c.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *c
	s.congregations[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, congregationID id.CongregationID) (*congregation.Congregation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.congregations[congregationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) Delete(_ context.Context, congregationID id.CongregationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.congregations[congregationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.congregations, congregationID)
	return nil
}

func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.congregations)
}
