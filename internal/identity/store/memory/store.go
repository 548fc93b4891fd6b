package memory

import (
	"context"
	"sync"

	"territorial/internal/identity"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[id.UserID]*identity.Identity
}

func New() *InMemoryStore {
	return &InMemoryStore{identities: make(map[id.UserID]*identity.Identity)}
}

func (s *InMemoryStore) Create(_ context.Context, i *identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[i.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.identities {
		if existing.Email == i.Email {
			return sentinel.ErrConflict
		}
	}
	c := *i
	s.identities[i.ID] = &c
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.identities[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *i
	return &c, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, i := range s.identities {
		if i.Email == email {
			c := *i
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.identities, userID)
	return nil
}
