package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"territorial/internal/profile"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe profile store for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*profile.Profile
}

func New() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]*profile.Profile)}
}

func clone(p *profile.Profile) *profile.Profile {
	c := *p
	c.DeviceTokens = slices.Clone(p.DeviceTokens)
	return &c
}

func (s *InMemoryStore) Create(_ context.Context, p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.profiles {
		if p.Email != "" && existing.Email == p.Email {
			return sentinel.ErrConflict
		}
	}
	s.profiles[p.ID] = clone(p)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, userID)
	return nil
}

func (s *InMemoryStore) ListByRole(_ context.Context, congregationID id.CongregationID, roles ...id.Role) ([]*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*profile.Profile
	for _, p := range s.profiles {
		if p.CongregationID != congregationID || p.Status != id.UserStatusActive {
			continue
		}
		if len(roles) > 0 && !slices.Contains(roles, p.Role) {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) AddDeviceToken(_ context.Context, userID id.UserID, token profile.DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.DeviceTokens = slices.DeleteFunc(p.DeviceTokens, func(t profile.DeviceToken) bool { return t.Token == token.Token })
	p.DeviceTokens = append(p.DeviceTokens, token)
	p.UpdatedAt = token.AddedAt
	return nil
}

func (s *InMemoryStore) RemoveDeviceTokens(_ context.Context, userID id.UserID, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil
	}
	p.DeviceTokens = slices.DeleteFunc(p.DeviceTokens, func(t profile.DeviceToken) bool {
		return slices.Contains(tokens, t.Token)
	})
	return nil
}

func (s *InMemoryStore) UpdatePresence(_ context.Context, userID id.UserID, online bool, lastSeen time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok || !p.LastSeen.Before(lastSeen) {
		return false, nil
	}
	p.IsOnline = online
	p.LastSeen = lastSeen
	return true, nil
}
