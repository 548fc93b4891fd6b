package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"territorial/internal/notification"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	items map[id.NotificationID]*notification.Notification
}

func New() *InMemoryStore {
	return &InMemoryStore{items: make(map[id.NotificationID]*notification.Notification)}
}

func (s *InMemoryStore) Create(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *n
	s.items[n.ID] = &c
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, limit int) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*notification.Notification{}
	for _, n := range s.items {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, userID id.UserID, notificationID id.NotificationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[notificationID]
	if !ok || n.UserID != userID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	n.ReadAt = &at
	return nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID id.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, v := range s.items {
		if v.UserID == userID {
			delete(s.items, k)
			n++
		}
	}
	return n, nil
}
