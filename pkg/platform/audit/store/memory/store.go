package memory

import (
	"context"
	"sync"

	"territorial/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func New() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, ev audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns the stored events with the given action, oldest first.
func (s *InMemoryStore) Events(action audit.Action) []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Event
	for _, ev := range s.events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}
