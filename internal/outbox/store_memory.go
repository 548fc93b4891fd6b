package outbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"territorial/internal/events"
	"territorial/pkg/requestcontext"
)

// InMemoryStore is the outbox for tests and single-process runs.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func (s *InMemoryStore) Append(ctx context.Context, env events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if env.RequestID == "" {
		env.RequestID = requestcontext.RequestID(ctx)
	}
	s.records[env.ID] = &Record{
		Envelope:  env,
		Topic:     events.TopicFor(env.Type),
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	return nil
}

func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, r := range s.records {
		if r.PublishedAt == nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[eventID]; ok {
		r.PublishedAt = &at
	}
	return nil
}

func (s *InMemoryStore) MarkFailed(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[eventID]; ok {
		r.Attempts++
	}
	return nil
}

// Envelopes returns every appended envelope of type t, oldest first.
func (s *InMemoryStore) Envelopes(t events.Type) []events.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []*Record
	for _, r := range s.records {
		if r.Type == t {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	out := make([]events.Envelope, len(recs))
	for i, r := range recs {
		out[i] = r.Envelope
	}
	return out
}
