package memory

import (
	"context"
	"sync"
	"time"

	"territorial/internal/counters"
)

// Store keeps counters per document and markers in maps.
type Store struct {
	mu      sync.Mutex
	stats   map[counters.Kind]map[string]*counters.Stats
	markers map[string]string
}

func New() *Store {
	return &Store{
		stats: map[counters.Kind]map[string]*counters.Stats{
			counters.KindCongregation: {},
			counters.KindTerritory:    {},
			counters.KindQuadra:       {},
		},
		markers: make(map[string]string),
	}
}

// Seed registers a document so increments land on it. Increments to unseeded
// documents are dropped, like an update matching nothing.
func (s *Store) Seed(kind counters.Kind, id string, stats counters.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := stats
	s.stats[kind][id] = &st
}

func (s *Store) Stats(kind counters.Kind, id string) (counters.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[kind][id]
	if !ok {
		return counters.Stats{}, false
	}
	return *st, true
}

func (s *Store) ClaimMarker(_ context.Context, key, kind string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markers[key]; ok {
		return false, nil
	}
	s.markers[key] = kind
	return true, nil
}

func (s *Store) Increment(_ context.Context, kind counters.Kind, id string, d counters.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[kind][id]
	if !ok {
		return nil
	}
	for field, v := range d.Fields(kind) {
		switch field {
		case "stats.territories":
			st.Territories += v
		case "stats.rural_territories":
			st.RuralTerritories += v
		case "stats.quadras":
			st.Quadras += v
		case "stats.houses":
			st.Houses += v
		case "stats.houses_done":
			st.HousesDone += v
		}
	}
	return nil
}

// ZeroHousesDone overwrites houses_done, like a $set next to the $inc deltas.
func (s *Store) ZeroHousesDone(kind counters.Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[kind][id]; ok {
		st.HousesDone = 0
	}
}

// Drop forgets a deleted document so later increments are no-ops.
func (s *Store) Drop(kind counters.Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stats[kind], id)
}
