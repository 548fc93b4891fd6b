// Package memory is an in-process territory store. It keeps aggregate counters
// in a counters memory store so stats behave like fields of the same documents.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"territorial/internal/counters"
	countersmem "territorial/internal/counters/store/memory"
	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	"territorial/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	stats       *countersmem.Store
	territories map[id.TerritoryID]*models.Territory
	quadras     map[id.QuadraID]*models.Quadra
	houses      map[id.HouseID]*models.House
	activity    []*models.Activity
	writes      int
}

func New(stats *countersmem.Store) *InMemoryStore {
	return &InMemoryStore{
		stats:       stats,
		territories: make(map[id.TerritoryID]*models.Territory),
		quadras:     make(map[id.QuadraID]*models.Quadra),
		houses:      make(map[id.HouseID]*models.House),
	}
}

// Writes counts mutating calls that changed something.
func (s *InMemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func cloneTerritory(t *models.Territory) *models.Territory {
	c := *t
	c.History = slices.Clone(t.History)
	if t.Assignment != nil {
		a := *t.Assignment
		c.Assignment = &a
	}
	return &c
}

func (s *InMemoryStore) FindTerritory(_ context.Context, territoryID id.TerritoryID) (*models.Territory, error) {
	s.mu.RLock()
	t, ok := s.territories[territoryID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := cloneTerritory(t)
	if st, ok := s.stats.Stats(counters.KindTerritory, territoryID.String()); ok {
		c.Stats = st
	}
	return c, nil
}

func (s *InMemoryStore) CreateTerritory(_ context.Context, t *models.Territory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.territories {
		if existing.CongregationID == t.CongregationID && existing.Number == t.Number {
			return sentinel.ErrConflict
		}
	}
	s.territories[t.ID] = cloneTerritory(t)
	s.stats.Seed(counters.KindTerritory, t.ID.String(), t.Stats)
	s.writes++
	return nil
}

func (s *InMemoryStore) UpdateLifecycle(_ context.Context, t *models.Territory, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.territories[t.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return sentinel.ErrStaleVersion
	}
	next := cloneTerritory(cur)
	next.Status = t.Status
	next.Assignment = cloneTerritory(t).Assignment
	next.History = slices.Clone(t.History)
	next.UpdatedAt = t.UpdatedAt
	next.Version = expectedVersion + 1
	s.territories[t.ID] = next
	t.Version = next.Version
	s.writes++
	return nil
}

func (s *InMemoryStore) DeleteTerritory(_ context.Context, territoryID id.TerritoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.territories[territoryID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.territories, territoryID)
	s.stats.Drop(counters.KindTerritory, territoryID.String())
	s.writes++
	return nil
}

func (s *InMemoryStore) FindQuadra(_ context.Context, quadraID id.QuadraID) (*models.Quadra, error) {
	s.mu.RLock()
	q, ok := s.quadras[quadraID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *q
	if st, ok := s.stats.Stats(counters.KindQuadra, quadraID.String()); ok {
		c.Stats = st
	}
	return &c, nil
}

func (s *InMemoryStore) CreateQuadra(_ context.Context, q *models.Quadra, houses []*models.House) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quadras[q.ID]; ok {
		return sentinel.ErrConflict
	}
	c := *q
	s.quadras[q.ID] = &c
	s.stats.Seed(counters.KindQuadra, q.ID.String(), q.Stats)
	for _, h := range houses {
		hc := *h
		s.houses[h.ID] = &hc
	}
	s.writes++
	return nil
}

func (s *InMemoryStore) DeleteQuadra(_ context.Context, quadraID id.QuadraID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quadras[quadraID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.quadras, quadraID)
	s.stats.Drop(counters.KindQuadra, quadraID.String())
	s.writes++
	return nil
}

func (s *InMemoryStore) FindHouse(_ context.Context, houseID id.HouseID) (*models.House, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.houses[houseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *h
	return &c, nil
}

func (s *InMemoryStore) SetHouseDone(_ context.Context, houseID id.HouseID, done bool, by id.UserID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.houses[houseID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if h.Done == done {
		return false, nil
	}
	h.Done = done
	h.LastWorkedBy = by
	h.UpdatedAt = at
	s.writes++
	return true, nil
}

func (s *InMemoryStore) SetHouseNotes(_ context.Context, houseID id.HouseID, notes string, by id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.houses[houseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	h.Notes = notes
	h.LastWorkedBy = by
	h.UpdatedAt = at
	s.writes++
	return nil
}

func (s *InMemoryStore) AppendActivity(_ context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	s.activity = append(s.activity, &c)
	s.writes++
	return nil
}

func (s *InMemoryStore) TouchLastActivity(_ context.Context, territoryID id.TerritoryID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.territories[territoryID]; ok {
		when := at
		t.LastActivityAt = &when
		s.writes++
	}
	return nil
}

func (s *InMemoryStore) DeleteActivityBatch(_ context.Context, territoryID id.TerritoryID, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	kept := s.activity[:0]
	for _, a := range s.activity {
		if a.TerritoryID == territoryID && (limit <= 0 || removed < int64(limit)) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.activity = kept
	if removed > 0 {
		s.writes++
	}
	return removed, nil
}

func (s *InMemoryStore) ResetHouses(_ context.Context, territoryID id.TerritoryID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, h := range s.houses {
		if h.TerritoryID == territoryID && h.Done {
			h.Done = false
			changed++
		}
	}
	if changed > 0 {
		s.writes++
	}
	return changed, nil
}

func (s *InMemoryStore) ZeroHousesDone(_ context.Context, territoryID id.TerritoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.ZeroHousesDone(counters.KindTerritory, territoryID.String())
	for _, q := range s.quadras {
		if q.TerritoryID == territoryID {
			s.stats.ZeroHousesDone(counters.KindQuadra, q.ID.String())
		}
	}
	s.writes++
	return nil
}

// ListOverdue returns assigned territories past due that were not yet notified,
// oldest due date first.
func (s *InMemoryStore) ListOverdue(_ context.Context, now time.Time, limit int) ([]*models.Territory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Territory
	for _, t := range s.territories {
		if t.IsOverdue(now) && !t.Assignment.OverdueNotified {
			out = append(out, cloneTerritory(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Assignment.DueDate.Before(out[j].Assignment.DueDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkOverdueNotified flags the assignment started at assignedAt. It reports
// false when the territory was returned or reassigned meanwhile.
func (s *InMemoryStore) MarkOverdueNotified(_ context.Context, territoryID id.TerritoryID, assignedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.territories[territoryID]
	if !ok || t.Assignment == nil || !t.Assignment.AssignedAt.Equal(assignedAt) || t.Assignment.OverdueNotified {
		return false, nil
	}
	t.Assignment.OverdueNotified = true
	t.Version++
	s.writes++
	return true, nil
}

// QuadraIDs lists up to limit quadras of the territory.
func (s *InMemoryStore) QuadraIDs(_ context.Context, territoryID id.TerritoryID, limit int) ([]id.QuadraID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.QuadraID
	for qid, q := range s.quadras {
		if q.TerritoryID == territoryID {
			out = append(out, qid)
		}
	}
	slices.Sort(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteHouses removes up to limit houses of the quadra whose done flag matches.
func (s *InMemoryStore) DeleteHouses(_ context.Context, quadraID id.QuadraID, done bool, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for hid, h := range s.houses {
		if limit > 0 && removed >= int64(limit) {
			break
		}
		if h.QuadraID == quadraID && h.Done == done {
			delete(s.houses, hid)
			removed++
		}
	}
	if removed > 0 {
		s.writes++
	}
	return removed, nil
}

// DeleteQuadraDoc removes the quadra document if present and reports whether it did.
func (s *InMemoryStore) DeleteQuadraDoc(_ context.Context, quadraID id.QuadraID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quadras[quadraID]; !ok {
		return false, nil
	}
	delete(s.quadras, quadraID)
	s.stats.Drop(counters.KindQuadra, quadraID.String())
	s.writes++
	return true, nil
}

// HouseCount counts houses of a quadra, for tests.
func (s *InMemoryStore) HouseCount(quadraID id.QuadraID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, h := range s.houses {
		if h.QuadraID == quadraID {
			n++
		}
	}
	return n
}

// ActivityCount counts activity documents of a territory, for tests.
func (s *InMemoryStore) ActivityCount(territoryID id.TerritoryID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.activity {
		if a.TerritoryID == territoryID {
			n++
		}
	}
	return n
}

// HouseIDs lists the houses of a quadra by ordinal.
func (s *InMemoryStore) HouseIDs(_ context.Context, quadraID id.QuadraID) ([]id.HouseID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hs []*models.House
	for _, h := range s.houses {
		if h.QuadraID == quadraID {
			hs = append(hs, h)
		}
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].Ordinal < hs[j].Ordinal })
	out := make([]id.HouseID, len(hs))
	for i, h := range hs {
		out[i] = h.ID
	}
	return out, nil
}
