package content

import (
	"context"
	"math/rand"
	"sync"
)

// MemoryStore is an in-memory activity bank, used in tests and for
// running without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	items []*Item
}

// NewMemoryStore returns a store pre-loaded with the given items.
func NewMemoryStore(items ...*Item) *MemoryStore {
	s := &MemoryStore{}
	s.Add(items...)
	return s
}

// Add appends items to the bank.
func (s *MemoryStore) Add(items ...*Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
}

// FindCandidates applies the same hard filters as the Postgres store
// and returns up to q.Limit matches in shuffled order.
func (s *MemoryStore) FindCandidates(_ context.Context, q Query) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scopes := make(map[string]bool, len(q.AudienceScopes))
	for _, sc := range q.AudienceScopes {
		scopes[sc] = true
	}

	var matched []*Item
	for _, it := range s.items {
		if it.Type != q.Type || it.Rating != q.Rating {
			continue
		}
		if it.Intensity < q.IntensityMin || it.Intensity > q.IntensityMax {
			continue
		}
		if len(scopes) > 0 && !scopes[it.AudienceScope] {
			continue
		}
		if q.ExcludeIDs[it.ID] {
			continue
		}
		if q.HardLimits != nil && it.ViolatesLimits(q.HardLimits) {
			continue
		}
		if q.AnatomyAvailable != nil && !it.AnatomySatisfiable(q.AnatomyAvailable) {
			continue
		}
		matched = append(matched, it)
	}

	rand.Shuffle(len(matched), func(i, j int) {
		matched[i], matched[j] = matched[j], matched[i]
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

var _ Store = (*MemoryStore)(nil)
