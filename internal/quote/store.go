// Package quote holds the live quote store: the latest known best bid, best
// ask and last trade price per instrument.
//
// Entries are never removed. After a disconnect they represent last known
// state; callers judge staleness from the connection state, not from the data.
package quote

import (
	"sync"

	"github.com/rickgao/polymarket-live/internal/model"
)

// Store is a concurrency-safe map from instrument id to its latest quote.
// All reads return copies; callers can never alias internal state.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		quotes: make(map[string]model.Quote),
	}
}

// Upsert merges the set fields of partial into the record for id, creating it
// if absent. Fields not present in partial are left as they were.
func (s *Store) Upsert(id string, partial model.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[id] = s.quotes[id].Merge(partial)
}

// Apply upserts a batch of normalized updates.
func (s *Store) Apply(updates []model.QuoteUpdate) {
	if len(updates) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		s.quotes[u.AssetID] = s.quotes[u.AssetID].Merge(u.Quote)
	}
}

// Get returns a copy of the quote for id. ok is false if id was never seen.
func (s *Store) Get(id string) (model.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return model.Quote{}, false
	}
	return q.Clone(), true
}

// GetAll returns a snapshot of every known quote.
func (s *Store) GetAll() map[string]model.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Quote, len(s.quotes))
	for id, q := range s.quotes {
		out[id] = q.Clone()
	}
	return out
}

// Len returns the number of instruments with a record.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}
