package market

import (
	"sync"
	"time"

	"github.com/rickgao/polymarket-live/internal/model"
)

// catalogState holds the thread-safe event cache.
type catalogState struct {
	mu sync.RWMutex

	// Popular events, most popular first.
	events []model.Event

	// Every token seen in popular or search results.
	instruments map[string]model.Instrument

	// Top tokens of the last refresh, used to detect new ones.
	top map[string]struct{}

	// Last successful refresh timestamp.
	lastSyncAt time.Time

	// Output channel for newly discovered top tokens.
	discovered chan []string
}

func newState() *catalogState {
	return &catalogState{
		instruments: make(map[string]model.Instrument),
		top:         make(map[string]struct{}),
		discovered:  make(chan []string, DiscoveredBufferSize),
	}
}

// replace swaps the popular list and returns top tokens (first n) that were
// not top tokens before.
func (s *catalogState) replace(events []model.Event, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = events
	s.indexLocked(events)
	s.lastSyncAt = time.Now()

	top := topTokenIDs(events, n)
	var added []string
	next := make(map[string]struct{}, len(top))
	for _, id := range top {
		next[id] = struct{}{}
		if _, ok := s.top[id]; !ok {
			added = append(added, id)
		}
	}
	s.top = next

	return added
}

// index records instruments without touching the popular list.
func (s *catalogState) index(events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.indexLocked(events)
}

// indexLocked adds instruments (caller must hold write lock).
func (s *catalogState) indexLocked(events []model.Event) {
	for _, ev := range events {
		for _, m := range ev.Markets {
			for i, tokenID := range m.TokenIDs {
				inst := model.Instrument{
					TokenID:    tokenID,
					EventSlug:  ev.Slug,
					EventTitle: ev.Title,
					Question:   m.Question,
					Volume:     m.Volume,
				}
				if i < len(m.Outcomes) {
					inst.Outcome = m.Outcomes[i]
				}
				s.instruments[tokenID] = inst
			}
		}
	}
}

func (s *catalogState) getEvents() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *catalogState) lookup(tokenID string) (model.Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instruments[tokenID]
	return inst, ok
}

func (s *catalogState) topTokenIDs(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return topTokenIDs(s.events, n)
}

func (s *catalogState) eventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *catalogState) instrumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instruments)
}

// notifyDiscovered sends ids to the discovered channel (non-blocking).
func (s *catalogState) notifyDiscovered(ids []string) {
	select {
	case s.discovered <- ids:
	default:
		// Channel full, drop oldest by consuming one and retrying.
		select {
		case <-s.discovered:
			s.discovered <- ids
		default:
		}
	}
}

// topTokenIDs returns the first token of each market in order, up to n.
func topTokenIDs(events []model.Event, n int) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, ev := range events {
		for _, m := range ev.Markets {
			if len(m.TokenIDs) == 0 {
				continue
			}
			id := m.TokenIDs[0]
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if n > 0 && len(ids) == n {
				return ids
			}
		}
	}
	return ids
}
