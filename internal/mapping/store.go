package mapping

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
)

// Set maps placeholder tokens to the original text they replaced. One Set is
// scoped to one anonymization pass over one document.
type Set map[string]string

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Entry is one stored correlation: the id minted during anonymization and the
// aggregated placeholder mappings produced by that pass.
type Entry struct {
	ID           string
	Mappings     Set
	LastAccessed time.Time
}

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 100

// Store is a fixed-capacity cache of correlation entries with strict
// least-recently-accessed eviction. It is shared across concurrent requests;
// every operation serializes on the internal mutex.
type Store struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently accessed
	logger   *logger.Logger
}

// NewStore creates a store bounded to capacity entries. A non-positive
// capacity falls back to DefaultCapacity.
func NewStore(capacity int, log *logger.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		logger:   log.WithComponent("mapping_store"),
	}
}

// Add stores the mapping set under id, evicting the least-recently-accessed
// entry when the store is full. Re-adding an existing id replaces its
// mappings and refreshes its recency.
func (s *Store) Add(id string, mappings Set) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[id]; ok {
		entry := elem.Value.(*Entry)
		entry.Mappings = mappings
		entry.LastAccessed = time.Now()
		s.order.MoveToFront(elem)
		return
	}

	if s.order.Len() >= s.capacity {
		s.evictOldest()
	}

	elem := s.order.PushFront(&Entry{
		ID:           id,
		Mappings:     mappings,
		LastAccessed: time.Now(),
	})
	s.entries[id] = elem
}

// Get returns the mapping set for id and refreshes its access time.
func (s *Store) Get(id string) (Set, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[id]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*Entry)
	entry.LastAccessed = time.Now()
	s.order.MoveToFront(elem)
	return entry.Mappings, true
}

// All returns a snapshot of every stored entry, most recently accessed first.
// Snapshots do not refresh access times.
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, s.order.Len())
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*Entry)
		entries = append(entries, Entry{
			ID:           entry.ID,
			Mappings:     entry.Mappings,
			LastAccessed: entry.LastAccessed,
		})
	}
	return entries
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// evictOldest removes the single least-recently-accessed entry.
// Caller must hold the mutex.
func (s *Store) evictOldest() {
	elem := s.order.Back()
	if elem == nil {
		return
	}
	entry := s.order.Remove(elem).(*Entry)
	delete(s.entries, entry.ID)

	s.logger.Debug("Evicted mapping entry",
		zap.String("correlation_id", entry.ID),
		zap.Int("mappings", len(entry.Mappings)),
	)
}
