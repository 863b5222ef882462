package identifier

import (
	"context"
	"fmt"
	"sync"
)

// InMemorySequenceStore keeps counters in a map guarded by one mutex. At the
// expected scale (a handful of staff) a single lock is simpler than per-key
// locks and still serializes every allocation for a given (prefix, day).
type InMemorySequenceStore struct {
	mu   sync.Mutex
	last map[Key]int
}

// NewInMemorySequenceStore constructs an empty counter store.
func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{last: make(map[Key]int)}
}

func (s *InMemorySequenceStore) NextRange(_ context.Context, key Key, count, max int) (int, error) {
	if count < 1 {
		return 0, fmt.Errorf("count must be positive, got %d", count)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.last[key]
	if last+count > max {
		return 0, fmt.Errorf("%s-%s at %d, requested %d, max %d: %w",
			key.Prefix, key.DateStamp, last, count, max, ErrExhausted)
	}
	s.last[key] = last + count
	return last + 1, nil
}

// Seed sets the last issued sequence for a key. Used when resuming a day's
// intake from a persisted registry.
func (s *InMemorySequenceStore) Seed(key Key, last int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last > s.last[key] {
		s.last[key] = last
	}
}
