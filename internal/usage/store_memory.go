package usage

import (
	"context"
	"sync"

	id "spamstopper/pkg/domain"
)

type counterKey struct {
	subscriberID id.SubscriberID
	period       Period
}

// InMemoryStore keeps usage counters in memory for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	counters map[counterKey]int
}

// NewInMemoryStore constructs an empty in-memory usage ledger.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{counters: make(map[counterKey]int)}
}

func (s *InMemoryStore) Used(_ context.Context, subscriberID id.SubscriberID, period Period) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[counterKey{subscriberID, period}], nil
}

func (s *InMemoryStore) Increment(_ context.Context, subscriberID id.SubscriberID, period Period) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey{subscriberID, period}
	s.counters[key]++
	return s.counters[key], nil
}

func (s *InMemoryStore) Reset(_ context.Context, subscriberID id.SubscriberID, period Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, counterKey{subscriberID, period})
	return nil
}
