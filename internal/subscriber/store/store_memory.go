package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"spamstopper/internal/subscriber/models"
	id "spamstopper/pkg/domain"
)

// InMemoryStore keeps subscribers in memory for tests and local runs.
type InMemoryStore struct {
	mu          sync.RWMutex
	subscribers map[id.SubscriberID]*models.Subscriber
}

// New constructs an empty in-memory subscriber store.
func New() *InMemoryStore {
	return &InMemoryStore{subscribers: make(map[id.SubscriberID]*models.Subscriber)}
}

func (s *InMemoryStore) Save(_ context.Context, sub *models.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subscribers {
		if existing.ID != sub.ID && strings.EqualFold(existing.Email, sub.Email) {
			return ErrConflict
		}
	}
	copySub := cloneSubscriber(sub)
	s.subscribers[sub.ID] = copySub
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, subscriberID id.SubscriberID) (*models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscribers[subscriberID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSubscriber(sub), nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		if strings.EqualFold(sub.Email, email) {
			return cloneSubscriber(sub), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByForwardingNumber(_ context.Context, number id.PhoneNumber) ([]*models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*models.Subscriber
	for _, sub := range s.subscribers {
		if sub.ForwardingNumber == number {
			matches = append(matches, cloneSubscriber(sub))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})
	return matches, nil
}

func (s *InMemoryStore) FindByBillingCustomer(_ context.Context, customerID string) (*models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if customerID == "" {
		return nil, ErrNotFound
	}
	for _, sub := range s.subscribers {
		if sub.BillingCustomer == customerID {
			return cloneSubscriber(sub), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, sub *models.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[sub.ID]; !ok {
		return ErrNotFound
	}
	s.subscribers[sub.ID] = cloneSubscriber(sub)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, subscriberID id.SubscriberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[subscriberID]; !ok {
		return ErrNotFound
	}
	delete(s.subscribers, subscriberID)
	return nil
}

func cloneSubscriber(sub *models.Subscriber) *models.Subscriber {
	copySub := *sub
	copySub.BlockedNumbers = append([]id.PhoneNumber(nil), sub.BlockedNumbers...)
	return &copySub
}
