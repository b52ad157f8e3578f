package store

import (
	"context"
	"sort"
	"sync"

	"spamstopper/internal/call/models"
	id "spamstopper/pkg/domain"
)

// InMemoryStore keeps call logs in memory for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs map[id.CallID]*models.CallLog
}

// New constructs an empty in-memory call log store.
func New() *InMemoryStore {
	return &InMemoryStore{logs: make(map[id.CallID]*models.CallLog)}
}

func (s *InMemoryStore) Save(_ context.Context, log *models.CallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyLog := *log
	s.logs[log.ID] = &copyLog
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, callID id.CallID) (*models.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[callID]
	if !ok {
		return nil, ErrNotFound
	}
	copyLog := *log
	return &copyLog, nil
}

func (s *InMemoryStore) FindByProviderCallID(_ context.Context, providerCallID string) (*models.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if providerCallID == "" {
		return nil, ErrNotFound
	}
	for _, log := range s.logs {
		if log.ProviderCallID == providerCallID {
			copyLog := *log
			return &copyLog, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) ListBySubscriber(_ context.Context, subscriberID id.SubscriberID, limit int) ([]*models.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var logs []*models.CallLog
	for _, log := range s.logs {
		if log.SubscriberID == subscriberID {
			copyLog := *log
			logs = append(logs, &copyLog)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *InMemoryStore) Update(_ context.Context, log *models.CallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logs[log.ID]; !ok {
		return ErrNotFound
	}
	copyLog := *log
	s.logs[log.ID] = &copyLog
	return nil
}
