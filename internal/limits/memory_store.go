package limits

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by SetOverride when the category has no limit row.
var ErrNotFound = errors.New("limits: category not found")

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu     sync.RWMutex
	limits map[string]*CategoryLimit
}

// NewMemoryStore creates an in-memory category limit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{limits: make(map[string]*CategoryLimit)}
}

func (s *MemoryStore) GetActive(ctx context.Context, category string) (*CategoryLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.limits[category]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, limit *CategoryLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *limit
	cp.UpdatedAt = time.Now().UTC()
	s.limits[limit.Category] = &cp
	return nil
}

func (s *MemoryStore) SetOverride(ctx context.Context, category string, active bool, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limits[category]
	if !ok {
		return ErrNotFound
	}
	l.EmergencyOverrideActive = active
	l.OverrideExpiry = expiry
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*CategoryLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*CategoryLimit, 0, len(s.limits))
	for _, l := range s.limits {
		cp := *l
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Category < result[j].Category
	})
	return result, nil
}
