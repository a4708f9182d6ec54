package risk

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu  sync.RWMutex
	all []*Assessment
}

// NewMemoryStore creates an in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, a *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, copyAssessment(a))
	return nil
}

func (s *MemoryStore) ListBySender(ctx context.Context, sender string, limit int) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Assessment
	for i := len(s.all) - 1; i >= 0 && len(result) < limit; i-- {
		if s.all[i].Sender == sender {
			result = append(result, copyAssessment(s.all[i]))
		}
	}
	return result, nil
}

func (s *MemoryStore) ListSince(ctx context.Context, since time.Time) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Assessment
	for _, a := range s.all {
		if !a.EvaluatedAt.Before(since) {
			result = append(result, copyAssessment(a))
		}
	}
	return result, nil
}

func copyAssessment(a *Assessment) *Assessment {
	cp := *a
	cp.Findings = make([]Finding, len(a.Findings))
	copy(cp.Findings, a.Findings)
	return &cp
}
