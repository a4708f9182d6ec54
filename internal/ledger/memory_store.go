package ledger

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/reliefnet/aidledger/internal/aidunit"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu  sync.RWMutex
	txs []*Transaction
}

// NewMemoryStore creates an in-memory transaction log store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tx
	s.txs = append(s.txs, &cp)
	return nil
}

func (s *MemoryStore) ListBySender(ctx context.Context, sender string, since time.Time) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Transaction
	for _, tx := range s.txs {
		if tx.Sender != sender || tx.Type != TypeSpending || tx.Status != StatusConfirmed {
			continue
		}
		if tx.Timestamp.Before(since) {
			continue
		}
		cp := *tx
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (s *MemoryStore) CategoryAverage(ctx context.Context, category string, since time.Time) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := new(big.Int)
	count := 0
	for _, tx := range s.txs {
		if tx.Category != category || tx.Type != TypeSpending || tx.Status != StatusConfirmed {
			continue
		}
		if tx.Timestamp.Before(since) {
			continue
		}
		amount, ok := aidunit.Parse(tx.Amount)
		if !ok {
			continue
		}
		sum.Add(sum, amount)
		count++
	}
	if count == 0 {
		return nil, nil
	}
	return sum.Div(sum, big.NewInt(int64(count))), nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, sender string, limit int) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*Transaction
	for _, tx := range s.txs {
		if tx.Sender == sender {
			all = append(all, tx)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	result := make([]*Transaction, 0, len(all))
	for _, tx := range all {
		cp := *tx
		result = append(result, &cp)
	}
	return result, nil
}
