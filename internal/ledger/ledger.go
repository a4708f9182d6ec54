// Package ledger tracks aid spending transactions on the platform.
//
// Flow:
//  1. Donors fund beneficiary allocations (recorded upstream)
//  2. A beneficiary proposes a spend at an approved vendor
//  3. The risk engine scores the proposal against this log
//  4. The confirmed transaction is appended to the log
//
// The log is the single source of history for every risk detector window
// (1h, 24h, 30d, 60d), so reads are time-bounded and ordered.
package ledger

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/reliefnet/aidledger/internal/aidunit"
	"github.com/reliefnet/aidledger/internal/idgen"
)

var (
	ErrInvalidAmount   = errors.New("ledger: invalid amount")
	ErrMissingSender   = errors.New("ledger: sender is required")
	ErrMissingCategory = errors.New("ledger: category is required")
)

// Transaction types.
const (
	TypeSpending = "spending"
	TypeDonation = "donation"
)

// Transaction statuses.
const (
	StatusConfirmed     = "confirmed"
	StatusPendingReview = "pending_review"
	StatusRejected      = "rejected"
)

// Transaction is a single movement of aid funds. Amounts are decimal token
// strings; arithmetic happens on the base-unit big.Int via aidunit.
type Transaction struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// AmountUnits returns the base-unit representation of the amount.
// Invalid amounts come back as (nil, false); stored transactions are
// validated on the way in, so this is a corruption guard.
func (t *Transaction) AmountUnits() (*big.Int, bool) {
	return aidunit.Parse(t.Amount)
}

// History is the time-bounded read path the risk engine consumes.
// Both queries are restricted to confirmed spending transactions.
type History interface {
	// ListBySender returns the sender's confirmed spending transactions with
	// Timestamp >= since, in ascending timestamp order.
	ListBySender(ctx context.Context, sender string, since time.Time) ([]*Transaction, error)

	// CategoryAverage returns the mean confirmed spending amount (base units)
	// across all senders for a category since the given time, or nil when the
	// category has no history.
	CategoryAverage(ctx context.Context, category string, since time.Time) (*big.Int, error)
}

// Store persists the transaction log.
type Store interface {
	History
	Record(ctx context.Context, tx *Transaction) error
	ListRecent(ctx context.Context, sender string, limit int) ([]*Transaction, error)
}

// Log manages the spending transaction log.
type Log struct {
	store Store
}

// New creates a transaction log backed by the given store.
func New(store Store) *Log {
	return &Log{store: store}
}

// Record validates and appends a transaction. ID and timestamp are stamped
// when absent; sender and recipient are lowercased so window queries match.
func (l *Log) Record(ctx context.Context, tx *Transaction) error {
	if strings.TrimSpace(tx.Sender) == "" {
		return ErrMissingSender
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrMissingCategory
	}
	amount, ok := aidunit.Parse(tx.Amount)
	if !ok || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	tx.Sender = strings.ToLower(tx.Sender)
	tx.Recipient = strings.ToLower(tx.Recipient)
	if tx.ID == "" {
		tx.ID = idgen.WithPrefix("txn_")
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	if tx.Type == "" {
		tx.Type = TypeSpending
	}
	if tx.Status == "" {
		tx.Status = StatusConfirmed
	}

	return l.store.Record(ctx, tx)
}

// History returns a sender's most recent transactions, newest first.
func (l *Log) History(ctx context.Context, sender string, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return l.store.ListRecent(ctx, strings.ToLower(sender), limit)
}
