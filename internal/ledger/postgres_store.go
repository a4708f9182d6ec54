package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/reliefnet/aidledger/internal/aidunit"
)

// PostgresStore persists the transaction log in PostgreSQL. Amounts are stored
// as NUMERIC(78,0) base units so windowed averages stay exact in SQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed transaction log store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, tx *Transaction) error {
	units, ok := aidunit.Parse(tx.Amount)
	if !ok {
		return ErrInvalidAmount
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, sender, recipient, category, amount_units, tx_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		tx.ID, tx.Sender, tx.Recipient, tx.Category,
		units.String(), tx.Type, tx.Status, tx.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySender(ctx context.Context, sender string, since time.Time) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, recipient, category, amount_units, tx_type, status, created_at
		FROM transactions
		WHERE sender = $1 AND tx_type = $2 AND status = $3 AND created_at >= $4
		ORDER BY created_at ASC
	`, sender, TypeSpending, StatusConfirmed, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTransactions(rows)
}

func (s *PostgresStore) CategoryAverage(ctx context.Context, category string, since time.Time) (*big.Int, error) {
	var avg sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT TRUNC(AVG(amount_units))::TEXT
		FROM transactions
		WHERE category = $1 AND tx_type = $2 AND status = $3 AND created_at >= $4
	`, category, TypeSpending, StatusConfirmed, since).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category average: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	result, ok := new(big.Int).SetString(avg.String, 10)
	if !ok {
		return nil, fmt.Errorf("unparseable category average %q", avg.String)
	}
	return result, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, sender string, limit int) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, recipient, category, amount_units, tx_type, status, created_at
		FROM transactions
		WHERE sender = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sender, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*Transaction, error) {
	var result []*Transaction
	for rows.Next() {
		var tx Transaction
		var units string
		if err := rows.Scan(&tx.ID, &tx.Sender, &tx.Recipient, &tx.Category,
			&units, &tx.Type, &tx.Status, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		amount, ok := new(big.Int).SetString(units, 10)
		if !ok {
			continue
		}
		tx.Amount = aidunit.Format(amount)
		result = append(result, &tx)
	}
	return result, rows.Err()
}
