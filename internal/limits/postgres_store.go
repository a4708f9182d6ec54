package limits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists category limits in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed category limit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetActive(ctx context.Context, category string) (*CategoryLimit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT category, daily_limit, weekly_limit, monthly_limit, per_tx_limit,
		       override_active, override_expiry, updated_at
		FROM category_limits
		WHERE category = $1
	`, category)

	l, err := scanLimit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load category limit: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, limit *CategoryLimit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_limits
			(category, daily_limit, weekly_limit, monthly_limit, per_tx_limit, override_active, override_expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (category) DO UPDATE SET
			daily_limit = EXCLUDED.daily_limit,
			weekly_limit = EXCLUDED.weekly_limit,
			monthly_limit = EXCLUDED.monthly_limit,
			per_tx_limit = EXCLUDED.per_tx_limit,
			updated_at = NOW()
	`,
		limit.Category,
		nullable(limit.DailyLimit), nullable(limit.WeeklyLimit),
		nullable(limit.MonthlyLimit), nullable(limit.PerTransactionLimit),
		limit.EmergencyOverrideActive, nullableTime(limit.OverrideExpiry),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert category limit: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetOverride(ctx context.Context, category string, active bool, expiry time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE category_limits
		SET override_active = $2, override_expiry = $3, updated_at = NOW()
		WHERE category = $1
	`, category, active, nullableTime(expiry))
	if err != nil {
		return fmt.Errorf("failed to set override: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*CategoryLimit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, daily_limit, weekly_limit, monthly_limit, per_tx_limit,
		       override_active, override_expiry, updated_at
		FROM category_limits
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list category limits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*CategoryLimit
	for rows.Next() {
		l, err := scanLimit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category limit: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLimit(row rowScanner) (*CategoryLimit, error) {
	var l CategoryLimit
	var daily, weekly, monthly, perTx sql.NullString
	var expiry sql.NullTime
	if err := row.Scan(&l.Category, &daily, &weekly, &monthly, &perTx,
		&l.EmergencyOverrideActive, &expiry, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.DailyLimit = daily.String
	l.WeeklyLimit = weekly.String
	l.MonthlyLimit = monthly.String
	l.PerTransactionLimit = perTx.String
	if expiry.Valid {
		l.OverrideExpiry = expiry.Time
	}
	return &l, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
