package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists risk assessments in PostgreSQL. Findings round-trip
// through JSONB using the pattern-tagged encoding in risk.go.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, a *Assessment) error {
	findingsJSON, err := json.Marshal(a.Findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments
			(id, sender, recipient, category, amount, risk_level, total_score, findings, requires_review, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		a.ID, a.Sender, a.Recipient, a.Category, a.Amount,
		string(a.Level), a.TotalScore, findingsJSON, a.RequiresReview, a.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySender(ctx context.Context, sender string, limit int) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, recipient, category, amount, risk_level, total_score, findings, requires_review, evaluated_at
		FROM risk_assessments
		WHERE sender = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`, sender, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAssessments(rows)
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, recipient, category, amount, risk_level, total_score, findings, requires_review, evaluated_at
		FROM risk_assessments
		WHERE evaluated_at >= $1
		ORDER BY evaluated_at ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAssessments(rows)
}

func scanAssessments(rows *sql.Rows) ([]*Assessment, error) {
	var result []*Assessment
	for rows.Next() {
		var a Assessment
		var findingsJSON []byte
		if err := rows.Scan(&a.ID, &a.Sender, &a.Recipient, &a.Category, &a.Amount,
			&a.Level, &a.TotalScore, &findingsJSON, &a.RequiresReview, &a.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		if err := json.Unmarshal(findingsJSON, &a.Findings); err != nil {
			return nil, fmt.Errorf("failed to decode findings for %s: %w", a.ID, err)
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}
