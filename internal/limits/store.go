package limits

import (
	"context"
	"time"
)

// Provider is the read path the risk engine consumes.
type Provider interface {
	// GetActive returns the configured limit for a category, or (nil, nil)
	// when the category has no limits configured.
	GetActive(ctx context.Context, category string) (*CategoryLimit, error)
}

// Store persists category limits and override state.
type Store interface {
	Provider
	Upsert(ctx context.Context, limit *CategoryLimit) error
	SetOverride(ctx context.Context, category string, active bool, expiry time.Time) error
	List(ctx context.Context) ([]*CategoryLimit, error)
}
