// Package limits provides per-category spending ceilings for aid disbursement.
//
// Each aid category (food, medical, shelter, ...) carries daily, weekly,
// monthly, and per-transaction limits set by administrators. An emergency
// override suspends limit enforcement for a bounded window, e.g. after a
// natural disaster, without editing the limits themselves.
package limits

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/reliefnet/aidledger/internal/aidunit"
)

var (
	ErrMissingCategory = errors.New("limits: category is required")
	ErrInvalidLimit    = errors.New("limits: limit must be a non-negative amount")
)

// CategoryLimit holds the configured ceilings for one aid category.
// Limit fields are decimal token strings; an empty string means the ceiling
// is not configured and is not enforced.
type CategoryLimit struct {
	Category                string    `json:"category"`
	DailyLimit              string    `json:"dailyLimit,omitempty"`
	WeeklyLimit             string    `json:"weeklyLimit,omitempty"`
	MonthlyLimit            string    `json:"monthlyLimit,omitempty"`
	PerTransactionLimit     string    `json:"perTransactionLimit,omitempty"`
	EmergencyOverrideActive bool      `json:"emergencyOverrideActive"`
	OverrideExpiry          time.Time `json:"overrideExpiry,omitempty"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// OverrideInEffect reports whether the emergency override applies at the
// given instant. An override with a zero expiry has no deadline.
func (l *CategoryLimit) OverrideInEffect(now time.Time) bool {
	if !l.EmergencyOverrideActive {
		return false
	}
	return l.OverrideExpiry.IsZero() || l.OverrideExpiry.After(now)
}

// DailyLimitUnits returns the daily ceiling in base units, or (nil, false)
// when no daily limit is configured.
func (l *CategoryLimit) DailyLimitUnits() (*big.Int, bool) {
	if l.DailyLimit == "" {
		return nil, false
	}
	units, ok := aidunit.Parse(l.DailyLimit)
	if !ok {
		return nil, false
	}
	return units, true
}

// Validate checks the category name and that every configured ceiling parses
// to a non-negative amount.
func (l *CategoryLimit) Validate() error {
	if strings.TrimSpace(l.Category) == "" {
		return ErrMissingCategory
	}
	for _, v := range []string{l.DailyLimit, l.WeeklyLimit, l.MonthlyLimit, l.PerTransactionLimit} {
		if v == "" {
			continue
		}
		units, ok := aidunit.Parse(v)
		if !ok || units.Sign() < 0 {
			return ErrInvalidLimit
		}
	}
	return nil
}
