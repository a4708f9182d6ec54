// Package aidunit provides shared parsing and formatting for aid token amounts.
//
// The aid token uses 18 decimal places. All amounts are carried as big.Int in
// the smallest base unit (1 token = 10^18 base units); floating point is only
// ever used for derived ratios, never for the raw amounts themselves.
package aidunit

import (
	"math/big"
	"strings"
)

const Decimals = 18

// unitScale is 10^Decimals, the number of base units in one token.
var unitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Parse converts a decimal string (e.g. "1.50") to its base-unit big.Int
// representation. Returns (nil, false) on invalid input.
//
// Rules:
//   - Empty string returns (0, true)
//   - Negative amounts are rejected
//   - Multiple decimal points are rejected
//   - Fractional parts are padded/truncated to 18 decimal places
func Parse(s string) (*big.Int, bool) {
	if s == "" {
		return big.NewInt(0), true
	}

	if strings.HasPrefix(s, "-") {
		return nil, false
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, false
	}
	whole := parts[0]
	frac := ""
	if len(parts) > 1 {
		frac = parts[1]
	}

	// Pad or trim to 18 decimals
	for len(frac) < Decimals {
		frac += "0"
	}
	frac = frac[:Decimals]

	combined := whole + frac
	result, ok := new(big.Int).SetString(combined, 10)
	return result, ok
}

// Format converts a base-unit big.Int to a human-readable decimal string
// with exactly 18 decimal places.
func Format(amount *big.Int) string {
	if amount == nil {
		return "0." + strings.Repeat("0", Decimals)
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	s := abs.String()
	for len(s) < Decimals+1 {
		s = "0" + s
	}
	decimal := len(s) - Decimals
	result := s[:decimal] + "." + s[decimal:]
	if neg {
		result = "-" + result
	}
	return result
}

// ToFloat converts a base-unit amount to a float64 token count for derived
// ratio and average computations. Precision loss is acceptable at this point:
// detector ratios are heuristics, not ledger arithmetic.
func ToFloat(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(amount), new(big.Float).SetInt(unitScale))
	out, _ := f.Float64()
	return out
}

// Ratio returns a/b as float64, or 0 when b is zero or nil.
func Ratio(a, b *big.Int) float64 {
	if a == nil || b == nil || b.Sign() == 0 {
		return 0
	}
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(a), new(big.Float).SetInt(b)).Float64()
	return out
}

// FromTokens converts a whole token count to base units. Test helper territory,
// but also used when seeding defaults.
func FromTokens(tokens int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(tokens), unitScale)
}
