// Package idgen generates random identifiers for ledger records.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

func randomHex(numBytes int) string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// WithPrefix returns prefix + 24 hex chars, e.g. WithPrefix("txn_") for
// transactions and WithPrefix("risk_") for assessments. IDs are opaque; only
// the prefix carries meaning.
func WithPrefix(prefix string) string {
	return prefix + randomHex(12)
}
