// Package idhash computes deterministic identifiers for trade records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-copy-trader/internal/domain"
)

// ComputeFillID computes a deterministic fill_id using SHA256.
// Formula: SHA256(mint|side|reason|order_signature|timestamp)
// Returns hex-encoded hash (64 characters).
//
// The order signature already identifies one executed order; hashing it
// with the trade identity makes duplicate journal inserts detectable
// across restarts.
func ComputeFillID(
	mint string,
	side domain.Side,
	reason domain.TradeReason,
	orderSignature string,
	timestamp int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		mint,
		string(side),
		string(reason),
		orderSignature,
		timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
