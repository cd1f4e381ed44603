package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTransactionID computes a deterministic transaction id using SHA256.
// Used when a source record carries no hash or ledger id of its own.
// Formula: SHA256(wallet_id|raw_action|timestamp|record_index)
// Returns hex-encoded hash (64 characters).
func ComputeTransactionID(
	walletID string,
	rawAction string,
	timestamp int64,
	recordIndex int,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		walletID,
		rawAction,
		timestamp,
		recordIndex,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
