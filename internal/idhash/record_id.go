// Package idhash computes deterministic identifiers and content digests.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRecordID computes a deterministic record id using SHA256.
// Formula: SHA256(network|series|source|timestamp)
// Returns hex-encoded hash (64 characters).
//
// Used for exported records that carry no indexer id. The tuple is unique for
// every series: sourced series emit one record per source and bucket.
func ComputeRecordID(network, series, source string, timestamp int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		network,
		series,
		source,
		timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
