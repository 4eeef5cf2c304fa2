package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeDigest returns the hex-encoded SHA256 of data.
func ComputeDigest(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ComputeETag returns a strong HTTP entity tag for a response body.
func ComputeETag(body []byte) string {
	return `"` + ComputeDigest(body)[:32] + `"`
}
