package storage

import "errors"

// Errors shared by every backend. Raw records and prices are write-once: a
// stored (network, series, id) or (symbol, timestamp) is never overwritten.
var (
	// ErrNotFound: no load progress recorded for the stream.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey: the record id or dump checksum is already stored.
	// Bulk inserts fail as a whole; the loader then retries row by row.
	ErrDuplicateKey = errors.New("duplicate key: already stored")

	// ErrInvalidInput: a record without network, series or id, or a price without symbol.
	ErrInvalidInput = errors.New("invalid input")
)
