package storage

import (
	"context"

	"protocol-stats/internal/domain"
)

// RawRecordStore persists raw indexer records.
// Records are keyed by (network, series, id) and are append-only.
type RawRecordStore interface {
	// Insert adds a single record. Returns ErrDuplicateKey if the key exists.
	Insert(ctx context.Context, r *domain.RawRecord) error

	// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.RawRecord) error

	// GetBySeries retrieves records of one series within [start, end] (inclusive),
	// ordered by (timestamp ASC, id ASC). end <= 0 means no upper bound.
	GetBySeries(ctx context.Context, network, series string, start, end int64) ([]*domain.RawRecord, error)

	// CountBySeries returns the number of stored records per series for a network.
	CountBySeries(ctx context.Context, network string) (map[string]int64, error)
}

// PriceStore persists reference asset prices.
// Points are keyed by (symbol, timestamp).
type PriceStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (symbol, timestamp).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetBySymbol retrieves points for a symbol within [start, end] (inclusive),
	// ordered by timestamp ASC. end <= 0 means no upper bound.
	GetBySymbol(ctx context.Context, symbol string, start, end int64) ([]*domain.PricePoint, error)

	// Symbols returns every stored symbol in ascending order.
	Symbols(ctx context.Context) ([]string, error)
}
