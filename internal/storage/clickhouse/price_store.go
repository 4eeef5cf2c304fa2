package clickhouse

import (
	"context"
	"fmt"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/storage"
)

// PriceStore implements storage.PriceStore using ClickHouse.
type PriceStore struct {
	conn *Conn
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (symbol, timestamp).
// ClickHouse does not enforce uniqueness, so duplicates are checked before the insert.
func (s *PriceStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		symbol    string
		timestamp int64
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.Symbol, p.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, p := range points {
		exists, err := s.exists(ctx, p.Symbol, p.Timestamp)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO asset_prices (symbol, timestamp, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.Symbol, p.Timestamp, p.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves points for a symbol within [start, end], ordered by timestamp ASC.
func (s *PriceStore) GetBySymbol(ctx context.Context, symbol string, start, end int64) ([]*domain.PricePoint, error) {
	query := `
		SELECT symbol, timestamp, price
		FROM asset_prices FINAL
		WHERE symbol = ? AND timestamp >= ? AND (? <= 0 OR timestamp <= ?)
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, start, end, end)
	if err != nil {
		return nil, fmt.Errorf("query prices by symbol: %w", err)
	}
	defer rows.Close()

	var points []*domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return points, nil
}

// Symbols returns every stored symbol in ascending order.
func (s *PriceStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT DISTINCT symbol FROM asset_prices ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		symbols = append(symbols, sym)
	}

	return symbols, rows.Err()
}

// exists checks if a point with the given key exists.
func (s *PriceStore) exists(ctx context.Context, symbol string, timestamp int64) (bool, error) {
	query := `
		SELECT count(*) FROM asset_prices
		WHERE symbol = ? AND timestamp = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, symbol, timestamp).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
