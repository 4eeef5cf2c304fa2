package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/storage"
)

// RawRecordStore implements storage.RawRecordStore using PostgreSQL.
// Fields are stored as a JSONB object of raw string values.
type RawRecordStore struct {
	pool *Pool
}

// NewRawRecordStore creates a new RawRecordStore.
func NewRawRecordStore(pool *Pool) *RawRecordStore {
	return &RawRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RawRecordStore = (*RawRecordStore)(nil)

const insertRawRecordQuery = `
	INSERT INTO raw_records (network, series, id, timestamp, source, fields)
	VALUES ($1, $2, $3, $4, $5, $6)
`

func validRecord(r *domain.RawRecord) bool {
	return r != nil && r.Network != "" && r.Series != "" && r.ID != ""
}

func fieldsOf(r *domain.RawRecord) map[string]string {
	if r.Fields == nil {
		return map[string]string{}
	}
	return r.Fields
}

// Insert adds a new record. Returns ErrDuplicateKey if (network, series, id) exists.
func (s *RawRecordStore) Insert(ctx context.Context, r *domain.RawRecord) error {
	if !validRecord(r) {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertRawRecordQuery,
		r.Network, r.Series, r.ID, r.Timestamp, r.Source, fieldsOf(r),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert raw record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *RawRecordStore) InsertBulk(ctx context.Context, records []*domain.RawRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if !validRecord(r) {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, insertRawRecordQuery,
			r.Network, r.Series, r.ID, r.Timestamp, r.Source, fieldsOf(r),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert raw record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySeries retrieves records within [start, end], ordered by (timestamp ASC, id ASC).
func (s *RawRecordStore) GetBySeries(ctx context.Context, network, series string, start, end int64) ([]*domain.RawRecord, error) {
	query := `
		SELECT network, series, id, timestamp, source, fields
		FROM raw_records
		WHERE network = $1 AND series = $2
		  AND timestamp >= $3 AND ($4::BIGINT <= 0 OR timestamp <= $4::BIGINT)
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, network, series, start, end)
	if err != nil {
		return nil, fmt.Errorf("get raw records by series: %w", err)
	}
	defer rows.Close()

	return scanRawRecords(rows)
}

// CountBySeries returns the number of stored records per series for a network.
func (s *RawRecordStore) CountBySeries(ctx context.Context, network string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT series, COUNT(*)
		FROM raw_records
		WHERE network = $1
		GROUP BY series
	`, network)
	if err != nil {
		return nil, fmt.Errorf("count raw records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var series string
		var n int64
		if err := rows.Scan(&series, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[series] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count rows: %w", err)
	}

	return counts, nil
}

// scanRawRecords scans multiple rows into a slice of RawRecord.
func scanRawRecords(rows pgx.Rows) ([]*domain.RawRecord, error) {
	var records []*domain.RawRecord

	for rows.Next() {
		var r domain.RawRecord

		err := rows.Scan(
			&r.Network,
			&r.Series,
			&r.ID,
			&r.Timestamp,
			&r.Source,
			&r.Fields,
		)
		if err != nil {
			return nil, fmt.Errorf("scan raw record row: %w", err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw record rows: %w", err)
	}

	return records, nil
}
