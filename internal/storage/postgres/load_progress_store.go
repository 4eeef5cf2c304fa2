package postgres

import (
	"context"
	"fmt"

	"protocol-stats/internal/storage"
)

// LoadProgressStore is a PostgreSQL implementation of storage.LoadProgressStore.
// Uses two tables:
//   - load_progress: one row per (network, series)
//   - loaded_dumps: set of loaded dump checksums
type LoadProgressStore struct {
	pool *Pool
}

// NewLoadProgressStore creates a new PostgreSQL load progress store.
func NewLoadProgressStore(pool *Pool) *LoadProgressStore {
	return &LoadProgressStore{pool: pool}
}

var _ storage.LoadProgressStore = (*LoadProgressStore)(nil)

// GetProgress returns the progress of a (network, series) stream.
func (s *LoadProgressStore) GetProgress(ctx context.Context, network, series string) (*storage.LoadProgress, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT network, series, last_timestamp, last_id, records
		FROM load_progress
		WHERE network = $1 AND series = $2
	`, network, series)

	var p storage.LoadProgress
	err := row.Scan(&p.Network, &p.Series, &p.LastTimestamp, &p.LastID, &p.Records)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get load progress: %w", err)
	}

	return &p, nil
}

// SetProgress saves the progress of a stream.
// Uses upsert to handle initial insert and subsequent updates.
func (s *LoadProgressStore) SetProgress(ctx context.Context, progress *storage.LoadProgress) error {
	if progress == nil || progress.Network == "" || progress.Series == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO load_progress (network, series, last_timestamp, last_id, records, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (network, series) DO UPDATE
		SET last_timestamp = EXCLUDED.last_timestamp,
		    last_id = EXCLUDED.last_id,
		    records = EXCLUDED.records,
		    updated_at = NOW()
	`, progress.Network, progress.Series, progress.LastTimestamp, progress.LastID, progress.Records)
	if err != nil {
		return fmt.Errorf("set load progress: %w", err)
	}
	return nil
}

// IsDumpLoaded checks if a dump file has been loaded.
func (s *LoadProgressStore) IsDumpLoaded(ctx context.Context, checksum string) (bool, error) {
	if checksum == "" {
		return false, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM loaded_dumps WHERE checksum = $1)
	`, checksum)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check loaded dump: %w", err)
	}

	return exists, nil
}

// MarkDumpLoaded records that a dump file has been loaded.
func (s *LoadProgressStore) MarkDumpLoaded(ctx context.Context, checksum string) error {
	if checksum == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO loaded_dumps (checksum, loaded_at)
		VALUES ($1, NOW())
		ON CONFLICT (checksum) DO NOTHING
	`, checksum)
	if err != nil {
		return fmt.Errorf("mark dump loaded: %w", err)
	}
	return nil
}

// LoadedDumps returns all loaded dump checksums, sorted.
func (s *LoadProgressStore) LoadedDumps(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT checksum FROM loaded_dumps ORDER BY checksum
	`)
	if err != nil {
		return nil, fmt.Errorf("list loaded dumps: %w", err)
	}
	defer rows.Close()

	var checksums []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		checksums = append(checksums, c)
	}

	return checksums, rows.Err()
}
