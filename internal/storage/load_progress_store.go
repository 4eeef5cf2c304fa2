package storage

import "context"

// LoadProgress is the last loaded position of one (network, series) stream.
type LoadProgress struct {
	Network       string
	Series        string
	LastTimestamp int64  // timestamp of the last loaded record
	LastID        string // id of the last loaded record
	Records       int64  // records loaded so far
}

// LoadProgressStore provides persistence for loader state.
// This enables re-running a load over the same dumps without duplicating records.
type LoadProgressStore interface {
	// GetProgress returns the progress of a (network, series) stream.
	// Returns ErrNotFound if nothing has been loaded yet.
	GetProgress(ctx context.Context, network, series string) (*LoadProgress, error)

	// SetProgress saves the progress of a stream, replacing any previous value.
	SetProgress(ctx context.Context, progress *LoadProgress) error

	// IsDumpLoaded checks if a dump file (by content checksum) has been loaded.
	IsDumpLoaded(ctx context.Context, checksum string) (bool, error)

	// MarkDumpLoaded records that a dump file has been loaded.
	MarkDumpLoaded(ctx context.Context, checksum string) error

	// LoadedDumps returns all loaded dump checksums.
	LoadedDumps(ctx context.Context) ([]string, error)
}
