package memory

import (
	"context"
	"sort"
	"sync"

	"protocol-stats/internal/storage"
)

// LoadProgressStore is an in-memory implementation of storage.LoadProgressStore.
type LoadProgressStore struct {
	mu       sync.RWMutex
	progress map[string]*storage.LoadProgress // keyed by (network, series)
	dumps    map[string]bool
}

// NewLoadProgressStore creates a new in-memory load progress store.
func NewLoadProgressStore() *LoadProgressStore {
	return &LoadProgressStore{
		progress: make(map[string]*storage.LoadProgress),
		dumps:    make(map[string]bool),
	}
}

func progressKey(network, series string) string {
	return network + "|" + series
}

// GetProgress returns the progress of a (network, series) stream.
func (s *LoadProgressStore) GetProgress(_ context.Context, network, series string) (*storage.LoadProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[progressKey(network, series)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	progressCopy := *p
	return &progressCopy, nil
}

// SetProgress saves the progress of a stream.
func (s *LoadProgressStore) SetProgress(_ context.Context, progress *storage.LoadProgress) error {
	if progress == nil || progress.Network == "" || progress.Series == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	progressCopy := *progress
	s.progress[progressKey(progress.Network, progress.Series)] = &progressCopy
	return nil
}

// IsDumpLoaded checks if a dump file has been loaded.
func (s *LoadProgressStore) IsDumpLoaded(_ context.Context, checksum string) (bool, error) {
	if checksum == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dumps[checksum], nil
}

// MarkDumpLoaded records that a dump file has been loaded.
func (s *LoadProgressStore) MarkDumpLoaded(_ context.Context, checksum string) error {
	if checksum == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dumps[checksum] = true
	return nil
}

// LoadedDumps returns all loaded dump checksums, sorted.
func (s *LoadProgressStore) LoadedDumps(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checksums := make([]string, 0, len(s.dumps))
	for c := range s.dumps {
		checksums = append(checksums, c)
	}
	sort.Strings(checksums)
	return checksums, nil
}

var _ storage.LoadProgressStore = (*LoadProgressStore)(nil)
