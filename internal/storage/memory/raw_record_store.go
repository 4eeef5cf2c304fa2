package memory

import (
	"context"
	"sort"
	"sync"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/storage"
)

// RawRecordStore is an in-memory implementation of storage.RawRecordStore.
type RawRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RawRecord // keyed by (network, series, id)
}

// NewRawRecordStore creates a new in-memory raw record store.
func NewRawRecordStore() *RawRecordStore {
	return &RawRecordStore{
		data: make(map[string]*domain.RawRecord),
	}
}

func recordKey(r *domain.RawRecord) string {
	return r.Network + "|" + r.Series + "|" + r.ID
}

func validRecord(r *domain.RawRecord) bool {
	return r != nil && r.Network != "" && r.Series != "" && r.ID != ""
}

// copyRecord copies the record including its field map.
func copyRecord(r *domain.RawRecord) *domain.RawRecord {
	c := *r
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return &c
}

// Insert adds a single record.
func (s *RawRecordStore) Insert(_ context.Context, r *domain.RawRecord) error {
	if !validRecord(r) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(r)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = copyRecord(r)
	return nil
}

// InsertBulk adds multiple records. Fails entire batch on duplicate.
func (s *RawRecordStore) InsertBulk(_ context.Context, records []*domain.RawRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))

	// First pass: validate and check duplicates (existing + intra-batch)
	for _, r := range records {
		if !validRecord(r) {
			return storage.ErrInvalidInput
		}
		key := recordKey(r)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range records {
		s.data[recordKey(r)] = copyRecord(r)
	}

	return nil
}

// GetBySeries retrieves records of one series within [start, end], ordered by (timestamp, id).
func (s *RawRecordStore) GetBySeries(_ context.Context, network, series string, start, end int64) ([]*domain.RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawRecord
	for _, r := range s.data {
		if r.Network != network || r.Series != series {
			continue
		}
		if r.Timestamp < start || (end > 0 && r.Timestamp > end) {
			continue
		}
		result = append(result, copyRecord(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// CountBySeries returns the number of stored records per series for a network.
func (s *RawRecordStore) CountBySeries(_ context.Context, network string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, r := range s.data {
		if r.Network == network {
			counts[r.Series]++
		}
	}
	return counts, nil
}

var _ storage.RawRecordStore = (*RawRecordStore)(nil)
