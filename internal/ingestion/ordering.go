package ingestion

import (
	"errors"
	"sort"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/storage"
)

// ErrInvalidOrdering is returned when records are not properly ordered.
var ErrInvalidOrdering = errors.New("records are not in deterministic order")

// SortRecords orders records by (timestamp ASC, id ASC).
// This is the order the indexer emits and the order progress is tracked in.
func SortRecords(records []*domain.RawRecord) {
	sort.Slice(records, func(i, j int) bool {
		return compareRecords(records[i], records[j]) < 0
	})
}

// SortPrices orders price points by (symbol ASC, timestamp ASC).
func SortPrices(points []*domain.PricePoint) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Symbol != points[j].Symbol {
			return points[i].Symbol < points[j].Symbol
		}
		return points[i].Timestamp < points[j].Timestamp
	})
}

// ValidateRecordOrdering checks if records are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateRecordOrdering(records []*domain.RawRecord) error {
	for i := 1; i < len(records); i++ {
		if compareRecords(records[i-1], records[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// After returns the records strictly after the progress position.
// records must be sorted. A nil progress keeps everything.
func After(records []*domain.RawRecord, progress *storage.LoadProgress) []*domain.RawRecord {
	if progress == nil {
		return records
	}
	mark := &domain.RawRecord{Timestamp: progress.LastTimestamp, ID: progress.LastID}
	i := sort.Search(len(records), func(i int) bool {
		return compareRecords(records[i], mark) > 0
	})
	return records[i:]
}

// compareRecords returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp ASC, id ASC)
func compareRecords(a, b *domain.RawRecord) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}
