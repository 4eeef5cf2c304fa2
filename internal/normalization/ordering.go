package normalization

import (
	"sort"

	"protocol-stats/internal/domain"
)

// SortRecords orders raw records by (timestamp ASC, id ASC).
// This provides deterministic ordering when the indexer returns pages in reverse.
func SortRecords(records []*domain.RawRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return compareRecords(records[i], records[j]) < 0
	})
}

// FilterWindow returns the records whose timestamp lies in the query window.
// The input slice is not modified.
func FilterWindow(records []*domain.RawRecord, cfg domain.QueryConfig) []*domain.RawRecord {
	var out []*domain.RawRecord
	for _, r := range records {
		if r != nil && cfg.InWindow(r.Timestamp) {
			out = append(out, r)
		}
	}
	return out
}

// CheckAscending returns *domain.PreconditionError if timestamps are not strictly ascending.
func CheckAscending(stage string, timestamps []int64) error {
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] <= timestamps[i-1] {
			return &domain.PreconditionError{
				Stage:     stage,
				Index:     i,
				Timestamp: timestamps[i],
				Previous:  timestamps[i-1],
			}
		}
	}
	return nil
}

// compareRecords returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
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
