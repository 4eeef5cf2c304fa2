package sources

import (
	"protocol-stats/internal/domain"
	"protocol-stats/internal/normalization"
)

// Breakdown buckets classified entries into per-source volume points.
// Zero-value entries do not contribute a source, but still open their bucket.
func Breakdown(entries []Entry, period int64) []*domain.SourceVolumePoint {
	bucketEntries := make([]normalization.BucketEntry, 0, len(entries))
	for _, e := range entries {
		fields := map[string]float64{}
		if e.Value != 0 {
			fields[e.Source] = e.Value
		}
		bucketEntries = append(bucketEntries, normalization.BucketEntry{
			Timestamp: e.Timestamp,
			Fields:    fields,
		})
	}

	buckets := normalization.AggregateBuckets(bucketEntries, period)

	result := make([]*domain.SourceVolumePoint, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, &domain.SourceVolumePoint{
			Timestamp: b.Timestamp,
			Sources:   b.Fields,
			All:       normalization.SumFields(b.Fields),
		})
	}
	return result
}
