package normalization

import (
	"sort"

	"protocol-stats/internal/domain"
)

// BucketEntry is one normalized record contributing to a bucket.
type BucketEntry struct {
	Timestamp int64
	Fields    map[string]float64
}

// BucketStart aligns a timestamp to its bucket: floor(ts / period) * period.
func BucketStart(ts, period int64) int64 {
	b := (ts / period) * period
	if ts < 0 && ts%period != 0 {
		b -= period
	}
	return b
}

// AggregateBuckets groups entries by bucket start and sums each field.
// Every output point carries every declared or observed field; a field with no
// contributions in a bucket is an explicit 0. Output is sorted by timestamp ASC.
//
// Interval alignment: floor(timestamp / period) * period
func AggregateBuckets(entries []BucketEntry, period int64, declared ...string) []*domain.TimeSeriesPoint {
	if len(entries) == 0 || period <= 0 {
		return nil
	}

	fields := make(map[string]struct{}, len(declared))
	for _, f := range declared {
		fields[f] = struct{}{}
	}

	buckets := make(map[int64]*domain.TimeSeriesPoint)
	for _, e := range entries {
		start := BucketStart(e.Timestamp, period)

		point, ok := buckets[start]
		if !ok {
			point = &domain.TimeSeriesPoint{
				Timestamp: start,
				Fields:    make(map[string]float64),
			}
			buckets[start] = point
		}

		for name, v := range e.Fields {
			point.Fields[name] += v
			fields[name] = struct{}{}
		}
	}

	result := make([]*domain.TimeSeriesPoint, 0, len(buckets))
	for _, point := range buckets {
		for name := range fields {
			if _, ok := point.Fields[name]; !ok {
				point.Fields[name] = 0
			}
		}
		result = append(result, point)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result
}

// SumFields adds the field values in sorted key order, so the float result does not
// depend on map iteration order.
func SumFields(fields map[string]float64) float64 {
	total := 0.0
	for _, k := range sortedKeys(fields) {
		total += fields[k]
	}
	return total
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
