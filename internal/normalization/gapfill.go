package normalization

import (
	"protocol-stats/internal/domain"
)

// FillForward replaces missing or zero fields with the most recent prior non-zero value
// of the same field. Fields still missing at the first point stay unfilled.
//
// The field set is the union of keys across all points. Input must be in strictly
// ascending timestamp order; the input points are not modified.
func FillForward(points []*domain.TimeSeriesPoint) ([]*domain.TimeSeriesPoint, error) {
	if len(points) == 0 {
		return nil, nil
	}
	if err := CheckAscending("fill forward", timestampsOf(points)); err != nil {
		return nil, err
	}

	fields := fieldUnion(points)
	last := make(map[string]float64, len(fields))

	result := make([]*domain.TimeSeriesPoint, len(points))
	for i, p := range points {
		out := p.Clone()
		for _, f := range fields {
			v, ok := out.Fields[f]
			if !ok || v == 0 {
				if prev, has := last[f]; has {
					out.Fields[f] = prev
				}
				continue
			}
			last[f] = v
		}
		result[i] = out
	}

	return result, nil
}

// fieldUnion returns every field name in first-seen order.
func fieldUnion(points []*domain.TimeSeriesPoint) []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, p := range points {
		for _, f := range sortedKeys(p.Fields) {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				fields = append(fields, f)
			}
		}
	}
	return fields
}

func timestampsOf(points []*domain.TimeSeriesPoint) []int64 {
	ts := make([]int64, len(points))
	for i, p := range points {
		ts[i] = p.Timestamp
	}
	return ts
}
