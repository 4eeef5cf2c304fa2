package stats

import (
	"protocol-stats/internal/domain"
	"protocol-stats/internal/normalization"
)

// feeRawFields are the fee stats fields as indexed (1e30).
var feeRawFields = []string{"margin", "marginAndLiquidation", "swap", "mint", "burn"}

// Fees builds the daily fees series. Liquidation fees are indexed together with
// margin fees and split out here.
func Fees(records []*domain.RawRecord, cfg domain.QueryConfig) (*Series[*domain.CumulativePoint], error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}

	entries := make([]normalization.BucketEntry, 0, len(records))
	for _, r := range records {
		raw := normalization.NormalizeRecord(r, normalization.Scale30, feeRawFields...)

		fields := make(map[string]float64, len(VolumeFields))
		for _, f := range []string{"margin", "swap", "mint", "burn"} {
			if v, ok := raw[f]; ok {
				fields[f] = v
			}
		}
		if ml, ok := raw["marginAndLiquidation"]; ok {
			fields["liquidation"] = ml - raw["margin"]
		}

		entries = append(entries, normalization.BucketEntry{Timestamp: r.Timestamp, Fields: fields})
	}

	return cumulativeSeries(NameFees, entries, cfg, VolumeFields...)
}
