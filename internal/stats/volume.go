package stats

import (
	"strings"

	"github.com/axiomhq/hyperloglog"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/normalization"
)

// Volume fields, in the order they are reported.
var VolumeFields = []string{"margin", "liquidation", "swap", "mint", "burn"}

// Volume builds the daily volume series from aggregated volume stats (1e30).
func Volume(records []*domain.RawRecord, cfg domain.QueryConfig) (*Series[*domain.CumulativePoint], error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}

	entries := make([]normalization.BucketEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, normalization.BucketEntry{
			Timestamp: r.Timestamp,
			Fields:    normalization.NormalizeRecord(r, normalization.Scale30, VolumeFields...),
		})
	}

	return cumulativeSeries(NameVolume, entries, cfg, VolumeFields...)
}

// ActionVolumeSeries is the volume series rebuilt from individual actions.
type ActionVolumeSeries struct {
	Series[*domain.CumulativePoint]
	UniqueAccounts uint64 `json:"uniqueAccounts"` // HyperLogLog estimate over the window
}

// ActionType maps a position or pool action to its volume field.
func ActionType(action string) string {
	switch {
	case action == "Swap":
		return "swap"
	case action == "SellUSDG":
		return "burn"
	case action == "BuyUSDG":
		return "mint"
	case strings.Contains(action, "LiquidatePosition"):
		return "liquidation"
	default:
		return "margin"
	}
}

// VolumeFromActions rebuilds the volume series from per-action records
// (action, volume 1e30, account) and estimates distinct accounts per bucket.
func VolumeFromActions(records []*domain.RawRecord, cfg domain.QueryConfig) (*ActionVolumeSeries, error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}

	global := hyperloglog.New16()
	perBucket := make(map[int64]*hyperloglog.Sketch)

	entries := make([]normalization.BucketEntry, 0, len(records))
	for _, r := range records {
		action, _ := r.Field("action")
		raw, ok := r.Field("volume")
		if !ok {
			continue
		}
		volume, err := normalization.Normalize(raw, normalization.Scale30)
		if err != nil {
			continue
		}

		entries = append(entries, normalization.BucketEntry{
			Timestamp: r.Timestamp,
			Fields:    map[string]float64{ActionType(action): volume},
		})

		if account, ok := r.Field("account"); ok && account != "" {
			key := []byte(strings.ToLower(account))
			bucket := normalization.BucketStart(r.Timestamp, cfg.BucketPeriod)
			sk, ok := perBucket[bucket]
			if !ok {
				sk = hyperloglog.New14()
				perBucket[bucket] = sk
			}
			sk.Insert(key)
			global.Insert(key)
		}
	}

	series, err := cumulativeSeries(NameVolumeFromActions, entries, cfg, VolumeFields...)
	if err != nil {
		return nil, err
	}

	for _, p := range series.Points {
		if sk, ok := perBucket[p.Timestamp]; ok {
			estimate := sk.Estimate()
			p.UniqueAccounts = &estimate
		}
	}

	return &ActionVolumeSeries{
		Series:         *series,
		UniqueAccounts: global.Estimate(),
	}, nil
}

// TotalVolume sums the volume (1e30) of every action record, regardless of window.
func TotalVolume(records []*domain.RawRecord) float64 {
	total := 0.0
	for _, r := range records {
		raw, ok := r.Field("volume")
		if !ok {
			continue
		}
		if v, err := normalization.Normalize(raw, normalization.Scale30); err == nil {
			total += v
		}
	}
	return total
}
