package stats

import (
	"math"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
	"protocol-stats/internal/normalization"
)

// userTypes are the per-type prefixes of the user stats counters; "" is the total.
var userTypes = []string{"", "Swap", "Margin", "MintBurn"}

var userFields = []string{
	"uniqueCount", "uniqueSwapCount", "uniqueMarginCount", "uniqueMintBurnCount",
	"uniqueCountCumulative", "uniqueSwapCountCumulative", "uniqueMarginCountCumulative", "uniqueMintBurnCountCumulative",
	"actionCount", "actionSwapCount", "actionMarginCount", "actionMintBurnCount",
}

// Users derives new and returning users per bucket from the unique user counters.
// New users are the growth of the cumulative unique counter; the first bucket
// counts all of its unique users as new.
func Users(records []*domain.RawRecord, cfg domain.QueryConfig) (*Series[*domain.UserPoint], error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}
	records = lastPerBucket(records, cfg.BucketPeriod)

	prevCumulative := make(map[string]float64, len(userTypes))
	cumulativeNew := 0.0

	points := make([]*domain.UserPoint, 0, len(records))
	newCounts := make([]float64, 0, len(records))
	for _, r := range records {
		f := normalization.NormalizeRecord(r, normalization.Scale0, userFields...)

		newCount := make(map[string]float64, len(userTypes))
		for _, typ := range userTypes {
			cumulative := f["unique"+typ+"CountCumulative"]
			if prev := prevCumulative[typ]; prev != 0 {
				newCount[typ] = cumulative - prev
			} else {
				newCount[typ] = f["unique"+typ+"Count"]
			}
			prevCumulative[typ] = cumulative
		}
		cumulativeNew += newCount[""]

		unique := f["uniqueCount"]
		oldCount := unique - newCount[""]

		p := &domain.UserPoint{
			Timestamp:              r.Timestamp,
			UniqueCount:            unique,
			UniqueSum:              f["uniqueSwapCount"] + f["uniqueMarginCount"] + f["uniqueMintBurnCount"],
			NewCount:               newCount[""],
			NewSwapCount:           newCount["Swap"],
			NewMarginCount:         newCount["Margin"],
			NewMintBurnCount:       newCount["MintBurn"],
			OldCount:               oldCount,
			CumulativeNewUserCount: cumulativeNew,
			ActionCount:            f["actionCount"],
			ActionSwapCount:        f["actionSwapCount"],
			ActionMarginCount:      f["actionMarginCount"],
			ActionMintBurnCount:    f["actionMintBurnCount"],
		}
		if unique != 0 {
			p.OldPercent = domain.Float(math.Round(oldCount/unique*1000) / 10)
		}

		points = append(points, p)
		newCounts = append(newCounts, p.NewCount)
	}

	return &Series[*domain.UserPoint]{
		Name:    NameUsers,
		Points:  points,
		Summary: metrics.Summarize("newCount", newCounts),
	}, nil
}
