package pipeline

import (
	"fmt"
	"sort"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/normalization"
)

// MinContinuousBuckets is the shortest run of consecutive volume buckets considered sufficient.
const MinContinuousBuckets = 7

// CoverageCheck represents one data coverage criterion.
type CoverageCheck struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

// CoverageResult contains all coverage checks.
type CoverageResult struct {
	Checks  []CoverageCheck `json:"checks"`
	AllPass bool            `json:"allPass"`
	Errors  []string        `json:"errors"` // data integrity errors
}

func (r *CoverageResult) add(check CoverageCheck, errs []string) {
	r.Checks = append(r.Checks, check)
	if !check.Pass {
		r.AllPass = false
	}
	r.Errors = append(r.Errors, errs...)
}

// CheckCoverage validates that the loaded inputs are sufficient for a meaningful dashboard.
// Failing checks do not stop the computation; they are reported alongside it.
func CheckCoverage(in *Inputs, cfg domain.QueryConfig) *CoverageResult {
	result := &CoverageResult{AllPass: true, Errors: []string{}}

	result.add(checkSeriesPresent(in))
	result.add(checkContinuity(in.Records[domain.SeriesVolumeStats], cfg.BucketPeriod))
	result.add(checkDuplicateIDs(in))
	result.add(checkPrices(in, cfg))
	result.add(checkAlignedSnapshots(in.Records[domain.SeriesPoolStats], cfg.BucketPeriod))

	return result
}

// checkSeriesPresent: every raw series has at least one record.
func checkSeriesPresent(in *Inputs) (CoverageCheck, []string) {
	var errs []string
	present := 0
	for _, series := range domain.AllSeries {
		if len(in.Records[series]) > 0 {
			present++
		} else {
			errs = append(errs, fmt.Sprintf("no records for series %s", series))
		}
	}

	return CoverageCheck{
		Name:      "Raw series with records",
		Threshold: fmt.Sprintf("= %d", len(domain.AllSeries)),
		Actual:    fmt.Sprintf("%d", present),
		Pass:      present == len(domain.AllSeries),
	}, errs
}

// checkContinuity: the volume series has a run of consecutive buckets.
// A gap restarts the count.
func checkContinuity(records []*domain.RawRecord, period int64) (CoverageCheck, []string) {
	check := CoverageCheck{
		Name:      "Continuous volume buckets",
		Threshold: fmt.Sprintf(">= %d", MinContinuousBuckets),
	}
	if len(records) == 0 || period <= 0 {
		check.Actual = "0 buckets"
		return check, nil
	}

	buckets := make(map[int64]bool)
	for _, r := range records {
		buckets[normalization.BucketStart(r.Timestamp, period)] = true
	}
	starts := make([]int64, 0, len(buckets))
	for b := range buckets {
		starts = append(starts, b)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	longest, run := 1, 1
	for i := 1; i < len(starts); i++ {
		if starts[i]-starts[i-1] == period {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	check.Actual = fmt.Sprintf("%d buckets (%d total)", longest, len(starts))
	check.Pass = longest >= MinContinuousBuckets
	return check, nil
}

// checkDuplicateIDs: duplicate record id count == 0 within every series.
func checkDuplicateIDs(in *Inputs) (CoverageCheck, []string) {
	var errs []string
	duplicates := 0

	for _, series := range domain.AllSeries {
		seen := make(map[string]int)
		for _, r := range in.Records[series] {
			seen[r.ID]++
		}

		// Sort keys for deterministic output
		ids := make([]string, 0, len(seen))
		for id := range seen {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if count := seen[id]; count > 1 {
				duplicates++
				errs = append(errs, fmt.Sprintf("duplicate record id in %s: %s (count=%d)", series, id, count))
			}
		}
	}

	return CoverageCheck{
		Name:      "Duplicate record id count",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", duplicates),
		Pass:      duplicates == 0,
	}, errs
}

// checkPrices: every benchmark asset has price data.
func checkPrices(in *Inputs, cfg domain.QueryConfig) (CoverageCheck, []string) {
	symbols := PriceSymbols(cfg)

	var errs []string
	covered := 0
	for _, symbol := range symbols {
		if len(in.Prices[symbol]) > 0 {
			covered++
		} else {
			errs = append(errs, fmt.Sprintf("no prices for benchmark asset %s", symbol))
		}
	}

	return CoverageCheck{
		Name:      "Benchmark assets with prices",
		Threshold: fmt.Sprintf("= %d", len(symbols)),
		Actual:    fmt.Sprintf("%d", covered),
		Pass:      covered == len(symbols),
	}, errs
}

// checkAlignedSnapshots: pool snapshots exist on bucket boundaries.
// Unaligned snapshots are ignored by the pool series.
func checkAlignedSnapshots(records []*domain.RawRecord, period int64) (CoverageCheck, []string) {
	aligned := 0
	for _, r := range records {
		if period > 0 && r.Timestamp%period == 0 {
			aligned++
		}
	}

	return CoverageCheck{
		Name:      "Bucket-aligned pool snapshots",
		Threshold: "> 0",
		Actual:    fmt.Sprintf("%d of %d", aligned, len(records)),
		Pass:      aligned > 0,
	}, nil
}
