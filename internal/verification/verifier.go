// Package verification recomputes stored dashboards and reports where the
// recomputation diverges from what was published.
package verification

import (
	"math"
	"strconv"

	"protocol-stats/internal/idhash"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/reporting"
	"protocol-stats/internal/stats"
)

// FloatTolerance is the relative tolerance for numeric cells.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and recomputed values.
type FieldDivergence struct {
	Series   string // series name
	Row      string // timestamp of the row, "" for shape mismatches
	Column   string // column name
	Expected string // stored value
	Actual   string // recomputed value
}

// VerificationResult contains the result of verifying a single series.
type VerificationResult struct {
	Series         string
	Match          bool
	Rows           int // rows in the stored series
	Divergences    []FieldDivergence
	ExpectedDigest string // digest of the stored CSV rendering
	ActualDigest   string // digest of the recomputed CSV rendering
}

// VerificationReport contains results for every dashboard series.
type VerificationReport struct {
	TotalSeries     int
	MatchedSeries   int
	DivergentSeries int
	Results         []VerificationResult
}

// Match reports whether every series matched.
func (r *VerificationReport) Match() bool {
	return r.DivergentSeries == 0
}

// CompareDashboards compares every series of two dashboards.
// A series missing on both sides matches.
func CompareDashboards(expected, actual *pipeline.Dashboard) *VerificationReport {
	report := &VerificationReport{}
	for _, name := range stats.Names {
		result := compareSeries(name, expected, actual)
		report.TotalSeries++
		if result.Match {
			report.MatchedSeries++
		} else {
			report.DivergentSeries++
		}
		report.Results = append(report.Results, result)
	}
	return report
}

func compareSeries(name string, expected, actual *pipeline.Dashboard) VerificationResult {
	result := VerificationResult{Series: name}

	want, wantErr := reporting.SeriesTable(expected, name)
	got, gotErr := reporting.SeriesTable(actual, name)
	switch {
	case wantErr != nil && gotErr != nil:
		result.Match = true
		return result
	case wantErr != nil || gotErr != nil:
		result.Divergences = []FieldDivergence{{
			Series:   name,
			Column:   "series",
			Expected: computedLabel(wantErr == nil),
			Actual:   computedLabel(gotErr == nil),
		}}
		return result
	}

	result.Rows = len(want.Rows)
	result.ExpectedDigest = tableDigest(want)
	result.ActualDigest = tableDigest(got)
	result.Divergences = CompareTables(name, want, got)
	result.Match = len(result.Divergences) == 0
	return result
}

// CompareTables compares two rendered series cell by cell.
// Numeric cells match within FloatTolerance; empty cells match only empty cells.
func CompareTables(series string, expected, actual *reporting.Table) []FieldDivergence {
	var divergences []FieldDivergence

	if !equalStrings(expected.Header, actual.Header) {
		return append(divergences, FieldDivergence{
			Series:   series,
			Column:   "header",
			Expected: strconv.Itoa(len(expected.Header)) + " columns",
			Actual:   strconv.Itoa(len(actual.Header)) + " columns",
		})
	}
	if len(expected.Rows) != len(actual.Rows) {
		return append(divergences, FieldDivergence{
			Series:   series,
			Column:   "rows",
			Expected: strconv.Itoa(len(expected.Rows)),
			Actual:   strconv.Itoa(len(actual.Rows)),
		})
	}

	for i, want := range expected.Rows {
		got := actual.Rows[i]
		for j, column := range expected.Header {
			if cellEquals(want[j], got[j]) {
				continue
			}
			divergences = append(divergences, FieldDivergence{
				Series:   series,
				Row:      want[0],
				Column:   column,
				Expected: want[j],
				Actual:   got[j],
			})
		}
	}
	return divergences
}

func cellEquals(a, b string) bool {
	if a == b {
		return true
	}
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	return floatEquals(x, y)
}

// floatEquals compares with FloatTolerance relative to the larger magnitude.
func floatEquals(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= FloatTolerance*scale
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tableDigest(t *reporting.Table) string {
	body, err := reporting.RenderCSV(t)
	if err != nil {
		return ""
	}
	return idhash.ComputeDigest([]byte(body))
}

func computedLabel(ok bool) string {
	if ok {
		return "computed"
	}
	return "not computed"
}
