package reporting

import "time"

// Report represents the dashboard summary report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Network     string

	// Data Summary
	DataSummary DataSummary

	// Data Quality (coverage checks)
	DataQuality DataQualitySection

	// Series headlines, in computation order
	SeriesSummaries []SeriesSummaryRow

	// Headline figures that are not part of a series summary
	Highlights []HighlightRow

	// Non-fatal problems hit while computing the dashboard
	Warnings []string
}

// DataQualitySection contains coverage checks and integrity errors.
type DataQualitySection struct {
	CoverageChecks  []CoverageCheckRow
	IntegrityErrors []string
	AllChecksPassed bool
}

// CoverageCheckRow represents one coverage criterion.
type CoverageCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary describes the loaded inputs and query window.
type DataSummary struct {
	TotalRecords   int
	RecordCounts   []RecordCountRow // sorted by series
	PriceSymbols   []string
	WindowStart    int64 // Unix seconds, 0 = unbounded
	WindowEnd      int64 // Unix seconds, 0 = unbounded
	BucketPeriod   int64
	FirstTimestamp int64 // first bucket of the volume series
	LastTimestamp  int64 // last bucket of the volume series
}

// RecordCountRow is the number of raw records of one series.
type RecordCountRow struct {
	Series string
	Count  int
}

// SeriesSummaryRow represents one row in the series summary table.
// Nil values are unavailable.
type SeriesSummaryRow struct {
	Series string
	Field  string
	Points int
	Count  int
	Min    *float64
	Max    *float64
	Mean   *float64
	Median *float64
	Total  *float64
	Last   *float64
	Stddev *float64
}

// HighlightRow is one named headline value.
type HighlightRow struct {
	Name  string
	Value *float64
}
