package reporting

import (
	"sort"
	"time"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/pipeline"
)

// Generator produces reports from computed dashboards.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report. in may be nil when the raw inputs
// are not at hand; the record counts are then left empty.
func (g *Generator) Generate(d *pipeline.Dashboard, in *pipeline.Inputs) *Report {
	generatedAt := d.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = g.now()
	}

	return &Report{
		GeneratedAt:     generatedAt,
		Network:         d.Network,
		DataSummary:     generateDataSummary(d, in),
		DataQuality:     generateDataQuality(d.Coverage),
		SeriesSummaries: generateSeriesSummaries(d),
		Highlights:      generateHighlights(d),
		Warnings:        append([]string(nil), d.Warnings...),
	}
}

func generateDataSummary(d *pipeline.Dashboard, in *pipeline.Inputs) DataSummary {
	s := DataSummary{
		WindowStart:  d.Config.WindowStart,
		WindowEnd:    d.Config.WindowEnd,
		BucketPeriod: d.Config.BucketPeriod,
	}

	if d.Volume != nil && len(d.Volume.Points) > 0 {
		s.FirstTimestamp = d.Volume.Points[0].Timestamp
		s.LastTimestamp = d.Volume.Points[len(d.Volume.Points)-1].Timestamp
	}

	if in == nil {
		return s
	}

	s.TotalRecords = in.RecordCount()
	for series, records := range in.Records {
		s.RecordCounts = append(s.RecordCounts, RecordCountRow{Series: series, Count: len(records)})
	}
	sort.Slice(s.RecordCounts, func(i, j int) bool {
		return s.RecordCounts[i].Series < s.RecordCounts[j].Series
	})

	for symbol, prices := range in.Prices {
		if len(prices) > 0 {
			s.PriceSymbols = append(s.PriceSymbols, symbol)
		}
	}
	sort.Strings(s.PriceSymbols)
	return s
}

func generateDataQuality(c *pipeline.CoverageResult) DataQualitySection {
	if c == nil {
		return DataQualitySection{}
	}
	rows := make([]CoverageCheckRow, len(c.Checks))
	for i, check := range c.Checks {
		rows[i] = CoverageCheckRow{
			Name:      check.Name,
			Threshold: check.Threshold,
			Actual:    check.Actual,
			Pass:      check.Pass,
		}
	}
	return DataQualitySection{
		CoverageChecks:  rows,
		IntegrityErrors: append([]string(nil), c.Errors...),
		AllChecksPassed: c.AllPass,
	}
}

func generateSeriesSummaries(d *pipeline.Dashboard) []SeriesSummaryRow {
	summaries := d.Summaries()
	rows := make([]SeriesSummaryRow, len(summaries))
	for i, s := range summaries {
		rows[i] = summaryRow(s.Name, s.Points, s.Summary)
	}
	return rows
}

func summaryRow(series string, points int, s domain.Summary) SeriesSummaryRow {
	return SeriesSummaryRow{
		Series: series,
		Field:  s.Field,
		Points: points,
		Count:  s.Count,
		Min:    s.Min,
		Max:    s.Max,
		Mean:   s.Mean,
		Median: s.Median,
		Total:  s.Total,
		Last:   s.Last,
		Stddev: s.Stddev,
	}
}

// generateHighlights collects the window-level figures shown above the tables.
func generateHighlights(d *pipeline.Dashboard) []HighlightRow {
	var rows []HighlightRow
	add := func(name string, v *float64) {
		rows = append(rows, HighlightRow{Name: name, Value: v})
	}

	add("Total action volume", domain.Float(d.TotalActionVolume))
	if d.VolumeFromActions != nil {
		add("Unique accounts (estimate)", domain.Float(float64(d.VolumeFromActions.UniqueAccounts)))
	}
	if d.Traders != nil {
		add("Max trader profit", domain.Float(d.Traders.Stats.MaxProfit))
		add("Max trader loss", domain.Float(d.Traders.Stats.MaxLoss))
		add("Current cumulative PnL", lastTraderPnL(d))
	}
	if d.Yield != nil {
		add("Average APR", d.Yield.AverageAPR)
		add("Average usage", d.Yield.AverageUsage)
		add("Suppressed ratios", domain.Float(float64(d.Yield.Suppressed)))
	}
	return rows
}

func lastTraderPnL(d *pipeline.Dashboard) *float64 {
	points := d.Traders.Points
	if len(points) == 0 {
		return nil
	}
	return domain.Float(points[len(points)-1].CurrentPnLCumulative)
}
