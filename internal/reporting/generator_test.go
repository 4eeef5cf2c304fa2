package reporting

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/stats"
)

var fixedClock = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

func setupDashboard(t *testing.T) (*pipeline.Dashboard, *pipeline.Inputs) {
	t.Helper()

	net, err := chain.Lookup(chain.Arbitrum)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	in := pipeline.GenerateFixtures(net, pipeline.DefaultFixtureOptions())
	runner := pipeline.NewRunner(log.New(io.Discard, "", 0), nil).WithClock(fixedClock)

	d, err := runner.Run(in, net, net.QueryDefaults())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return d, in
}

func TestGenerate_Deterministic(t *testing.T) {
	d, in := setupDashboard(t)
	gen := NewGenerator().WithClock(fixedClock)

	md1 := RenderMarkdown(gen.Generate(d, in))
	md2 := RenderMarkdown(gen.Generate(d, in))

	if md1 != md2 {
		t.Error("Markdown output not deterministic")
	}
}

func TestGenerate_UsesDashboardTime(t *testing.T) {
	d, in := setupDashboard(t)
	other := func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	report := NewGenerator().WithClock(other).Generate(d, in)
	if !report.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("expected dashboard time %v, got %v", fixedClock(), report.GeneratedAt)
	}

	d.GeneratedAt = time.Time{}
	report = NewGenerator().WithClock(other).Generate(d, in)
	if !report.GeneratedAt.Equal(other()) {
		t.Errorf("expected clock time %v, got %v", other(), report.GeneratedAt)
	}
}

func TestGenerate_DataSummary(t *testing.T) {
	d, in := setupDashboard(t)
	report := NewGenerator().Generate(d, in)

	ds := report.DataSummary
	if ds.TotalRecords != in.RecordCount() {
		t.Errorf("expected %d records, got %d", in.RecordCount(), ds.TotalRecords)
	}
	if len(ds.RecordCounts) != len(domain.AllSeries) {
		t.Errorf("expected %d record counts, got %d", len(domain.AllSeries), len(ds.RecordCounts))
	}
	for i := 1; i < len(ds.RecordCounts); i++ {
		if ds.RecordCounts[i-1].Series > ds.RecordCounts[i].Series {
			t.Errorf("record counts not sorted: %s > %s", ds.RecordCounts[i-1].Series, ds.RecordCounts[i].Series)
		}
	}
	if strings.Join(ds.PriceSymbols, ",") != "BTC,ETH" {
		t.Errorf("expected BTC,ETH, got %v", ds.PriceSymbols)
	}
	if ds.FirstTimestamp != pipeline.FixtureStart {
		t.Errorf("expected first bucket %d, got %d", pipeline.FixtureStart, ds.FirstTimestamp)
	}
	if ds.LastTimestamp != pipeline.FixtureStart+29*domain.SecondsPerDay {
		t.Errorf("unexpected last bucket %d", ds.LastTimestamp)
	}
}

func TestGenerate_WithoutInputs(t *testing.T) {
	d, _ := setupDashboard(t)
	report := NewGenerator().Generate(d, nil)

	if report.DataSummary.TotalRecords != 0 || len(report.DataSummary.RecordCounts) != 0 {
		t.Errorf("expected empty record counts, got %+v", report.DataSummary)
	}
	if len(report.SeriesSummaries) != len(stats.Names) {
		t.Errorf("expected %d summaries, got %d", len(stats.Names), len(report.SeriesSummaries))
	}
}

func TestRenderMarkdown_ContainsRequiredSections(t *testing.T) {
	d, in := setupDashboard(t)
	md := RenderMarkdown(NewGenerator().Generate(d, in))

	requiredSections := []string{
		"# Protocol Stats Report: arbitrum",
		"Generated: 2024-01-15T12:00:00Z",
		"## Data Summary",
		"## Data Quality",
		"### Coverage Checks",
		"**All checks passed.**",
		"## Highlights",
		"## Series",
		"| volume | all | 30 |",
	}
	for _, section := range requiredSections {
		if !strings.Contains(md, section) {
			t.Errorf("Markdown missing %q", section)
		}
	}
	if strings.Contains(md, "## Warnings") {
		t.Error("unexpected warnings section")
	}
}

func TestRenderMarkdown_FailedChecksAndWarnings(t *testing.T) {
	r := &Report{
		GeneratedAt: fixedClock(),
		Network:     "base",
		DataQuality: DataQualitySection{
			CoverageChecks: []CoverageCheckRow{
				{Name: "Continuous volume buckets", Threshold: ">= 7", Actual: "3 buckets (5 total)", Pass: false},
			},
			IntegrityErrors: []string{"volume_stats: gap after 1630454400"},
		},
		SeriesSummaries: []SeriesSummaryRow{
			{Series: "yield", Field: "apr", Points: 2},
		},
		Warnings: []string{"pool_performance skipped: no price data"},
	}

	md := RenderMarkdown(r)

	for _, want := range []string{
		"| Continuous volume buckets | >= 7 | 3 buckets (5 total) | FAIL |",
		"**Some checks failed.**",
		"### Integrity Errors",
		"- volume_stats: gap after 1630454400",
		"| yield | apr | 2 | 0 | n/a | n/a |",
		"## Warnings",
		"- pool_performance skipped: no price data",
		"| Window Start | unbounded |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestSeriesTable_AllSeries(t *testing.T) {
	d, _ := setupDashboard(t)

	for _, name := range stats.Names {
		table, err := SeriesTable(d, name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if table.Header[0] != "timestamp" {
			t.Errorf("%s: expected timestamp column first, got %s", name, table.Header[0])
		}
		if len(table.Rows) != 30 {
			t.Errorf("%s: expected 30 rows, got %d", name, len(table.Rows))
		}
		for i, row := range table.Rows {
			if len(row) != len(table.Header) {
				t.Fatalf("%s row %d: %d cells for %d columns", name, i, len(row), len(table.Header))
			}
		}
	}
}

func TestSeriesTable_Errors(t *testing.T) {
	d, _ := setupDashboard(t)

	if _, err := SeriesTable(d, "nope"); err == nil {
		t.Error("expected error for unknown series")
	}

	d.PoolPerformance = nil
	_, err := SeriesTable(d, stats.NamePoolPerformance)
	if !errors.Is(err, ErrSeriesNotComputed) {
		t.Errorf("expected ErrSeriesNotComputed, got %v", err)
	}
}

func TestRenderCSV_NullsAreEmpty(t *testing.T) {
	table := yieldTable([]*domain.YieldPoint{
		{Timestamp: 100, APR: domain.Float(12.5)},
		{Timestamp: 200, Usage: domain.Float(0.25)},
	})

	out, err := RenderCSV(table)
	if err != nil {
		t.Fatalf("RenderCSV failed: %v", err)
	}

	expected := "timestamp,apr,usage,average_apr,average_usage\n" +
		"100,12.500000,,,\n" +
		"200,,0.250000,,\n"
	if out != expected {
		t.Errorf("unexpected CSV:\n%s", out)
	}
}

func TestRenderCSV_SourceColumnsByRank(t *testing.T) {
	s := &stats.SourceSeries{
		Series: stats.Series[*domain.SourceVolumePoint]{Points: []*domain.SourceVolumePoint{
			{Timestamp: 100, Sources: map[string]float64{"b": 1, "a": 2, "Other": 3}, All: 6},
		}},
		Sources: []string{"b", "a"},
	}

	out, err := RenderCSV(sourcesTable(s))
	if err != nil {
		t.Fatalf("RenderCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "timestamp,b,a,Other,all" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "100,1.000000,2.000000,3.000000,6.000000" {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestWriteAll(t *testing.T) {
	d, in := setupDashboard(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteAll(dir, d, NewGenerator().Generate(d, in))
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	// report + bundle + one CSV per series
	if len(paths) != 2+len(stats.Names) {
		t.Errorf("expected %d files, got %d", 2+len(stats.Names), len(paths))
	}

	data, err := os.ReadFile(filepath.Join(dir, BundleFile))
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	var bundle map[string]json.RawMessage
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("bundle is not JSON: %v", err)
	}
	for _, key := range []string{"network", "volume", "yield", "coverage"} {
		if _, ok := bundle[key]; !ok {
			t.Errorf("bundle missing %q", key)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, stats.NameSwapSources+".csv")); err != nil {
		t.Errorf("missing swap sources CSV: %v", err)
	}
}

func TestWriteAll_SkipsMissingSeries(t *testing.T) {
	d, in := setupDashboard(t)
	d.PoolPerformance = nil

	dir := t.TempDir()
	paths, err := WriteAll(dir, d, NewGenerator().Generate(d, in))
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if len(paths) != 1+len(stats.Names) {
		t.Errorf("expected %d files, got %d", 1+len(stats.Names), len(paths))
	}
	if _, err := os.Stat(filepath.Join(dir, stats.NamePoolPerformance+".csv")); !os.IsNotExist(err) {
		t.Errorf("expected no pool performance CSV, got %v", err)
	}
}
