package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Protocol Stats Report: %s\n\n", r.Network))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Data Summary
	ds := r.DataSummary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Records | %d |\n", ds.TotalRecords))
	for _, rc := range ds.RecordCounts {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", rc.Series, rc.Count))
	}
	sb.WriteString(fmt.Sprintf("| Price Symbols | %s |\n", orNone(strings.Join(ds.PriceSymbols, ", "))))
	sb.WriteString(fmt.Sprintf("| Window Start | %s |\n", formatBound(ds.WindowStart)))
	sb.WriteString(fmt.Sprintf("| Window End | %s |\n", formatBound(ds.WindowEnd)))
	sb.WriteString(fmt.Sprintf("| Bucket Period (s) | %d |\n", ds.BucketPeriod))
	if ds.LastTimestamp > 0 {
		sb.WriteString(fmt.Sprintf("| First Bucket | %s |\n", formatDay(ds.FirstTimestamp)))
		sb.WriteString(fmt.Sprintf("| Last Bucket | %s |\n", formatDay(ds.LastTimestamp)))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.CoverageChecks) > 0 {
		sb.WriteString("### Coverage Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.CoverageChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Series may contain gaps.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Integrity errors (always shown if present, even without coverage checks)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Highlights
	if len(r.Highlights) > 0 {
		sb.WriteString("## Highlights\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		for _, h := range r.Highlights {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", h.Name, formatValue(h.Value)))
		}
		sb.WriteString("\n")
	}

	// Series Summaries
	sb.WriteString("## Series\n\n")
	if len(r.SeriesSummaries) > 0 {
		sb.WriteString("| Series | Field | Points | Count | Min | Max | Mean | Median | Total | Last | Stddev |\n")
		sb.WriteString("|--------|-------|--------|-------|-----|-----|------|--------|-------|------|--------|\n")
		for _, s := range r.SeriesSummaries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s | %s | %s | %s | %s | %s | %s |\n",
				s.Series, s.Field, s.Points, s.Count,
				formatValue(s.Min), formatValue(s.Max), formatValue(s.Mean), formatValue(s.Median),
				formatValue(s.Total), formatValue(s.Last), formatValue(s.Stddev)))
		}
	} else {
		sb.WriteString("No series computed.\n")
	}
	sb.WriteString("\n")

	// Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func formatBound(ts int64) string {
	if ts <= 0 {
		return "unbounded"
	}
	return formatDay(ts)
}

func formatDay(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
