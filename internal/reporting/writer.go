package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/stats"
)

// Output file names.
const (
	ReportFile = "report.md"
	BundleFile = "dashboard.json"
)

// RenderJSON renders the whole dashboard as an indented JSON bundle.
// Unavailable values are encoded as null.
func RenderJSON(d *pipeline.Dashboard) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// WriteAll writes the Markdown report, the JSON bundle and one CSV per
// computed series to dir. Returns the written paths in write order.
func WriteAll(dir string, d *pipeline.Dashboard, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	if err := write(ReportFile, []byte(RenderMarkdown(r))); err != nil {
		return written, err
	}

	bundle, err := RenderJSON(d)
	if err != nil {
		return written, fmt.Errorf("encode dashboard: %w", err)
	}
	if err := write(BundleFile, bundle); err != nil {
		return written, err
	}

	for _, name := range stats.Names {
		table, err := SeriesTable(d, name)
		if errors.Is(err, ErrSeriesNotComputed) {
			continue
		}
		if err != nil {
			return written, err
		}
		csv, err := RenderCSV(table)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", name, err)
		}
		if err := write(name+".csv", []byte(csv)); err != nil {
			return written, err
		}
	}

	return written, nil
}
