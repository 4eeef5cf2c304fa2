package stats

import (
	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
	"protocol-stats/internal/normalization"
	"protocol-stats/internal/sources"
)

// SourceSeries is the swap volume breakdown by source.
type SourceSeries struct {
	Series[*domain.SourceVolumePoint]
	Sources []string `json:"sources"` // retained sources by rank, "Other" excluded
}

// SwapSources ranks swap sources over the window, keeps the top cfg.TopSourceCount
// and reports daily volume per source with the rest folded into "Other".
func SwapSources(records []*domain.RawRecord, net *chain.Network, cfg domain.QueryConfig) (*SourceSeries, error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}

	entries := make([]sources.Entry, 0, len(records))
	for _, r := range records {
		raw, ok := r.Field("swap")
		if !ok {
			continue
		}
		v, err := normalization.Normalize(raw, normalization.Scale30)
		if err != nil {
			continue
		}
		entries = append(entries, sources.Entry{
			Timestamp: r.Timestamp,
			Source:    net.SwapSource(r.Source),
			Value:     v,
		})
	}

	classifier := sources.NewClassifier(sources.BuildLedger(entries), cfg.TopSourceCount)
	points := sources.Breakdown(classifier.ClassifyAll(entries), cfg.BucketPeriod)

	all := make([]float64, len(points))
	for i, p := range points {
		all[i] = p.All
	}

	return &SourceSeries{
		Series: Series[*domain.SourceVolumePoint]{
			Name:    NameSwapSources,
			Points:  points,
			Summary: metrics.Summarize("all", all),
		},
		Sources: classifier.Retained(),
	}, nil
}
