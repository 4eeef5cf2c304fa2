package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/storage"
)

// DistributionAsset prices the ETH-denominated pool distributions and is always loaded.
const DistributionAsset = "ETH"

// Inputs is everything the stats functions read for one network.
type Inputs struct {
	Network string
	Records map[string][]*domain.RawRecord  // raw series name -> records
	Prices  map[string][]*domain.PricePoint // symbol -> prices
}

// RecordCount returns the total number of raw records.
func (in *Inputs) RecordCount() int {
	n := 0
	for _, records := range in.Records {
		n += len(records)
	}
	return n
}

// Loader reads raw series and prices from the stores.
type Loader struct {
	records storage.RawRecordStore
	prices  storage.PriceStore
	metrics *observability.Metrics
}

// NewLoader creates a new loader. metrics may be nil.
func NewLoader(records storage.RawRecordStore, prices storage.PriceStore, m *observability.Metrics) *Loader {
	return &Loader{records: records, prices: prices, metrics: m}
}

// PriceSymbols returns the symbols the benchmark needs for cfg, sorted.
func PriceSymbols(cfg domain.QueryConfig) []string {
	set := map[string]struct{}{DistributionAsset: {}}
	for _, w := range cfg.AssetWeights {
		set[w.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Load fetches every raw series of network within the query window, plus the
// benchmark prices, concurrently. Prices are loaded from the beginning of history
// so the first bucket of the window can carry an earlier price forward.
func (l *Loader) Load(ctx context.Context, network string, cfg domain.QueryConfig) (*Inputs, error) {
	g, ctx := errgroup.WithContext(ctx)

	records := make([][]*domain.RawRecord, len(domain.AllSeries))
	for i, series := range domain.AllSeries {
		g.Go(func() error {
			start := time.Now()
			rs, err := l.records.GetBySeries(ctx, network, series, cfg.WindowStart, cfg.WindowEnd)
			l.observe("get_by_series", start, err)
			if err != nil {
				return fmt.Errorf("load %s: %w", series, err)
			}
			records[i] = rs
			return nil
		})
	}

	symbols := PriceSymbols(cfg)
	prices := make([][]*domain.PricePoint, len(symbols))
	for i, symbol := range symbols {
		g.Go(func() error {
			start := time.Now()
			ps, err := l.prices.GetBySymbol(ctx, symbol, 0, cfg.WindowEnd)
			l.observe("get_by_symbol", start, err)
			if err != nil {
				return fmt.Errorf("load %s prices: %w", symbol, err)
			}
			prices[i] = ps
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := &Inputs{
		Network: network,
		Records: make(map[string][]*domain.RawRecord, len(domain.AllSeries)),
		Prices:  make(map[string][]*domain.PricePoint, len(symbols)),
	}
	for i, series := range domain.AllSeries {
		in.Records[series] = records[i]
	}
	for i, symbol := range symbols {
		if len(prices[i]) > 0 {
			in.Prices[symbol] = prices[i]
		}
	}
	return in, nil
}

func (l *Loader) observe(operation string, start time.Time, err error) {
	if l.metrics != nil {
		l.metrics.RecordDBQuery("store", operation, time.Since(start).Seconds(), err)
	}
}
