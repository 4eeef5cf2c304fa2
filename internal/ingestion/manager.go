// Package ingestion loads exported indexer dumps into the record and price stores.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/storage"
)

// Manager orchestrates ingestion from dumps to storage.
// It enforces deterministic ordering, resumes each series after its stored
// progress and uses the storage layer for duplicate rejection.
type Manager struct {
	records  storage.RawRecordStore
	prices   storage.PriceStore
	progress storage.LoadProgressStore
	metrics  *observability.Metrics
	logger   *log.Logger
	backfill bool
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	RecordStore   storage.RawRecordStore
	PriceStore    storage.PriceStore
	ProgressStore storage.LoadProgressStore
	Metrics       *observability.Metrics // may be nil
	Logger        *log.Logger

	// Backfill loads records at or before the stored progress too.
	// Already stored records are still skipped as duplicates.
	Backfill bool
}

// NewManager creates a new ingestion manager with the provided stores.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{
		records:  opts.RecordStore,
		prices:   opts.PriceStore,
		progress: opts.ProgressStore,
		metrics:  opts.Metrics,
		logger:   logger,
		backfill: opts.Backfill,
	}
}

// Result summarizes one ingested dump.
type Result struct {
	Network    string
	Checksum   string
	Skipped    bool           // dump was loaded before
	Records    map[string]int // series -> records inserted
	Prices     map[string]int // symbol -> points inserted
	Stale      int            // records at or before the stored progress
	Duplicates int            // records and points already stored
}

// Inserted returns the total number of inserted records and points.
func (r *Result) Inserted() int {
	n := 0
	for _, c := range r.Records {
		n += c
	}
	for _, c := range r.Prices {
		n += c
	}
	return n
}

// Run ingests every dump of src until it is exhausted.
func (m *Manager) Run(ctx context.Context, src DumpSource) ([]*Result, error) {
	var results []*Result
	for {
		d, checksum, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return results, nil
		}
		if err != nil {
			return results, err
		}

		res, err := m.IngestDump(ctx, d, checksum)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
}

// IngestDump stores one dump. A dump whose checksum was loaded before is skipped.
// The dump is marked loaded only after every series and symbol is stored.
func (m *Manager) IngestDump(ctx context.Context, d *Dump, checksum string) (*Result, error) {
	res := &Result{
		Network:  d.Network,
		Checksum: checksum,
		Records:  make(map[string]int),
		Prices:   make(map[string]int),
	}

	if checksum != "" {
		loaded, err := m.progress.IsDumpLoaded(ctx, checksum)
		if err != nil {
			return nil, fmt.Errorf("check dump: %w", err)
		}
		if loaded {
			res.Skipped = true
			if m.metrics != nil {
				m.metrics.DumpsSkipped.Inc()
			}
			m.logger.Printf("Skipping dump %s: already loaded", short(checksum))
			return res, nil
		}
	}

	for _, series := range d.Series() {
		if err := m.ingestSeries(ctx, d, series, res); err != nil {
			return nil, fmt.Errorf("ingest %s: %w", series, err)
		}
	}

	for _, symbol := range d.Symbols() {
		if err := m.ingestPrices(ctx, d.PricePoints(symbol), res); err != nil {
			return nil, fmt.Errorf("ingest %s prices: %w", symbol, err)
		}
	}

	if checksum != "" {
		if err := m.progress.MarkDumpLoaded(ctx, checksum); err != nil {
			return nil, fmt.Errorf("mark dump: %w", err)
		}
	}

	m.logger.Printf("Loaded dump %s for %s: %d inserted, %d stale, %d duplicates",
		short(checksum), d.Network, res.Inserted(), res.Stale, res.Duplicates)
	return res, nil
}

func (m *Manager) ingestSeries(ctx context.Context, d *Dump, series string, res *Result) error {
	records := d.RawRecords(series)

	// Enforce deterministic ordering
	SortRecords(records)
	if err := ValidateRecordOrdering(records); err != nil {
		return fmt.Errorf("%w: duplicate record id in dump", err)
	}

	progress, err := m.progress.GetProgress(ctx, d.Network, series)
	if errors.Is(err, storage.ErrNotFound) {
		progress = nil
	} else if err != nil {
		return fmt.Errorf("get progress: %w", err)
	}

	pending := records
	if !m.backfill {
		pending = After(records, progress)
		res.Stale += len(records) - len(pending)
	}
	if len(pending) == 0 {
		return nil
	}

	inserted, err := m.insertRecords(ctx, pending)
	if err != nil {
		return err
	}
	res.Records[series] += inserted
	res.Duplicates += len(pending) - inserted

	if m.metrics != nil {
		m.metrics.RecordsLoaded.WithLabelValues(d.Network, series).Add(float64(inserted))
	}

	next := &storage.LoadProgress{Network: d.Network, Series: series}
	if progress != nil {
		*next = *progress
	}
	next.Records += int64(inserted)
	if last := pending[len(pending)-1]; progress == nil || compareRecords(last, &domain.RawRecord{Timestamp: progress.LastTimestamp, ID: progress.LastID}) > 0 {
		next.LastTimestamp = last.Timestamp
		next.LastID = last.ID
	}
	return m.progress.SetProgress(ctx, next)
}

// insertRecords bulk inserts records. When the batch hits a stored record it
// falls back to one insert per record and skips the duplicates.
func (m *Manager) insertRecords(ctx context.Context, records []*domain.RawRecord) (int, error) {
	err := m.records.InsertBulk(ctx, records)
	if err == nil {
		return len(records), nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return 0, err
	}

	inserted := 0
	for _, r := range records {
		err := m.records.Insert(ctx, r)
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// ingestPrices stores the points of one symbol that are not stored yet.
func (m *Manager) ingestPrices(ctx context.Context, points []*domain.PricePoint, res *Result) error {
	if len(points) == 0 {
		return nil
	}
	SortPrices(points)
	symbol := points[0].Symbol

	err := m.prices.InsertBulk(ctx, points)
	if errors.Is(err, storage.ErrDuplicateKey) {
		total := len(points)
		points, err = m.newPrices(ctx, points)
		if err != nil {
			return err
		}
		res.Duplicates += total - len(points)
		err = m.prices.InsertBulk(ctx, points)
	}
	if err != nil {
		return err
	}

	res.Prices[symbol] += len(points)
	if m.metrics != nil {
		m.metrics.PricesLoaded.WithLabelValues(symbol).Add(float64(len(points)))
	}
	return nil
}

// newPrices drops the points whose timestamp is already stored, and
// repeated timestamps within the batch.
func (m *Manager) newPrices(ctx context.Context, points []*domain.PricePoint) ([]*domain.PricePoint, error) {
	first, last := points[0], points[len(points)-1]
	stored, err := m.prices.GetBySymbol(ctx, first.Symbol, first.Timestamp, last.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("get stored prices: %w", err)
	}

	seen := make(map[int64]struct{}, len(stored))
	for _, p := range stored {
		seen[p.Timestamp] = struct{}{}
	}

	var out []*domain.PricePoint
	for _, p := range points {
		if _, ok := seen[p.Timestamp]; ok {
			continue
		}
		seen[p.Timestamp] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func short(checksum string) string {
	if len(checksum) > 12 {
		return checksum[:12]
	}
	return checksum
}
