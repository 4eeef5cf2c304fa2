package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/idhash"
)

// Dump is one exported batch of indexer records and reference prices.
//
//	{
//	  "network": "arbitrum",
//	  "records": {"volume_stats": [{"id": "...", "timestamp": 1630454400, "fields": {...}}]},
//	  "prices":  {"BTC": [{"timestamp": 1630454400, "price": 47000.5}]}
//	}
type Dump struct {
	Network string                  `json:"network"`
	Records map[string][]DumpRecord `json:"records"` // raw series name -> records
	Prices  map[string][]DumpPrice  `json:"prices"`  // symbol -> prices
}

// DumpRecord is a raw record without its network and series.
// An empty ID is derived from (network, series, source, timestamp).
type DumpRecord struct {
	ID        string            `json:"id"`
	Timestamp int64             `json:"timestamp"`
	Source    string            `json:"source,omitempty"`
	Fields    map[string]string `json:"fields"`
}

// DumpPrice is a reference price without its symbol.
type DumpPrice struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// NewDump builds a dump from domain records and prices.
func NewDump(network string, records map[string][]*domain.RawRecord, prices map[string][]*domain.PricePoint) *Dump {
	d := &Dump{
		Network: network,
		Records: make(map[string][]DumpRecord, len(records)),
		Prices:  make(map[string][]DumpPrice, len(prices)),
	}
	for series, rs := range records {
		for _, r := range rs {
			d.Records[series] = append(d.Records[series], DumpRecord{
				ID:        r.ID,
				Timestamp: r.Timestamp,
				Source:    r.Source,
				Fields:    r.Fields,
			})
		}
	}
	for symbol, ps := range prices {
		for _, p := range ps {
			d.Prices[symbol] = append(d.Prices[symbol], DumpPrice{Timestamp: p.Timestamp, Price: p.Price})
		}
	}
	return d
}

// Validate checks the network and series names.
func (d *Dump) Validate() error {
	if _, err := chain.Lookup(d.Network); err != nil {
		return err
	}
	known := make(map[string]struct{}, len(domain.AllSeries))
	for _, s := range domain.AllSeries {
		known[s] = struct{}{}
	}
	for series := range d.Records {
		if _, ok := known[series]; !ok {
			return &domain.ConfigurationError{Field: "records", Reason: fmt.Sprintf("unknown series %q", series)}
		}
	}
	for symbol := range d.Prices {
		if symbol == "" {
			return &domain.ConfigurationError{Field: "prices", Reason: "empty symbol"}
		}
	}
	return nil
}

// RawRecords returns the records of a series as domain records.
func (d *Dump) RawRecords(series string) []*domain.RawRecord {
	out := make([]*domain.RawRecord, len(d.Records[series]))
	for i, r := range d.Records[series] {
		id := r.ID
		if id == "" {
			id = idhash.ComputeRecordID(d.Network, series, r.Source, r.Timestamp)
		}
		out[i] = &domain.RawRecord{
			Network:   d.Network,
			Series:    series,
			ID:        id,
			Timestamp: r.Timestamp,
			Source:    r.Source,
			Fields:    r.Fields,
		}
	}
	return out
}

// PricePoints returns the prices of a symbol as domain points.
func (d *Dump) PricePoints(symbol string) []*domain.PricePoint {
	out := make([]*domain.PricePoint, len(d.Prices[symbol]))
	for i, p := range d.Prices[symbol] {
		out[i] = &domain.PricePoint{Symbol: symbol, Timestamp: p.Timestamp, Price: p.Price}
	}
	return out
}

// Series returns the dump's series names in load order.
func (d *Dump) Series() []string {
	var out []string
	for _, s := range domain.AllSeries {
		if len(d.Records[s]) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Symbols returns the dump's price symbols, sorted.
func (d *Dump) Symbols() []string {
	out := make([]string, 0, len(d.Prices))
	for s := range d.Prices {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ReadDump decodes a dump and returns it with the hex SHA-256 of its content.
func ReadDump(r io.Reader) (*Dump, string, error) {
	h := sha256.New()
	var d Dump
	if err := json.NewDecoder(io.TeeReader(r, h)).Decode(&d); err != nil {
		return nil, "", fmt.Errorf("decode dump: %w", err)
	}
	// Hash any trailing bytes too
	if _, err := io.Copy(h, r); err != nil {
		return nil, "", fmt.Errorf("read dump: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, "", err
	}
	return &d, hex.EncodeToString(h.Sum(nil)), nil
}

// WriteDump encodes d as indented JSON.
func WriteDump(w io.Writer, d *Dump) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// DumpSource yields dumps to ingest.
type DumpSource interface {
	// Next returns the next dump and its content checksum.
	// Returns io.EOF when exhausted.
	Next(ctx context.Context) (*Dump, string, error)
}

// FileSource reads dump files in path order.
type FileSource struct {
	paths []string
	next  int
}

// NewFileSource creates a source over files and directories.
// Directories contribute their *.json files.
func NewFileSource(paths ...string) (*FileSource, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return &FileSource{paths: files}, nil
}

// Paths returns the files the source reads.
func (s *FileSource) Paths() []string {
	return s.paths
}

// Next reads the next file.
func (s *FileSource) Next(ctx context.Context) (*Dump, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if s.next >= len(s.paths) {
		return nil, "", io.EOF
	}
	path := s.paths[s.next]
	s.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	d, sum, err := ReadDump(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return d, sum, nil
}
