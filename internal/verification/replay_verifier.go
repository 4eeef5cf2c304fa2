package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/pipeline"
)

// ErrEmptyBundle is returned when a bundle has no network.
var ErrEmptyBundle = errors.New("dashboard bundle has no network")

// InputLoader reads the raw inputs of one network.
type InputLoader interface {
	Load(ctx context.Context, network string, cfg domain.QueryConfig) (*pipeline.Inputs, error)
}

// ReplayVerifier recomputes stored dashboards from the record stores.
type ReplayVerifier struct {
	loader InputLoader
	runner *pipeline.Runner
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	Loader InputLoader
	Runner *pipeline.Runner
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		loader: opts.Loader,
		runner: opts.Runner,
	}
}

// ReadBundle decodes a dashboard bundle as written by reporting.WriteAll.
func ReadBundle(r io.Reader) (*pipeline.Dashboard, error) {
	var d pipeline.Dashboard
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if d.Network == "" {
		return nil, ErrEmptyBundle
	}
	return &d, nil
}

// ReadBundleFile decodes the bundle at path.
func ReadBundleFile(path string) (*pipeline.Dashboard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBundle(f)
}

// Verify recomputes stored with its own network and query and compares
// every series.
func (v *ReplayVerifier) Verify(ctx context.Context, stored *pipeline.Dashboard) (*VerificationReport, error) {
	// 1. Resolve the stored network and query
	net, err := chain.Lookup(stored.Network)
	if err != nil {
		return nil, err
	}
	cfg := stored.Config.WithDefaults()

	// 2. Recompute
	in, err := v.loader.Load(ctx, net.Name, cfg)
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	replayed, err := v.runner.Run(in, net, cfg)
	if err != nil {
		return nil, fmt.Errorf("recompute: %w", err)
	}

	// 3. Compare results
	return CompareDashboards(stored, replayed), nil
}
