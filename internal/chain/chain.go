// Package chain holds per-network static lookup tables: token symbols and known swap
// source contracts.
package chain

import (
	"sort"
	"strings"

	"protocol-stats/internal/domain"
)

// Network names.
const (
	Arbitrum  = "arbitrum"
	Avalanche = "avalanche"
	Base      = "base"
)

// Network is the static configuration of one deployment.
// Lookup keys are stored lower-cased.
type Network struct {
	Name         string
	ChainID      int64
	TokenSymbols map[string]string // token address -> symbol
	SwapSources  map[string]string // contract address -> display name
	Excluded     map[string]bool   // symbols excluded from per-token series

	BenchmarkWeights []domain.AssetWeight // default synthetic index weights
}

// Lookup returns the network by name.
// Returns *domain.ConfigurationError for unknown names.
func Lookup(name string) (*Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &domain.ConfigurationError{Field: "network", Reason: "unknown network " + name}
	}
	return n, nil
}

// Names returns all configured network names, sorted.
func Names() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TokenSymbol resolves a token address to its symbol.
// Unknown addresses are returned unchanged.
func (n *Network) TokenSymbol(address string) string {
	if symbol, ok := n.TokenSymbols[strings.ToLower(address)]; ok {
		return symbol
	}
	return address
}

// SwapSource resolves a contract address to its display name.
// Unknown addresses are returned unchanged and end up in "Other" if they do not rank.
func (n *Network) SwapSource(address string) string {
	if name, ok := n.SwapSources[strings.ToLower(address)]; ok {
		return name
	}
	return address
}

// QueryDefaults returns the default query configuration for this network.
func (n *Network) QueryDefaults() domain.QueryConfig {
	cfg := domain.DefaultQueryConfig()
	if len(n.BenchmarkWeights) > 0 {
		cfg.AssetWeights = append([]domain.AssetWeight(nil), n.BenchmarkWeights...)
	}
	return cfg
}

// IsExcluded reports whether a symbol is excluded from per-token series.
func (n *Network) IsExcluded(symbol string) bool {
	return n.Excluded[symbol]
}

func lowerKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
