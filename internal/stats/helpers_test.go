package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
)

const day = domain.SecondsPerDay

var seq int

// rec builds a raw record from alternating field name / value pairs.
func rec(ts int64, source string, kv ...string) *domain.RawRecord {
	seq++
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &domain.RawRecord{
		Network:   chain.Arbitrum,
		ID:        fmt.Sprintf("r%04d", seq),
		Timestamp: ts,
		Source:    source,
		Fields:    fields,
	}
}

// usd encodes a USD amount with 30 decimals.
func usd(v int) string {
	return fmt.Sprintf("%de30", v)
}

// tokens encodes a token amount with 18 decimals.
func tokens(v int) string {
	return fmt.Sprintf("%de18", v)
}

func arbitrum(t *testing.T) *chain.Network {
	t.Helper()
	net, err := chain.Lookup(chain.Arbitrum)
	require.NoError(t, err)
	return net
}

func defaultConfig() domain.QueryConfig {
	return domain.DefaultQueryConfig()
}
