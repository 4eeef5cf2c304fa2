package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioEntries() []Entry {
	return []Entry{
		{Timestamp: 0, Source: "A", Value: 60},
		{Timestamp: 0, Source: "C", Value: 4},
		{Timestamp: 0, Source: "B", Value: 50},
		{Timestamp: 86400, Source: "A", Value: 40},
		{Timestamp: 86400, Source: "C", Value: 6},
	}
}

func TestBuildLedger(t *testing.T) {
	l := BuildLedger(scenarioEntries())

	assert.Equal(t, 3, l.Len())
	total, ok := l.Total("A")
	require.True(t, ok)
	assert.Equal(t, 100.0, total)

	_, ok = l.Total("missing")
	assert.False(t, ok)

	ranked := l.Ranked()
	assert.Equal(t, []SourceTotal{{"A", 100}, {"B", 50}, {"C", 10}}, ranked)
}

func TestRanked_TieKeepsFirstSeenOrder(t *testing.T) {
	l := BuildLedger([]Entry{
		{Source: "x", Value: 5},
		{Source: "y", Value: 9},
		{Source: "z", Value: 5},
		{Source: "w", Value: 5},
	})

	ranked := l.Ranked()
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Source
	}
	assert.Equal(t, []string{"y", "x", "z", "w"}, names)

	c := NewClassifier(l, 2)
	assert.Equal(t, "x", c.Classify("x"))
	assert.Equal(t, Other, c.Classify("z"))
}

func TestClassifier_TopTwoScenario(t *testing.T) {
	entries := scenarioEntries()
	c := NewClassifier(BuildLedger(entries), 2)

	assert.Equal(t, []string{"A", "B"}, c.Retained())

	classified := c.ClassifyAll(entries)
	other := 0.0
	for _, e := range classified {
		assert.NotEqual(t, "C", e.Source)
		if e.Source == Other {
			other += e.Value
		}
	}
	assert.Equal(t, 10.0, other)

	// input untouched
	assert.Equal(t, "C", entries[1].Source)
}

func TestClassifier_Idempotent(t *testing.T) {
	entries := scenarioEntries()
	c := NewClassifier(BuildLedger(entries), 2)

	once := c.ClassifyAll(entries)
	twice := c.ClassifyAll(once)

	assert.Equal(t, once, twice)
}

func TestClassifier_KCoversAll(t *testing.T) {
	entries := scenarioEntries()
	c := NewClassifier(BuildLedger(entries), 30)

	for _, e := range c.ClassifyAll(entries) {
		assert.NotEqual(t, Other, e.Source)
	}
}

func TestClassifier_ZeroK(t *testing.T) {
	c := NewClassifier(BuildLedger(scenarioEntries()), 0)
	assert.Equal(t, Other, c.Classify("A"))
	assert.Empty(t, c.Retained())
}

func TestBreakdown(t *testing.T) {
	entries := scenarioEntries()
	entries = append(entries, Entry{Timestamp: 2 * 86400, Source: "A", Value: 0})

	c := NewClassifier(BuildLedger(entries), 2)
	points := Breakdown(c.ClassifyAll(entries), 86400)
	require.Len(t, points, 3)

	assert.Equal(t, int64(0), points[0].Timestamp)
	assert.Equal(t, 60.0, points[0].Sources["A"])
	assert.Equal(t, 50.0, points[0].Sources["B"])
	assert.Equal(t, 4.0, points[0].Sources[Other])
	assert.Equal(t, 114.0, points[0].All)

	assert.Equal(t, 46.0, points[1].All)
	assert.Equal(t, 0.0, points[1].Sources["B"])

	// zero-volume bucket still present
	assert.Equal(t, int64(2*86400), points[2].Timestamp)
	assert.Equal(t, 0.0, points[2].All)
}

func TestBreakdown_AllIndependentOfMapOrder(t *testing.T) {
	entries := []Entry{
		{Timestamp: 0, Source: "margin", Value: 0.1},
		{Timestamp: 0, Source: "liquidation", Value: 1e16},
		{Timestamp: 0, Source: "swap", Value: 0.2},
		{Timestamp: 0, Source: "mint", Value: -1e16},
		{Timestamp: 0, Source: "burn", Value: 0.3},
	}

	for i := 0; i < 100; i++ {
		points := Breakdown(entries, 86400)
		require.Len(t, points, 1)
		require.Equal(t, 0.2, points[0].All)
	}
}
