// Package sources ranks volume sources and folds the long tail into "Other".
package sources

import "sort"

// Other is the label for sources outside the retained top K.
const Other = "Other"

// Entry is one normalized source contribution.
type Entry struct {
	Timestamp int64
	Source    string
	Value     float64
}

// SourceTotal is a source with its total over the ledger window.
type SourceTotal struct {
	Source string
	Total  float64
}

// Ledger holds per-source totals in first-seen order.
type Ledger struct {
	totals []SourceTotal
	index  map[string]int
}

// BuildLedger totals entries by source.
func BuildLedger(entries []Entry) *Ledger {
	l := &Ledger{index: make(map[string]int)}
	for _, e := range entries {
		i, ok := l.index[e.Source]
		if !ok {
			i = len(l.totals)
			l.index[e.Source] = i
			l.totals = append(l.totals, SourceTotal{Source: e.Source})
		}
		l.totals[i].Total += e.Value
	}
	return l
}

// Total returns the total for a source.
func (l *Ledger) Total(source string) (float64, bool) {
	i, ok := l.index[source]
	if !ok {
		return 0, false
	}
	return l.totals[i].Total, true
}

// Len returns the number of distinct sources.
func (l *Ledger) Len() int {
	return len(l.totals)
}

// Ranked returns sources ordered by total DESC.
// Equal totals keep first-seen order.
func (l *Ledger) Ranked() []SourceTotal {
	ranked := make([]SourceTotal, len(l.totals))
	copy(ranked, l.totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked
}
