package sources

// Classifier maps source names to themselves when ranked in the top K, else to Other.
type Classifier struct {
	retained map[string]struct{}
	names    []string
}

// NewClassifier retains the first k sources of the ledger ranking.
// k <= 0 retains nothing.
func NewClassifier(ledger *Ledger, k int) *Classifier {
	c := &Classifier{retained: make(map[string]struct{})}
	for i, st := range ledger.Ranked() {
		if i >= k {
			break
		}
		c.retained[st.Source] = struct{}{}
		c.names = append(c.names, st.Source)
	}
	return c
}

// Classify returns source if retained, else Other.
// Other itself is stable under reclassification.
func (c *Classifier) Classify(source string) string {
	if _, ok := c.retained[source]; ok {
		return source
	}
	return Other
}

// Retained returns the retained sources in rank order.
func (c *Classifier) Retained() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// ClassifyAll returns a copy of entries with every source classified.
func (c *Classifier) ClassifyAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Source = c.Classify(e.Source)
		out[i] = e
	}
	return out
}
