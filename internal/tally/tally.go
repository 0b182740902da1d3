// Package tally counts how often each candidate was observed.
package tally

// Tally maps each candidate to its occurrence count in the raw,
// non-deduplicated multiset.
type Tally struct {
	counts map[string]int
	total  int
}

// New counts candidates in one pass.
func New(candidates []string) *Tally {
	t := &Tally{counts: make(map[string]int), total: len(candidates)}
	for _, c := range candidates {
		t.counts[c]++
	}
	return t
}

// Count returns the number of times s was observed, 0 if never.
func (t *Tally) Count(s string) int {
	return t.counts[s]
}

// Len is the size of the multiset.
func (t *Tally) Len() int { return t.total }

// Distinct is the number of distinct candidates.
func (t *Tally) Distinct() int { return len(t.counts) }
