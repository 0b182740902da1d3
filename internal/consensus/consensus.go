// Package consensus picks the true barcode of each cluster by majority
// frequency and scores it.
package consensus

import (
	"sort"
	"strconv"

	"github.com/Altius/stampipes/programs/true_barcodes/internal/cluster"
	"github.com/Altius/stampipes/programs/true_barcodes/internal/tally"
)

// DefaultExpected is the number of groups kept when no limit is given.
const DefaultExpected = 100

// Member is a cluster member with its occurrence count.
type Member struct {
	Barcode string
	Count   int
}

// Group is a cluster with counts attached. Members are sorted by count,
// highest first; Total is the sum of their counts.
type Group struct {
	Pivot   string
	Members []Member
	Total   int
}

// Result is the representative of one group.
type Result struct {
	Barcode    string
	Count      int
	Total      int
	Variants   int     // distinct members in the group
	Confidence float64 // Count / Total
}

// FormatConfidence renders the confidence with two decimals.
func (r Result) FormatConfidence() string {
	return strconv.FormatFloat(r.Confidence, 'f', 2, 64)
}

// Score attaches counts to every cluster member and ranks the groups by
// total evidence, highest first. Ties between members and between groups
// break on barcode so the ranking is reproducible.
func Score(clusters []cluster.Cluster, t *tally.Tally) []Group {
	groups := make([]Group, 0, len(clusters))
	for _, c := range clusters {
		g := Group{Pivot: c.Pivot, Members: make([]Member, 0, len(c.Members))}
		for _, bc := range c.Members {
			n := t.Count(bc)
			g.Members = append(g.Members, Member{Barcode: bc, Count: n})
			g.Total += n
		}
		sort.SliceStable(g.Members, func(i, j int) bool {
			a, b := g.Members[i], g.Members[j]
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.Barcode < b.Barcode
		})
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Total != groups[j].Total {
			return groups[i].Total > groups[j].Total
		}
		return groups[i].Members[0].Barcode < groups[j].Members[0].Barcode
	})
	return groups
}

// Select keeps the top limit groups by evidence and returns their
// representatives ordered by confidence, highest first. limit <= 0 means
// DefaultExpected. Groups with no evidence are skipped.
func Select(groups []Group, limit int) []Result {
	if limit <= 0 {
		limit = DefaultExpected
	}
	if len(groups) > limit {
		groups = groups[:limit]
	}
	results := make([]Result, 0, len(groups))
	for _, g := range groups {
		if len(g.Members) == 0 || g.Total == 0 {
			continue
		}
		top := g.Members[0]
		results = append(results, Result{
			Barcode:    top.Barcode,
			Count:      top.Count,
			Total:      g.Total,
			Variants:   len(g.Members),
			Confidence: float64(top.Count) / float64(g.Total),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Barcode < b.Barcode
	})
	return results
}

// TrueBarcodes scores clusters against t and selects up to limit results.
func TrueBarcodes(clusters []cluster.Cluster, t *tally.Tally, limit int) []Result {
	return Select(Score(clusters, t), limit)
}
