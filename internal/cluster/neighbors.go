package cluster

import "github.com/Altius/stampipes/programs/true_barcodes/internal/hamming"

// MaxDistance is the largest Hamming distance between a pivot and the
// members of its cluster.
const MaxDistance = 1

// Neighbors returns every string in pool within MaxDistance of pivot, in pool
// order. pool is not modified.
func Neighbors(pivot string, pool []string) []string {
	var out []string
	for _, x := range pool {
		if hamming.Within(pivot, x, MaxDistance) {
			out = append(out, x)
		}
	}
	return out
}

// searchFunc scans arena[lo:hi] for unassigned neighbors of pivot and
// returns their arena indices. It must only read arena and assigned.
type searchFunc func(pivot string, arena []string, assigned []bool, lo, hi int) []int

func searchRange(pivot string, arena []string, assigned []bool, lo, hi int) []int {
	var hits []int
	for i := lo; i < hi; i++ {
		if assigned[i] {
			continue
		}
		if hamming.Within(pivot, arena[i], MaxDistance) {
			hits = append(hits, i)
		}
	}
	return hits
}
