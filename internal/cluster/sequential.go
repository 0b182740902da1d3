package cluster

import (
	"context"
	"log/slog"
	"time"
)

// Sequential is the single-threaded reference walk: pop a pivot from the
// end of the deduplicated pool, collect its neighbors from what remains and
// drop them from the pool. It produces the same kind of partition as Build
// without a worker pool. The context is checked before every pivot.
func (b *Builder) Sequential(ctx context.Context, candidates []string) ([]Cluster, error) {
	if err := checkShape(candidates); err != nil {
		return nil, err
	}
	pool := Distinct(candidates)
	if len(pool) == 0 {
		return nil, nil
	}

	start := time.Now()
	prog := b.newProgress(len(pool))
	var clusters []Cluster
	for len(pool) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pivot := pool[len(pool)-1]
		pool = pool[:len(pool)-1]

		roundsTotal.WithLabelValues("sequential").Inc()
		nbrs := Neighbors(pivot, pool)
		members := append([]string{pivot}, nbrs...)
		clusters = append(clusters, Cluster{Pivot: pivot, Members: members})
		prog.add(len(members))

		if len(nbrs) == 0 {
			continue
		}
		grouped := make(map[string]struct{}, len(nbrs))
		for _, n := range nbrs {
			grouped[n] = struct{}{}
		}
		kept := pool[:0]
		for _, x := range pool {
			if _, ok := grouped[x]; !ok {
				kept = append(kept, x)
			}
		}
		pool = kept
	}

	clustersTotal.Add(float64(len(clusters)))
	distinctTotal.Add(float64(prog.total))
	buildDuration.Observe(time.Since(start).Seconds())
	b.logger.Info("clustering complete",
		slog.Int("distinct", prog.total),
		slog.Int("clusters", len(clusters)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return clusters, nil
}
