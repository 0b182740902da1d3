package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Altius/stampipes/programs/true_barcodes/internal/hamming"
)

// DefaultMinChunk is the smallest slice of the pool handed to a worker.
// Smaller remainders are searched on the coordinating goroutine.
const DefaultMinChunk = 4096

var tracer = otel.Tracer("true_barcodes.cluster")

// Cluster is a pivot and the strings grouped with it. Members[0] is the pivot.
type Cluster struct {
	Pivot   string
	Members []string
}

// Builder partitions candidates using a pool of neighbor search workers.
type Builder struct {
	workers  int
	minChunk int
	logger   *slog.Logger
	progress func(done, total int)
	search   searchFunc
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers sets the worker pool size. n <= 0 uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithMinChunk sets the smallest pool slice dispatched to a worker.
func WithMinChunk(n int) Option {
	return func(b *Builder) { b.minChunk = n }
}

// WithLogger sets the logger used for progress reporting.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithProgress registers a callback invoked after every cluster with the
// number of distinct strings assigned so far and the distinct total.
func WithProgress(fn func(done, total int)) Option {
	return func(b *Builder) { b.progress = fn }
}

// New returns a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		minChunk: DefaultMinChunk,
		logger:   slog.Default(),
		search:   searchRange,
	}
	for _, o := range opts {
		o(b)
	}
	if b.workers <= 0 {
		b.workers = runtime.NumCPU()
	}
	if b.minChunk < 1 {
		b.minChunk = 1
	}
	return b
}

// Build partitions the distinct strings of candidates into clusters.
// Empty input yields an empty partition and no error.
func (b *Builder) Build(ctx context.Context, candidates []string) (clusters []Cluster, err error) {
	ctx, span := tracer.Start(ctx, "cluster.Build",
		trace.WithAttributes(
			attribute.Int("candidates", len(candidates)),
			attribute.Int("workers", b.workers),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err := checkShape(candidates); err != nil {
		return nil, err
	}
	arena := Distinct(candidates)
	span.SetAttributes(attribute.Int("distinct", len(arena)))
	if len(arena) == 0 {
		return nil, nil
	}

	start := time.Now()
	assigned := make([]bool, len(arena))
	pool := startPool(ctx, b.workers, b.search, arena, assigned)
	defer func() {
		if cerr := pool.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	prog := b.newProgress(len(arena))
	for cursor := 0; cursor < len(arena); cursor++ {
		if assigned[cursor] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pivot := arena[cursor]
		assigned[cursor] = true

		hits, err := b.neighbors(pool, pivot, arena, assigned, cursor+1)
		if err != nil {
			return nil, err
		}

		members := make([]string, 0, len(hits)+1)
		members = append(members, pivot)
		for _, i := range hits {
			assigned[i] = true
			members = append(members, arena[i])
		}
		clusters = append(clusters, Cluster{Pivot: pivot, Members: members})

		prog.add(len(members))
	}

	clustersTotal.Add(float64(len(clusters)))
	distinctTotal.Add(float64(len(arena)))
	buildDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("clusters", len(clusters)))
	span.SetStatus(codes.Ok, "")
	b.logger.Info("clustering complete",
		slog.Int("distinct", len(arena)),
		slog.Int("clusters", len(clusters)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return clusters, nil
}

// progress reports clustered strings to the callback on every cluster and
// to the log whenever another 10% of the distinct strings is done.
type progress struct {
	b          *Builder
	done       int
	total      int
	lastReport float64
}

func (b *Builder) newProgress(total int) *progress {
	return &progress{b: b, total: total}
}

func (p *progress) add(n int) {
	p.done += n
	if p.b.progress != nil {
		p.b.progress(p.done, p.total)
	}
	if pct := float64(p.done) / float64(p.total) * 100; pct-p.lastReport > 10 {
		p.lastReport = pct
		p.b.logger.Info("clustering", slog.String("progress", fmt.Sprintf("%.2f%%", pct)))
	}
}

// neighbors finds unassigned neighbors of pivot in arena[lo:]. Wide ranges
// go to the pool; narrow ones are scanned inline.
func (b *Builder) neighbors(pool *workerPool, pivot string, arena []string, assigned []bool, lo int) ([]int, error) {
	chunks := splitRange(lo, len(arena), b.workers, b.minChunk)
	if len(chunks) <= 1 {
		roundsTotal.WithLabelValues("inline").Inc()
		r := pool.run(-1, pivot, lo, len(arena))
		return r.hits, r.err
	}
	roundsTotal.WithLabelValues("pool").Inc()
	return pool.neighbors(pivot, chunks)
}

// Distinct returns the distinct strings of candidates in first-seen order.
func Distinct(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func checkShape(candidates []string) error {
	if i := hamming.CheckLengths(candidates); i >= 0 {
		return &InputShapeError{Index: i, Want: len(candidates[0]), Got: len(candidates[i])}
	}
	return nil
}
