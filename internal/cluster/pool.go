package cluster

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

type job struct {
	pivot  string
	lo, hi int
	reply  chan<- reply
}

type reply struct {
	hits []int
	err  error
}

// workerPool runs range searches against a read-only arena. The coordinator
// owns assigned and only writes it while no job is in flight.
type workerPool struct {
	jobs     chan job
	g        *errgroup.Group
	ctx      context.Context
	search   searchFunc
	arena    []string
	assigned []bool
}

func startPool(ctx context.Context, workers int, search searchFunc, arena []string, assigned []bool) *workerPool {
	g, gctx := errgroup.WithContext(ctx)
	p := &workerPool{
		jobs:     make(chan job),
		g:        g,
		ctx:      gctx,
		search:   search,
		arena:    arena,
		assigned: assigned,
	}
	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case j, ok := <-p.jobs:
					if !ok {
						return nil
					}
					r := p.run(id, j.pivot, j.lo, j.hi)
					j.reply <- r
					if r.err != nil {
						return r.err
					}
				}
			}
		})
	}
	return p
}

// run executes one range search, turning a panic into a WorkerFailureError.
func (p *workerPool) run(worker int, pivot string, lo, hi int) (r reply) {
	defer func() {
		if v := recover(); v != nil {
			r = reply{err: &WorkerFailureError{Worker: worker, Cause: fmt.Errorf("panic: %v", v)}}
		}
	}()
	return reply{hits: p.search(pivot, p.arena, p.assigned, lo, hi)}
}

// neighbors splits [lo, hi) into chunks, dispatches them and joins the
// results. It returns once every dispatched chunk has replied.
func (p *workerPool) neighbors(pivot string, chunks [][2]int) ([]int, error) {
	replies := make(chan reply, len(chunks))
	sent := 0
	for _, c := range chunks {
		select {
		case p.jobs <- job{pivot: pivot, lo: c[0], hi: c[1], reply: replies}:
			sent++
		case <-p.ctx.Done():
		}
	}

	var (
		hits     []int
		firstErr error
	)
	for i := 0; i < sent; i++ {
		r := <-replies
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		hits = append(hits, r.hits...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if sent < len(chunks) {
		return nil, p.ctx.Err()
	}
	slices.Sort(hits)
	return hits, nil
}

// close stops the workers and waits for them to exit.
func (p *workerPool) close() error {
	close(p.jobs)
	return p.g.Wait()
}

// splitRange cuts [lo, hi) into at most n contiguous chunks of at least
// minChunk elements each.
func splitRange(lo, hi, n, minChunk int) [][2]int {
	size := hi - lo
	if size <= 0 {
		return nil
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if limit := (size + minChunk - 1) / minChunk; n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	chunks := make([][2]int, 0, n)
	step := size / n
	rem := size % n
	start := lo
	for i := 0; i < n; i++ {
		end := start + step
		if i < rem {
			end++
		}
		chunks = append(chunks, [2]int{start, end})
		start = end
	}
	return chunks
}
