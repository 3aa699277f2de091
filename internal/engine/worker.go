package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/0x6d61/owlscan/internal/probe"
)

// job is a single probe of one path. index is the slot its result fills so
// output order never depends on completion order.
type job struct {
	index int
	path  string
}

// outcome carries a probe result back to its slot.
type outcome struct {
	index  int
	result probe.Result
}

// workerPool runs probes concurrently across a fixed number of workers.
type workerPool struct {
	workers int
	logger  *slog.Logger
	jobs    chan job
	results chan outcome
	wg      sync.WaitGroup
}

// newWorkerPool creates a pool with the given number of workers. The results
// channel holds every outcome so workers never block on an unread result.
func newWorkerPool(workers, jobCount int, logger *slog.Logger) *workerPool {
	if workers <= 0 {
		workers = 1
	}
	return &workerPool{
		workers: workers,
		logger:  logger,
		jobs:    make(chan job, workers*2),
		results: make(chan outcome, jobCount),
	}
}

// start launches all worker goroutines against domain.
func (p *workerPool) start(ctx context.Context, fetcher Fetcher, domain string) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, fetcher, domain)
	}
}

func (p *workerPool) worker(ctx context.Context, fetcher Fetcher, domain string) {
	defer p.wg.Done()

	for j := range p.jobs {
		if ctx.Err() != nil {
			continue
		}

		// Recover from panics so one bad fetch does not crash the pool. A
		// panicked job still counts as processed and leaves absence.
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("worker recovered from panic",
						"path", j.path,
						"panic", fmt.Sprintf("%v", r),
					)
					p.results <- outcome{index: j.index}
				}
			}()

			p.results <- outcome{index: j.index, result: fetcher.Fetch(ctx, domain, j.path)}
		}()
	}
}

// submit adds a job to the queue. It blocks if the jobs channel is full.
func (p *workerPool) submit(j job) {
	p.jobs <- j
}

// close signals that no more jobs will be submitted, then waits for all
// workers to finish and closes the results channel.
func (p *workerPool) close() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
}

// fetchAll probes every path on domain and returns the results in path
// order along with the number of probes actually run. Probes skipped after
// cancellation or that panicked leave the absence value in their slot.
func fetchAll(ctx context.Context, fetcher Fetcher, domain string, paths []string, workers int, logger *slog.Logger) ([]probe.Result, int) {
	out := make([]probe.Result, len(paths))
	if len(paths) == 0 {
		return out, 0
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	pool := newWorkerPool(workers, len(paths), logger)
	pool.start(ctx, fetcher, domain)
	for i, path := range paths {
		pool.submit(job{index: i, path: path})
	}
	pool.close()

	processed := 0
	for o := range pool.results {
		out[o.index] = o.result
		processed++
	}
	return out, processed
}
