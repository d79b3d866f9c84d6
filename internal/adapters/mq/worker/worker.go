// Package worker runs the prefetch workers that warm the professor caches.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/profrate/internal/adapters/mq/queue"
	"github.com/okian/profrate/internal/domain/model"
	"github.com/okian/profrate/pkg/logger"
	"github.com/okian/profrate/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
)

// Warmer resolves and scores a professor, populating the caches.
type Warmer interface {
	ProfessorOverview(ctx context.Context, name string) (model.Professor, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes prefetch jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, the queue is closed
	// or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker after its in-flight job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a Queue.
type InMemoryWorker struct {
	queue  Queue
	warmer Warmer
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, warmer Warmer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		warmer:   warmer,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Warn(ctx, "prefetch failed", logger.String("name", job.Name), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	p, err := w.warmer.ProfessorOverview(ctx, job.Name)
	if err != nil {
		metrics.RecordPrefetchFailed()
		metrics.RecordErrorByComponent("worker", "prefetch_error")
		return fmt.Errorf("prefetch %q: %w", job.Name, err)
	}

	metrics.RecordPrefetchProcessed()
	w.logger.Debug(ctx, "prefetched professor",
		logger.String("name", job.Name),
		logger.Uint32("rmp_id", p.RMPID),
		logger.Float64("queued_ms", float64(start.Sub(job.EnqueuedAt).Milliseconds())),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	wg     sync.WaitGroup
	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue, warmer Warmer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, warmer, workerOpts...)
	}
	base := &InMemoryWorker{logger: pool.logger}
	for _, opt := range opts {
		opt(base)
	}
	pool.logger = base.logger.Named("worker-pool")

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned, which happens once the queue
// is closed and drained or the run context is canceled.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Stop signals every worker, then waits for all of them against a single
// workerShutdownTimeout deadline.
func (p *Pool) Stop() {
	p.stop(workerShutdownTimeout)
}

func (p *Pool) stop(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	for i, w := range p.workers {
		wg.Add(1)
		go func(i int, w *InMemoryWorker) {
			defer wg.Done()
			if err := w.Shutdown(ctx); err != nil {
				p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			}
		}(i, w)
	}
	wg.Wait()
	metrics.UpdateWorkerCount(0)
}
