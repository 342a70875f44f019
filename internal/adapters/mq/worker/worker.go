// Package worker drains refresh jobs: fetch a feed, normalize it, store it.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Refresh outcomes reported to metrics.
const (
	OutcomeStored     = "stored"
	OutcomeFetchError = "fetch_error"
	OutcomeStoreError = "store_error"
)

// Job is what workers read off the queue.
type Job = queue.Job

// Fetcher retrieves and decodes one upstream feed.
type Fetcher interface {
	Fetch(ctx context.Context, key model.FeedKey) ([]model.RawRecord, error)
}

// Normalizer turns decoded records into canonical entries.
type Normalizer interface {
	NormalizeWithReport(records []model.RawRecord) ([]model.Entry, normalize.Report)
}

// Storer replaces the canonical list of a feed.
type Storer interface {
	Put(ctx context.Context, key model.FeedKey, entries []model.Entry, report normalize.Report) (repository.Snapshot, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// DoneFunc is called after every job with its outcome; err is nil on success.
type DoneFunc func(ctx context.Context, j Job, err error)

// Worker processes refresh jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	fetcher    Fetcher
	normalizer Normalizer
	storer     Storer
	name       string
	onDone     DoneFunc

	shutdown chan struct{}
	done     chan struct{}

	processed *atomic.Int64
	failed    *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, f Fetcher, n Normalizer, s Storer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		fetcher:    f,
		normalizer: n,
		storer:     s,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		processed:  &atomic.Int64{},
		failed:     &atomic.Int64{},
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

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
		case j, ok := <-jobs:
			if !ok {
				return
			}
			err := w.process(ctx, j)
			if err != nil {
				w.failed.Add(1)
				w.logger.Warn(ctx, "refresh failed, keeping previous list",
					logger.String("job_id", j.ID),
					logger.String("feed", j.Key.String()),
					logger.Error(err),
				)
			} else {
				w.processed.Add(1)
			}
			if w.onDone != nil {
				w.onDone(ctx, j, err)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job. A failed fetch leaves the store untouched.
func (w *InMemoryWorker) process(ctx context.Context, j Job) error {
	start := time.Now()
	records, err := w.fetcher.Fetch(ctx, j.Key)
	if err != nil {
		metrics.RecordRefreshProcessed(OutcomeFetchError)
		return fmt.Errorf("fetch %s: %w", j.Key, err)
	}

	normStart := time.Now()
	entries, report := w.normalizer.NormalizeWithReport(records)
	metrics.RecordNormalizeLatency(float64(time.Since(normStart).Microseconds()) / 1000)
	RecordReport(report)

	snap, err := w.storer.Put(ctx, j.Key, entries, report)
	if err != nil {
		metrics.RecordRefreshProcessed(OutcomeStoreError)
		return fmt.Errorf("store %s: %w", j.Key, err)
	}
	metrics.RecordRefreshProcessed(OutcomeStored)

	w.logger.Debug(ctx, "feed refreshed",
		logger.String("job_id", j.ID),
		logger.String("feed", j.Key.String()),
		logger.Int("entries", len(entries)),
		logger.Int("skipped", report.Skipped),
		logger.Int("version", snap.Version),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// RecordReport publishes the counters of one normalization pass.
func RecordReport(r normalize.Report) {
	metrics.RecordNormalized(model.ShapeResult.String(), r.Results)
	metrics.RecordNormalized(model.ShapePrediction.String(), r.Predictions)
	metrics.RecordSkipped(r.Skipped)
	metrics.RecordUnresolved(r.Unresolved)
	metrics.RecordMalformedPositions(r.MalformedPositions)
	for strategy, n := range r.Strategies {
		for i := 0; i < n; i++ {
			metrics.RecordIdentityResolution(string(strategy))
		}
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a worker pool. Non-positive counts default to NumCPU.
func NewPool(workerCount int, q Queue, f Fetcher, n Normalizer, s Storer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, f, n, s, wopts...)
		w.processed = &pool.processed
		w.failed = &pool.failed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs stored successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns the number of jobs that kept the previous list.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerCount(0)
	return nil
}
