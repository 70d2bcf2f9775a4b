package async

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/ledgerline/invoice-extractor/internal/common"
	"github.com/ledgerline/invoice-extractor/internal/layout"
	"github.com/ledgerline/invoice-extractor/internal/pipeline"
	"github.com/ledgerline/invoice-extractor/internal/repository"
)

// Stats aggregates the outcomes of processed jobs.
type Stats struct {
	Processed   uint32
	Failed      uint32
	NeedsReview uint32
}

// DocumentQueue runs extraction jobs on a fixed worker pool: each job loads a
// document, runs it through the pipeline, and persists the merged result.
type DocumentQueue struct {
	orch    *pipeline.Orchestrator
	source  layout.Source
	store   *repository.Store
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	processed   atomic.Uint32
	failed      atomic.Uint32
	needsReview atomic.Uint32

	mu     sync.Mutex
	closed bool
}

type Option func(*DocumentQueue)

func WithWorkers(n int) Option {
	return func(q *DocumentQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *DocumentQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *DocumentQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewDocumentQueue(orch *pipeline.Orchestrator, source layout.Source, store *repository.Store, logger *slog.Logger, opts ...Option) *DocumentQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &DocumentQueue{
		orch:    orch,
		source:  source,
		store:   store,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *DocumentQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					if job.TraceID != "" {
						ctx = common.WithRequestID(ctx, job.TraceID)
					}
					err := q.process(ctx, job)
					cancel()

					if err != nil {
						q.failed.Add(1)
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
					} else {
						q.processed.Add(1)
						q.logger.Info("processed document", "worker_id", workerID, "path", job.Path)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *DocumentQueue) process(ctx context.Context, job Job) error {
	doc, err := q.source.Load(job.Path)
	if err != nil {
		return err
	}
	merged := q.orch.Run(ctx, doc.RawText, doc.Tokens)
	needsReview := q.orch.NeedsReview(merged)
	if needsReview {
		q.needsReview.Add(1)
	}
	if q.store != nil {
		if _, err := q.store.SaveExtraction(ctx, doc.ID, merged, needsReview); err != nil {
			return err
		}
	}
	return nil
}

func (q *DocumentQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued document", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *DocumentQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

// StatsSnapshot returns the outcome counters accumulated so far.
func (q *DocumentQueue) StatsSnapshot() Stats {
	return Stats{
		Processed:   q.processed.Load(),
		Failed:      q.failed.Load(),
		NeedsReview: q.needsReview.Load(),
	}
}
