package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/entity"
)

// Job is one file waiting for a worker.
type Job struct {
	ID          uuid.UUID
	File        entity.SourceFile
	SubmittedAt time.Time
	// Index is the position of the file in its batch.
	Index int
}

// FileProcessor is satisfied by *core.Processor.
type FileProcessor interface {
	ProcessFile(ctx context.Context, file entity.SourceFile) (*core.ProcessResult, error)
}

// ResultSink receives every finished job. It is called from worker
// goroutines and must be safe for concurrent use.
type ResultSink func(job Job, res *core.ProcessResult)

type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration
	sink    ResultSink
	base    context.Context

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// done is closed when Shutdown begins and releases blocked senders.
	done    chan struct{}
	senders sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithResultSink(sink ResultSink) Option {
	return func(q *ProcessorQueue) {
		q.sink = sink
	}
}

// WithContext sets the parent of every job context. Once it is done the
// remaining queued jobs are skipped.
func WithContext(ctx context.Context) Option {
	return func(q *ProcessorQueue) {
		if ctx != nil {
			q.base = ctx
		}
	}
}

func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		base:    context.Background(),
		ch:      make(chan Job, 256),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					if q.base.Err() != nil {
						q.logger.Debug("queue.job.abandoned", "worker_id", workerID, "job_id", job.ID, "file", job.File.SourcePath)
						continue
					}
					q.run(workerID, job)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := common.WithTimeout(common.WithJobID(q.base, job.ID.String()), q.timeout)
	res, err := q.proc.ProcessFile(ctx, job.File)
	cancel()

	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "file", job.File.SourcePath, "error", err)
	} else {
		q.logger.Info("queue.job.ok", "worker_id", workerID, "job_id", job.ID, "file", job.File.SourcePath, "needs_review", res.NeedsReview)
	}
	if q.sink != nil && res != nil {
		q.sink(job, res)
	}
}

// Enqueue blocks while the queue is full. It fails once Shutdown has begun,
// including for callers already waiting on a full queue.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.closed", "file", job.File.SourcePath)
		return errQueueClosed()
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueue.ok", "job_id", job.ID, "file", job.File.SourcePath)
		return nil
	default:
	}
	q.logger.Warn("queue.enqueue.backpressure", "job_id", job.ID, "file", job.File.SourcePath)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		q.logger.Warn("queue.enqueue.closed", "job_id", job.ID, "file", job.File.SourcePath)
		return errQueueClosed()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errQueueClosed() error {
	return common.NewAppError("QUEUE_CLOSED", "queue is shutting down", common.ErrInvalidInput)
}

// Shutdown rejects new jobs, lets the workers drain what is already queued
// and waits for them until ctx is done.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	// no sender can reach q.ch once senders drains
	q.senders.Wait()
	close(q.ch)

	drained := make(chan struct{})
	go func() { defer close(drained); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-drained:
		q.logger.Debug("queue.shutdown.drained")
	}
}
