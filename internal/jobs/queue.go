package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecuteFunc runs one queued job under the per-job timeout.
type ExecuteFunc func(ctx context.Context, jobID uuid.UUID)

// Queue fans queued job IDs out to a fixed worker pool. Enqueue blocks when
// the buffer is full, which is the backpressure mechanism: submission slows
// down instead of dropping work.
type Queue struct {
	execute ExecuteFunc
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan uuid.UUID
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan uuid.UUID, n)
		}
	}
}

func WithJobTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(execute ExecuteFunc, logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		execute: execute,
		logger:  logger,
		workers: 5,
		timeout: 5 * time.Minute,
		ch:      make(chan uuid.UUID, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("jobs.worker.start", "worker_id", workerID)

				for jobID := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					q.execute(ctx, jobID)
					cancel()
				}

				q.logger.Info("jobs.worker.stop", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands a job to the pool. After shutdown it is a no-op so a late
// submission does not panic on the closed channel.
func (q *Queue) Enqueue(jobID uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("jobs.queue.closed", "job_id", jobID)
		return
	}
	select {
	case q.ch <- jobID:
	default:
		q.logger.Warn("jobs.queue.full", "job_id", jobID)
		q.ch <- jobID
	}
}

// Shutdown stops intake and waits for in-flight jobs until ctx expires.
func (q *Queue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("jobs.queue.shutdown_interrupted")
	case <-done:
		q.logger.Info("jobs.queue.drained")
	}
}
