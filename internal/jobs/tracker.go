package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/extraction"
)

// RunFunc executes one extraction request and reports progress checkpoints.
// The tracker injects it so this package never depends on backend wiring.
// The job ID is passed through so the runner can persist artifacts under it.
type RunFunc func(ctx context.Context, jobID uuid.UUID, req *extraction.Request, progress func(float64)) ([]extraction.Record, error)

// SweepHook is called with the ID of every job removed by retention so the
// owner can clean up persisted artifacts alongside the record.
type SweepHook func(id uuid.UUID)

// Tracker owns the job lifecycle: it accepts requests, queues them, drives
// status and progress transitions, and sweeps expired terminal jobs.
type Tracker struct {
	store     Store
	run       RunFunc
	logger    *slog.Logger
	retention time.Duration
	onSweep   SweepHook

	queue *Queue
}

type TrackerOption func(*Tracker)

func WithRetention(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.retention = d
		}
	}
}

func WithSweepHook(h SweepHook) TrackerOption {
	return func(t *Tracker) { t.onSweep = h }
}

func NewTracker(store Store, run RunFunc, logger *slog.Logger, queueOpts []QueueOption, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		store:     store,
		run:       run,
		logger:    logger,
		retention: 7 * 24 * time.Hour,
	}
	for _, o := range opts {
		o(t)
	}
	t.queue = NewQueue(t.execute, logger, queueOpts...)
	return t
}

// Submit registers a pending job and hands it to the worker pool. The
// returned job is a snapshot safe to serialize.
func (t *Tracker) Submit(ctx context.Context, req *extraction.Request) (*Job, error) {
	job := NewJob(req)
	if err := t.store.Put(ctx, job); err != nil {
		return nil, err
	}
	t.queue.Enqueue(job.ID)
	t.logger.Info("jobs.submit", "job_id", job.ID, "model", job.ModelID, "request_id", job.RequestID)
	return job.Clone(), nil
}

// Get returns a snapshot of the job, or ErrNotFound.
func (t *Tracker) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	return t.store.Get(ctx, id)
}

// execute is the queue worker body: one job from pending to terminal.
func (t *Tracker) execute(ctx context.Context, jobID uuid.UUID) {
	job, err := t.store.Get(ctx, jobID)
	if err != nil {
		t.logger.Error("jobs.execute.load_failed", "job_id", jobID, "error", err)
		return
	}
	if job.Status.Terminal() || job.Request == nil {
		return
	}

	job.Status = constants.JobStatusProcessing
	job.touch()
	if err := t.store.Put(ctx, job); err != nil {
		t.logger.Error("jobs.execute.persist_failed", "job_id", jobID, "error", err)
		return
	}

	progress := func(p float64) {
		job.Progress = p
		job.touch()
		if err := t.store.Put(ctx, job); err != nil {
			t.logger.Warn("jobs.progress.persist_failed", "job_id", jobID, "error", err)
		}
	}

	results, runErr := t.run(ctx, job.ID, job.Request, progress)
	now := time.Now().UTC()
	job.CompletedAt = &now
	job.Request = nil
	if runErr != nil {
		job.Status = constants.JobStatusFailed
		job.Error = runErr.Error()
		t.logger.Warn("jobs.failed", "job_id", jobID, "error", runErr)
	} else {
		job.Status = constants.JobStatusCompleted
		job.Progress = constants.ProgressDone
		job.Results = results
		t.logger.Info("jobs.completed", "job_id", jobID, "results", len(results))
	}
	job.touch()

	if err := t.store.Put(ctx, job); err != nil {
		t.logger.Error("jobs.execute.persist_failed", "job_id", jobID, "error", err)
	}
}

// StartSweeper runs the retention sweep until ctx is cancelled.
func (t *Tracker) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.sweep(ctx)
			}
		}
	}()
}

func (t *Tracker) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-t.retention)
	all, err := t.store.List(ctx)
	if err != nil {
		t.logger.Error("jobs.sweep.list_failed", "error", err)
		return
	}
	swept := 0
	for _, job := range all {
		if !expiredBefore(job, cutoff) {
			continue
		}
		if err := t.store.Delete(ctx, job.ID); err != nil {
			t.logger.Warn("jobs.sweep.delete_failed", "job_id", job.ID, "error", err)
			continue
		}
		if t.onSweep != nil {
			t.onSweep(job.ID)
		}
		swept++
	}
	if swept > 0 {
		t.logger.Info("jobs.sweep", "removed", swept)
	}
}

// Shutdown stops intake and drains in-flight jobs.
func (t *Tracker) Shutdown(ctx context.Context) {
	t.queue.Shutdown(ctx)
}

func (j *Job) touch() {
	j.UpdatedAt = time.Now().UTC()
}
