package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/extraction"
)

func newTestTracker(t *testing.T, run RunFunc, opts ...TrackerOption) *Tracker {
	t.Helper()
	tracker := NewTracker(NewMemoryStore(), run, nil,
		[]QueueOption{WithWorkers(2), WithQueueSize(16), WithJobTimeout(5 * time.Second)},
		opts...,
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		tracker.Shutdown(ctx)
	})
	return tracker
}

func awaitTerminal(t *testing.T, tracker *Tracker, id uuid.UUID) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		var err error
		job, err = tracker.Get(context.Background(), id)
		return err == nil && job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestTrackerCompletesJob(t *testing.T) {
	run := func(_ context.Context, _ uuid.UUID, req *extraction.Request, progress func(float64)) ([]extraction.Record, error) {
		progress(constants.ProgressParamsReady)
		progress(constants.ProgressRawResult)
		return []extraction.Record{{Class: "person", Text: req.Text, Attributes: map[string]any{}}}, nil
	}
	tracker := newTestTracker(t, run)

	job, err := tracker.Submit(context.Background(), &extraction.Request{Text: "Ada", PromptDescription: "p"})
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, job.Status)
	assert.Zero(t, job.Progress)

	done := awaitTerminal(t, tracker, job.ID)
	assert.Equal(t, constants.JobStatusCompleted, done.Status)
	assert.Equal(t, constants.ProgressDone, done.Progress)
	require.Len(t, done.Results, 1)
	assert.Equal(t, "Ada", done.Results[0].Text)
	require.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.Error)
}

func TestTrackerFailedJob(t *testing.T) {
	run := func(context.Context, uuid.UUID, *extraction.Request, func(float64)) ([]extraction.Record, error) {
		return nil, fmt.Errorf("backend exploded")
	}
	tracker := newTestTracker(t, run)

	job, err := tracker.Submit(context.Background(), &extraction.Request{Text: "x", PromptDescription: "p"})
	require.NoError(t, err)

	done := awaitTerminal(t, tracker, job.ID)
	assert.Equal(t, constants.JobStatusFailed, done.Status)
	assert.Contains(t, done.Error, "backend exploded")
	assert.Empty(t, done.Results)
}

func TestTrackerGetUnknownJob(t *testing.T) {
	tracker := newTestTracker(t, func(context.Context, uuid.UUID, *extraction.Request, func(float64)) ([]extraction.Record, error) {
		return nil, nil
	})

	_, err := tracker.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTrackerSnapshotsAreStable(t *testing.T) {
	block := make(chan struct{})
	run := func(context.Context, uuid.UUID, *extraction.Request, func(float64)) ([]extraction.Record, error) {
		<-block
		return []extraction.Record{{Class: "a", Text: "b", Attributes: map[string]any{}}}, nil
	}
	tracker := newTestTracker(t, run)

	job, err := tracker.Submit(context.Background(), &extraction.Request{Text: "x", PromptDescription: "p"})
	require.NoError(t, err)

	// Reads while the worker is mid-flight must be self-consistent snapshots.
	snap1, err := tracker.Get(context.Background(), job.ID)
	require.NoError(t, err)
	snap2, err := tracker.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, snap1.ID, snap2.ID)
	assert.False(t, snap1.Status == constants.JobStatusCompleted)

	close(block)
	done := awaitTerminal(t, tracker, job.ID)
	assert.Equal(t, constants.JobStatusCompleted, done.Status)

	// Mutating a returned snapshot must not leak into the store.
	done.Results[0].Text = "mutated"
	fresh, err := tracker.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", fresh.Results[0].Text)
}

func TestTrackerSweepRemovesExpired(t *testing.T) {
	swept := make(chan uuid.UUID, 1)
	run := func(context.Context, uuid.UUID, *extraction.Request, func(float64)) ([]extraction.Record, error) {
		return nil, nil
	}
	tracker := newTestTracker(t, run,
		WithRetention(time.Nanosecond),
		WithSweepHook(func(id uuid.UUID) { swept <- id }),
	)

	job, err := tracker.Submit(context.Background(), &extraction.Request{Text: "x", PromptDescription: "p"})
	require.NoError(t, err)
	awaitTerminal(t, tracker, job.ID)

	time.Sleep(5 * time.Millisecond)
	tracker.sweep(context.Background())

	select {
	case id := <-swept:
		assert.Equal(t, job.ID, id)
	default:
		t.Fatal("sweep hook was not invoked")
	}

	_, err = tracker.Get(context.Background(), job.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTrackerSweepKeepsActiveJobs(t *testing.T) {
	block := make(chan struct{})
	run := func(context.Context, uuid.UUID, *extraction.Request, func(float64)) ([]extraction.Record, error) {
		<-block
		return nil, nil
	}
	tracker := newTestTracker(t, run, WithRetention(time.Nanosecond))

	job, err := tracker.Submit(context.Background(), &extraction.Request{Text: "x", PromptDescription: "p"})
	require.NoError(t, err)

	tracker.sweep(context.Background())
	_, err = tracker.Get(context.Background(), job.ID)
	assert.NoError(t, err, "non-terminal jobs must survive the sweep")

	close(block)
}
