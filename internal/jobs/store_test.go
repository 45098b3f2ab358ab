package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/extraction"
)

// Both stores must satisfy the same contract.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func sampleJob() *Job {
	job := NewJob(&extraction.Request{
		Text:              "sample",
		PromptDescription: "extract",
		ModelID:           "gemini-2.5-flash",
		RequestID:         "req-1",
	})
	return job
}

func TestStoreContract(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			job := sampleJob()
			require.NoError(t, store.Put(ctx, job))

			got, err := store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, job.ID, got.ID)
			assert.Equal(t, constants.JobStatusPending, got.Status)
			require.NotNil(t, got.Request)
			assert.Equal(t, "sample", got.Request.Text)

			// Update to terminal state with results.
			now := time.Now().UTC()
			job.Status = constants.JobStatusCompleted
			job.Progress = constants.ProgressDone
			job.CompletedAt = &now
			job.Request = nil
			job.Results = []extraction.Record{
				{Class: "person", Text: "Ada", Attributes: map[string]any{"born": "1815"}},
			}
			require.NoError(t, store.Put(ctx, job))

			got, err = store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, constants.JobStatusCompleted, got.Status)
			assert.Equal(t, constants.ProgressDone, got.Progress)
			require.NotNil(t, got.CompletedAt)
			require.Len(t, got.Results, 1)
			assert.Equal(t, "Ada", got.Results[0].Text)
			assert.Equal(t, "1815", got.Results[0].Attributes["born"])

			// List returns every job ordered by creation time.
			second := sampleJob()
			second.CreatedAt = job.CreatedAt.Add(time.Second)
			second.UpdatedAt = second.CreatedAt
			require.NoError(t, store.Put(ctx, second))
			all, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, job.ID, all[0].ID)

			// Delete and verify not-found semantics.
			require.NoError(t, store.Delete(ctx, job.ID))
			_, err = store.Get(ctx, job.ID)
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}

func TestStoreGetUnknown(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), uuid.New())
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}

func TestMemoryStoreSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	job := sampleJob()
	job.Results = []extraction.Record{{Class: "a", Text: "original", Attributes: map[string]any{}}}
	require.NoError(t, store.Put(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	got.Results[0].Text = "mutated"

	fresh, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Results[0].Text)
}
