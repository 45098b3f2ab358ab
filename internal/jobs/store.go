package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/internal/common"
)

// Store persists tracked jobs. Implementations must return snapshots from
// Get and List so callers never observe in-flight mutation.
type Store interface {
	Put(ctx context.Context, job *Job) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Job, error)
	Close() error
}

// MemoryStore is the default store: a mutex-guarded map. Jobs do not survive
// a restart, which matches the polling contract (clients re-submit).
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*Job)}
}

func (s *MemoryStore) Put(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, common.NewAppError("JOB_NOT_FOUND", "extraction job not found", common.ErrNotFound)
	}
	return job.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// expiredBefore reports whether a terminal job finished long enough ago to
// be swept under the given retention window.
func expiredBefore(job *Job, cutoff time.Time) bool {
	if !job.Status.Terminal() {
		return false
	}
	ref := job.UpdatedAt
	if job.CompletedAt != nil {
		ref = *job.CompletedAt
	}
	return ref.Before(cutoff)
}
