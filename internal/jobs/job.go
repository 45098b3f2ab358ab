// Package jobs tracks extraction jobs through their lifecycle and runs them
// on a bounded worker pool.
package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/constants"
	"github.com/lexakit/lexa/internal/extraction"
)

// Job is one tracked extraction. Status moves pending -> processing ->
// completed|failed; terminal states never change again.
type Job struct {
	ID          uuid.UUID           `json:"id"`
	Status      constants.JobStatus `json:"status"`
	Progress    float64             `json:"progress"`
	ModelID     string              `json:"model_id,omitempty"`
	RequestID   string              `json:"request_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Results     []extraction.Record `json:"results,omitempty"`
	Error       string              `json:"error,omitempty"`

	// Request is retained until the job finishes so a worker can pick it up;
	// it is never serialized back to callers.
	Request *extraction.Request `json:"-"`
}

// NewJob builds a pending job for the given request.
func NewJob(req *extraction.Request) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		Status:    constants.JobStatusPending,
		Progress:  0,
		ModelID:   req.ModelID,
		RequestID: req.RequestID,
		CreatedAt: now,
		UpdatedAt: now,
		Request:   req,
	}
}

// Clone returns a deep-enough copy: readers get a stable snapshot even while
// a worker keeps mutating the stored job.
func (j *Job) Clone() *Job {
	cp := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.Results != nil {
		cp.Results = make([]extraction.Record, len(j.Results))
		copy(cp.Results, j.Results)
	}
	return &cp
}
