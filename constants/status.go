package constants

// JobStatus is the canonical lifecycle state for an extraction job.
type JobStatus string

// Stable values (persisted verbatim by every job store).
const (
	JobStatusPending    JobStatus = "pending"    // admitted, not yet picked up by a worker
	JobStatusProcessing JobStatus = "processing" // worker is executing the job
	JobStatusCompleted  JobStatus = "completed"  // terminal success, results persisted
	JobStatusFailed     JobStatus = "failed"     // terminal failure, error message captured
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Progress checkpoints reported while a job is processing.
const (
	ProgressParamsReady float64 = 10
	ProgressRawResult   float64 = 90
	ProgressDone        float64 = 100
)
