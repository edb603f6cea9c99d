package store

import "time"

// JobStatus is the lifecycle state of a Job. A Job terminates in either
// StatusCompleted or StatusFailed and is never reprocessed after that.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Job is the primary entity: one uploaded audio file's correction lifecycle.
type Job struct {
	ID                string
	UserID            string
	Status            JobStatus
	SourceAudioPath   string
	OriginalFilename  string
	Transcript        *string
	ProcessingStarted *time.Time
	ProcessingEnded   *time.Time
	ErrorMessage      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Segment is a word-level record produced by first-pass ASR. Segments are
// created in bulk once per job and are never modified afterward.
type Segment struct {
	ID         int64
	JobID      string
	Word       string
	Start      float64
	End        float64
	Confidence float64
}

// Correction is an audit record for one second-pass attempt, created once
// per attempted correction whether or not it was applied.
type Correction struct {
	ID                int64
	SegmentID         int64
	OriginalText      string
	CorrectedText     string
	TriggerConfidence float64
	AudioClipPath     *string
	ClipStart         float64
	ClipEnd           float64
	EditDistance      int
}

// QueueStats reports cheap, refreshed-on-demand counts of jobs by status,
// mirroring the teacher's worker-pool QueueStats shape for observability.
type QueueStats struct {
	Pending    int
	Processing int
	Completed  int64
	Failed     int64
}
