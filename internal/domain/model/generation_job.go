package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether polling can stop.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition enforces the one-way job lifecycle:
// pending -> processing -> {completed|failed}.
func (s JobStatus) CanTransition(to JobStatus) bool {
	switch s {
	case JobStatusPending:
		return to == JobStatusProcessing || to == JobStatusFailed
	case JobStatusProcessing:
		return to == JobStatusCompleted || to == JobStatusFailed
	default:
		return false
	}
}

// GenerationJob is the in-memory record of one queued generation. Owned
// exclusively by the job queue; mutated only by its worker loop.
type GenerationJob struct {
	ID        string
	PlanID    string
	Status    JobStatus
	Progress  int // 0..100
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewGenerationJob(id, planID string) *GenerationJob {
	now := time.Now()
	return &GenerationJob{
		ID:        id,
		PlanID:    planID,
		Status:    JobStatusPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
