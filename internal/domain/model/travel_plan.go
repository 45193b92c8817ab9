package model

import "time"

type PlanStatus string

const (
	PlanStatusDraft      PlanStatus = "draft"
	PlanStatusProcessing PlanStatus = "processing"
	PlanStatusCompleted  PlanStatus = "completed"
	PlanStatusFailed     PlanStatus = "failed"
)

// TravelPlan is the persisted plan row. It outlives the in-memory job
// table: status polling falls back to it when the serving process has
// restarted mid-generation.
type TravelPlan struct {
	ID           string
	JobID        string
	UserID       string
	Request      GenerationRequest
	Status       PlanStatus
	Itinerary    *Itinerary
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
