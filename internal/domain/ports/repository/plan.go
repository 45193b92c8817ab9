package repository

import (
	"context"
	"time"

	"travel-ai-planner/internal/domain/model"
)

// PlanRepository is the persistence gateway for travel plans. The job
// queue and the status poller only ever touch storage through this
// narrow contract.
type PlanRepository interface {
	Create(ctx context.Context, plan *model.TravelPlan) error

	// FetchRequest loads the generation parameters for a plan. Returns
	// domain.ErrNotFound when the plan row is missing.
	FetchRequest(ctx context.Context, planID string) (*model.GenerationRequest, error)

	// FindByJobID supports the time-based status fallback after the
	// in-memory job table is gone.
	FindByJobID(ctx context.Context, jobID string) (*model.TravelPlan, error)

	SaveItinerary(ctx context.Context, planID string, it *model.Itinerary) error
	UpdateStatus(ctx context.Context, planID string, status model.PlanStatus) error

	// RecordFailure marks the plan failed with a human-readable message.
	RecordFailure(ctx context.Context, planID string, message string) error

	// FailStaleProcessing fails plan rows stuck in processing for longer
	// than maxAge and returns how many were touched. Used by the
	// watchdog; without it a restart mid-generation leaves rows
	// processing forever.
	FailStaleProcessing(ctx context.Context, maxAge time.Duration) (int, error)
}
