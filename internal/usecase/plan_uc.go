// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/repository"
	"travel-ai-planner/internal/infra/logging"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// JobTable is the slice of the job queue the use case depends on.
type JobTable interface {
	Submit(jobID, planID string) error
	GetStatus(jobID string) (model.GenerationJob, bool)
	Depth() int
}

// SubmissionReceipt is returned synchronously on accept; generation
// itself happens later.
type SubmissionReceipt struct {
	PlanID                string    `json:"plan_id"`
	JobID                 string    `json:"job_id"`
	EstimatedCompletionAt time.Time `json:"estimated_completion_at"`
}

// JobStatusView is what pollers see. Clients poll roughly every two
// seconds until Status is terminal.
type JobStatusView struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	PlanID       string `json:"plan_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type PlanUseCase interface {
	SubmitGeneration(ctx context.Context, userID string, req model.GenerationRequest) (*SubmissionReceipt, error)
	PollStatus(ctx context.Context, jobID string) (*JobStatusView, error)
	GetPlan(ctx context.Context, jobID string) (*model.TravelPlan, error)
}

type planUC struct {
	plans  repository.PlanRepository
	jobs   JobTable
	window time.Duration // progress estimation window
	log    *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, jobs JobTable, window time.Duration, logger *zerolog.Logger) *planUC {
	if window <= 0 {
		window = model.DefaultEstimationWindow
	}
	l := logger.With().Str("component", "PlanUseCase").Logger()
	return &planUC{plans: plans, jobs: jobs, window: window, log: &l}
}

// SubmitGeneration validates the request, persists the plan row and
// enqueues the generation job. Validation failures never reach the
// queue or the breaker.
func (u *planUC) SubmitGeneration(ctx context.Context, userID string, req model.GenerationRequest) (*SubmissionReceipt, error) {
	defer logging.TraceDuration(u.log, "PlanUseCase.SubmitGeneration")()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := &model.TravelPlan{
		ID:        uuid.NewString(),
		JobID:     ulid.Make().String(),
		UserID:    userID,
		Request:   req.Normalize(),
		Status:    model.PlanStatusDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := u.plans.Create(ctx, plan); err != nil {
		return nil, &domain.PersistenceError{Op: "create plan", Err: err}
	}

	if err := u.jobs.Submit(plan.JobID, plan.ID); err != nil {
		// The plan row stays as a draft; the submitter gets explicit
		// backpressure instead of silent queuing.
		return nil, err
	}

	ctx = logging.WithPlanID(logging.WithJobID(ctx, plan.JobID), plan.ID)
	logging.With(ctx, u.log).Info().
		Str("destination", plan.Request.Destination).
		Msg("generation job submitted")

	return &SubmissionReceipt{
		PlanID:                plan.ID,
		JobID:                 plan.JobID,
		EstimatedCompletionAt: plan.CreatedAt.Add(u.window),
	}, nil
}

// PollStatus prefers the live in-memory job record. When the job table
// no longer knows the ID (process restarted), it recomputes a
// time-based approximation from the persisted plan row, so polling
// keeps working for the lifetime of the plan.
func (u *planUC) PollStatus(ctx context.Context, jobID string) (*JobStatusView, error) {
	if job, ok := u.jobs.GetStatus(jobID); ok {
		view := &JobStatusView{
			JobID:        job.ID,
			Status:       string(job.Status),
			Progress:     job.Progress,
			ErrorMessage: job.LastError,
		}
		if job.Status == model.JobStatusCompleted {
			view.PlanID = job.PlanID
		}
		return view, nil
	}

	plan, err := u.plans.FindByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.PersistenceError{Op: "find plan by job", Err: err}
	}

	view := &JobStatusView{
		JobID:    jobID,
		Status:   jobStatusForPlan(plan.Status),
		Progress: model.EstimateProgress(plan.CreatedAt, u.window, plan.Status, time.Now()),
	}
	switch plan.Status {
	case model.PlanStatusCompleted:
		view.PlanID = plan.ID
	case model.PlanStatusFailed:
		view.ErrorMessage = plan.ErrorMessage
		if view.ErrorMessage == "" {
			view.ErrorMessage = "plan generation failed"
		}
	}
	return view, nil
}

// GetPlan fetches the full persisted plan for a job, itinerary included.
func (u *planUC) GetPlan(ctx context.Context, jobID string) (*model.TravelPlan, error) {
	return u.plans.FindByJobID(ctx, jobID)
}

func jobStatusForPlan(s model.PlanStatus) string {
	switch s {
	case model.PlanStatusCompleted:
		return string(model.JobStatusCompleted)
	case model.PlanStatusFailed:
		return string(model.JobStatusFailed)
	case model.PlanStatusProcessing:
		return string(model.JobStatusProcessing)
	default:
		return string(model.JobStatusPending)
	}
}
