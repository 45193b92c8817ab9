package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Create(ctx context.Context, plan *model.TravelPlan) error {
	const q = `
INSERT INTO travel_plans
  (id, job_id, user_id, destination, start_date, end_date, adults, children,
   budget, currency, travel_style, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`

	now := time.Now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	_, err := r.pool.Exec(ctx, q,
		plan.ID, plan.JobID, plan.UserID,
		plan.Request.Destination, plan.Request.StartDate, plan.Request.EndDate,
		plan.Request.Adults, plan.Request.Children,
		plan.Request.Budget, plan.Request.Currency, plan.Request.TravelStyle,
		string(plan.Status), plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *planRepo) FetchRequest(ctx context.Context, planID string) (*model.GenerationRequest, error) {
	const q = `
SELECT destination, start_date, end_date, adults, children, budget, currency, travel_style
FROM travel_plans
WHERE id = $1;`

	var req model.GenerationRequest
	err := r.pool.QueryRow(ctx, q, planID).Scan(
		&req.Destination, &req.StartDate, &req.EndDate,
		&req.Adults, &req.Children, &req.Budget, &req.Currency, &req.TravelStyle,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *planRepo) FindByJobID(ctx context.Context, jobID string) (*model.TravelPlan, error) {
	const q = `
SELECT id, job_id, user_id, destination, start_date, end_date, adults, children,
       budget, currency, travel_style, status, itinerary, error_message,
       created_at, updated_at
FROM travel_plans
WHERE job_id = $1;`

	var (
		plan      model.TravelPlan
		statusStr string
		itinerary []byte
		errMsg    *string
	)
	err := r.pool.QueryRow(ctx, q, jobID).Scan(
		&plan.ID, &plan.JobID, &plan.UserID,
		&plan.Request.Destination, &plan.Request.StartDate, &plan.Request.EndDate,
		&plan.Request.Adults, &plan.Request.Children,
		&plan.Request.Budget, &plan.Request.Currency, &plan.Request.TravelStyle,
		&statusStr, &itinerary, &errMsg,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	plan.Status = model.PlanStatus(statusStr)
	if errMsg != nil {
		plan.ErrorMessage = *errMsg
	}
	if len(itinerary) > 0 {
		var it model.Itinerary
		if err := json.Unmarshal(itinerary, &it); err == nil {
			plan.Itinerary = &it
		}
	}
	return &plan, nil
}

func (r *planRepo) SaveItinerary(ctx context.Context, planID string, it *model.Itinerary) error {
	b, err := json.Marshal(it)
	if err != nil {
		return err
	}
	const q = `
UPDATE travel_plans
SET itinerary = $2, updated_at = now()
WHERE id = $1;`
	tag, err := r.pool.Exec(ctx, q, planID, b)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) UpdateStatus(ctx context.Context, planID string, status model.PlanStatus) error {
	const q = `
UPDATE travel_plans
SET status = $2, updated_at = now()
WHERE id = $1;`
	tag, err := r.pool.Exec(ctx, q, planID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) RecordFailure(ctx context.Context, planID string, message string) error {
	const q = `
UPDATE travel_plans
SET status = $2, error_message = $3, updated_at = now()
WHERE id = $1;`
	tag, err := r.pool.Exec(ctx, q, planID, string(model.PlanStatusFailed), message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) FailStaleProcessing(ctx context.Context, maxAge time.Duration) (int, error) {
	const q = `
UPDATE travel_plans
SET status = $1, error_message = $2, updated_at = now()
WHERE status = $3 AND updated_at < $4;`
	tag, err := r.pool.Exec(ctx, q,
		string(model.PlanStatusFailed),
		"plan generation interrupted; please submit again",
		string(model.PlanStatusProcessing),
		time.Now().Add(-maxAge),
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
